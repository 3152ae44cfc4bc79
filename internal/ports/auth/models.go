package auth

// Claims representa la información extraída del token.
// Role solo se usa para el bypass de admin al editar avaliaciones ajenas.
type Claims struct {
	UserID string
	Email  string
	Role   string
}

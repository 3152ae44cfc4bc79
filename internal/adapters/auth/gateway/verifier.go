// Package gateway implementa ports/auth.AuthVerifier contra el gateway de
// identidad del backoffice (el mismo que emite los JWT del panel admin).
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cattle-dental-health/internal/platform/httpclient"
	"cattle-dental-health/internal/ports/auth"
)

var (
	ErrNotConfigured = errors.New("auth gateway: not configured")
	ErrUnauthorized  = errors.New("auth gateway: unauthorized")
	ErrUpstream      = errors.New("auth gateway: upstream error")
)

type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type Verifier struct {
	http   *httpclient.Client
	apiKey string
}

func NewVerifier(opts Options) (*Verifier, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, ErrNotConfigured
	}
	hc, err := httpclient.NewWithBaseURL(opts.BaseURL, opts.Timeout)
	if err != nil {
		return nil, fmt.Errorf("auth gateway: %w", err)
	}
	return &Verifier{http: hc, apiKey: strings.TrimSpace(opts.APIKey)}, nil
}

// Verify introspecta el token y devuelve los claims que usan los handlers
// (userId para ownership, role para el bypass de admin).
func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrUnauthorized
	}

	headers := map[string]string{
		"Authorization": "Bearer " + token,
	}
	if v.apiKey != "" {
		headers["X-Api-Key"] = v.apiKey
	}

	var out struct {
		UserID string `json:"userId"`
		Email  string `json:"email"`
		Role   string `json:"role"`
	}
	err := v.http.DoJSON(ctx, http.MethodPost, "/auth/introspect", headers,
		map[string]string{"token": token}, &out)
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) &&
			(httpErr.StatusCode == http.StatusUnauthorized || httpErr.StatusCode == http.StatusForbidden) {
			return auth.Claims{}, ErrUnauthorized
		}
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	out.UserID = strings.TrimSpace(out.UserID)
	if out.UserID == "" {
		return auth.Claims{}, fmt.Errorf("%w: respuesta sin userId", ErrUpstream)
	}

	return auth.Claims{
		UserID: out.UserID,
		Email:  strings.TrimSpace(out.Email),
		Role:   strings.TrimSpace(out.Role),
	}, nil
}

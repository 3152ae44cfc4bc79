package evaluations

// Escala ordinal de severidad. Los consumers externos comparan estos
// valores contra literales, así que los códigos numéricos son contrato.
const (
	SeverityNone     = 0
	SeverityModerate = 1
	SeveritySevere   = 2
)

// Escala de color: 0 normal, 1 alterado.
const (
	ColorNormal  = 0
	ColorAltered = 1
)

type ToothType string

const (
	ToothDeciduous ToothType = "DECIDUOUS"
	ToothPermanent ToothType = "PERMANENT"
)

// ToothCode son las ocho posiciones de incisivos evaluadas por sesión.
type ToothCode string

const (
	I1Left  ToothCode = "I1_L"
	I1Right ToothCode = "I1_R"
	I2Left  ToothCode = "I2_L"
	I2Right ToothCode = "I2_R"
	I3Left  ToothCode = "I3_L"
	I3Right ToothCode = "I3_R"
	I4Left  ToothCode = "I4_L"
	I4Right ToothCode = "I4_R"
)

// AllToothCodes en orden anatómico estable.
var AllToothCodes = []ToothCode{
	I1Left, I1Right, I2Left, I2Right,
	I3Left, I3Right, I4Left, I4Right,
}

// MoultingStage es el atajo por edad que setea tipo de diente en bloque.
type MoultingStage string

const (
	StageDL MoultingStage = "DL" // dientes de leche (0 permanentes)
	StageD2 MoultingStage = "D2" // 2 permanentes (pinzas)
	StageD4 MoultingStage = "D4" // 4 permanentes (primeros medios)
	StageD6 MoultingStage = "D6" // 6 permanentes (segundos medios)
	StageBC MoultingStage = "BC" // boca llena (todos permanentes)
)

// Status es la clasificación de severidad de una evaluación completa.
type Status string

const (
	StatusHealthy  Status = "HEALTHY"
	StatusModerate Status = "MODERATE"
	StatusCritical Status = "CRITICAL"
)

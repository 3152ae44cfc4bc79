package animals

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// ExternalRecord es el intermedio fuertemente tipado entre el payload crudo
// del provider y el reconciler. El map sin tipar nunca pasa de Normalize.
type ExternalRecord struct {
	TagCode      string
	Chip         string
	SisbovNumber string

	Category  string
	Breed     string
	CoatColor string
	Farm      string
	Location  string
	Lot       string
	Status    string

	CurrentWeight float64
	BodyScore     float64

	ExternalCategoryID      *int64
	ExternalBreedID         *int64
	ExternalCoatID          *int64
	ExternalCostCenterID    *int64
	ExternalStockLocationID *int64
	ExternalLotID           *int64

	BirthDate                *time.Time
	EntryDate                time.Time
	ExternalModificationDate *time.Time

	Photos []PhotoEntry
}

// PhotoEntry es una foto cruda del payload, ya con los fallbacks de nombre
// de campo resueltos. El reconciler decide dónde termina.
type PhotoEntry struct {
	Link      string
	Latitude  *float64
	Longitude *float64
}

// Normalize mapea el payload externo (nombres de campo con y sin acentos /
// símbolo de ordinal conviviendo) al esquema interno.
//
// Leniencia deliberada: si la fecha de entrada compuesta no parsea, cae a
// "ahora" en vez de rechazar el registro completo. El provider manda fechas
// en formatos inconsistentes y preferimos ingerir con timestamp aproximado
// antes que perder el animal.
func Normalize(data map[string]any, now func() time.Time) ExternalRecord {
	if now == nil {
		now = time.Now
	}

	entryDate := now()
	dateStr := pickString(data, "data_de_entrada_criado")
	timeStr := pickString(data, "horario_de_entrada_criado", "horário_de_entrada_criado")
	if timeStr == "" {
		timeStr = "00:00:00"
	}
	if dateStr != "" {
		if t, ok := parseDateTime(dateStr + "T" + timeStr); ok {
			entryDate = t
		}
	}

	status := pickString(data, "status")
	if status == "" {
		status = "Ativo"
	}

	return ExternalRecord{
		TagCode:      pickString(data, "n_do_Animal", "n°_do_Animal"),
		Chip:         pickString(data, "chip"),
		SisbovNumber: pickString(data, "n_do_SISBOV", "n°_do_SISBOV"),

		Category:  pickString(data, "nome_categoria_id"),
		Breed:     pickString(data, "nome_raca_id"),
		CoatColor: pickString(data, "nome_pelagem_id"),
		Farm:      pickString(data, "nome_centro_de_custo_id"),
		Location:  pickString(data, "nome_local_de_estoque_id"),
		Lot:       pickString(data, "nome_lote_id"),
		Status:    status,

		CurrentWeight: pickNumber(data, "peso_atual"),
		BodyScore:     pickNumber(data, "score"),

		ExternalCategoryID:      pickID(data, "categoria_id"),
		ExternalBreedID:         pickID(data, "raca_id"),
		ExternalCoatID:          pickID(data, "pelagem_id"),
		ExternalCostCenterID:    pickID(data, "centro_de_custo_id"),
		ExternalStockLocationID: pickID(data, "local_de_estoque_id"),
		ExternalLotID:           pickID(data, "lote_id"),

		BirthDate:                pickDate(data, "data_de_nascimento"),
		EntryDate:                entryDate,
		ExternalModificationDate: pickDate(data, "data_de_entrada_modificado"),

		Photos: extractPhotos(data["fotos"]),
	}
}

// extractPhotos acepta la colección de fotos como lista ordenada o como map
// de entradas. En la forma map, los valores se toman en orden ascendente de
// clave (el provider usa "0","1",... como claves); el foto_id embebido se
// ignora como índice.
func extractPhotos(v any) []PhotoEntry {
	var raw []any

	switch pv := v.(type) {
	case []any:
		raw = pv
	case map[string]any:
		keys := make([]string, 0, len(pv))
		for k := range pv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			raw = append(raw, pv[k])
		}
	default:
		return nil
	}

	out := make([]PhotoEntry, 0, len(raw))
	for _, item := range raw {
		foto, ok := item.(map[string]any)
		if !ok {
			continue
		}
		link := pickString(foto, "link_do_driver")
		if link == "" {
			continue
		}
		out = append(out, PhotoEntry{
			Link:      link,
			Latitude:  pickFloat(foto, "latitude", "latitude_latitude"),
			Longitude: pickFloat(foto, "longitude", "latitude_longitude"),
		})
	}
	return out
}

// pickString prueba cada clave en orden y devuelve el primer valor no vacío.
// Un valor presente pero vacío cuenta como ausente (cae al siguiente alias).
func pickString(data map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := data[k]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		case float64:
			return strconv.FormatFloat(s, 'f', -1, 64)
		case int:
			return strconv.Itoa(s)
		}
	}
	return ""
}

// pickNumber coerciona a número, 0 cuando está ausente o falsy.
func pickNumber(data map[string]any, keys ...string) float64 {
	for _, k := range keys {
		if f, ok := toFloat(data[k]); ok && f != 0 {
			return f
		}
	}
	return 0
}

func pickFloat(data map[string]any, keys ...string) *float64 {
	for _, k := range keys {
		if f, ok := toFloat(data[k]); ok {
			return &f
		}
	}
	return nil
}

func pickID(data map[string]any, keys ...string) *int64 {
	for _, k := range keys {
		if f, ok := toFloat(data[k]); ok {
			n := int64(f)
			return &n
		}
	}
	return nil
}

func pickDate(data map[string]any, keys ...string) *time.Time {
	s := pickString(data, keys...)
	if s == "" {
		return nil
	}
	if t, ok := parseDateTime(s); ok {
		return &t
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Formatos que el provider usa en la práctica. Hora local: las fechas del
// feed no traen zona.
var dateTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	time.RFC3339,
}

func parseDateTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

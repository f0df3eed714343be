package landfetcher

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// normalizeText приводит строку к NFC и убирает пробелы по краям
func normalizeText(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// getString приводит значение поля к строке. Числа форматируются без экспоненты.
// ok == false, если поле отсутствует, равно null или не приводится к строке.
func getString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return normalizeText(v), true
	case json.Number:
		return v.String(), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "", false
		}
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}

// getStringPtr - то же, что getString, но отсутствие значения дает nil
func getStringPtr(value interface{}) *string {
	if s, ok := getString(value); ok {
		return &s
	}
	return nil
}

// getFloat64Ptr приводит число или числовую строку к *float64; нечисловое значение дает nil
func getFloat64Ptr(value interface{}) *float64 {
	var f float64
	switch v := value.(type) {
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case float64:
		f = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// firstNonEmpty возвращает первое непустое строковое значение из полей raw
func firstNonEmpty(raw map[string]interface{}, keys ...string) (string, bool) {
	for _, key := range keys {
		if s, ok := getString(raw[key]); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

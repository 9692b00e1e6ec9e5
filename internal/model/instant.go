package model

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ToInstant normaliza un timestamp leído de la base. Documentos viejos del
// storefront guardan fechas como string ISO-8601, los nuevos como BSON
// datetime; ambos terminan en un *time.Time en UTC. nil o "" devuelven nil.
func ToInstant(v interface{}) (*time.Time, error) {
	var t time.Time
	switch x := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		t = x
	case *time.Time:
		if x == nil {
			return nil, nil
		}
		t = *x
	case primitive.DateTime:
		t = x.Time()
	case primitive.Timestamp:
		t = time.Unix(int64(x.T), 0)
	case string:
		if x == "" {
			return nil, nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, x)
		if err != nil {
			return nil, fmt.Errorf("timestamp %q: %w", x, err)
		}
		t = parsed
	default:
		return nil, fmt.Errorf("unsupported timestamp type %T", v)
	}
	if t.IsZero() {
		return nil, nil
	}
	t = t.UTC()
	return &t, nil
}

// FormatInstant serializa un timestamp para la API (ISO-8601) o "" si no hay.
func FormatInstant(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

package http

import (
	"encoding/json"
	"fmt"
	"strings"
)

func transactionIDString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return fmt.Sprintf("%.0f", t)
	default:
		return fmt.Sprint(t)
	}
}

// rawPayload devuelve el cuerpo del gateway como JSON embebido cuando es valido.
func rawPayload(raw string) any {
	if raw == "" {
		return nil
	}
	if json.Valid([]byte(raw)) {
		return json.RawMessage(raw)
	}
	return raw
}

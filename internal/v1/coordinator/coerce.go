package coordinator

import "fmt"

// coerceFloat accepts the loosely-typed numeric fields of InboundMessage.
// encoding/json decodes JSON numbers into float64 when the target is
// `any`, but a malformed client might send a numeric string; both are
// accepted rather than rejected at the transport boundary. Anything else
// coerces to 0, so a bad seek time seeks to 0 and a bad crossfade
// duration sets it to 0.
func coerceFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case string:
		var f float64
		if _, err := fmt.Sscanf(t, "%f", &f); err == nil {
			return f
		}
	}
	return 0
}

// coerceString accepts the loosely-typed text fields of InboundMessage.
func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

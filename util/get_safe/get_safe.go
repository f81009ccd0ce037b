package getsafe

func String(payload map[string]any, key string) string {
	if v, ok := payload[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// FirstString returns the first non-empty string value found under keys.
func FirstString(payload map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := String(payload, key); len(s) > 0 {
			return s
		}
	}
	return ""
}

func Metadata(payload map[string]any, key string) map[string]any {
	if v, ok := payload[key]; ok {
		if m, ok := v.(map[string]any); ok {
			return m
		}
	}
	return nil
}

func Float(payload map[string]any, key string) (float64, bool) {
	switch v := payload[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Without returns a shallow copy of payload minus keys.
func Without(payload map[string]any, keys ...string) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = v
	}
	for _, key := range keys {
		delete(out, key)
	}
	return out
}

package delta

// wireNames maps logical profile field names to the names the backend expects.
var wireNames = map[string]string{
	"pushRegistrationId":        "pushRegId",
	"isPushRegistrationEnabled": "regEnabled",
	"isPrimaryDevice":           "isPrimary",
	"registrationDate":          "regDate",
}

// logicalNames is the inverse of wireNames.
var logicalNames = func() map[string]string {
	out := make(map[string]string, len(wireNames))
	for logical, wire := range wireNames {
		out[wire] = logical
	}
	return out
}()

// MaskedValue replaces sensitive values in [Masked] output.
const MaskedValue = "***"

// AdjustFieldNames returns a copy of m with top-level logical field names
// renamed to their wire names. Unknown keys are kept as is.
func AdjustFieldNames(m Map) Map {
	return rename(m, wireNames)
}

// LogicalFieldNames reverses [AdjustFieldNames] for server responses.
func LogicalFieldNames(m Map) Map {
	return rename(m, logicalNames)
}

func rename(m Map, names map[string]string) Map {
	out := make(Map, len(m))
	for k, v := range m {
		if to, ok := names[k]; ok {
			k = to
		}
		out[k] = v.Clone()
	}
	return out
}

// Redact returns a copy of m without the given top-level keys.
func Redact(m Map, keys ...string) Map {
	out := m.Clone()
	if out == nil {
		return Map{}
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// Masked returns a copy of m whose values under the given top-level keys are
// replaced with [MaskedValue]. Null markers are left visible.
func Masked(m Map, keys ...string) Map {
	out := m.Clone()
	for _, k := range keys {
		if v, ok := out[k]; ok && !v.IsNull() {
			out[k] = String(MaskedValue)
		}
	}
	return out
}

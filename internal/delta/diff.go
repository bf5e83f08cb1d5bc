package delta

// Equal reports whether a and b are structurally identical.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}

	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.n == b.n
	case KindString:
		return a.s == b.s
	case KindArray:
		if len(a.a) != len(b.a) {
			return false
		}
		for i := range a.a {
			if !Equal(a.a[i], b.a[i]) {
				return false
			}
		}
		return true
	case KindMap:
		return EqualMaps(a.m, b.m)
	}

	return false
}

// EqualMaps reports whether two maps hold the same keys with equal values.
func EqualMaps(a, b Map) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !Equal(av, bv) {
			return false
		}
	}
	return true
}

// Diff returns the patch that turns base into updated.
//
// Keys equal in both maps are omitted, keys missing from updated map to
// [Null], added or changed keys carry the updated value. Nested maps are
// compared recursively and contribute only their own changes; arrays and
// values of different kinds are replaced whole.
func Diff(base, updated Map) Map {
	out := Map{}

	for k := range base {
		if _, ok := updated[k]; !ok {
			out[k] = Null()
		}
	}

	for k, uv := range updated {
		bv, ok := base[k]
		if !ok {
			out[k] = uv.Clone()
			continue
		}

		if bv.kind == KindMap && uv.kind == KindMap {
			if nested := Diff(bv.m, uv.m); len(nested) > 0 {
				out[k] = Object(nested)
			}
			continue
		}

		if !Equal(bv, uv) {
			out[k] = uv.Clone()
		}
	}

	return out
}

// Apply returns a copy of base with patch merged in. A [Null] entry removes
// the key; nested maps are merged recursively.
func Apply(base, patch Map) Map {
	out := base.Clone()
	if out == nil {
		out = Map{}
	}

	for k, pv := range patch {
		if pv.IsNull() {
			delete(out, k)
			continue
		}

		if pv.kind == KindMap {
			if bv, ok := out[k]; ok && bv.kind == KindMap {
				out[k] = Object(Apply(bv.m, pv.m))
				continue
			}
			out[k] = Object(Apply(nil, pv.m))
			continue
		}

		out[k] = pv.Clone()
	}

	return out
}

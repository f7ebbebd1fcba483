package telemetry

// Normalizer folds raw poll entries into a Record using fixed display units
type Normalizer struct {
	conv Converter
}

// NewNormalizer creates a Normalizer for the given unit system
func NewNormalizer(units UnitSystem) *Normalizer {
	return &Normalizer{conv: NewConverter(units)}
}

// Normalize builds a fresh record from resp. Entries are applied in
// response order so a later duplicate path overwrites an earlier one.
// A nil response yields the default record.
func (n *Normalizer) Normalize(resp *Response) Record {
	rec := NewRecord()
	if resp == nil {
		return rec
	}

	for _, entry := range resp.Entries {
		Extract(entry, &rec, n.conv)
	}
	rec.Raw = resp.Raw
	return rec
}

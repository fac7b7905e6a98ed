package domain

// TraitMap maps trait names to values in [0,1].
type TraitMap map[string]float64

// Clone returns an independent copy of the map.
func (m TraitMap) Clone() TraitMap {
	out := make(TraitMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// UnmarshalJSON drops non-numeric entries instead of failing the whole load.
func (m *TraitMap) UnmarshalJSON(b []byte) error {
	dec, err := decodeNumericMap(b)
	if err != nil {
		return err
	}
	*m = dec
	return nil
}

// TraitVector holds the three co-located trait maps. Baseline is mutated
// only by consolidation, Current every turn. InitialBaseline is captured
// once on the first consolidation run and never overwritten; it exists only
// for drift measurement.
type TraitVector struct {
	Baseline        TraitMap `json:"baseline"`
	Current         TraitMap `json:"current"`
	InitialBaseline TraitMap `json:"initial_baseline,omitempty"`
}

package domain

import "encoding/json"

// EmotionNeutral is the rest intensity every emotion dimension decays toward.
const EmotionNeutral = 0.5

// CoreEmotions is the fixed eight-dimension emotion set.
var CoreEmotions = []string{
	"joy", "trust", "fear", "surprise",
	"sadness", "disgust", "anger", "anticipation",
}

// EmotionVector maps emotion names to intensities in [0,1].
type EmotionVector map[string]float64

// NeutralEmotionVector returns a vector with every core emotion at rest.
func NeutralEmotionVector() EmotionVector {
	v := make(EmotionVector, len(CoreEmotions))
	for _, e := range CoreEmotions {
		v[e] = EmotionNeutral
	}
	return v
}

// Clone returns an independent copy of the vector.
func (v EmotionVector) Clone() EmotionVector {
	out := make(EmotionVector, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// UnmarshalJSON drops non-numeric entries instead of failing the whole load.
// A single corrupt field in persisted state must not block a turn.
func (v *EmotionVector) UnmarshalJSON(b []byte) error {
	m, err := decodeNumericMap(b)
	if err != nil {
		return err
	}
	*v = m
	return nil
}

// Clamp01 bounds x to [0,1].
func Clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// ClampRange bounds x to [lo,hi].
func ClampRange(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// decodeNumericMap decodes a JSON object into a float64 map, skipping
// entries whose values are not numeric.
func decodeNumericMap(b []byte) (map[string]float64, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	m := make(map[string]float64, len(raw))
	for k, rv := range raw {
		var f float64
		if err := json.Unmarshal(rv, &f); err != nil {
			continue
		}
		m[k] = f
	}
	return m, nil
}

package emotion

// VectorDims es el orden fijo de las dimensiones del vector de scores.
var VectorDims = []string{"joy", "sadness", "anger", "fear", "love", "surprise", "neutral"}

// ScoreVector proyecta un mapa label->score sobre las 7 familias.
// Labels sin familia (ej. "disgust") se ignoran; si varios caen en la misma dimension queda el mayor.
func ScoreVector(scores map[string]float64) []float32 {
	vec := make([]float32, len(VectorDims))
	index := make(map[string]int, len(VectorDims))
	for i, name := range VectorDims {
		index[name] = i
	}
	for label, s := range scores {
		dim := -1
		if c, ok := Match(label); ok {
			dim = index[c.Name]
		} else if IsNeutral(label) {
			dim = index["neutral"]
		}
		if dim < 0 {
			continue
		}
		v := float32(Clamp(s))
		if v > vec[dim] {
			vec[dim] = v
		}
	}
	return vec
}

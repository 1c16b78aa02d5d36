package domain

// RenderPoint es un punto derivado de una MoodEntry, alineado por indice con las entradas.
type RenderPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Glyph string  `json:"glyph"`
}

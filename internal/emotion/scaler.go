package emotion

import "math"

const (
	MinGlyphSize = 14
	MaxGlyphSize = 36
)

// Scale convierte un score en tamaño de glyph en pixeles, siempre dentro de [MinGlyphSize, MaxGlyphSize].
func Scale(score float64) int {
	s := Clamp(score)
	return int(math.Round(MinGlyphSize + (MaxGlyphSize-MinGlyphSize)*s))
}

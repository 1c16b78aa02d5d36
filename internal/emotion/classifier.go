package emotion

import (
	"math"
	"strings"
)

// Tier es la banda de intensidad dentro de una categoria.
type Tier int

const (
	TierLow Tier = iota
	TierMid
	TierHigh
)

const (
	lowThreshold = 0.33
	midThreshold = 0.66
)

const (
	NeutralGlyph  = "😐"
	FallbackGlyph = "❓"
)

// Category agrupa las palabras clave de una familia emocional y sus glyphs por tier.
type Category struct {
	Name     string
	Keywords []string
	Glyphs   [3]string
}

// El orden es la prioridad: la primera familia que contiene el label gana.
// Un label con "grateful" y "surprise" queda en love porque love se revisa antes.
var categories = []Category{
	{Name: "joy", Keywords: []string{"joy", "happy", "happiness"}, Glyphs: [3]string{"🙂", "😀", "🤣"}},
	{Name: "sadness", Keywords: []string{"sad", "sadness"}, Glyphs: [3]string{"😕", "😢", "😭"}},
	{Name: "anger", Keywords: []string{"anger", "angry", "rage"}, Glyphs: [3]string{"😠", "😡", "🤬"}},
	{Name: "fear", Keywords: []string{"fear", "anxious", "scared", "worried"}, Glyphs: [3]string{"😟", "😨", "😱"}},
	{Name: "love", Keywords: []string{"love", "grateful", "thankful"}, Glyphs: [3]string{"😊", "🥰", "😍"}},
	{Name: "surprise", Keywords: []string{"surprise"}, Glyphs: [3]string{"🙂", "😮", "😲"}},
}

// Categories devuelve una copia de la tabla en orden de prioridad.
func Categories() []Category {
	out := make([]Category, len(categories))
	for i, c := range categories {
		c.Keywords = append([]string(nil), c.Keywords...)
		out[i] = c
	}
	return out
}

// Clamp normaliza un score a [0,1]; NaN e infinitos cuentan como 0.
func Clamp(score float64) float64 {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0
	}
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// TierFor elige el tier para un score ya normalizado o no.
func TierFor(score float64) Tier {
	s := Clamp(score)
	switch {
	case s < lowThreshold:
		return TierLow
	case s < midThreshold:
		return TierMid
	default:
		return TierHigh
	}
}

// Match busca la familia del label sin elegir glyph.
func Match(label string) (Category, bool) {
	l := strings.ToLower(label)
	if l == "" {
		return Category{}, false
	}
	for _, c := range categories {
		for _, kw := range c.Keywords {
			if strings.Contains(l, kw) {
				return c, true
			}
		}
	}
	return Category{}, false
}

// IsNeutral compara exacto contra "neutral"; "not neutral" no cuenta.
func IsNeutral(label string) bool {
	return strings.ToLower(strings.TrimSpace(label)) == "neutral"
}

// Classify mapea (label, score) a un glyph. Es total: cualquier entrada produce un glyph no vacio.
func Classify(label string, score float64) string {
	if c, ok := Match(label); ok {
		return c.Glyphs[TierFor(score)]
	}
	if IsNeutral(label) {
		return NeutralGlyph
	}
	return FallbackGlyph
}

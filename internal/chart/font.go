package chart

import (
	"fmt"
	"os"
	"strings"

	"github.com/golang/freetype/truetype"
)

// LoadGlyphFont lee un .ttf para dibujar los emoji en PNG. El Roboto que go-chart trae por
// defecto no tiene glifos emoji: sin esta fuente el PNG pierde el emoji y solo el SVG lo conserva.
// Sirve una fuente monocroma como Noto Emoji; freetype no dibuja fuentes emoji a color.
func LoadGlyphFont(path string) (*truetype.Font, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read glyph font: %w", err)
	}
	font, err := truetype.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse glyph font %s: %w", path, err)
	}
	return font, nil
}

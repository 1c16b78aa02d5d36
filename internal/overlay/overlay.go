// Package overlay dibuja glyphs sobre los puntos ya posicionados por un motor de graficos externo.
// No conoce la semantica emocional: solo lee glyphs y scores precalculados.
package overlay

import "mood-journal/internal/emotion"

// Align es la alineacion horizontal del texto.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Baseline es la referencia vertical del texto.
type Baseline int

const (
	BaselineAlphabetic Baseline = iota
	BaselineMiddle
	BaselineTop
)

// Point es la coordenada en pantalla de un punto del dataset.
// Valid es false cuando el motor todavia no lo posiciono.
type Point struct {
	X     float64
	Y     float64
	Valid bool
}

// PointProvider expone las coordenadas calculadas por el layout del motor, en el orden de los datos.
type PointProvider interface {
	Points() []Point
}

// PointsFunc adapta una funcion a PointProvider.
type PointsFunc func() []Point

func (f PointsFunc) Points() []Point { return f() }

// Surface es la superficie 2D compartida con el motor.
type Surface interface {
	Save()
	Restore()
	SetFont(size float64)
	SetTextAlign(a Align)
	SetTextBaseline(b Baseline)
	FillText(text string, x, y float64)
}

// Snapshot es la copia inmutable de atributos por punto que recibe el renderer.
type Snapshot struct {
	glyphs []string
	scores []float64
}

// NewSnapshot copia los slices; nil se conserva como nil para que Draw no dibuje.
func NewSnapshot(glyphs []string, scores []float64) Snapshot {
	var s Snapshot
	if glyphs != nil {
		s.glyphs = append(make([]string, 0, len(glyphs)), glyphs...)
	}
	if scores != nil {
		s.scores = append(make([]float64, 0, len(scores)), scores...)
	}
	return s
}

func (s Snapshot) Len() int { return len(s.glyphs) }

// Glyph devuelve el glyph del indice i o el fallback si no existe.
func (s Snapshot) Glyph(i int) string {
	if i < 0 || i >= len(s.glyphs) || s.glyphs[i] == "" {
		return emotion.FallbackGlyph
	}
	return s.glyphs[i]
}

func (s Snapshot) score(i int) float64 {
	if i < 0 || i >= len(s.scores) {
		return 0
	}
	return s.scores[i]
}

// Renderer dibuja un glyph centrado en cada punto.
type Renderer struct {
	snap Snapshot
}

func NewRenderer(snap Snapshot) *Renderer {
	return &Renderer{snap: snap}
}

// Draw corre despues del pase de dibujo del dataset. No modifica sus entradas.
func (r *Renderer) Draw(surface Surface, provider PointProvider) {
	if r == nil || surface == nil || provider == nil {
		return
	}
	if r.snap.glyphs == nil || r.snap.scores == nil {
		return
	}
	points := provider.Points()
	if points == nil {
		return
	}

	surface.Save()
	defer surface.Restore()
	for i, pt := range points {
		if !pt.Valid {
			continue
		}
		surface.SetFont(float64(emotion.Scale(r.snap.score(i))))
		surface.SetTextAlign(AlignCenter)
		surface.SetTextBaseline(BaselineMiddle)
		surface.FillText(r.snap.Glyph(i), pt.X, pt.Y)
	}
}

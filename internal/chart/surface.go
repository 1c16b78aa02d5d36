package chart

import (
	gochart "github.com/wcharczuk/go-chart/v2"

	"mood-journal/internal/overlay"
)

type surfaceState struct {
	size     float64
	align    overlay.Align
	baseline overlay.Baseline
}

// rendererSurface adapta un gochart.Renderer a overlay.Surface.
// go-chart no tiene save/restore ni alineacion de texto, asi que se llevan aca.
type rendererSurface struct {
	r     gochart.Renderer
	state surfaceState
	stack []surfaceState
}

func newRendererSurface(r gochart.Renderer) *rendererSurface {
	return &rendererSurface{r: r, state: surfaceState{size: 10}}
}

func (s *rendererSurface) Save() {
	s.stack = append(s.stack, s.state)
}

func (s *rendererSurface) Restore() {
	if len(s.stack) == 0 {
		return
	}
	s.state = s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	s.r.SetFontSize(s.state.size)
}

func (s *rendererSurface) SetFont(size float64) {
	s.state.size = size
	s.r.SetFontSize(size)
}

func (s *rendererSurface) SetTextAlign(a overlay.Align) { s.state.align = a }

func (s *rendererSurface) SetTextBaseline(b overlay.Baseline) { s.state.baseline = b }

func (s *rendererSurface) FillText(text string, x, y float64) {
	box := s.r.MeasureText(text)
	left := int(x)
	switch s.state.align {
	case overlay.AlignCenter:
		left -= box.Width() / 2
	case overlay.AlignRight:
		left -= box.Width()
	}
	baseline := int(y)
	switch s.state.baseline {
	case overlay.BaselineMiddle:
		baseline += box.Height() / 2
	case overlay.BaselineTop:
		baseline += box.Height()
	}
	s.r.Text(text, left, baseline)
}

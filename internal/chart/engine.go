// Package chart define el contrato con el motor de graficos y su implementacion sobre go-chart.
package chart

import (
	"errors"
	"io"

	"mood-journal/internal/overlay"
)

var (
	ErrRenderTargetMissing = errors.New("chart: render target missing")
	ErrInstanceDestroyed   = errors.New("chart: instance destroyed")
	ErrInvalidSpec         = errors.New("chart: invalid spec")
)

// PostDrawHook corre despues del pase de dibujo nativo del dataset en cada frame.
type PostDrawHook func(surface overlay.Surface, points overlay.PointProvider)

// TooltipFunc formatea el tooltip del punto index con su valor.
type TooltipFunc func(index int, value float64) string

// Spec describe una instancia de grafico.
type Spec struct {
	Title  string
	Labels []string
	Values []float64
	YMin   float64
	YMax   float64
	Width  int
	Height int

	PostDraw PostDrawHook
	Tooltip  TooltipFunc
}

func (s Spec) validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return ErrRenderTargetMissing
	}
	if len(s.Labels) != len(s.Values) {
		return ErrInvalidSpec
	}
	if s.YMax <= s.YMin {
		return ErrInvalidSpec
	}
	return nil
}

// Engine construye instancias de grafico.
type Engine interface {
	New(spec Spec) (Instance, error)
}

// Instance es un grafico vivo. Destroy desengancha el hook; despues de eso Render falla.
type Instance interface {
	Render(w io.Writer) error
	Tooltip(index int) string
	Points() []overlay.Point
	ContentType() string
	Destroy()
	Destroyed() bool
}

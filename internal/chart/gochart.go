package chart

import (
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/golang/freetype/truetype"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"mood-journal/internal/overlay"
)

// Format es el formato de salida del motor go-chart.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// GoChartEngine implementa Engine con github.com/wcharczuk/go-chart/v2.
// GlyphFont es opcional y solo se usa para los emoji del overlay; ver LoadGlyphFont.
type GoChartEngine struct {
	Format    Format
	GlyphFont *truetype.Font
}

func NewGoChartEngine(format Format) *GoChartEngine {
	if format != FormatPNG {
		format = FormatSVG
	}
	return &GoChartEngine{Format: format}
}

func (e *GoChartEngine) New(spec Spec) (Instance, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}
	inst := &goChartInstance{
		format:    e.Format,
		glyphFont: e.GlyphFont,
		spec:      spec,
		values:    append([]float64(nil), spec.Values...),
		hook:      spec.PostDraw,
		tooltip:   spec.Tooltip,
	}
	inst.xRange, inst.yRange = inst.ranges()
	return inst, nil
}

type goChartInstance struct {
	mu        sync.Mutex
	format    Format
	glyphFont *truetype.Font
	spec      Spec
	values    []float64
	hook      PostDrawHook
	tooltip   TooltipFunc
	destroyed bool

	xRange  *gochart.ContinuousRange
	yRange  *gochart.ContinuousRange
	canvas  gochart.Box
	laidOut bool
}

// ranges fija X en indices con medio punto de margen; con un solo punto go-chart rechaza un rango de ancho cero.
func (i *goChartInstance) ranges() (*gochart.ContinuousRange, *gochart.ContinuousRange) {
	n := len(i.values)
	x := &gochart.ContinuousRange{Min: -0.5, Max: float64(n) - 0.5}
	if n == 0 {
		x = &gochart.ContinuousRange{Min: 0, Max: 1}
	}
	y := &gochart.ContinuousRange{Min: i.spec.YMin, Max: i.spec.YMax}
	return x, y
}

func (i *goChartInstance) build() gochart.Chart {
	n := len(i.values)
	xs := make([]float64, n)
	for k := range xs {
		xs[k] = float64(k)
	}

	xTicks := []gochart.Tick{{Value: i.xRange.Min, Label: ""}}
	for k, label := range i.spec.Labels {
		xTicks = append(xTicks, gochart.Tick{Value: float64(k), Label: label})
	}
	xTicks = append(xTicks, gochart.Tick{Value: i.xRange.Max, Label: ""})

	yTicks := make([]gochart.Tick, 0, 5)
	for k := 0; k <= 4; k++ {
		v := i.spec.YMin + (i.spec.YMax-i.spec.YMin)*float64(k)/4
		yTicks = append(yTicks, gochart.Tick{Value: v, Label: fmt.Sprintf("%.2f", v)})
	}

	var series gochart.Series
	if n == 0 {
		// go-chart exige al menos una serie visible; un trazo transparente mantiene los ejes.
		series = gochart.ContinuousSeries{
			Name:    "empty",
			XValues: []float64{0, 1},
			YValues: []float64{i.spec.YMin, i.spec.YMin},
			Style:   gochart.Style{StrokeColor: drawing.ColorTransparent},
		}
	} else {
		series = gochart.ContinuousSeries{
			Name:    i.spec.Title,
			XValues: xs,
			YValues: append([]float64(nil), i.values...),
			Style: gochart.Style{
				StrokeColor: drawing.ColorFromHex("6366f1"),
				StrokeWidth: 2,
			},
		}
	}

	return gochart.Chart{
		Title:      i.spec.Title,
		Width:      i.spec.Width,
		Height:     i.spec.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 20, Right: 30, Bottom: 20}},
		XAxis:      gochart.XAxis{Range: i.xRange, Ticks: xTicks},
		YAxis:      gochart.YAxis{Name: "Intensity", Range: i.yRange, Ticks: yTicks},
		Series:     []gochart.Series{series},
		Elements:   []gochart.Renderable{i.afterDatasetsDraw},
	}
}

// afterDatasetsDraw se registra como Element: go-chart lo llama despues de dibujar las series,
// con los rangos ya posicionados sobre el canvas.
func (i *goChartInstance) afterDatasetsDraw(r gochart.Renderer, canvasBox gochart.Box, defaults gochart.Style) {
	i.canvas = canvasBox
	i.laidOut = true
	if i.hook == nil || i.destroyed {
		return
	}
	if i.glyphFont != nil {
		r.SetFont(i.glyphFont)
	} else if f := defaults.GetFont(); f != nil {
		r.SetFont(f)
	}
	r.SetFontColor(drawing.ColorBlack)
	i.hook(newRendererSurface(r), overlay.PointsFunc(i.pointsLocked))
}

func (i *goChartInstance) Render(w io.Writer) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.destroyed {
		return ErrInstanceDestroyed
	}
	provider := gochart.SVG
	if i.format == FormatPNG {
		provider = gochart.PNG
	}
	c := i.build()
	if err := c.Render(provider, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func (i *goChartInstance) Points() []overlay.Point {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.pointsLocked()
}

func (i *goChartInstance) pointsLocked() []overlay.Point {
	points := make([]overlay.Point, len(i.values))
	if !i.laidOut || i.xRange.Domain <= 0 || i.yRange.Domain <= 0 {
		return points
	}
	for k, v := range i.values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		points[k] = overlay.Point{
			X:     float64(i.canvas.Left + i.xRange.Translate(float64(k))),
			Y:     float64(i.canvas.Bottom - i.yRange.Translate(v)),
			Valid: true,
		}
	}
	return points
}

func (i *goChartInstance) Tooltip(index int) string {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.destroyed || i.tooltip == nil || index < 0 || index >= len(i.values) {
		return ""
	}
	return i.tooltip(index, i.values[index])
}

func (i *goChartInstance) ContentType() string {
	if i.format == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

func (i *goChartInstance) Destroy() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.destroyed = true
	i.hook = nil
	i.tooltip = nil
}

func (i *goChartInstance) Destroyed() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.destroyed
}

// Package trend arma el grafico de tendencia emocional: trae entradas, deriva glyphs y valores,
// y reemplaza la instancia del grafico con el overlay enganchado.
package trend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"mood-journal/internal/chart"
	"mood-journal/internal/domain"
	"mood-journal/internal/emotion"
	"mood-journal/internal/overlay"
)

// State es el estado del pipeline. No hay estado de error: un fallo deja el ultimo estado estable.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateRendered
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateRendered:
		return "rendered"
	default:
		return "idle"
	}
}

var (
	ErrDataFetch       = errors.New("trend: data fetch failed")
	ErrRefreshInFlight = errors.New("trend: refresh already in progress")
	ErrNotRendered     = errors.New("trend: nothing rendered yet")
)

const (
	DefaultTitle       = "Top Emotion Score Over Time"
	DefaultPlaceholder = "Last: no entries yet"
	labelLayout        = "2006-01-02 15:04"
)

// EntrySource devuelve las entradas ordenadas, la mas reciente al final.
type EntrySource interface {
	ListEntries(ctx context.Context) ([]domain.MoodEntry, error)
}

// Options configura el grafico. Width o Height en cero equivalen a no tener superficie de dibujo.
type Options struct {
	Title       string
	Width       int
	Height      int
	Location    *time.Location
	Placeholder string
}

// Pipeline es dueño exclusivo de la instancia de grafico; nunca hay mas de una viva.
type Pipeline struct {
	source EntrySource
	engine chart.Engine
	opts   Options
	logger *zap.Logger

	inFlight atomic.Bool

	mu       sync.Mutex
	state    State
	instance chart.Instance
	summary  string
}

func NewPipeline(source EntrySource, engine chart.Engine, opts Options, logger *zap.Logger) *Pipeline {
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Placeholder == "" {
		opts.Placeholder = DefaultPlaceholder
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		source:  source,
		engine:  engine,
		opts:    opts,
		logger:  logger,
		summary: opts.Placeholder,
	}
}

// Refresh trae las entradas y reconstruye el grafico. Una llamada concurrente se rechaza con ErrRefreshInFlight.
func (p *Pipeline) Refresh(ctx context.Context) ([]domain.RenderPoint, error) {
	if !p.inFlight.CompareAndSwap(false, true) {
		return nil, ErrRefreshInFlight
	}
	defer p.inFlight.Store(false)

	prev := p.transition(StateLoading)

	entries, err := p.source.ListEntries(ctx)
	if err != nil {
		p.transition(prev)
		p.logger.Warn("trend fetch failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrDataFetch, err)
	}
	// El orden de la fuente se respeta: el punto i es la entrada i.
	points, scores := p.derive(entries)

	if p.engine == nil || p.opts.Width <= 0 || p.opts.Height <= 0 {
		p.transition(prev)
		p.logger.Debug("trend render target missing; skipping chart", zap.Int("points", len(points)))
		return points, nil
	}

	if err := p.replaceInstance(points, scores); err != nil {
		return nil, err
	}

	p.mu.Lock()
	if len(entries) > 0 {
		last := entries[len(entries)-1]
		p.summary = FormatSummary(points[len(points)-1].Glyph, last.TopEmotion, last.TopScore)
	}
	p.state = StateRendered
	p.mu.Unlock()

	p.logger.Debug("trend refreshed", zap.Int("points", len(points)))
	return points, nil
}

func (p *Pipeline) derive(entries []domain.MoodEntry) ([]domain.RenderPoint, []float64) {
	points := make([]domain.RenderPoint, len(entries))
	scores := make([]float64, len(entries))
	for i, e := range entries {
		score := emotion.Clamp(e.TopScore)
		scores[i] = score
		points[i] = domain.RenderPoint{
			Label: p.label(e.CreatedAt),
			Value: score,
			Glyph: emotion.Classify(e.TopEmotion, score),
		}
	}
	return points, scores
}

func (p *Pipeline) label(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(p.opts.Location).Format(labelLayout)
}

// replaceInstance destruye la instancia previa antes de crear la nueva y dibuja el primer frame.
func (p *Pipeline) replaceInstance(points []domain.RenderPoint, scores []float64) error {
	labels := make([]string, len(points))
	values := make([]float64, len(points))
	glyphs := make([]string, len(points))
	for i, pt := range points {
		labels[i] = pt.Label
		values[i] = pt.Value
		glyphs[i] = pt.Glyph
	}

	snap := overlay.NewSnapshot(glyphs, scores)
	renderer := overlay.NewRenderer(snap)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.instance != nil {
		p.instance.Destroy()
		p.instance = nil
	}

	inst, err := p.engine.New(chart.Spec{
		Title:    p.opts.Title,
		Labels:   labels,
		Values:   values,
		YMin:     0,
		YMax:     1,
		Width:    p.opts.Width,
		Height:   p.opts.Height,
		PostDraw: renderer.Draw,
		Tooltip: func(index int, value float64) string {
			return FormatTooltip(snap.Glyph(index), value)
		},
	})
	if err != nil {
		p.state = StateIdle
		return fmt.Errorf("build chart: %w", err)
	}
	if err := inst.Render(io.Discard); err != nil {
		inst.Destroy()
		p.state = StateIdle
		return fmt.Errorf("first draw: %w", err)
	}
	p.instance = inst
	return nil
}

func (p *Pipeline) transition(next State) State {
	p.mu.Lock()
	defer p.mu.Unlock()
	prev := p.state
	p.state = next
	return prev
}

// Render dibuja el frame actual en w.
func (p *Pipeline) Render(w io.Writer) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.instance == nil {
		return ErrNotRendered
	}
	return p.instance.Render(w)
}

// ContentType del frame que produce Render; vacio si no hay grafico.
func (p *Pipeline) ContentType() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.instance == nil {
		return ""
	}
	return p.instance.ContentType()
}

// Tooltips devuelve el texto de tooltip de cada punto del grafico vivo.
func (p *Pipeline) Tooltips() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.instance == nil {
		return nil
	}
	points := p.instance.Points()
	out := make([]string, len(points))
	for i := range points {
		out[i] = p.instance.Tooltip(i)
	}
	return out
}

// Summary es el texto "Last: ..." de la ultima entrada.
func (p *Pipeline) Summary() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.summary
}

func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Close libera la instancia viva.
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.instance != nil {
		p.instance.Destroy()
		p.instance = nil
	}
	p.state = StateIdle
}

func FormatTooltip(glyph string, value float64) string {
	return fmt.Sprintf("%s %.1f%%", glyph, emotion.Clamp(value)*100)
}

func FormatSummary(glyph, label string, score float64) string {
	return fmt.Sprintf("Last: %s %s (%.1f%%)", glyph, label, emotion.Clamp(score)*100)
}

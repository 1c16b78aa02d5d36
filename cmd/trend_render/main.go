package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mood-journal/internal/chart"
	"mood-journal/internal/trend"
)

type renderOptions struct {
	apiURL   string
	token    string
	out      string
	format   string
	width    int
	height   int
	font     string
	timezone string
	watch    time.Duration
	verbose  bool
}

var opts renderOptions

var rootCmd = &cobra.Command{
	Use:   "trend_render",
	Short: "Render the mood trend chart of a journal to SVG or PNG",
	Long: `Fetch the entries of a journal from a running mood-journal API and render
the "Top Emotion Score Over Time" chart with one emoji per entry.

Examples:
  # Render once to trend.svg
  trend_render --api http://localhost:8080 --token $MJ_TOKEN

  # Re-render a PNG every 30 seconds until interrupted
  trend_render --format png --out trend.png --watch 30s`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger, err := newLogger(opts.verbose)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return run(ctx, opts, logger)
	},
}

func init() {
	_ = godotenv.Load()

	flags := rootCmd.Flags()
	flags.StringVar(&opts.apiURL, "api", envOr("MJ_API_URL", "http://localhost:8080"), "base URL of the mood-journal API")
	flags.StringVar(&opts.token, "token", os.Getenv("MJ_TOKEN"), "access token of the journal session")
	flags.StringVarP(&opts.out, "out", "o", "trend.svg", "output file")
	flags.StringVarP(&opts.format, "format", "f", "svg", "output format: svg or png")
	flags.IntVar(&opts.width, "width", 960, "chart width in pixels")
	flags.IntVar(&opts.height, "height", 400, "chart height in pixels")
	flags.StringVar(&opts.font, "glyph-font", os.Getenv("CHART_GLYPH_FONT"), "TrueType font with emoji glyphs for PNG output")
	flags.StringVar(&opts.timezone, "tz", "UTC", "IANA time zone for the x-axis labels")
	flags.DurationVarP(&opts.watch, "watch", "w", 0, "re-render on this interval until interrupted (0 renders once)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseFormat(raw string) (chart.Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "svg":
		return chart.FormatSVG, nil
	case "png":
		return chart.FormatPNG, nil
	default:
		return "", fmt.Errorf("unsupported format %q", raw)
	}
}

// run usa un unico Pipeline para todas las iteraciones de --watch.
func run(ctx context.Context, o renderOptions, logger *zap.Logger) error {
	format, err := parseFormat(o.format)
	if err != nil {
		return err
	}
	loc, err := time.LoadLocation(o.timezone)
	if err != nil {
		return fmt.Errorf("load time zone: %w", err)
	}

	engine := chart.NewGoChartEngine(format)
	if engine.GlyphFont, err = chart.LoadGlyphFont(o.font); err != nil {
		return err
	}
	if format == chart.FormatPNG && engine.GlyphFont == nil {
		logger.Warn("no --glyph-font given; PNG output will not show the emoji")
	}

	source := trend.NewHTTPSource(o.apiURL, o.token, &http.Client{Timeout: 15 * time.Second})
	p := trend.NewPipeline(source, engine, trend.Options{
		Width:    o.width,
		Height:   o.height,
		Location: loc,
	}, logger)
	defer p.Close()

	if err := renderOnce(ctx, p, o.out, logger); err != nil {
		if o.watch <= 0 {
			return err
		}
		logger.Warn("initial render failed", zap.Error(err))
	}
	if o.watch <= 0 {
		return nil
	}

	ticker := time.NewTicker(o.watch)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("watch stopped")
			return nil
		case <-ticker.C:
			if err := renderOnce(ctx, p, o.out, logger); err != nil {
				logger.Warn("render failed; keeping previous frame", zap.Error(err))
			}
		}
	}
}

func renderOnce(ctx context.Context, p *trend.Pipeline, out string, logger *zap.Logger) error {
	points, err := p.Refresh(ctx)
	if err != nil {
		return err
	}
	if err := writeFrame(p, out); err != nil {
		return err
	}
	logger.Info("trend rendered",
		zap.String("out", out),
		zap.Int("points", len(points)),
		zap.String("summary", p.Summary()),
	)
	return nil
}

// writeFrame escribe en un temporal y renombra para no dejar archivos a medias.
func writeFrame(p *trend.Pipeline, out string) error {
	dir := filepath.Dir(out)
	tmp, err := os.CreateTemp(dir, ".trend-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	renderErr := p.Render(tmp)
	closeErr := tmp.Close()
	if err := errors.Join(renderErr, closeErr); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("render frame: %w", err)
	}
	if err := os.Rename(tmpName, out); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename frame: %w", err)
	}
	return nil
}

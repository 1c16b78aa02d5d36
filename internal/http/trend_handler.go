package http

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/golang/freetype/truetype"
	"go.uber.org/zap"

	"mood-journal/internal/chart"
	"mood-journal/internal/trend"
)

// TrendHandler arma un Pipeline por request sobre las entradas del usuario.
type TrendHandler struct {
	logger    *zap.Logger
	entries   trend.EntryLister
	width     int
	height    int
	glyphFont *truetype.Font
}

func NewTrendHandler(logger *zap.Logger, entries trend.EntryLister, width, height int) *TrendHandler {
	return &TrendHandler{
		logger:  logger,
		entries: entries,
		width:   width,
		height:  height,
	}
}

// WithGlyphFont fija la fuente de los emoji en /trend.png.
func (h *TrendHandler) WithGlyphFont(font *truetype.Font) *TrendHandler {
	h.glyphFont = font
	return h
}

func (h *TrendHandler) pipeline(userID string, format chart.Format) *trend.Pipeline {
	engine := chart.NewGoChartEngine(format)
	engine.GlyphFont = h.glyphFont
	return trend.NewPipeline(
		trend.NewRepositorySource(h.entries, userID),
		engine,
		trend.Options{Width: h.width, Height: h.height},
		h.logger.With(zap.String("user_id", userID)),
	)
}

// Trend maneja GET /trend: puntos, tooltips y resumen en JSON.
func (h *TrendHandler) Trend(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	p := h.pipeline(userID, chart.FormatSVG)
	defer p.Close()

	points, err := p.Refresh(c.Request.Context())
	if err != nil {
		h.refreshFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"points":   points,
		"tooltips": p.Tooltips(),
		"summary":  p.Summary(),
	})
}

// SVG maneja GET /trend.svg.
func (h *TrendHandler) SVG(c *gin.Context) {
	h.image(c, chart.FormatSVG)
}

// PNG maneja GET /trend.png.
func (h *TrendHandler) PNG(c *gin.Context) {
	h.image(c, chart.FormatPNG)
}

func (h *TrendHandler) image(c *gin.Context, format chart.Format) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	p := h.pipeline(userID, format)
	defer p.Close()

	if _, err := p.Refresh(c.Request.Context()); err != nil {
		h.refreshFailed(c, err)
		return
	}

	var buf bytes.Buffer
	if err := p.Render(&buf); err != nil {
		if errors.Is(err, trend.ErrNotRendered) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "chart unavailable"})
			return
		}
		h.logger.Error("trend render failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not render chart"})
		return
	}
	contentType := p.ContentType()
	c.Header("Content-Type", contentType)
	// El resumen lleva emoji y la etiqueta del usuario; se manda percent-encoded.
	c.Header("X-Trend-Summary", url.PathEscape(p.Summary()))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (h *TrendHandler) refreshFailed(c *gin.Context, err error) {
	if errors.Is(err, trend.ErrDataFetch) {
		h.logger.Error("trend fetch failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": "could not load entries"})
		return
	}
	h.logger.Error("trend refresh failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not build trend"})
}

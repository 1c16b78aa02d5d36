package http

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mood-journal/internal/service"
)

// EntryHandler expone alta, listado, similares y export de entradas.
type EntryHandler struct {
	logger    *zap.Logger
	entrySvc  *service.EntryService
	exportSvc *service.ExportService
}

func NewEntryHandler(logger *zap.Logger, entrySvc *service.EntryService, exportSvc *service.ExportService) *EntryHandler {
	return &EntryHandler{
		logger:    logger,
		entrySvc:  entrySvc,
		exportSvc: exportSvc,
	}
}

// Create maneja POST /entries.
func (h *EntryHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create entry request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request"})
		return
	}

	entry, err := h.entrySvc.Create(c.Request.Context(), userID, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyText):
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Text is required"})
		case errors.Is(err, service.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"ok": false, "error": "too many requests"})
		default:
			h.logger.Error("create entry failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not save entry"})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "entry": entry})
}

// List maneja GET /entries, en orden ascendente por created_at.
func (h *EntryHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	entries, err := h.entrySvc.List(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("list entries failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not list entries"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "entries": entries})
}

// Similar maneja GET /entries/:id/similar?k=.
func (h *EntryHandler) Similar(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid entry id"})
		return
	}
	k, _ := strconv.Atoi(c.DefaultQuery("k", "5"))

	entries, err := h.entrySvc.Similar(c.Request.Context(), userID, id, k)
	if err != nil {
		if errors.Is(err, service.ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "entry not found"})
			return
		}
		h.logger.Error("similar entries failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not load similar entries"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "entries": entries})
}

// Export maneja GET /export.csv; solo PRO.
func (h *EntryHandler) Export(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.exportSvc.Authorize(c.Request.Context(), userID); err != nil {
		switch {
		case errors.Is(err, service.ErrProRequired):
			c.JSON(http.StatusPaymentRequired, gin.H{"ok": false, "error": "PRO required"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "user not found"})
		default:
			h.logger.Error("export authorize failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not export"})
		}
		return
	}

	var buf bytes.Buffer
	if err := h.exportSvc.WriteCSV(c.Request.Context(), userID, &buf); err != nil {
		h.logger.Error("export csv failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not export"})
		return
	}
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="mood_journal_export.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

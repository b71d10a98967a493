package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rickgao/shoplog/internal/export"
	"github.com/rickgao/shoplog/internal/index"
	"github.com/rickgao/shoplog/internal/ingest"
	"github.com/rickgao/shoplog/internal/model"
	"github.com/rickgao/shoplog/internal/parser"
	"github.com/rickgao/shoplog/internal/validate"
)

const uploaderHeader = "X-Uploader-ID"

// Response messages.
const (
	msgSaved       = "Inventory saved successfully"
	msgSaveFailed  = "Failed to save inventory"
	msgNoRecords   = "No shop logs can be found, are you sure you've uploaded the correct logs?"
	msgValidation  = "validation failed"
	msgBusy        = "index busy, try again"
	msgUnavailable = "server busy, try again"
	msgTooLarge    = "request body too large"
)

// Export content types.
const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func (s *Server) health(c *gin.Context) {
	if s.deps.Health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Health.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) uploadInventory(c *gin.Context) {
	var records []model.ShopRecord
	if err := json.NewDecoder(c.Request.Body).Decode(&records); err != nil {
		if isTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": msgTooLarge})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
		return
	}
	s.ingest(c, records)
}

func (s *Server) uploadLog(c *gin.Context) {
	res, ok := s.parseBody(c)
	if !ok {
		return
	}
	s.ingest(c, res.Records)
}

func (s *Server) ingest(c *gin.Context, records []model.ShopRecord) {
	uploader := c.GetHeader(uploaderHeader)
	if uploader == "" {
		uploader = s.cfg.DefaultUploader
	}

	receipt, err := s.deps.Ingester.Ingest(c.Request.Context(), ingest.Upload{
		Uploader: uploader,
		Records:  records,
	})
	if err != nil {
		s.writeIngestError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": msgSaved, "receipt": receipt})
}

func (s *Server) writeIngestError(c *gin.Context, err error) {
	var rejected *validate.RejectedError
	switch {
	case errors.As(err, &rejected):
		c.JSON(http.StatusBadRequest, gin.H{"error": msgValidation, "errors": validate.Messages(rejected.Errors)})
	case errors.Is(err, ingest.ErrNoRecords):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": msgNoRecords})
	case errors.Is(err, index.ErrVersionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": msgBusy})
	case errors.Is(err, ingest.ErrQueueFull), errors.Is(err, ingest.ErrQueueStopped):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": msgUnavailable})
	default:
		s.logger.Error("ingest failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgSaveFailed})
	}
}

// isTooLarge reports whether err came from the body or decompression limit.
func isTooLarge(err error) bool {
	var tooBig *http.MaxBytesError
	return errors.As(err, &tooBig) || errors.Is(err, parser.ErrTooLarge)
}

// parseBody reads a raw log (gzip is detected) and parses it. It writes
// the error response itself and returns false when there is nothing to
// work with.
func (s *Server) parseBody(c *gin.Context) (parser.Result, bool) {
	text, err := parser.ReadAll(c.Request.Body, s.cfg.MaxBodyBytes)
	if err != nil {
		if isTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": msgTooLarge})
			return parser.Result{}, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable log: " + err.Error()})
		return parser.Result{}, false
	}

	res := parser.ParseLog(text, s.cfg.ChatMarker)
	if len(res.Orphans) > 0 {
		s.logger.Debug("log had orphan field lines", "orphans", len(res.Orphans))
	}
	if len(res.Records) == 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": msgNoRecords})
		return parser.Result{}, false
	}
	return res, true
}

func (s *Server) convert(c *gin.Context) {
	format := c.DefaultQuery("format", "json")
	switch format {
	case "json", "csv", "xlsx":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown format %q, want json, csv or xlsx", format)})
		return
	}

	res, ok := s.parseBody(c)
	if !ok {
		return
	}

	checked := validate.Batch(res.Records)
	if !checked.OK() {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgValidation, "errors": validate.Messages(checked.Errors)})
		return
	}

	var (
		buf         bytes.Buffer
		err         error
		contentType string
	)
	switch format {
	case "json":
		contentType = "application/json; charset=utf-8"
		err = export.WriteJSON(&buf, checked.Value)
	case "csv":
		contentType = contentTypeCSV
		err = export.WriteCSV(&buf, export.FlattenAll(checked.Value))
	case "xlsx":
		contentType = contentTypeXLSX
		err = export.WriteXLSX(&buf, export.FlattenAll(checked.Value))
	}
	if err != nil {
		s.logger.Error("export failed", "format", format, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="shops.%s"`, format))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (s *Server) getIndex(c *gin.Context) {
	snap, err := s.deps.Index.LoadIndex(c.Request.Context())
	if err != nil {
		s.logger.Error("load index failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load index"})
		return
	}
	entries := snap.Entries
	if entries == nil {
		entries = model.Index{}
	}
	c.JSON(http.StatusOK, gin.H{"version": snap.Version, "entries": entries})
}

func (s *Server) lookup(c *gin.Context) {
	item := c.Query("item")
	if item == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "item is required"})
		return
	}
	key := index.Canonicalize(item, c.QueryArray("enchant"))

	snap, err := s.deps.Index.LoadIndex(c.Request.Context())
	if err != nil {
		s.logger.Error("load index failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load index"})
		return
	}

	entry, ok := snap.Entries[key]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no entry for key", "key": key})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "entry": entry})
}

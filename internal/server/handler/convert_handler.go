package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/voter-roll-extractor/constants"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/common"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/pipeline"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/storage"
)

// Converter is satisfied by *pipeline.Processor.
type Converter interface {
	Convert(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

type ConvertOptions struct {
	ForceOCR       bool
	DPI            int
	WriteCSV       bool
	MaxUploadBytes int64
	Timeout        time.Duration
}

// ConvertResponse is the data payload of a successful conversion.
type ConvertResponse struct {
	JobID       string   `json:"job_id"`
	Total       int      `json:"total"`
	Migrated    int      `json:"migrated"`
	PageMethods []string `json:"page_methods"`
	PDFFile     string   `json:"pdf_file"`
	ExcelFile   string   `json:"excel_file"`
	CSVFile     string   `json:"csv_file,omitempty"`
}

// ConvertHandler accepts PDF uploads and runs them through the pipeline one at a time.
type ConvertHandler struct {
	conv   Converter
	store  *storage.Local
	opts   ConvertOptions
	logger *slog.Logger

	mu sync.Mutex
}

func NewConvertHandler(conv Converter, store *storage.Local, opts ConvertOptions, logger *slog.Logger) *ConvertHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConvertHandler{conv: conv, store: store, opts: opts, logger: logger}
}

// Convert handles POST /api/v1/convert
func (h *ConvertHandler) Convert(c *gin.Context) {
	fh, err := c.FormFile("pdf")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "pdf field is required")
		return
	}
	if constants.MapExtToFormat(filepath.Ext(fh.Filename)) == "" {
		RespondError(c, http.StatusBadRequest, common.CodeInvalidInput, "only PDF files are allowed")
		return
	}

	forceOCR := h.opts.ForceOCR
	if v := c.PostForm("force_ocr"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			RespondError(c, http.StatusBadRequest, common.CodeInvalidInput, "force_ocr must be a boolean")
			return
		}
		forceOCR = b
	}
	dpi := h.opts.DPI
	if v := c.PostForm("dpi"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			RespondError(c, http.StatusBadRequest, common.CodeInvalidInput, "dpi must be an integer")
			return
		}
		dpi = n
	}
	if err := common.NewValidator().Field("dpi", dpi, common.IntRange(72, 1200)).Error(); err != nil {
		HandleError(c, err)
		return
	}

	jobID := storage.NewJobID()
	src, err := fh.Open()
	if err != nil {
		HandleError(c, fmt.Errorf("open upload: %w", err))
		return
	}
	path, hash, size, err := h.store.SaveUpload(jobID, src, h.opts.MaxUploadBytes)
	_ = src.Close()
	if err != nil {
		HandleError(c, err)
		return
	}

	req := pipeline.Request{
		JobID:       jobID,
		SourcePath:  path,
		ContentHash: hash,
		ForceOCR:    forceOCR,
		DPI:         dpi,
		XLSXPath:    h.store.XLSXPath(jobID),
	}
	if h.opts.WriteCSV {
		req.CSVPath = h.store.CSVPath(jobID)
	}

	log := common.LoggerWith(c.Request.Context(), h.logger).With("job_id", jobID)
	log.Info("conversion started", "file", fh.Filename, "bytes", size, "force_ocr", forceOCR, "dpi", dpi)

	res, err := h.convert(c.Request.Context(), req)
	if err != nil {
		log.Warn("conversion failed", "error", err)
		h.store.Remove(jobID)
		HandleError(c, err)
		return
	}

	resp := ConvertResponse{
		JobID:       res.JobID,
		Total:       len(res.Records),
		Migrated:    res.Migrated,
		PageMethods: res.PageMethods,
		PDFFile:     filepath.Base(path),
		ExcelFile:   filepath.Base(res.XLSXPath),
	}
	if res.CSVPath != "" {
		resp.CSVFile = filepath.Base(res.CSVPath)
	}
	RespondOK(c, resp)
}

func (h *ConvertHandler) convert(ctx context.Context, req pipeline.Request) (pipeline.Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.Timeout)
		defer cancel()
	}
	return h.conv.Convert(ctx, req)
}

// Download handles GET /api/v1/download/:kind/:filename
func (h *ConvertHandler) Download(c *gin.Context) {
	path, err := h.store.Resolve(c.Param("kind"), c.Param("filename"))
	if err != nil {
		HandleError(c, err)
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}

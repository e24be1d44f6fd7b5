package common

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, ":5000", cfg.Server.HTTPAddr)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 300, cfg.OCR.DPI)
	assert.Equal(t, "ben", cfg.OCR.Lang)
	assert.True(t, cfg.Extract.ForceOCR)
	assert.Equal(t, 30, cfg.Extract.MinBanglaChars)
	assert.Equal(t, "cid:", cfg.Extract.GarbleMarker)
	assert.False(t, cfg.Parse.RequireVoterNumber)
	assert.Equal(t, "uploads", cfg.Storage.UploadDir)
	assert.Equal(t, "outputs", cfg.Storage.OutputDir)
}

func TestLoadConfig_EnvAndFile(t *testing.T) {
	t.Setenv("VOTERROLL_OCR_DPI", "200")
	t.Setenv("GRPC_ADDR", ":9999")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("extract:\n  force_ocr: false\n  workers: 4\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.OCR.DPI)
	assert.Equal(t, ":9999", cfg.Server.GRPCAddr)
	assert.False(t, cfg.Extract.ForceOCR)
	assert.Equal(t, 4, cfg.Extract.Workers)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("VOTERROLL_DB_DRIVER", "mysql")
	_, err := LoadConfig("")
	require.Error(t, err)
	var ae *AppError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "CONFIG", ae.Code)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, "", Classify(nil))
	assert.Equal(t, CodeNoRecords, Classify(fmt.Errorf("parse: %w", ErrNoRecords)))
	assert.Equal(t, CodeExtractionFailed, Classify(fmt.Errorf("page 2: %w", ErrExtraction)))
	assert.Equal(t, CodeInvalidInput, Classify(NewValidator().Field("dpi", 5, IntRange(72, 1200)).Error()))
	assert.Equal(t, CodeTimeout, Classify(context.DeadlineExceeded))
	assert.Equal(t, "CONFIG", Classify(NewAppError("CONFIG", "bad", nil)))
	assert.Equal(t, CodeInternal, Classify(errors.New("boom")))
}

func TestToGRPCError(t *testing.T) {
	assert.Nil(t, ToGRPCError(nil))
	assert.Equal(t, codes.FailedPrecondition, status.Code(ToGRPCError(ErrNoRecords)))
	assert.Equal(t, codes.Unavailable, status.Code(ToGRPCError(ErrExtraction)))
	assert.Equal(t, codes.NotFound, status.Code(ToGRPCError(NotFoundError("job"))))
}

func TestValidator(t *testing.T) {
	v := NewValidator().
		Field("job_id", "abc", JobID).
		Field("dpi", 300, IntRange(72, 1200)).
		Field("filename", "../etc/passwd", PDFName)
	require.True(t, v.HasErrors())
	assert.Len(t, v.Errors(), 2)
	assert.ErrorIs(t, v.Error(), ErrValidation)

	ok := NewValidator().Field("job_id", "1a2b3c4d", JobID).Field("filename", "1a2b3c4d.pdf", PDFName)
	assert.NoError(t, ok.Error())
}

func TestLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(LogConfig{Level: "debug", Format: "json"}, &buf)
	ctx := WithJobID(WithRequestID(context.Background(), "req-1"), "1a2b3c4d")
	LoggerWith(ctx, logger).Debug("hello")
	assert.Contains(t, buf.String(), `"request_id":"req-1"`)
	assert.Contains(t, buf.String(), `"job_id":"1a2b3c4d"`)
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARNING"))
}

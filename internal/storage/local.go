// Package storage keeps job artifacts on local disk: the uploaded PDF and the
// generated spreadsheets, all named after the job id.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/voter-roll-extractor/internal/common"
)

// Artifact kinds accepted by Resolve.
const (
	KindPDF   = "pdf"
	KindExcel = "excel"
	KindCSV   = "csv"
)

var ErrTooLarge = errors.New("upload exceeds size limit")

// NewJobID returns a short opaque id: the first 8 hex chars of a random UUID.
func NewJobID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

type Local struct {
	uploadDir string
	outputDir string
	logger    *slog.Logger
}

func NewLocal(uploadDir, outputDir string, logger *slog.Logger) (*Local, error) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, d := range []string{uploadDir, outputDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", d, err)
		}
	}
	return &Local{uploadDir: uploadDir, outputDir: outputDir, logger: logger}, nil
}

func (l *Local) UploadPath(jobID string) string {
	return filepath.Join(l.uploadDir, jobID+".pdf")
}

func (l *Local) XLSXPath(jobID string) string {
	return filepath.Join(l.outputDir, jobID+".xlsx")
}

func (l *Local) CSVPath(jobID string) string {
	return filepath.Join(l.outputDir, jobID+".csv")
}

// SaveUpload streams r to uploads/<jobID>.pdf and returns its path and sha256.
// maxBytes <= 0 disables the size limit.
func (l *Local) SaveUpload(jobID string, r io.Reader, maxBytes int64) (path, hashHex string, size int64, err error) {
	dst := l.UploadPath(jobID)
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", "", 0, fmt.Errorf("create upload: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}
	h := sha256.New()
	size, err = io.Copy(io.MultiWriter(f, h), src)
	if err != nil {
		return "", "", 0, fmt.Errorf("write upload: %w", err)
	}
	if maxBytes > 0 && size > maxBytes {
		return "", "", 0, fmt.Errorf("%w (%d bytes)", ErrTooLarge, maxBytes)
	}
	l.logger.Debug("upload saved", "job_id", jobID, "path", dst, "bytes", size)
	return dst, hex.EncodeToString(h.Sum(nil)), size, nil
}

// Resolve maps a download request onto a file inside the right directory.
// Only bare file names with the kind's extension are accepted.
func (l *Local) Resolve(kind, filename string) (string, error) {
	var dir, ext string
	switch kind {
	case KindPDF:
		dir, ext = l.uploadDir, ".pdf"
	case KindExcel:
		dir, ext = l.outputDir, ".xlsx"
	case KindCSV:
		dir, ext = l.outputDir, ".csv"
	default:
		return "", fmt.Errorf("%w: unknown file type %q", common.ErrInvalidInput, kind)
	}
	if filename == "" || filename != filepath.Base(filename) || strings.ContainsAny(filename, `/\`) ||
		strings.HasPrefix(filename, ".") || !strings.EqualFold(filepath.Ext(filename), ext) {
		return "", fmt.Errorf("%w: bad file name %q", common.ErrInvalidInput, filename)
	}
	path := filepath.Join(dir, filename)
	st, err := os.Stat(path)
	if err != nil || st.IsDir() {
		return "", fmt.Errorf("%s: %w", filename, common.ErrNotFound)
	}
	return path, nil
}

// Remove deletes every artifact of a job. Missing files are ignored.
func (l *Local) Remove(jobID string) {
	for _, p := range []string{l.UploadPath(jobID), l.XLSXPath(jobID), l.CSVPath(jobID)} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			l.logger.Warn("failed to remove job artifact", "job_id", jobID, "path", p, "error", err)
		}
	}
}

package storage

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/voter-roll-extractor/internal/common"
)

func newLocal(t *testing.T) *Local {
	t.Helper()
	root := t.TempDir()
	l, err := NewLocal(filepath.Join(root, "uploads"), filepath.Join(root, "outputs"), nil)
	require.NoError(t, err)
	return l
}

func TestNewJobID(t *testing.T) {
	re := regexp.MustCompile(`^[0-9a-f]{8}$`)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewJobID()
		assert.Regexp(t, re, id)
		seen[id] = true
	}
	assert.Greater(t, len(seen), 90)
}

func TestSaveUploadAndResolve(t *testing.T) {
	l := newLocal(t)
	path, sum, size, err := l.SaveUpload("1a2b3c4d", strings.NewReader("%PDF-1.4 body"), 1024)
	require.NoError(t, err)
	assert.Equal(t, l.UploadPath("1a2b3c4d"), path)
	assert.EqualValues(t, 13, size)
	assert.Len(t, sum, 64)

	got, err := l.Resolve(KindPDF, "1a2b3c4d.pdf")
	require.NoError(t, err)
	assert.Equal(t, path, got)

	_, _, _, err = l.SaveUpload("1a2b3c4d", strings.NewReader("again"), 0)
	assert.Error(t, err, "job ids are never reused")
}

func TestSaveUpload_TooLarge(t *testing.T) {
	l := newLocal(t)
	_, _, _, err := l.SaveUpload("deadbeef", strings.NewReader(strings.Repeat("x", 11)), 10)
	require.ErrorIs(t, err, ErrTooLarge)
	_, statErr := os.Stat(l.UploadPath("deadbeef"))
	assert.True(t, os.IsNotExist(statErr), "partial upload must be removed")
}

func TestResolve_RejectsTraversal(t *testing.T) {
	l := newLocal(t)
	require.NoError(t, os.WriteFile(l.XLSXPath("1a2b3c4d"), []byte("x"), 0o600))

	_, err := l.Resolve(KindExcel, "1a2b3c4d.xlsx")
	require.NoError(t, err)

	for _, name := range []string{"../uploads/1a2b3c4d.pdf", "..", "", ".xlsx", "sub/1a2b3c4d.xlsx", `..\x.xlsx`, "1a2b3c4d.csv"} {
		_, err := l.Resolve(KindExcel, name)
		assert.ErrorIs(t, err, common.ErrInvalidInput, name)
	}
	_, err = l.Resolve("exe", "a.exe")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	_, err = l.Resolve(KindCSV, "missing0.csv")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRemove(t *testing.T) {
	l := newLocal(t)
	require.NoError(t, os.WriteFile(l.UploadPath("cafebabe"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(l.CSVPath("cafebabe"), []byte("x"), 0o600))
	l.Remove("cafebabe")
	for _, p := range []string{l.UploadPath("cafebabe"), l.CSVPath("cafebabe")} {
		_, err := os.Stat(p)
		assert.True(t, os.IsNotExist(err))
	}
}

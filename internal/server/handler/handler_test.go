package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/voter-roll-extractor/internal/common"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/entity"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/extract"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/parse"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/pipeline"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockConverter struct {
	mock.Mock
}

func (m *mockConverter) Convert(ctx context.Context, req pipeline.Request) (pipeline.Result, error) {
	args := m.Called(ctx, req)
	if fn, ok := args.Get(0).(func(context.Context, pipeline.Request) pipeline.Result); ok {
		return fn(ctx, req), args.Error(1)
	}
	return args.Get(0).(pipeline.Result), args.Error(1)
}

type mockJobs struct {
	mock.Mock
}

func (m *mockJobs) Get(ctx context.Context, id string) (*entity.ExtractJob, error) {
	args := m.Called(ctx, id)
	job, _ := args.Get(0).(*entity.ExtractJob)
	return job, args.Error(1)
}

type testServer struct {
	router *gin.Engine
	conv   *mockConverter
	jobs   *mockJobs
	store  *storage.Local
	dir    string
}

func newTestServer(t *testing.T, opts ConvertOptions) *testServer {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocal(filepath.Join(dir, "uploads"), filepath.Join(dir, "outputs"), nil)
	require.NoError(t, err)

	ts := &testServer{conv: &mockConverter{}, jobs: &mockJobs{}, store: store, dir: dir}
	ts.router = NewRouter(
		NewConvertHandler(ts.conv, store, opts, nil),
		NewJobHandler(ts.jobs),
		NewHealthHandler(nil),
		nil,
	)
	return ts
}

func uploadRequest(t *testing.T, filename string, fields map[string]string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("pdf", filename)
	require.NoError(t, err)
	_, _ = part.Write([]byte("%PDF-1.4 test content"))
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/convert", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decode(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestConvert_Success(t *testing.T) {
	ts := newTestServer(t, ConvertOptions{ForceOCR: true, DPI: 300, WriteCSV: true})

	ts.conv.On("Convert", mock.Anything, mock.MatchedBy(func(r pipeline.Request) bool {
		return r.JobID != "" && !r.ForceOCR && r.DPI == 200 && r.ContentHash != "" &&
			r.SourcePath == ts.store.UploadPath(r.JobID) && r.CSVPath == ts.store.CSVPath(r.JobID)
	})).Return(func(_ context.Context, r pipeline.Request) pipeline.Result {
		return pipeline.Result{
			JobID:       r.JobID,
			Records:     []entity.Record{{Serial: 1}, {Serial: 3}},
			Migrated:    1,
			PageMethods: []string{extract.MethodNative},
			XLSXPath:    r.XLSXPath,
			CSVPath:     r.CSVPath,
		}
	}, nil).Once()

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, uploadRequest(t, "roll.PDF", map[string]string{"force_ocr": "false", "dpi": "200"}))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode(t, w)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	jobID := data["job_id"].(string)
	assert.Len(t, jobID, 8)
	assert.Equal(t, float64(2), data["total"])
	assert.Equal(t, float64(1), data["migrated"])
	assert.Equal(t, jobID+".pdf", data["pdf_file"])
	assert.Equal(t, jobID+".xlsx", data["excel_file"])
	assert.Equal(t, jobID+".csv", data["csv_file"])
	assert.FileExists(t, ts.store.UploadPath(jobID))
	ts.conv.AssertExpectations(t)
}

func TestConvert_Rejections(t *testing.T) {
	ts := newTestServer(t, ConvertOptions{ForceOCR: true, DPI: 300})

	tests := []struct {
		name   string
		req    *http.Request
		status int
		code   string
	}{
		{"missing file", httptest.NewRequest(http.MethodPost, "/api/v1/convert", nil), http.StatusBadRequest, "MISSING_FILE"},
		{"not a pdf", uploadRequest(t, "roll.txt", nil), http.StatusBadRequest, common.CodeInvalidInput},
		{"bad force_ocr", uploadRequest(t, "roll.pdf", map[string]string{"force_ocr": "maybe"}), http.StatusBadRequest, common.CodeInvalidInput},
		{"bad dpi", uploadRequest(t, "roll.pdf", map[string]string{"dpi": "abc"}), http.StatusBadRequest, common.CodeInvalidInput},
		{"dpi out of range", uploadRequest(t, "roll.pdf", map[string]string{"dpi": "5000"}), http.StatusBadRequest, common.CodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ts.router.ServeHTTP(w, tt.req)
			assert.Equal(t, tt.status, w.Code)
			resp := decode(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
	ts.conv.AssertNotCalled(t, "Convert", mock.Anything, mock.Anything)
}

func TestConvert_TooLarge(t *testing.T) {
	ts := newTestServer(t, ConvertOptions{MaxUploadBytes: 4})

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, uploadRequest(t, "roll.pdf", nil))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	ts.conv.AssertNotCalled(t, "Convert", mock.Anything, mock.Anything)

	left, err := os.ReadDir(filepath.Dir(ts.store.UploadPath("00000000")))
	require.NoError(t, err)
	assert.Empty(t, left, "oversized upload must not stay on disk")
}

func TestConvert_PipelineErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"no records", fmt.Errorf("segment: %w", parse.ErrNoRecords), http.StatusUnprocessableEntity, common.CodeNoRecords},
		{"extraction", &extract.PageError{Page: 0, Op: "ocr", Err: os.ErrClosed}, http.StatusBadGateway, common.CodeExtractionFailed},
		{"internal", fmt.Errorf("disk on fire"), http.StatusInternalServerError, common.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, ConvertOptions{})
			var jobID string
			ts.conv.On("Convert", mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) { jobID = args.Get(1).(pipeline.Request).JobID }).
				Return(pipeline.Result{}, tt.err)

			w := httptest.NewRecorder()
			ts.router.ServeHTTP(w, uploadRequest(t, "roll.pdf", nil))

			assert.Equal(t, tt.status, w.Code)
			resp := decode(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.NoFileExists(t, ts.store.UploadPath(jobID), "failed uploads are removed")
		})
	}
}

func TestDownload(t *testing.T) {
	ts := newTestServer(t, ConvertOptions{})
	require.NoError(t, os.WriteFile(ts.store.XLSXPath("0a1b2c3d"), []byte("xlsx"), 0o644))

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/download/excel/0a1b2c3d.xlsx", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "xlsx", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "0a1b2c3d.xlsx")

	for path, status := range map[string]int{
		"/api/v1/download/excel/ffffffff.xlsx": http.StatusNotFound,
		"/api/v1/download/excel/0a1b2c3d.csv":  http.StatusBadRequest,
		"/api/v1/download/zip/0a1b2c3d.xlsx":   http.StatusBadRequest,
		"/api/v1/download/pdf/.hidden.pdf":     http.StatusBadRequest,
	} {
		w := httptest.NewRecorder()
		ts.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, status, w.Code, path)
	}
}

func TestJobHandler_Get(t *testing.T) {
	ts := newTestServer(t, ConvertOptions{})
	text := "raw"
	ts.jobs.On("Get", mock.Anything, "0a1b2c3d").Return(&entity.ExtractJob{ID: "0a1b2c3d", Status: "PARSED", RecordCount: 2, OCRText: &text}, nil)
	ts.jobs.On("Get", mock.Anything, "ffffffff").Return(nil, fmt.Errorf("job ffffffff: %w", common.ErrNotFound))

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/0a1b2c3d", nil))
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]interface{})
	assert.Equal(t, "PARSED", data["status"])
	assert.Equal(t, float64(2), data["record_count"])
	assert.NotContains(t, data, "ocr_text")

	w = httptest.NewRecorder()
	ts.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/ffffffff", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	ts.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/NOT-AN-ID", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, ConvertOptions{})
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	conv := NewConvertHandler(ts.conv, ts.store, ConvertOptions{}, nil)
	down := NewRouter(conv, NewJobHandler(ts.jobs), NewHealthHandler(func(context.Context) error { return os.ErrDeadlineExceeded }), nil)
	w = httptest.NewRecorder()
	down.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

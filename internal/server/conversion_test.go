package server

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/voter-roll-extractor/internal/common"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/entity"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/extract"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/parse"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/pipeline"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/storage"
)

type mockConverter struct {
	mock.Mock
}

func (m *mockConverter) Convert(ctx context.Context, req pipeline.Request) (pipeline.Result, error) {
	args := m.Called(ctx, req)
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

func startServer(t *testing.T, conv Converter, jobs JobReader) (*ConversionClient, *grpc.ClientConn) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocal(filepath.Join(dir, "uploads"), filepath.Join(dir, "outputs"), nil)
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(LoggingInterceptor(nil)))
	RegisterConversionServiceServer(srv, NewConversionServer(conv, jobs, store, Defaults{ForceOCR: true, DPI: 300}, nil))
	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, hs)
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	cc, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cc.Close() })
	return NewConversionClient(cc), cc
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func writePDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roll.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
	return path
}

func TestConvert(t *testing.T) {
	conv := &mockConverter{}
	client, _ := startServer(t, conv, &mockJobs{})
	path := writePDF(t)

	conv.On("Convert", mock.Anything, mock.MatchedBy(func(r pipeline.Request) bool {
		return r.SourcePath == path && r.ForceOCR && r.DPI == 300 && r.ContentHash != "" && r.CSVPath == ""
	})).Return(pipeline.Result{
		JobID:    "0a1b2c3d",
		Records:  []entity.Record{{Serial: 1, Name: "করিম"}},
		XLSXPath: "/out/0a1b2c3d.xlsx",
	}, nil).Once()

	out, err := client.Convert(context.Background(), mustStruct(t, map[string]any{"path": path}))
	require.NoError(t, err)
	m := out.AsMap()
	assert.Equal(t, "0a1b2c3d", m["job_id"])
	assert.Equal(t, float64(1), m["total"])
	assert.Equal(t, "0a1b2c3d.xlsx", m["excel_file"])
	conv.AssertExpectations(t)
}

func TestConvert_ErrorCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"no records", fmt.Errorf("segment: %w", parse.ErrNoRecords), codes.FailedPrecondition},
		{"extraction", &extract.PageError{Page: 2, Op: "rasterize", Err: os.ErrNotExist}, codes.Unavailable},
		{"internal", fmt.Errorf("boom"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := &mockConverter{}
			conv.On("Convert", mock.Anything, mock.Anything).Return(pipeline.Result{}, tt.err)
			client, _ := startServer(t, conv, &mockJobs{})

			_, err := client.Convert(context.Background(), mustStruct(t, map[string]any{"path": writePDF(t), "force_ocr": false, "dpi": 200}))
			assert.Equal(t, tt.code, status.Code(err))
		})
	}
}

func TestConvert_InvalidArguments(t *testing.T) {
	conv := &mockConverter{}
	client, _ := startServer(t, conv, &mockJobs{})

	for name, in := range map[string]map[string]any{
		"missing path": {},
		"not a pdf":    {"path": "/tmp/roll.txt"},
		"missing file": {"path": filepath.Join(t.TempDir(), "absent.pdf")},
		"bad dpi":      {"path": writePDF(t), "dpi": 2.5},
		"dpi range":    {"path": writePDF(t), "dpi": 10},
	} {
		_, err := client.Convert(context.Background(), mustStruct(t, in))
		assert.Equal(t, codes.InvalidArgument, status.Code(err), name)
	}
	conv.AssertNotCalled(t, "Convert", mock.Anything, mock.Anything)
}

func TestGetJob(t *testing.T) {
	jobs := &mockJobs{}
	jobs.On("Get", mock.Anything, "0a1b2c3d").Return(&entity.ExtractJob{ID: "0a1b2c3d", Status: "PARSED", ExtractedJSON: []byte(`[{"serial":4}]`)}, nil)
	jobs.On("Get", mock.Anything, "ffffffff").Return(nil, fmt.Errorf("job ffffffff: %w", common.ErrNotFound))
	client, cc := startServer(t, &mockConverter{}, jobs)
	ctx := context.Background()

	out, err := client.GetJob(ctx, mustStruct(t, map[string]any{"id": "0a1b2c3d", "records": true}))
	require.NoError(t, err)
	m := out.AsMap()
	assert.Equal(t, "PARSED", m["status"])
	assert.Len(t, m["records"], 1)

	_, err = client.GetJob(ctx, mustStruct(t, map[string]any{"id": "ffffffff"}))
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.GetJob(ctx, mustStruct(t, map[string]any{"id": "../etc"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	hc, err := grpc_health_v1.NewHealthClient(cc).Check(ctx, &grpc_health_v1.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, hc.GetStatus())
}

package server

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/voter-roll-extractor/internal/common"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/entity"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/ingest"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/pipeline"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/storage"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/utils"
)

const (
	ConversionServiceName = "voterroll.v1.ConversionService"
	convertMethod         = "/" + ConversionServiceName + "/Convert"
	getJobMethod          = "/" + ConversionServiceName + "/GetJob"
)

// ConversionServiceServer takes and returns google.protobuf.Struct messages.
//
//	Convert: {path, force_ocr?, dpi?, write_csv?} -> result
//	GetJob:  {id, records?} -> job
type ConversionServiceServer interface {
	Convert(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	GetJob(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

type Converter interface {
	Convert(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

type JobReader interface {
	Get(ctx context.Context, jobID string) (*entity.ExtractJob, error)
}

type Defaults struct {
	ForceOCR bool
	DPI      int
	WriteCSV bool
	Timeout  time.Duration
}

// ConversionServer converts PDFs that already sit on the server's filesystem.
type ConversionServer struct {
	conv     Converter
	jobs     JobReader
	store    *storage.Local
	defaults Defaults
	logger   *slog.Logger

	mu sync.Mutex
}

func NewConversionServer(conv Converter, jobs JobReader, store *storage.Local, defaults Defaults, logger *slog.Logger) *ConversionServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConversionServer{conv: conv, jobs: jobs, store: store, defaults: defaults, logger: logger}
}

func (s *ConversionServer) Convert(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	path := strings.TrimSpace(utils.StringField(in, "path"))
	if path == "" {
		s.logger.Error("convert request missing path")
		return nil, common.InvalidArgumentError("path is required")
	}
	dpi, err := utils.IntField(in, "dpi")
	if err != nil {
		return nil, common.InvalidArgumentError(err.Error())
	}
	if dpi == 0 {
		dpi = s.defaults.DPI
	}
	v := common.NewValidator().
		Field("path", filepath.Base(path), common.PDFName).
		Field("dpi", dpi, common.IntRange(72, 1200))
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}

	hash, _, err := ingest.HashFile(path)
	if err != nil {
		s.logger.Error("cannot read source pdf", "path", path, "error", err)
		return nil, common.InvalidArgumentErrorf("read %s: %v", path, err)
	}

	jobID := storage.NewJobID()
	req := pipeline.Request{
		JobID:       jobID,
		SourcePath:  path,
		ContentHash: hash,
		ForceOCR:    utils.BoolField(in, "force_ocr", s.defaults.ForceOCR),
		DPI:         dpi,
		XLSXPath:    s.store.XLSXPath(jobID),
	}
	if utils.BoolField(in, "write_csv", s.defaults.WriteCSV) {
		req.CSVPath = s.store.CSVPath(jobID)
	}

	s.logger.Info("starting conversion", "job_id", jobID, "path", path, "force_ocr", req.ForceOCR, "dpi", dpi)
	res, err := s.convert(ctx, req)
	if err != nil {
		s.logger.Error("pipeline.failed", "job_id", jobID, "err", err)
		return nil, common.ToGRPCError(err)
	}

	out, err := utils.ToPBResult(res)
	if err != nil {
		return nil, common.InternalErrorf("encode result: %v", err)
	}
	return out, nil
}

func (s *ConversionServer) convert(ctx context.Context, req pipeline.Request) (pipeline.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.defaults.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.defaults.Timeout)
		defer cancel()
	}
	return s.conv.Convert(ctx, req)
}

func (s *ConversionServer) GetJob(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id := strings.TrimSpace(utils.StringField(in, "id"))
	if err := common.ValidateAndReturnError(common.NewValidator().Field("id", id, common.JobID)); err != nil {
		return nil, err
	}
	job, err := s.jobs.Get(ctx, id)
	if err != nil {
		return nil, common.ToGRPCError(err)
	}
	out, err := utils.ToPBJob(job, utils.BoolField(in, "records", false))
	if err != nil {
		return nil, common.InternalErrorf("encode job: %v", err)
	}
	return out, nil
}

func RegisterConversionServiceServer(r grpc.ServiceRegistrar, srv ConversionServiceServer) {
	r.RegisterService(&ConversionServiceDesc, srv)
}

var ConversionServiceDesc = grpc.ServiceDesc{
	ServiceName: ConversionServiceName,
	HandlerType: (*ConversionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Convert", Handler: convertHandler},
		{MethodName: "GetJob", Handler: getJobHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "voterroll/v1/conversion.proto",
}

func convertHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConversionServiceServer).Convert(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: convertMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ConversionServiceServer).Convert(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func getJobHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConversionServiceServer).GetJob(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getJobMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ConversionServiceServer).GetJob(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// ConversionClient calls a remote ConversionService.
type ConversionClient struct {
	cc grpc.ClientConnInterface
}

func NewConversionClient(cc grpc.ClientConnInterface) *ConversionClient {
	return &ConversionClient{cc: cc}
}

func (c *ConversionClient) Convert(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, convertMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ConversionClient) GetJob(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getJobMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

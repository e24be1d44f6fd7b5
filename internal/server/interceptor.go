package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/voter-roll-extractor/internal/common"
)

// LoggingInterceptor tags each call with a request id (from "x-request-id" metadata
// when present) and logs method, code, and latency.
func LoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		requestID := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get("x-request-id"); len(v) > 0 {
				requestID = v[0]
			}
		}
		if requestID == "" {
			requestID = uuid.New().String()
		}
		ctx = common.WithRequestID(ctx, requestID)

		resp, err := handler(ctx, req)

		log := common.LoggerWith(ctx, logger)
		code := status.Code(err)
		if err != nil {
			log.Warn("grpc call failed", "method", info.FullMethod, "code", code.String(), "latency_ms", time.Since(start).Milliseconds(), "error", err)
		} else {
			log.Info("grpc call", "method", info.FullMethod, "code", code.String(), "latency_ms", time.Since(start).Milliseconds())
		}
		return resp, err
	}
}

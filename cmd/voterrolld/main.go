package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/voter-roll-extractor/internal/common"
	repo "github.com/joseph-ayodele/voter-roll-extractor/internal/repository"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/server"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/server/handler"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "optional config file (yaml/json/toml)")
	flag.Parse()

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(2)
	}
	logger := common.NewLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := server.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close(logger)

	if err := db.HealthCheck(ctx, 5*time.Second, logger); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	store, err := storage.NewLocal(cfg.Storage.UploadDir, cfg.Storage.OutputDir, logger)
	if err != nil {
		logger.Error("failed to prepare storage", "error", err)
		os.Exit(1)
	}

	tx, err := server.NewTextExtractor(cfg, logger)
	if err != nil {
		logger.Error("failed to set up text extraction", "error", err)
		os.Exit(1)
	}
	jobsRepo := repo.NewExtractJobRepository(db, logger)
	processor := server.NewProcessor(cfg, tx, jobsRepo, logger)

	// HTTP front end
	router := handler.NewRouter(
		handler.NewConvertHandler(processor, store, handler.ConvertOptions{
			ForceOCR:       cfg.Extract.ForceOCR,
			DPI:            cfg.OCR.DPI,
			WriteCSV:       cfg.Export.WriteCSV,
			MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
			Timeout:        cfg.Server.ConvertTimeout,
		}, logger),
		handler.NewJobHandler(jobsRepo),
		handler.NewHealthHandler(server.PingDB(db, logger, 2*time.Second)),
		logger,
	)
	httpServer := &http.Server{
		Addr:         cfg.Server.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// gRPC front end
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(server.LoggingInterceptor(logger)))
	server.RegisterConversionServiceServer(grpcServer, server.NewConversionServer(processor, jobsRepo, store, server.Defaults{
		ForceOCR: cfg.Extract.ForceOCR,
		DPI:      cfg.OCR.DPI,
		WriteCSV: cfg.Export.WriteCSV,
		Timeout:  cfg.Server.ConvertTimeout,
	}, logger))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	go func() {
		logger.Info("http listening", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve error", "error", err)
			stop()
		}
	}()
	go func() {
		logger.Info("grpc listening", "addr", cfg.Server.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	grpcServer.GracefulStop()
}

package main

import (
	"context"
	"devconnect/gateway"
	grpchealth "devconnect/grpc"
	"devconnect/moderation"
	"devconnect/observability"
	"devconnect/repositories"
	"devconnect/runtime"
	"devconnect/runtime/workers"
	"devconnect/services"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and owns the shutdown order, so that deferred
// cleanup runs before the process exits.
func run() error {
	// 1. Configuration & Logger
	config, err := loadConfig(os.Args[1:])
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Storage
	storage, err := repositories.Open(config.StorageDriver, config.BadgerFilepath, config.SQLiteFilepath, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := storage.Close(); err != nil {
			log.Error("Storage close failed", "error", err)
		}
	}()

	// 3. Runtime
	metrics := observability.NewMetrics()
	registry := runtime.NewRegistry(log)
	router := runtime.NewRouter(log, registry, storage.Messages, storage.Notifications, metrics,
		config.DeliveryTimeout, config.MaxMessageLength)
	if words := config.censoredWords(); len(words) > 0 {
		mask, _ := config.replacement()
		filter, err := moderation.NewFilter(words, mask)
		if err != nil {
			return fmt.Errorf("censored words: %w", err)
		}
		router.WithCensor(filter)
		log.Info("Message filter enabled", "words", len(words))
	}
	orchestrator := runtime.NewOrchestrator(log, workers.NewSupervisor(log), registry, router, metrics,
		runtime.Options{
			NotifyOnMessage:    config.NotifyOnMessage,
			NotifierBufferSize: config.NotifierBufferSize,
			MetricInterval:     config.MetricInterval,
		})

	// 4. Gateway
	rest := gateway.NewRestHandler(log,
		services.NewMessagingService(router, storage.Messages, storage.Index, config.LimitMessages),
		services.NewNotificationService(router, storage.Notifications))
	socket := gateway.NewSocketHandler(log, registry, router, metrics, gateway.SocketOptions{
		BufferSize:      config.ConnectionBufferSize,
		DeliveryTimeout: config.DeliveryTimeout,
		PingPeriod:      config.PingPeriod,
		PongWait:        config.PongWait,
		RateLimit:       config.SocketRateLimit,
		RateBurst:       config.SocketRateBurst,
	})
	server := gateway.NewServer(log, config.address(), []byte(config.AuthSecret), rest, socket, metrics)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workersDone := make(chan struct{})
	go func() {
		orchestrator.Start(ctx)
		close(workersDone)
	}()

	errChan := make(chan error, 2)
	listener, err := net.Listen("tcp", config.address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", config.address(), err)
	}
	go func() {
		if err := server.Serve(listener); err != nil {
			errChan <- fmt.Errorf("gateway error: %w", err)
		}
	}()

	// 6. Optional gRPC health endpoint
	var health *grpchealth.HealthServer
	if config.GrpcHealthPort > 0 {
		healthAddress := fmt.Sprintf("%s:%d", config.Host, config.GrpcHealthPort)
		healthListener, err := net.Listen("tcp", healthAddress)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", healthAddress, err)
		}
		health = grpchealth.NewHealthServer(log)
		health.SetServing(true)
		go func() {
			if err := health.Serve(healthListener); err != nil {
				errChan <- fmt.Errorf("gRPC health error: %w", err)
			}
		}()
	}

	// 7. Wait for Stop or Error
	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case runErr = <-errChan:
		log.Error("Shutting down after failure", "error", runErr)
	}

	// 8. Final Cleanup: stop advertising, stop accepting, drop live sockets,
	// then let the deferred storage close run.
	if health != nil {
		health.SetServing(false)
	}
	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("Gateway shutdown incomplete", "error", err)
	}
	orchestrator.Stop()
	<-workersDone
	if health != nil {
		health.Stop()
	}
	log.Info("Program stopped cleanly")
	return runErr
}

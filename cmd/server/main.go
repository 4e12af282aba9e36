package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/rl1809/itemstore/internal/adapter/handler"
	"github.com/rl1809/itemstore/internal/adapter/storage"
	"github.com/rl1809/itemstore/internal/config"
	"github.com/rl1809/itemstore/internal/core/service"
)

const healthRefreshInterval = 10 * time.Second

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	stores, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open storage: %v", err)
	}
	defer stores.Close()
	log.Printf("item store: %s, sequence store: %s", cfg.ItemStore, cfg.SequenceStore)

	itemService := service.NewItemService(stores.Items, stores.Sequence)

	// Initialize gRPC health server
	grpcServer := grpc.NewServer()
	grpcHandler := handler.NewGRPCHandler(itemService)
	grpcHandler.Register(grpcServer)
	if err := grpcHandler.Refresh(ctx, cfg.RequestTimeout); err != nil {
		log.Printf("storage not ready: %v", err)
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	go func() {
		log.Printf("gRPC health server listening on %s", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			log.Printf("gRPC server error: %v", err)
		}
	}()

	go func() {
		ticker := time.NewTicker(healthRefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := grpcHandler.Refresh(ctx, cfg.RequestTimeout); err != nil {
					log.Printf("health check failed: %v", err)
				}
			}
		}
	}()

	// Initialize HTTP server
	httpHandler := handler.NewHTTPHandler(itemService, cfg.RequestTimeout)
	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpHandler.Router(),
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	cancel()
	grpcHandler.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Println("HTTP server stopped")

	grpcServer.GracefulStop()
	log.Println("gRPC server stopped")
}

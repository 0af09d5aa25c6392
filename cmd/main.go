package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/sm8ta/webike_marketplace/docs"
	"github.com/sm8ta/webike_marketplace/internal/adapter/logger"
	"github.com/sm8ta/webike_marketplace/internal/app"
	"github.com/sm8ta/webike_marketplace/internal/config"
	grpcClient "github.com/sm8ta/webike_marketplace/internal/grpc"
)

// @title WeBike Marketplace API
// @version 1.0
// @description API маркетплейса аренды байков и сервисного обслуживания

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	healthcheck := flag.Bool("healthcheck", false, "check the running instance over gRPC health and exit")
	flag.Parse()

	// Loading environment
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	if *healthcheck {
		os.Exit(healthCheck(cfg))
	}

	// Create app
	ctx := context.Background()
	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}

	application.Run()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)

	select {
	case <-stop:
	case err := <-application.Errors():
		log.Printf("Server stopped unexpectedly: %v", err)
	}

	// Контекст с таймаутом для shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := application.Stop(shutdownCtx); err != nil {
		log.Fatalf("Failed to stop app: %v", err)
	}
}

func healthCheck(cfg *config.Container) int {
	l := logger.NewNopLogger()
	client, err := grpcClient.NewHealthClient(l, fmt.Sprintf("localhost:%d", cfg.GRPC.PortInt()), 2*time.Second, 2)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Check(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("SERVING")
	return 0
}

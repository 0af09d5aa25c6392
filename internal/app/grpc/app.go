package grpcapp

import (
	"fmt"
	"net"

	"github.com/sm8ta/webike_marketplace/internal/core/ports"
	grpcHandler "github.com/sm8ta/webike_marketplace/internal/grpc"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

type App struct {
	log        ports.LoggerPort
	gRPCServer *grpc.Server
	health     *health.Server
	port       int
}

// New gRPC server app.
func New(
	log ports.LoggerPort,
	port int,
) *App {
	loggingOpts := []logging.Option{
		logging.WithLogOnEvents(
			logging.StartCall, logging.FinishCall,
		),
	}

	// Recovery after panic
	recoveryOpts := []recovery.Option{
		recovery.WithRecoveryHandler(func(p interface{}) (err error) {
			log.Error("Recovered from panic in gRPC handler", map[string]interface{}{
				"panic": p,
			})
			return status.Errorf(codes.Internal, "internal error")
		}),
	}

	// Creates gRPC server with Interceptor
	gRPCServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			recovery.UnaryServerInterceptor(recoveryOpts...),
			logging.UnaryServerInterceptor(grpcHandler.InterceptorLogger(log), loggingOpts...),
		),
	)

	healthServer := grpcHandler.Register(gRPCServer, log)

	return &App{
		log:        log,
		gRPCServer: gRPCServer,
		health:     healthServer,
		port:       port,
	}
}

// MustRun runs gRPC server and panics if any error occurs.
func (a *App) MustRun() {
	if err := a.Run(); err != nil {
		panic(err)
	}
}

// Run runs gRPC server.
func (a *App) Run() error {
	const op = "grpcapp.Run"

	//TCP listener
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", a.port))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	// Health reports serving only once the port is bound.
	a.SetServing(true)

	return a.Serve(listener)
}

// Serve runs the server on an existing listener.
func (a *App) Serve(listener net.Listener) error {
	const op = "grpcapp.Serve"

	a.log.Info("Starting gRPC server", map[string]interface{}{
		"addr": listener.Addr().String(),
	})

	if err := a.gRPCServer.Serve(listener); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetServing flips the reported health of the whole server.
func (a *App) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	a.health.SetServingStatus("", st)
	a.health.SetServingStatus(grpcHandler.ServiceName, st)
}

// Stop stops gRPC server.
func (a *App) Stop() {
	const op = "grpcapp.Stop"

	a.log.Info("Stopping gRPC server", map[string]interface{}{
		"op":   op,
		"port": a.port,
	})

	a.SetServing(false)
	a.health.Shutdown()
	a.gRPCServer.GracefulStop()
}

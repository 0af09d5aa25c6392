package grpc

import (
	"context"
	"fmt"

	"github.com/sm8ta/webike_marketplace/internal/core/ports"

	grpclog "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name the marketplace reports its health under.
const ServiceName = "webike.marketplace"

// Register attaches the standard health service. It starts as NOT_SERVING.
func Register(gRPCServer *grpc.Server, log ports.LoggerPort) *health.Server {
	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(gRPCServer, healthServer)

	log.Debug("Health service registered", map[string]interface{}{
		"service": ServiceName,
	})
	return healthServer
}

// InterceptorLogger adapts ports.LoggerPort to interceptor logger.
func InterceptorLogger(l ports.LoggerPort) grpclog.Logger {
	return grpclog.LoggerFunc(func(ctx context.Context, lvl grpclog.Level, msg string, fields ...any) {
		//Fields to map
		fieldsMap := make(map[string]interface{}, len(fields)/2)
		for i := 0; i+1 < len(fields); i += 2 {
			fieldsMap[fmt.Sprintf("%v", fields[i])] = fields[i+1]
		}

		switch lvl {
		case grpclog.LevelInfo:
			l.Info(msg, fieldsMap)
		case grpclog.LevelWarn:
			l.Warn(msg, fieldsMap)
		case grpclog.LevelError:
			l.Error(msg, fieldsMap)
		default:
			l.Debug(msg, fieldsMap)
		}
	})
}

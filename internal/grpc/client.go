package grpc

import (
	"context"
	"fmt"
	"time"

	"github.com/sm8ta/webike_marketplace/internal/core/ports"

	grpclog "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	grpcretry "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/retry"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthClient checks a marketplace instance over the standard health service.
type HealthClient struct {
	conn *grpc.ClientConn
	api  healthpb.HealthClient
	log  ports.LoggerPort
}

func NewHealthClient(
	log ports.LoggerPort,
	addr string,
	timeout time.Duration,
	retriesCount int,
) (*HealthClient, error) {
	const op = "grpc.NewHealthClient"

	retryOpts := []grpcretry.CallOption{
		grpcretry.WithCodes(codes.Unavailable, codes.DeadlineExceeded),
		grpcretry.WithMax(uint(retriesCount)),
		grpcretry.WithPerRetryTimeout(timeout),
	}

	logOpts := []grpclog.Option{
		grpclog.WithLogOnEvents(grpclog.FinishCall),
	}

	cc, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(
			grpclog.UnaryClientInterceptor(InterceptorLogger(log), logOpts...),
			grpcretry.UnaryClientInterceptor(retryOpts...),
		))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &HealthClient{
		conn: cc,
		api:  healthpb.NewHealthClient(cc),
		log:  log,
	}, nil
}

// Check returns nil only when the service reports SERVING.
func (c *HealthClient) Check(ctx context.Context) error {
	const op = "HealthClient.Check"

	resp, err := c.api.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	c.log.Debug("Received health status", map[string]interface{}{
		"status": resp.GetStatus().String(),
	})

	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%s: service is %s", op, resp.GetStatus())
	}
	return nil
}

func (c *HealthClient) Close() error {
	return c.conn.Close()
}

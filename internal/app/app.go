package app

import (
	"context"
	"fmt"

	grpcapp "github.com/sm8ta/webike_marketplace/internal/app/grpc"
	"github.com/sm8ta/webike_marketplace/internal/adapter/handler/http"
	"github.com/sm8ta/webike_marketplace/internal/adapter/logger"
	"github.com/sm8ta/webike_marketplace/internal/adapter/memory"
	"github.com/sm8ta/webike_marketplace/internal/adapter/prometheus"
	"github.com/sm8ta/webike_marketplace/internal/adapter/redis"
	"github.com/sm8ta/webike_marketplace/internal/adapter/storage"
	"github.com/sm8ta/webike_marketplace/internal/config"
	"github.com/sm8ta/webike_marketplace/internal/core/ports"
	"github.com/sm8ta/webike_marketplace/internal/core/services"

	"github.com/go-playground/validator/v10"
	redisClient "github.com/redis/go-redis/v9"
)

type App struct {
	Config      *config.Container
	Logger      ports.LoggerPort
	stores      *stores
	RedisClient *redisClient.Client
	Cache       ports.CachePort
	HTTPRouter  *http.Router
	GRPCApp     *grpcapp.App

	errCh chan error
}

func New(ctx context.Context, cfg *config.Container) (*App, error) {
	// Set logger
	loggerAdapter := logger.NewLoggerAdapter(cfg.App.Env)
	loggerAdapter.Info("Starting the application", map[string]interface{}{
		"app":    cfg.App.Name,
		"env":    cfg.App.Env,
		"driver": cfg.DB.Driver,
	})

	// Set cache
	var (
		redisConn    *redisClient.Client
		cacheAdapter ports.CachePort
	)
	if cfg.Redis.Address != "" {
		redisConn = redisClient.NewClient(&redisClient.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       0,
		})
		if _, err := redisConn.Ping(ctx).Result(); err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		cacheAdapter = redis.NewRedisAdapter(redisConn)
	} else {
		loggerAdapter.Warn("REDIS_ADDRESS not set, using in-memory cache", nil)
		cacheAdapter = memory.NewCache()
	}

	// Repositories
	st, err := openStores(ctx, cfg, loggerAdapter)
	if err != nil {
		closeRedis(redisConn)
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	// Object storage
	var objectStorage ports.ObjectStorage
	if cfg.Storage.Enabled() {
		objectStorage, err = storage.NewMinioAdapter(ctx, storage.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.SSL(),
			PublicURL: cfg.Storage.PublicURL,
		}, loggerAdapter)
		if err != nil {
			st.Close(ctx)
			closeRedis(redisConn)
			return nil, err
		}
	} else {
		loggerAdapter.Warn("STORAGE_ENDPOINT not set, profile images are kept in memory", nil)
		objectStorage = memory.NewObjectStorage(fmt.Sprintf("http://localhost:%s/uploads", cfg.HTTP.Port))
	}

	// Validate
	validate := validator.New()

	// Observability
	metrics := prometheus.NewPrometheusAdapter()

	// Services
	tokenService := http.NewJWTTokenService(cfg.Token.Secret, cfg.Token.TTL(), loggerAdapter)
	authService := services.NewAuthService(st.users, tokenService, loggerAdapter, validate)
	userService := services.NewUserService(st.users, objectStorage, loggerAdapter, validate, cacheAdapter)
	bikeService := services.NewBikeService(st.bikes, loggerAdapter, validate, cacheAdapter)
	policy := services.NewAssignmentPolicy(st.users, cacheAdapter, loggerAdapter)
	requestService := services.NewServiceRequestService(st.requests, st.users, policy, loggerAdapter, validate, metrics)
	rentalService := services.NewRentalService(st.rentals, st.bikes, loggerAdapter, validate, cacheAdapter)
	dashboardService := services.NewDashboardService(requestService, rentalService, bikeService, loggerAdapter)

	if err := authService.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		st.Close(ctx)
		closeRedis(redisConn)
		return nil, fmt.Errorf("failed to seed admin: %w", err)
	}

	// HTTP Handlers
	authHandler := http.NewAuthHandler(authService, loggerAdapter, metrics)
	bikeHandler := http.NewBikeHandler(bikeService, loggerAdapter, metrics)
	requestHandler := http.NewServiceRequestHandler(requestService, policy, loggerAdapter, metrics)
	userHandler := http.NewUserHandler(userService, rentalService, loggerAdapter, metrics)
	rentalHandler := http.NewRentalHandler(rentalService, loggerAdapter, metrics)
	dashboardHandler := http.NewDashboardHandler(dashboardService, loggerAdapter, metrics)

	// Init HTTP router
	router, err := http.NewRouter(
		cfg.HTTP,
		loggerAdapter,
		authService,
		authHandler,
		bikeHandler,
		requestHandler,
		userHandler,
		rentalHandler,
		dashboardHandler,
	)
	if err != nil {
		st.Close(ctx)
		closeRedis(redisConn)
		return nil, fmt.Errorf("failed to initialize router: %w", err)
	}

	return &App{
		Config:      cfg,
		Logger:      loggerAdapter,
		stores:      st,
		RedisClient: redisConn,
		Cache:       cacheAdapter,
		HTTPRouter:  router,
		GRPCApp:     grpcapp.New(loggerAdapter, cfg.GRPC.PortInt()),
		errCh:       make(chan error, 2),
	}, nil
}

func closeRedis(conn *redisClient.Client) {
	if conn != nil {
		conn.Close()
	}
}

// Runs all services
func (a *App) Run() {
	go func() {
		if err := a.GRPCApp.Run(); err != nil {
			a.Logger.Error("gRPC server error", map[string]interface{}{
				"error": err.Error(),
			})
			a.errCh <- err
		}
	}()

	go func() {
		listenAddr := fmt.Sprintf("%s:%s", a.Config.HTTP.URL, a.Config.HTTP.Port)
		a.Logger.Info("Starting HTTP server", map[string]interface{}{
			"addr": listenAddr,
		})
		if err := a.HTTPRouter.Serve(listenAddr); err != nil {
			a.Logger.Error("HTTP server error", map[string]interface{}{
				"error": err.Error(),
			})
			a.errCh <- err
		}
	}()
}

// Errors reports servers that stopped on their own. It is never closed.
func (a *App) Errors() <-chan error {
	return a.errCh
}

// Stops all services
func (a *App) Stop(ctx context.Context) error {
	a.Logger.Info("Shutting down gracefully...", nil)

	a.GRPCApp.Stop()

	if err := a.HTTPRouter.Shutdown(ctx); err != nil {
		a.Logger.Error("HTTP server shutdown error", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Close database
	if err := a.stores.Close(ctx); err != nil {
		a.Logger.Error("Database close error", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Close Redis
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Logger.Error("Redis close error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	a.Logger.Info("Application stopped successfully", nil)
	// zap reports EINVAL when syncing a console
	_ = a.Logger.Sync()
	return nil
}

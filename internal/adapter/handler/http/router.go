package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sm8ta/webike_marketplace/internal/config"
	"github.com/sm8ta/webike_marketplace/internal/core/domain"
	"github.com/sm8ta/webike_marketplace/internal/core/ports"
	"github.com/sm8ta/webike_marketplace/internal/core/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Router struct {
	router *gin.Engine

	mu     sync.Mutex
	server *http.Server
}

func NewRouter(
	cfg *config.HTTP,
	logger ports.LoggerPort,
	authService *services.AuthService,
	authHandler *AuthHandler,
	bikeHandler *BikeHandler,
	serviceRequestHandler *ServiceRequestHandler,
	userHandler *UserHandler,
	rentalHandler *RentalHandler,
	dashboardHandler *DashboardHandler,
) (*Router, error) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Env != "production" {
		router.Use(gin.Logger())
	}

	// CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins(cfg.AllowedOrigins),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := AuthMiddleware(authService, logger)
	adminOnly := RequireRole(logger, domain.Admin)

	api := router.Group("/api")

	// Auth routes
	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.GET("/profile/me", auth, authHandler.Me)
	}

	// Bikes routes
	// Browsing the catalog is public
	bikes := api.Group("/bikes")
	{
		bikes.GET("/available", bikeHandler.ListAvailable)
		bikes.GET("/:bikeId", bikeHandler.GetBike)
		bikes.GET("", auth, adminOnly, bikeHandler.ListBikes)
		bikes.POST("", auth, adminOnly, bikeHandler.CreateBike)
		bikes.PUT("/:bikeId/availability", auth, adminOnly, bikeHandler.UpdateAvailability)
	}

	// Service requests routes
	requests := api.Group("/service-requests")
	requests.Use(auth)
	{
		requests.POST("", RequireRole(logger, domain.Customer), serviceRequestHandler.CreateServiceRequest)
		requests.GET("", adminOnly, serviceRequestHandler.ListServiceRequests)
		requests.GET("/mechanics/available", adminOnly, serviceRequestHandler.AvailableMechanics)
		requests.GET("/mechanic/:mechanicId", serviceRequestHandler.ListByMechanic)
		requests.GET("/customer/:customerId", serviceRequestHandler.ListByCustomer)
		requests.GET("/:requestId", serviceRequestHandler.GetServiceRequest)
		requests.PATCH("/:requestId/assign", adminOnly, serviceRequestHandler.AssignServiceRequest)
		requests.PATCH("/:requestId/status", serviceRequestHandler.UpdateStatus)
	}

	// User routes
	users := api.Group("/user")
	users.Use(auth)
	{
		users.GET("/profile/:userId", userHandler.GetProfile)
		users.GET("/rentals/:userId", userHandler.GetRentals)
		users.GET("/stats/:userId", userHandler.GetStats)
		users.POST("/upload-profile/:userId", userHandler.UploadProfileImage)
		users.PUT("/profile/:userId", userHandler.UpdateProfile)
		users.PUT("/change-password/:userId", userHandler.ChangePassword)
		users.PUT("/role/:userId", adminOnly, userHandler.SetRole)
	}

	// Rentals routes
	rentals := api.Group("/rentals")
	rentals.Use(auth)
	{
		rentals.POST("", RequireRole(logger, domain.Customer), rentalHandler.Rent)
		rentals.PATCH("/:rentalId/return", rentalHandler.Return)
	}

	api.GET("/dashboard", auth, dashboardHandler.GetDashboard)

	return &Router{router: router}, nil
}

func allowedOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"http://localhost:5173"}
	}
	return origins
}

// Serve blocks until the server stops. A Shutdown is not reported as an error.
func (r *Router) Serve(addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           r.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	r.mu.Lock()
	r.server = server
	r.mu.Unlock()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (r *Router) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	server := r.server
	r.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

func (r *Router) Engine() *gin.Engine {
	return r.router
}

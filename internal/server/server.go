// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"time"

	_ "realestate/docs" // swagger docs
	"realestate/internal/cache"
	"realestate/internal/config"
	"realestate/internal/database"
	"realestate/internal/featureflags"
	"realestate/internal/middleware"
	"realestate/internal/models"
	"realestate/internal/notifications"
	"realestate/internal/repository"
	"realestate/internal/service"
	"realestate/internal/session"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config          *config.Config
	db              *gorm.DB
	redis           *redis.Client
	app             *fiber.App
	promMiddleware  *fiberprometheus.FiberPrometheus
	shutdownCtx     context.Context
	shutdownFn      context.CancelFunc
	sessions        *session.Provider
	tickets         *session.Tickets
	notifier        *notifications.Notifier
	hub             *notifications.Hub
	featureFlags    *featureflags.Manager
	authService     *service.AuthService
	userService     *service.UserService
	propertyService *service.PropertyService
	favoriteService *service.FavoriteService
	inquiryService  *service.InquiryService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Redis is optional; without it caching, revocation and realtime are off.
	redisClient := cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	flags, err := featureflags.Load(cfg.FeatureFlags, cfg.FeatureFlagsFile)
	if err != nil {
		return nil, fmt.Errorf("feature flags: %w", err)
	}

	userRepo := repository.NewUserRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	imageRepo := repository.NewPropertyImageRepository(db)
	favoriteRepo := repository.NewFavoriteRepository(db)
	inquiryRepo := repository.NewInquiryRepository(db)

	sessions := session.NewProvider(session.Options{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      time.Duration(cfg.JWTTTLHours) * time.Hour,
	}, redisClient)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("realestate-api"),
		sessions:       sessions,
		tickets:        session.NewTickets(redisClient),
		featureFlags:   flags,
	}

	// Initialize notifier and hub if Redis is available
	var publisher service.EventPublisher
	if redisClient != nil {
		s.notifier = notifications.NewNotifier(redisClient)
		s.hub = notifications.NewHub()
		publisher = s.notifier
	}

	s.authService = service.NewAuthService(userRepo, sessions)
	s.userService = service.NewUserService(userRepo)
	s.propertyService = service.NewPropertyService(propertyRepo, imageRepo, favoriteRepo, flags)
	s.favoriteService = service.NewFavoriteService(favoriteRepo, propertyRepo)
	s.inquiryService = service.NewInquiryService(inquiryRepo, propertyRepo, publisher, flags)

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID
	app.Use(middleware.ContextMiddleware())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api", middleware.Authenticate(s.sessions, s.tickets))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(s.redis, 5, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", middleware.AuthRequired(), s.Logout)

	// User routes
	users := api.Group("/users", middleware.AuthRequired())
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)
	users.Get("/", middleware.AdminRequired(), s.GetAllUsers)
	users.Get("/:id", s.GetUserProfile)

	// Property routes. Specific paths before /:id.
	properties := api.Group("/properties")
	properties.Get("/", s.GetProperties)
	properties.Get("/my", middleware.AuthRequired(), s.GetMyProperties)
	properties.Post("/", middleware.AuthRequired(), s.CreateProperty)
	properties.Get("/:id/images", s.GetPropertyImages)
	properties.Post("/:id/images", middleware.AuthRequired(), s.AddPropertyImage)
	properties.Delete("/:id/images/:imageId", middleware.AuthRequired(), s.DeletePropertyImage)
	properties.Get("/:id", s.GetProperty)
	properties.Put("/:id", middleware.AuthRequired(), s.UpdateProperty)
	properties.Delete("/:id", middleware.AuthRequired(), s.DeleteProperty)

	// Favorite routes. Authorization errors come from the service so that
	// anonymous callers get 401 and strangers 403.
	favorites := api.Group("/favorites")
	favorites.Get("/", s.GetFavorites)
	favorites.Post("/", s.CreateFavorite)
	favorites.Post("/toggle", middleware.RateLimit(s.redis, 30, time.Minute, "favorite_toggle"), s.ToggleFavorite)
	favorites.Get("/:userId/:propertyId/exists", s.FavoriteExists)
	favorites.Delete("/:userId/:propertyId", s.DeleteFavorite)

	// Inquiry routes
	inquiries := api.Group("/inquiries")
	inquiries.Post("/", s.inquiryRateLimit(), s.CreateInquiry)
	inquiries.Get("/my", s.GetMyInquiries)
	inquiries.Get("/", s.GetAllInquiries)
	inquiries.Get("/:id", s.GetInquiry)
	inquiries.Delete("/:id", s.DeleteInquiry)

	// Realtime notifications
	api.Post("/ws/ticket", middleware.AuthRequired(), s.IssueWSTicket)
	api.Get("/ws", middleware.AuthRequired(), s.NotificationsHandler())

	// Admin routes
	admin := api.Group("/admin", middleware.AdminRequired())
	admin.Get("/feature-flags", s.GetFeatureFlags)
}

// inquiryRateLimit throttles anonymous submissions only.
func (s *Server) inquiryRateLimit() fiber.Handler {
	limit := middleware.RateLimit(s.redis, 5, 10*time.Minute, "anonymous_inquiry")
	return func(c *fiber.Ctx) error {
		if !middleware.ActorFrom(c).IsAnonymous() {
			return c.Next()
		}
		return limit(c)
	}
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional, so only
// an unreachable configured Redis makes the service unready.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// NewApp builds the Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Real Estate API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return models.RespondWithError(c, fe.Code, models.NewValidationError(fe.Message))
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	// Wire the hub to the Redis subscriber if available
	if s.notifier != nil && s.hub != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start notification wiring", "error", err)
			}
		}()
	}

	middleware.Logger.Info("server starting", "port", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop the wiring goroutine
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			middleware.Logger.Error("error shutting down notification hub", "error", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}

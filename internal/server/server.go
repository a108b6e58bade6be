// Package server contains the HTTP handlers for the Inkraft API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "inkraft/docs" // swagger docs
	"inkraft/internal/analytics"
	"inkraft/internal/bootstrap"
	"inkraft/internal/config"
	"inkraft/internal/database"
	"inkraft/internal/featureflags"
	"inkraft/internal/middleware"
	"inkraft/internal/models"
	"inkraft/internal/notifications"
	"inkraft/internal/ratelimit"
	"inkraft/internal/repository"
	"inkraft/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	closeAnalytics func(context.Context) error

	userRepo repository.UserRepository

	notifier     *notifications.Notifier
	featureFlags *featureflags.Manager

	userService        *service.UserService
	postService        *service.PostService
	commentService     *service.CommentService
	voteService        *service.VoteService
	moderationService  *service.ModerationService
	followService      *service.FollowService
	feedService        *service.FeedService
	publicationService *service.PublicationService
	digestService      *service.DigestService
	libraryService     *service.LibraryService
	analyticsService   *service.AnalyticsService
}

// NewServer creates a new server instance with all dependencies
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	// Database, schema, Redis (nil client when unreachable) and built-in categories
	db, rdb, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{ApplySchema: true, SeedBuiltIns: true})
	if err != nil {
		return nil, err
	}

	return NewServerWithDeps(cfg, db, rdb)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	views, closeViews, err := analytics.Open(context.Background(), cfg, db)
	if err != nil {
		return nil, fmt.Errorf("analytics store: %w", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	voteRepo := repository.NewVoteRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	followRepo := repository.NewFollowRepository(db)
	publicationRepo := repository.NewPublicationRepository(db)
	digestRepo := repository.NewDigestRepository(db)
	libraryRepo := repository.NewLibraryRepository(db)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("inkraft-api"),
		closeAnalytics: closeViews,
		userRepo:       userRepo,
		notifier:       notifications.NewNotifier(redisClient),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}

	server.userService = service.NewUserService(userRepo)
	server.postService = service.NewPostService(postRepo, userRepo, categoryRepo, publicationRepo, views, redisClient)
	server.commentService = service.NewCommentService(commentRepo, postRepo, userRepo,
		newCommentLimiter(cfg, redisClient), server.notifier, cfg.AutoApproveTrust)
	server.voteService = service.NewVoteService(voteRepo, postRepo, userRepo)
	server.moderationService = service.NewModerationService(alertRepo, userRepo, voteRepo, commentRepo, server.notifier)
	server.followService = service.NewFollowService(followRepo, userRepo, categoryRepo)
	server.feedService = service.NewFeedService(postRepo, followRepo, server.featureFlags)
	server.publicationService = service.NewPublicationService(publicationRepo, userRepo, postRepo)
	server.digestService = service.NewDigestService(digestRepo, postRepo, userRepo)
	server.libraryService = service.NewLibraryService(libraryRepo, postRepo)
	server.analyticsService = service.NewAnalyticsService(views, postRepo, userRepo, commentRepo, alertRepo)

	return server, nil
}

// newCommentLimiter picks the comment rate limiter backend. The Redis backend
// needs a live client; without one the process-local limiter is used.
func newCommentLimiter(cfg *config.Config, rdb *redis.Client) ratelimit.Limiter {
	if cfg.RateLimitBackend == "redis" {
		if rdb != nil {
			return ratelimit.NewRedisLimiter(rdb)
		}
		slog.Warn("RATE_LIMIT_BACKEND is redis but redis is unavailable, using in-memory limiter")
	}
	return ratelimit.NewMemoryLimiter()
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Tracing runs before the context middleware so the trace ID reaches the logger
	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so error responses still carry CORS headers
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
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
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
				Code:  models.CodeRateLimited,
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)
	api.Get("/", s.HealthCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Inkraft Backend Metrics Dashboard",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	authRequired := middleware.AuthRequired(s.config.JWTSecret)
	optionalAuth := middleware.OptionalAuth(s.config.JWTSecret)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)

	// Public browse routes; a valid token still identifies the reader
	api.Get("/categories", s.GetCategories)

	posts := api.Group("/posts", optionalAuth)
	posts.Get("/", s.GetPosts)
	posts.Get("/trending", s.GetTrendingPosts)
	posts.Get("/:slug/comments", s.GetComments)
	posts.Get("/:slug", s.GetPost)

	publications := api.Group("/publications")
	publications.Get("/", s.GetPublications)
	publications.Get("/:slug/posts", s.GetPublicationPosts)
	publications.Get("/:slug", s.GetPublication)

	digests := api.Group("/digests", optionalAuth)
	digests.Get("/", s.GetDigests)
	digests.Get("/:slug", s.GetDigest)

	// Define /users/me BEFORE the public /users/:id route
	users := api.Group("/users")
	users.Get("/me", authRequired, s.GetMyProfile)
	users.Put("/me", authRequired, s.UpdateMyProfile)
	users.Get("/:id", s.GetUserProfile)

	// Protected routes; everything registered below requires a token
	protected := api.Group("", authRequired)

	follows := protected.Group("/follows")
	follows.Post("/authors/:id", s.FollowAuthor)
	follows.Delete("/authors/:id", s.UnfollowAuthor)
	follows.Post("/categories/:slug", s.FollowCategory)
	follows.Delete("/categories/:slug", s.UnfollowCategory)

	protected.Get("/feed", s.GetFeed)

	// Protected post routes
	myPosts := protected.Group("/posts")
	myPosts.Post("/", middleware.RateLimit(
		s.redis, 10, time.Hour, "create_post"), s.CreatePost)
	// Define specific /:slug/:resource routes BEFORE generic /:slug route
	myPosts.Post("/:slug/publish", s.PublishPost)
	myPosts.Post("/:slug/unpublish", s.UnpublishPost)
	myPosts.Post("/:slug/vote", s.VotePost)
	myPosts.Post("/:slug/comments", s.CreateComment)
	myPosts.Put("/:slug/comments/:commentId", s.UpdateComment)
	myPosts.Delete("/:slug/comments/:commentId", s.DeleteComment)
	myPosts.Put("/:slug", s.UpdatePost)
	myPosts.Delete("/:slug", s.DeletePost)

	myPublications := protected.Group("/publications")
	myPublications.Post("/", s.CreatePublication)
	myPublications.Post("/:slug/members", s.AddPublicationMember)

	myDigests := protected.Group("/digests")
	myDigests.Post("/", s.CreateDigest)
	myDigests.Post("/:slug/items", s.AddDigestItem)
	myDigests.Put("/:slug/items/order", s.ReorderDigestItems)
	myDigests.Delete("/:slug/items/:postId", s.RemoveDigestItem)
	myDigests.Post("/:slug/publish", s.PublishDigest)

	library := protected.Group("/library")
	library.Get("/saved", s.GetSavedPosts)
	library.Post("/saved/:slug", s.SavePost)
	library.Delete("/saved/:slug", s.UnsavePost)
	library.Get("/history", s.GetReadingHistory)
	library.Post("/history", s.RecordReadingProgress)
	library.Delete("/history", s.ClearReadingHistory)

	protected.Get("/analytics/me", s.GetMyAnalytics)

	// Admin routes
	admin := protected.Group("/admin", s.AdminRequired())
	admin.Get("/users", s.AdminListUsers)
	admin.Get("/users/:id", s.AdminGetUser)
	admin.Put("/users/:id", s.AdminUpdateUser)
	admin.Get("/posts", s.AdminListPosts)
	admin.Put("/posts/:slug/pick", s.AdminSetEditorsPick)
	admin.Delete("/posts/:slug", s.AdminDeletePost)
	admin.Get("/comments", s.AdminListComments)
	admin.Post("/comments/:id/moderate", s.AdminModerateComment)
	admin.Get("/alerts", s.AdminListAlerts)
	admin.Post("/alerts", s.AdminCreateAlert)
	admin.Post("/alerts/:id/resolve", s.AdminResolveAlert)
	admin.Get("/analytics", s.GetAdminAnalytics)
	admin.Get("/feature-flags", s.GetFeatureFlags)
	admin.Post("/categories", s.AdminCreateCategory)
}

// HealthCheck is a legacy/simple alias for ReadinessCheck
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return s.ReadinessCheck(c)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional: the
// service degrades to uncached reads and the in-memory limiter without it.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus == "unhealthy" {
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"message": "Inkraft",
		"version": "1.0.0",
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that userID is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := middleware.CurrentUserID(c)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		user, err := s.userRepo.GetByID(c.UserContext(), userID)
		if err != nil {
			if models.HasCode(err, models.CodeNotFound) {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Unknown user"))
			}
			return models.RespondWithAppError(c, err)
		}
		if !user.IsAdmin() || user.IsBanned {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}

		return c.Next()
	}
}

// NewApp builds the Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Inkraft API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			slog.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
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
	s.app = s.NewApp()

	slog.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			slog.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if s.closeAnalytics != nil {
		if err := s.closeAnalytics(ctx); err != nil {
			slog.Error("error closing analytics store", slog.String("error", err.Error()))
		}
	}

	// Close database connection
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			slog.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	// Close Redis connection
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			slog.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	slog.Info("server shutdown complete")
	return nil
}

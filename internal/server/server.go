// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "social/docs" // swagger docs
	"social/internal/cache"
	"social/internal/config"
	"social/internal/database"
	"social/internal/featureflags"
	"social/internal/middleware"
	"social/internal/models"
	"social/internal/notifications"
	"social/internal/repository"
	"social/internal/service"

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
	featureFlags   *featureflags.Manager
	notifier       *notifications.Notifier

	tokenService   *service.TokenService
	authService    *service.AuthService
	postService    *service.PostService
	commentService *service.CommentService
	likeService    *service.LikeService
	tagService     *service.TagService
	chatService    *service.ChatService
	messageService *service.MessageService
	profileService *service.ProfileService
	mediaService   *service.MediaService
}

// NewServer connects the database and Redis and builds a Server on top of them.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; caching, events and token revocation then degrade.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db)
	tags := repository.NewTagRepository(db)
	chats := repository.NewChatRepository(db)
	messages := repository.NewMessageRepository(db)

	store := cache.NewStore(redisClient, cfg.CacheTTL())
	notifier := notifications.NewNotifier(redisClient)
	flags := featureflags.NewManager(cfg.FeatureFlags)
	tokens := service.NewTokenService(cfg, redisClient)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("social-api"),
		featureFlags:   flags,
		notifier:       notifier,

		tokenService:   tokens,
		authService:    service.NewAuthService(users, tokens),
		postService:    service.NewPostService(posts, tags, store, flags, notifier),
		commentService: service.NewCommentService(repository.NewCommentRepository(db), posts, store, notifier),
		likeService:    service.NewLikeService(repository.NewLikeRepository(db), posts, store, notifier),
		tagService:     service.NewTagService(tags),
		chatService:    service.NewChatService(chats, messages, users, cfg.MessagesDescending()),
		messageService: service.NewMessageService(messages, chats, notifier, cfg.MessagesDescending()),
		profileService: service.NewProfileService(repository.NewProfileRepository(db), posts, store),
		mediaService:   service.NewMediaService(repository.NewMediaRepository(db), cfg),
	}
	return s, nil
}

// App builds the Fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	bodyLimit := s.config.MediaMaxUploadMB
	if bodyLimit <= 0 {
		bodyLimit = service.DefaultMediaMaxUploadMB
	}

	app := fiber.New(fiber.Config{
		AppName:   "Social API",
		BodyLimit: (bodyLimit + 1) * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return models.RespondWithError(c, fe.Code, fe)
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
				slog.String("path", c.Path()), slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	// Prometheus Metrics
	app.Use(middleware.MetricsMiddleware(s.promMiddleware))

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS must run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400, // 24 hours
	}))

	// Global per-IP ceiling; the Redis limiter covers the auth endpoints.
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || middleware.RateLimitBypassed(s.config.Env)
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Request was throttled.",
				"code":  "RATE_LIMITED",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	s.promMiddleware.RegisterAt(app, "/metrics")

	app.Static(s.mediaService.URLPrefix(), s.mediaService.Dir(), fiber.Static{
		MaxAge: 86400,
	})

	api := app.Group("/api/v1")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Social API Metrics Dashboard",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Auth routes
	authLimit := middleware.RateLimit(s.redis, s.config.Env, s.authRateLimit(), s.config.AuthRateWindow(), "auth")
	api.Post("/register", authLimit, s.Register)
	api.Post("/token", authLimit, s.ObtainToken)
	api.Post("/token/refresh", authLimit, s.RefreshToken)
	api.Post("/token/revoke", authLimit, s.RevokeToken)

	// Everything else needs a bearer access token
	protected := api.Group("", middleware.AuthRequired(s.tokenService))

	posts := protected.Group("/posts")
	posts.Get("/", s.ListPosts)
	posts.Post("/", s.CreatePost)
	posts.Get("/:id", s.GetPost)
	posts.Put("/:id", s.ReplacePost)
	posts.Patch("/:id", s.PatchPost)
	posts.Delete("/:id", s.DeletePost)

	tags := protected.Group("/tags")
	tags.Get("/", s.ListTags)
	tags.Post("/", s.CreateTag)
	tags.Get("/:id", s.GetTag)
	tags.Put("/:id", s.ReplaceTag)
	tags.Patch("/:id", s.PatchTag)
	tags.Delete("/:id", s.DeleteTag)

	comments := protected.Group("/comments")
	comments.Get("/", s.ListComments)
	comments.Post("/", s.CreateComment)
	comments.Get("/:id", s.GetComment)
	comments.Put("/:id", s.UpdateComment)
	comments.Patch("/:id", s.UpdateComment)
	comments.Delete("/:id", s.DeleteComment)

	likes := protected.Group("/likes")
	likes.Get("/", s.ListLikes)
	likes.Post("/", s.CreateLike)
	likes.Get("/:id", s.GetLike)
	likes.Delete("/:id", s.DeleteLike)

	chats := protected.Group("/chats")
	chats.Get("/", s.ListChats)
	chats.Post("/", s.CreateChat)
	chats.Get("/:id", s.GetChat)
	chats.Put("/:id", s.ReplaceChat)
	chats.Patch("/:id", s.PatchChat)
	chats.Delete("/:id", s.DeleteChat)

	messages := protected.Group("/messages")
	messages.Get("/", s.ListMessages)
	messages.Post("/", s.CreateMessage)
	messages.Get("/:id", s.GetMessage)
	messages.Put("/:id", s.ReplaceMessage)
	messages.Patch("/:id", s.PatchMessage)
	messages.Delete("/:id", s.DeleteMessage)

	profiles := protected.Group("/profiles")
	profiles.Get("/", s.ListProfiles)
	profiles.Post("/", s.CreateProfile)
	// Define /me BEFORE generic /:id route
	profiles.Get("/me", s.GetMyProfile)
	profiles.Get("/:id", s.GetProfile)
	profiles.Put("/:id", s.UpdateProfile)
	profiles.Patch("/:id", s.UpdateProfile)
	profiles.Delete("/:id", s.DeleteProfile)

	protected.Post("/media", s.UploadMedia)
	protected.Get("/feature-flags", s.GetFeatureFlags)
}

func (s *Server) authRateLimit() int {
	if s.config.AuthRateLimit <= 0 {
		return 10
	}
	return s.config.AuthRateLimit
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
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

// Start starts the server
func (s *Server) Start() error {
	app := s.App()
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}

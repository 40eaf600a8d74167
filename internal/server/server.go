// Package server contains the HTML and JSON handlers of the blog.
package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "myblog/docs" // swagger docs
	"myblog/internal/auth"
	"myblog/internal/cache"
	"myblog/internal/config"
	"myblog/internal/database"
	"myblog/internal/mail"
	"myblog/internal/middleware"
	"myblog/internal/models"
	"myblog/internal/repository"
	"myblog/internal/service"

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
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	tokens         *auth.TokenManager
	userRepo       repository.UserRepository
	postService    *service.PostService
	commentService *service.CommentService
	shareService   *service.ShareService
	userService    *service.UserService
}

// NewServer connects to the database and Redis described by cfg and wires
// every service.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	mailer, err := mail.New(cfg, middleware.Logger)
	if err != nil {
		return nil, err
	}

	return NewServerWithDeps(cfg, db, cache.InitRedis(cfg.RedisURL), mailer)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; rate limiting then fails open and logout only
// clears the cookie.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, mailer mail.Mailer) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	tagRepo := repository.NewTagRepository(db)

	var revocations auth.RevocationStore
	if redisClient != nil {
		revocations = auth.NewRedisRevocations(redisClient)
	}

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("myblog"),
		tokens:         auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL(), revocations),
		userRepo:       userRepo,
	}
	s.postService = service.NewPostService(postRepo, tagRepo, userRepo, cfg.Location())
	s.commentService = service.NewCommentService(commentRepo, postRepo, userRepo, userRepo)
	s.shareService = service.NewShareService(postRepo, mailer, s.postService, cfg.EmailFrom, cfg.SiteURL)
	s.userService = service.NewUserService(userRepo, mailer, cfg.EmailFrom, cfg.SiteName, cfg.DefaultPermissions())

	return s, nil
}

// App builds the Fiber application with templates, middleware and routes.
func (s *Server) App() (*fiber.App, error) {
	engine, err := s.newViewEngine()
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		AppName:      s.config.SiteName,
		Views:        engine,
		ViewsLayout:  "layouts/base",
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: s.handleError,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
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

	app.Use(middleware.StructuredLogger())

	app.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.AllowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || !s.config.IsProduction()
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

	// Resolve the session cookie or bearer token for every route.
	app.Use(middleware.Authenticate(s.tokens))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	s.setupAPIRoutes(app)

	// Accounts
	app.Get("/register", s.RegisterForm)
	app.Post("/register", middleware.RateLimit(s.redis, 3, 10*time.Minute, "register"), s.Register)
	app.Get("/login", s.LoginForm)
	app.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	app.Post("/logout", s.Logout)

	// Authoring
	app.Get("/create", middleware.LoginRequired, s.PostCreateForm)
	app.Post("/create", middleware.LoginRequired, s.PostCreate)
	app.Get("/drafts", middleware.LoginRequired, s.PostDrafts)
	app.Get("/:id<int>/update", middleware.LoginRequired, s.PostUpdateForm)
	app.Post("/:id<int>/update", middleware.LoginRequired, s.PostUpdate)

	// Reading
	app.Get("/", s.PostList)
	app.Get("/tag/:tag", s.PostList)
	app.Get("/draft/:year<int>/:month<int>/:day<int>/:slug", middleware.LoginRequired, s.PostDraftDetail)
	app.Get("/:year<int>/:month<int>/:day<int>/:slug", s.PostDetail)
	app.Get("/:id<int>/share", s.PostShareForm)
	app.Post("/:id<int>/share", middleware.RateLimit(s.redis, 5, 10*time.Minute, "share"), s.PostShare)
	app.Post("/:id<int>/comment", middleware.LoginRequired,
		middleware.RateLimit(s.redis, 5, time.Minute, "comment"), s.PostComment)
}

func (s *Server) setupAPIRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	api.Post("/auth/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.APILogin)
	api.Post("/auth/logout", middleware.APIAuthRequired, s.APILogout)

	// Public post routes
	posts := api.Group("/posts")
	posts.Get("/", s.APIListPosts)
	posts.Get("/drafts", middleware.APIAuthRequired, s.APIListDrafts)
	posts.Get("/:id/similar", s.APISimilarPosts)
	posts.Get("/:id/comments", s.APIListComments)
	posts.Get("/:id", s.APIGetPost)

	// Protected post routes
	posts.Post("/", middleware.APIAuthRequired, s.APICreatePost)
	posts.Post("/:id/publish", middleware.APIAuthRequired, s.APIPublishPost)
	posts.Post("/:id/comments", middleware.APIAuthRequired,
		middleware.RateLimit(s.redis, 5, time.Minute, "comment"), s.APICreateComment)
	posts.Put("/:id", middleware.APIAuthRequired, s.APIUpdatePost)
	posts.Patch("/:id", middleware.APIAuthRequired, s.APIUpdatePost)
	posts.Delete("/:id", middleware.APIAuthRequired, s.APIDeletePost)

	comments := api.Group("/comments")
	comments.Get("/:id", s.APIGetComment)
	comments.Put("/:id", middleware.APIAuthRequired, s.APIUpdateComment)
	comments.Delete("/:id", middleware.APIAuthRequired, s.APIDeleteComment)
	comments.Post("/:id/moderate", middleware.APIAuthRequired, s.APIModerateComment)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional, so
// only the database decides readiness.
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
	if dbStatus == "unhealthy" {
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

// handleError is the application ErrorHandler: JSON under /api, an error
// page everywhere else.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		err = &models.AppError{Code: codeForStatus(fe.Code), Message: fe.Message}
	}
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request error",
			"path", c.Path(), "error", err.Error())
	}
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		err = models.NewInternalError(err)
	}

	if strings.HasPrefix(c.Path(), "/api/") {
		return models.RespondWithError(c, status, err)
	}
	return s.renderError(c, status, err)
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return models.CodeNotFound
	case fiber.StatusBadRequest:
		return models.CodeValidation
	case fiber.StatusForbidden:
		return models.CodePermissionDenied
	case fiber.StatusUnauthorized:
		return models.CodeUnauthorized
	default:
		return models.CodeInternal
	}
}

// Start builds the app and listens on the configured port.
func (s *Server) Start() error {
	app, err := s.App()
	if err != nil {
		return err
	}
	middleware.Logger.Info("server starting", "port", s.config.Port, "env", s.config.Env)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http: %w", err))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			errs = append(errs, fmt.Errorf("close database: %w", cerr))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", rerr))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return errors.Join(errs...)
}

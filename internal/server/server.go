// Package server contains the HTTP handlers for the showcase API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	_ "showcase/docs" // swagger docs
	"showcase/internal/config"
	"showcase/internal/middleware"
	"showcase/internal/models"
	"showcase/internal/notifications"
	"showcase/internal/repository"
	"showcase/internal/service"
	"showcase/internal/storage"
	"showcase/internal/webui"

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
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	verifier *middleware.TokenVerifier
	storage  storage.Gateway
	notifier *notifications.Notifier
	worker   *notifications.InvalidationWorker

	userService        *service.UserService
	projectService     *service.ProjectService
	imageService       *service.ImageService
	tagService         *service.TagService
	competitionService *service.CompetitionService
	reviewService      *service.ReviewService
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB, Redis and storage.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, gateway storage.Gateway) (*Server, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}
	if gateway == nil {
		return nil, errors.New("storage gateway is required")
	}

	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	imageRepo := repository.NewImageRepository(db)
	tagRepo := repository.NewTagRepository(db)
	competitionRepo := repository.NewCompetitionRepository(db)
	reviewRepo := repository.NewReviewRepository(db)

	worker := notifications.NewInvalidationWorker(webui.NewRevalidator(cfg.FrontendURL, cfg.RevalidationSecret))
	notifier := notifications.NewNotifier(redisClient)
	if redisClient == nil {
		notifier = notifier.WithLocalHandler(worker.Handle)
	}

	tags := service.NewTagService(tagRepo, notifier)
	competitions := service.NewCompetitionService(competitionRepo, projectRepo, notifier)

	return &Server{
		config:             cfg,
		db:                 db,
		redis:              redisClient,
		promMiddleware:     middleware.InitMetrics("showcase-api"),
		verifier:           middleware.NewTokenVerifier(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience),
		storage:            gateway,
		notifier:           notifier,
		worker:             worker,
		userService:        service.NewUserService(userRepo),
		projectService:     service.NewProjectService(projectRepo, imageRepo, tags, competitions, gateway, notifier),
		imageService:       service.NewImageService(imageRepo, projectRepo, gateway, notifier, cfg.UploadURLTTL()),
		tagService:         tags,
		competitionService: competitions,
		reviewService:      service.NewReviewService(reviewRepo, competitionRepo, projectRepo, userRepo, gateway),
	}, nil
}

// NewApp builds the Fiber app with the API error handler.
func NewApp() *fiber.App {
	return fiber.New(fiber.Config{
		AppName:   "Showcase API",
		BodyLimit: 1 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			slog.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://localhost:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || !s.config.IsProduction()
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Public browsing. Specific paths go before /:id.
	projects := api.Group("/projects")
	projects.Get("/", s.ListProjects)
	projects.Get("/featured", s.ListFeaturedProjects)
	projects.Get("/trending", s.ListTrendingProjects)
	projects.Get("/:id", s.OptionalAuth(), s.GetProject)

	competitions := api.Group("/competitions")
	competitions.Get("/", s.ListCompetitions)
	competitions.Get("/with-projects", s.ListCompetitionsWithProjects)
	competitions.Get("/active-or-recent", s.GetActiveOrRecentCompetition)
	competitions.Get("/:idOrSlug", s.GetCompetition)

	tags := api.Group("/tags")
	tags.Get("/", s.ListTags)
	tags.Get("/categories", s.ListTagCategories)
	tags.Get("/grouped", s.ListGroupedTags)
	tags.Post("/suggest", s.AuthRequired(),
		middleware.RateLimit(s.redis, 10, time.Hour, "suggest_tag"), s.SuggestTag)

	users := api.Group("/users")
	users.Post("/", s.TokenRequired(), s.RegisterUser)
	users.Get("/:id", s.GetUserProfile)

	protected := api.Group("", s.AuthRequired())
	protected.Get("/me", s.GetMe)

	my := protected.Group("/my")
	myProjects := my.Group("/projects")
	myProjects.Get("/", s.ListMyProjects)
	myProjects.Post("/", middleware.RateLimit(s.redis, 10, time.Hour, "create_project"), s.CreateProject)
	myProjects.Get("/:id/images", s.ListProjectImages)
	myProjects.Post("/:id/images/upload-url",
		middleware.RateLimit(s.redis, 60, time.Hour, "upload_url"), s.RequestImageUpload)
	myProjects.Post("/:id/images/main", s.SetMainImage)
	myProjects.Post("/:id/images/:imageId/complete", s.CompleteImageUpload)
	myProjects.Delete("/:id/images/:imageId", s.DeleteProjectImage)
	myProjects.Post("/:id/resubmit", s.ResubmitProject)
	myProjects.Get("/:id", s.GetMyProject)
	myProjects.Put("/:id", s.UpdateProject)
	myProjects.Delete("/:id", s.DeleteProject)

	reviews := my.Group("/reviews")
	reviews.Get("/", s.ListMyReviews)
	reviews.Get("/projects/:projectId", s.GetReviewProject)
	reviews.Get("/:competitionId", s.GetMyReview)
	reviews.Put("/:competitionId/rankings", s.UpdateRankings)
	reviews.Put("/:competitionId/status", s.UpdateReviewStatus)

	admin := protected.Group("/admin", s.AdminRequired())
	adminProjects := admin.Group("/projects")
	adminProjects.Post("/:id/approve", s.ApproveProject)
	adminProjects.Post("/:id/reject", s.RejectProject)
	adminProjects.Post("/:id/ice-box", s.IceBoxProject)
	adminProjects.Post("/:id/feature", s.FeatureProject)

	adminTags := admin.Group("/tags")
	adminTags.Get("/pending", s.ListPendingTags)
	adminTags.Post("/:id/approve", s.ApproveTag)
	adminTags.Post("/:id/reject", s.RejectTag)

	adminCompetitions := admin.Group("/competitions")
	adminCompetitions.Post("/", s.CreateCompetition)
	adminCompetitions.Put("/:id", s.UpdateCompetition)
	adminCompetitions.Post("/:id/projects", s.AddCompetitionProject)
	adminCompetitions.Post("/:id/reviewers", s.AssignReviewer)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now().UTC(),
	})
}

// ReadinessCheck pings the database and, when configured, Redis.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if sqlDB, err := s.db.DB(); err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis only backs caching and the invalidation queue, so its absence
	// degrades but does not fail readiness.
	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now().UTC(),
	})
}

// Start starts the invalidation worker and the HTTP listener.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := NewApp()
	s.app = app
	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	if err := s.StartWorker(ctx); err != nil {
		slog.Error("failed to start invalidation worker", slog.String("error", err.Error()))
	}

	slog.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// StartWorker consumes the invalidation queue until ctx is cancelled. Without
// Redis, events are handled in-process as they are enqueued.
func (s *Server) StartWorker(ctx context.Context) error {
	if s.redis == nil {
		return nil
	}
	return s.worker.Start(ctx, s.notifier)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			slog.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			slog.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			slog.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	slog.Info("server shutdown complete")
	return nil
}

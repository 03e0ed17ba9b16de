package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskboard/internal/auth"
	"taskboard/internal/authz"
	"taskboard/internal/config"
	"taskboard/internal/handler"
	"taskboard/internal/logger"
	"taskboard/internal/middleware"
	"taskboard/internal/repository"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Config *config.Config
}

func Init(cfg *config.Config) (*Server, error) {
	if err := logger.Init(cfg.LogLevel, cfg.Environment); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Setup GORM
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}
	zap.L().Info("connected to database", zap.String("db", cfg.DBName))

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiryHours)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	memberRepo := repository.NewMembershipRepository(db)
	projectRepo := repository.NewProjectRepository(db, memberRepo, cfg.MaxProjectsPerUser)
	boardRepo := repository.NewBoardRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	gate := authz.NewGate(memberRepo)

	// Initialize handlers
	userHandler := handler.NewUserHandler(userRepo, tokens)
	projectHandler := handler.NewProjectHandler(projectRepo, gate)
	memberHandler := handler.NewMemberHandler(memberRepo, userRepo, gate)
	boardHandler := handler.NewBoardHandler(boardRepo, gate)
	taskHandler := handler.NewTaskHandler(taskRepo, boardRepo, memberRepo, gate)

	// Setup Gin
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(logger.RequestLogger())
	r.Use(middleware.Metrics())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Public routes
	r.POST("/register", userHandler.Register)
	r.POST("/login", userHandler.Login)

	// Protected routes - require authentication
	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(tokens))

	if cfg.RateLimitEnabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		limiter := middleware.NewRateLimiter(redisClient, cfg.RateLimitMax, cfg.RateLimitWindow)
		authorized.Use(limiter.Handler())
		zap.L().Info("rate limiting enabled", zap.String("redis", cfg.RedisAddr))
	}

	{
		// Project routes
		authorized.POST("/projects", projectHandler.Create)
		authorized.GET("/projects", projectHandler.GetAll)
		authorized.GET("/projects/:id", projectHandler.GetByID)
		authorized.PATCH("/projects/:id", projectHandler.Update)
		authorized.DELETE("/projects/:id", projectHandler.Delete)

		// Membership routes
		authorized.GET("/projects/:id/members", memberHandler.List)
		authorized.POST("/projects/:id/members/:user_id", memberHandler.Add)
		authorized.DELETE("/projects/:id/members/:user_id", memberHandler.Remove)
		authorized.PATCH("/projects/:id/members/:user_id/role", memberHandler.ChangeRole)

		// Board routes
		authorized.POST("/projects/:id/boards", boardHandler.Create)
		authorized.GET("/projects/:id/boards", boardHandler.GetAll)
		authorized.GET("/projects/:id/boards/:board_id", boardHandler.GetByID)
		authorized.PATCH("/projects/:id/boards/:board_id", boardHandler.Update)
		authorized.DELETE("/projects/:id/boards/:board_id", boardHandler.Delete)

		// Task routes
		authorized.POST("/projects/:id/boards/:board_id/tasks", taskHandler.Create)
		authorized.GET("/projects/:id/boards/:board_id/tasks", taskHandler.GetAll)
		authorized.GET("/projects/:id/boards/:board_id/tasks/:task_id", taskHandler.GetByID)
		authorized.PATCH("/projects/:id/boards/:board_id/tasks/:task_id", taskHandler.Update)
		authorized.DELETE("/projects/:id/boards/:board_id/tasks/:task_id", taskHandler.Delete)
		authorized.POST("/projects/:id/boards/:board_id/tasks/:task_id/assign", taskHandler.Assign)
		authorized.DELETE("/projects/:id/boards/:board_id/tasks/:task_id/assign", taskHandler.Unassign)
	}

	return &Server{
		Engine: r,
		DB:     db,
		Config: cfg,
	}, nil
}

func runMigrations(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	driver, err := migratepg.WithInstance(sqlDB, &migratepg.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	zap.L().Info("migrations applied")
	return nil
}

func (s *Server) Run() {
	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	go func() {
		zap.L().Info("server running", zap.String("port", s.Config.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("failed to listen", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zap.L().Fatal("server forced to shutdown", zap.Error(err))
	}

	zap.L().Info("server exited properly")
}

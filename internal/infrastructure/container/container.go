package container

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/knotless/knot-backend/internal/config"
	httpdelivery "github.com/knotless/knot-backend/internal/delivery/http"
	"github.com/knotless/knot-backend/internal/delivery/http/handler"
	"github.com/knotless/knot-backend/internal/delivery/http/middleware"
	"github.com/knotless/knot-backend/internal/infrastructure/database"
	"github.com/knotless/knot-backend/internal/infrastructure/logger"
	"github.com/knotless/knot-backend/internal/infrastructure/server"
	"github.com/knotless/knot-backend/internal/repository/postgres"
	redisrepo "github.com/knotless/knot-backend/internal/repository/redis"
	"github.com/knotless/knot-backend/internal/usecase/auth"
	"github.com/knotless/knot-backend/internal/usecase/conversation"
	"github.com/knotless/knot-backend/internal/usecase/expiry"
	"github.com/knotless/knot-backend/internal/usecase/finder"
	"github.com/knotless/knot-backend/internal/usecase/match"
	"github.com/knotless/knot-backend/internal/usecase/profile"
)

// Container holds all application dependencies
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	DB      *sqlx.DB
	Redis   *goredis.Client
	Server  *server.Server
	Watcher *expiry.Watcher
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	log, err := logger.New(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Initialize database
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize Redis
	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	matchRepo := postgres.NewMatchRepository(db)
	convRepo := postgres.NewConversationRepository(db)
	schedulerRepo := redisrepo.NewSchedulerRepository(redisClient, cfg.Match.SchedulerTTL)

	// Initialize use cases
	authUseCase := auth.NewUseCase(userRepo, cfg.JWT.Secret, cfg.JWT.ExpiryDay)
	profileUseCase := profile.NewUseCase(userRepo)
	matchFinder := finder.New(userRepo, cfg.Match.FindLimit)
	matchController := match.NewController(matchRepo, userRepo, convRepo, schedulerRepo, log)
	convUseCase := conversation.NewUseCase(convRepo, userRepo)

	// The watcher races the controller over the same records; both are
	// wired against the same repositories.
	watcher := expiry.NewWatcher(redisClient, cfg.Redis.DB, matchRepo, userRepo, log)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authUseCase)
	userHandler := handler.NewUserHandler(profileUseCase)
	matchHandler := handler.NewMatchHandler(matchFinder, matchController)
	convHandler := handler.NewConversationHandler(convUseCase)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(authUseCase)

	// Initialize router
	router := httpdelivery.NewRouter(
		authHandler,
		userHandler,
		matchHandler,
		convHandler,
		authMiddleware,
	)

	// Setup routes
	ginRouter := router.Setup()

	// Initialize server
	srv := server.NewServer(&cfg.Server, ginRouter, log)

	return &Container{
		Config:  cfg,
		Logger:  log,
		DB:      db,
		Redis:   redisClient,
		Server:  srv,
		Watcher: watcher,
	}, nil
}

// Close closes all connections
func (c *Container) Close() error {
	// Close Redis
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Error("failed to close redis", zap.Error(err))
		}
	}

	// Close database
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}

	if c.Logger != nil {
		_ = c.Logger.Sync()
	}

	return nil
}

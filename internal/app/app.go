package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/testguru/timelines/internal/config"
	"github.com/testguru/timelines/internal/db"
	"github.com/testguru/timelines/internal/repository"
	"github.com/testguru/timelines/internal/service"
	"github.com/testguru/timelines/internal/storage"
)

type App struct {
	Cfg             *config.Config
	DB              *sqlx.DB
	Storage         *storage.S3Storage
	AuthService     *service.AuthService
	UserService     *service.UserService
	TimelineService *service.TimelineService
	KeyPhotoService *service.KeyPhotoService
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	timelineRepository := repository.NewTimelineRepository(database)
	timelineTypeRepository := repository.NewTimelineTypeRepository(database)
	keyPhotoRepository := repository.NewKeyPhotoRepository(database)

	// Storage
	photoStorage, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	// Services
	authService := service.NewAuthService(userRepository, cfg.JWTSecret, cfg.JWTExpiry)
	userService := service.NewUserService(userRepository)
	timelineService := service.NewTimelineService(timelineRepository, timelineTypeRepository)
	keyPhotoService := service.NewKeyPhotoService(keyPhotoRepository, photoStorage, cfg.S3PresignExpiry)

	return &App{
		Cfg:             cfg,
		DB:              database,
		Storage:         photoStorage,
		AuthService:     authService,
		UserService:     userService,
		TimelineService: timelineService,
		KeyPhotoService: keyPhotoService,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

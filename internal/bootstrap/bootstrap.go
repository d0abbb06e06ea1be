package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/afhamha/afhamha/internal/app/controllers"
	appMigrations "github.com/afhamha/afhamha/internal/app/migrations"
	"github.com/afhamha/afhamha/internal/app/models"
	appRepos "github.com/afhamha/afhamha/internal/app/repositories"
	appRoutes "github.com/afhamha/afhamha/internal/app/routes"
	appServices "github.com/afhamha/afhamha/internal/app/services"
	"github.com/afhamha/afhamha/internal/config"
	"github.com/afhamha/afhamha/internal/db"
	appMiddleware "github.com/afhamha/afhamha/internal/middleware"
	pkgAuth "github.com/afhamha/afhamha/internal/pkg/auth"
	"github.com/afhamha/afhamha/internal/pkg/cache"
	"github.com/afhamha/afhamha/internal/pkg/helpers"
	"github.com/afhamha/afhamha/internal/pkg/llm"
	"github.com/afhamha/afhamha/internal/pkg/logger"
	"github.com/afhamha/afhamha/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos              *appRepos.Repositories
	Cache              cache.Cache
	JWTService         *pkgAuth.JWTService
	AuthService        *appServices.AuthService
	UserService        *appServices.UserService
	ExplanationService *appServices.ExplanationService
	AdminService       *appServices.AdminService
	CurriculumService  *appServices.CurriculumService
	AuthMiddleware     *appMiddleware.AuthMiddleware
	Controllers        appRoutes.Controllers
	Logger             zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := config.GetEnv("CONFIG_PATH", "configs/config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase opens the database, runs migrations and seeds default data.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.Database, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.Open(ctx, cfg, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Str("driver", database.Driver).Msg("Database connection successfully established.")

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database.Gorm, appMigrations.Default())
	if err := migrator.Migrate(ctx); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	admin := seed.AdminAccount{
		Phone:     cfg.Admin.Phone,
		Password:  cfg.Admin.Password,
		Name:      cfg.Admin.Name,
		StudyYear: cfg.Admin.StudyYear,
	}
	if err := seed.CreateDefaultData(ctx, appRepos.NewRepositories(database.Gorm), admin, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return database, nil
}

// BuildProviders creates the LLM providers for the configured API key. Without a key there are none
// and every explanation request is answered as unsupported.
func BuildProviders(cfg *config.Config, lgr zerolog.Logger) map[models.ExplanationMode]llm.Provider {
	providers := make(map[models.ExplanationMode]llm.Provider)

	client := llm.NewClient(llm.ClientConfig{
		APIKey:  cfg.AI.APIKey,
		BaseURL: cfg.AI.BaseURL,
		Timeout: helpers.ParseDuration(cfg.AI.RequestTimeout, 2*time.Minute),
	})
	if client == nil {
		lgr.Warn().Msg("No OpenAI API key configured, AI explanations are disabled")
		return providers
	}

	providers[models.ModeChat] = llm.NewChatProvider(client, cfg.AI.ChatModel, float32(cfg.AI.Temperature), cfg.AI.MaxTokens)

	if cfg.AI.DefaultAssistantID != "" || len(cfg.AI.AssistantIDs) > 0 {
		providers[models.ModeAssistant] = llm.NewAssistantProvider(
			client,
			cfg.AssistantFor,
			helpers.ParseDuration(cfg.AI.PollInterval, time.Second),
			helpers.ParseDuration(cfg.AI.PollTimeout, 90*time.Second),
			logger.WithComponent("assistant"),
		)
	} else {
		lgr.Info().Msg("No assistant ids configured, assistant mode is disabled")
	}

	return providers
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, database *db.Database, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(database.Gorm)

	var err error
	deps.Cache, err = cache.New(cache.Config{
		Driver:        cfg.Cache.Driver,
		MaxEntries:    cfg.Cache.MaxEntries,
		RedisAddr:     cfg.Cache.RedisAddr,
		RedisPassword: cfg.Cache.RedisPassword,
		RedisDB:       cfg.Cache.RedisDB,
		TTL:           helpers.ParseDuration(cfg.Cache.TTL, 24*time.Hour),
	})
	if err != nil {
		lgr.Error().Err(err).Str("driver", cfg.Cache.Driver).Msg("Failed to initialize explanation cache")
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 1*time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	deps.AuthService = appServices.NewAuthService(
		deps.Repos.UserRepository,
		deps.Repos.TokenRepository,
		deps.JWTService,
		cfg.Credits.SignupCredits,
		logger.WithComponent("auth"),
	)
	deps.UserService = appServices.NewUserService(deps.Repos.UserRepository, cfg.Credits.TrialDays, logger.WithComponent("users"))
	deps.AdminService = appServices.NewAdminService(deps.Repos, cfg.Credits.TrialDays, logger.WithComponent("admin"))
	deps.CurriculumService = appServices.NewCurriculumService(deps.Repos.LessonRepository)
	deps.ExplanationService = appServices.NewExplanationService(
		deps.Repos,
		BuildProviders(cfg, lgr),
		llm.NewPromptBuilder(0),
		deps.Cache,
		appServices.ExplanationConfig{
			CostPerRequest:   cfg.Credits.CostPerRequest,
			PointsPerRequest: cfg.Credits.PointsPerRequest,
			HoursPerRequest:  cfg.Credits.HoursPerRequest,
			TrialDays:        cfg.Credits.TrialDays,
			MaxQueryLength:   cfg.Credits.MaxQueryLength,
			DefaultMode:      models.ExplanationMode(strings.ToLower(cfg.AI.DefaultMode)),
			CacheTTL:         helpers.ParseDuration(cfg.Cache.TTL, 24*time.Hour),
			RequestTimeout:   helpers.ParseDuration(cfg.AI.RequestTimeout, 2*time.Minute),
		},
		logger.WithComponent("explanations"),
	)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.Controllers = appRoutes.Controllers{
		Auth:        appControllers.NewAuthController(deps.AuthService, lgr),
		User:        appControllers.NewUserController(deps.UserService),
		Explanation: appControllers.NewExplanationController(deps.ExplanationService, lgr),
		Curriculum:  appControllers.NewCurriculumController(deps.CurriculumService),
		Admin:       appControllers.NewAdminController(deps.AdminService, lgr),
		Health:      appControllers.NewHealthController(database),
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(appMiddleware.RequestLogger(lgr), appMiddleware.Recovery(lgr))

	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)

	return router
}

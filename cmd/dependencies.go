package cmd

import (
	"context"
	"market-insight/config"
	"market-insight/internal/delivery/http"
	"market-insight/internal/repository"
	"market-insight/pkg/cache"
	"market-insight/pkg/logger"
	"market-insight/pkg/postgres"
	"market-insight/pkg/redis"
	"market-insight/pkg/security"
	"market-insight/pkg/telegram"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/telebot.v3"
)

type AppDependency struct {
	db          *postgres.DB
	redis       *redis.Client
	cfg         *config.Config
	log         *logger.Logger
	validator   *goValidator.Validate
	echo        *echo.Echo
	cache       cache.Cache
	marketCache repository.MarketCacheRepository
	telegram    *telegram.TelegramRateLimiter
	telegramBot *telebot.Bot
	tokens      *security.TokenManager
}

func NewAppDependency(ctx context.Context) (*AppDependency, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Encoding,
		zap.String("service", cfg.App.Name),
		zap.String("version", cfg.App.Version),
	)
	if err != nil {
		return nil, err
	}

	db, err := postgres.NewDB(cfg.DB, log)
	if err != nil {
		log.Error("Failed to connect to database", zap.Error(err))
		return nil, err
	}

	inmemoryCache := cache.NewCache(cfg.Cache.DefaultExpiration, cfg.Cache.CleanupInterval)

	var (
		redisClient *redis.Client
		marketCache repository.MarketCacheRepository
	)
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			log.Error("Failed to connect to redis", zap.Error(err))
			_ = db.Close()
			return nil, err
		}
		marketCache = repository.NewRedisMarketCache(redisClient)
	} else {
		marketCache = repository.NewMemoryMarketCache(inmemoryCache)
	}
	log.Info("Market cache ready", zap.String("backend", marketCache.Backend()))

	bot, err := telegram.NewBot(&cfg.Telegram)
	if err != nil {
		log.Error("Failed to create telegram bot", zap.Error(err))
		_ = db.Close()
		return nil, err
	}
	var notifier *telegram.TelegramRateLimiter
	if bot != nil {
		notifier = telegram.NewTelegramRateLimiter(&cfg.Telegram, log, bot)
		log = log.WithAlertSender(notifier, zapcore.ErrorLevel)
	} else {
		notifier = telegram.NewTelegramRateLimiter(&cfg.Telegram, log, nil)
		log.Info("Telegram bot token not set, notifications disabled")
	}

	return &AppDependency{
		cfg:         cfg,
		log:         log,
		validator:   http.NewValidator(),
		db:          db,
		redis:       redisClient,
		echo:        echo.New(),
		cache:       inmemoryCache,
		marketCache: marketCache,
		telegram:    notifier,
		telegramBot: bot,
		tokens:      security.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenDuration),
	}, nil
}

func (d *AppDependency) Close() error {
	d.log.Info("Closing app dependency")
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			d.log.Error("Failed to close redis", zap.Error(err))
		}
	}
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

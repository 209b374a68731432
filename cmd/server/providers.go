package main

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"relay/config"
	"relay/internal/api"
	"relay/internal/auth"
	"relay/internal/auth/verification"
	"relay/internal/cache"
	"relay/internal/chat"
	"relay/internal/contacts"
	"relay/internal/database"
	"relay/internal/email"
	"relay/internal/media"
	"relay/internal/presence"
	"relay/internal/sessions"
	"relay/internal/user"
	"relay/internal/user/storage"
	"relay/pkg/jwt"
)

type App struct {
	Server   *api.Server
	Health   *api.Health
	Registry *presence.Registry
}

// mailer is satisfied by both the SMTP sender and the log-only fallback.
type mailer interface {
	verification.Mailer
	auth.Notifier
}

func provideLogger(log *logrus.Logger) logrus.FieldLogger {
	return log
}

func provideUserStore(cfg *config.Config, db *database.Database) user.Store {
	if cfg.Storage == config.StorageMemory {
		return storage.NewMemoryStorage()
	}
	return storage.NewUserPostgresStorage(db.SQL)
}

func provideORM(db *database.Database) *gorm.DB {
	return db.ORM
}

// provideRedis connects only when REDIS_ADDR is set; a nil cache selects in-memory stores.
func provideRedis(ctx context.Context, cfg *config.Config) (*cache.RedisCache, func(), error) {
	if cfg.RedisAddr == "" {
		return nil, func() {}, nil
	}
	c, err := cache.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	return c, func() { _ = c.Close() }, nil
}

func provideCodeStore(c *cache.RedisCache) verification.Store {
	if c == nil {
		return verification.NewMemoryStorage()
	}
	return verification.NewRedisStorage(c)
}

func provideSessionStore(c *cache.RedisCache) sessions.Store {
	if c == nil {
		return sessions.NewMemoryStorage()
	}
	return sessions.NewRedisStorage(c)
}

func provideMailer(cfg *config.Config, log logrus.FieldLogger) mailer {
	if cfg.SMTPHost == "" {
		log.Warn("SMTP_HOST not set, emails will only be logged")
		return email.NewLogSender(log)
	}
	return email.NewEmailSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
}

func provideCodeMailer(m mailer) verification.Mailer {
	return m
}

func provideNotifier(m mailer) auth.Notifier {
	return m
}

func provideCodes(cfg *config.Config, store verification.Store, m verification.Mailer) *verification.Service {
	return verification.NewService(store, m, cfg.OTPTTL)
}

func provideJWT(cfg *config.Config) *jwt.JWT {
	return jwt.NewJWT(cfg.JWTSecret, cfg.TokenTTL)
}

func provideCredentials(cfg *config.Config, tokens *jwt.JWT, revoked sessions.Store) *auth.Credentials {
	return auth.NewCredentials(tokens, revoked, cfg.BcryptCost, cfg.PasswordMinEntropy)
}

func provideCookieOptions(cfg *config.Config) auth.CookieOptions {
	return auth.CookieOptions{TTL: cfg.TokenTTL, Secure: cfg.CookieSecure}
}

func provideDiskStore(cfg *config.Config) *media.DiskStore {
	return media.NewDiskStore(cfg.MediaDir, cfg.MediaBaseURL)
}

func provideUploader(d *media.DiskStore) media.Uploader {
	return d
}

func provideUserLookup(s user.Store) chat.UserLookup {
	return s
}

func provideBlockChecker(s *contacts.Service) chat.BlockChecker {
	return s
}

func providePresenceHandler(
	cfg *config.Config,
	registry *presence.Registry,
	creds *auth.Credentials,
	log logrus.FieldLogger,
) *presence.Handler {
	return presence.NewHandler(registry, creds, cfg.AllowedOrigins, log)
}

func provideHealth(cfg *config.Config, db *database.Database, log logrus.FieldLogger) *api.Health {
	return api.NewHealth(db, cfg.AllowedOrigins, log)
}

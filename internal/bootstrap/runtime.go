// Package bootstrap connects the runtime dependencies shared by the commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"showcase/internal/cache"
	"showcase/internal/config"
	"showcase/internal/database"
	"showcase/internal/models"
	"showcase/internal/repository"
	"showcase/internal/seed"
	"showcase/internal/service"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedCatalog upserts the built-in tag categories, tags and competitions.
	SeedCatalog bool
}

// InitRuntime connects to DB and Redis, promotes the bootstrap admin and
// optionally seeds the catalog.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := EnsureBootstrapAdmin(context.Background(), cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap admin: %w", err)
	}

	if opts.SeedCatalog {
		if err := seed.SeedCatalog(db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed catalog: %w", err)
		}
	}

	return db, r, nil
}

// EnsureBootstrapAdmin grants admin rights to BOOTSTRAP_ADMIN_EMAIL, creating
// the account on first start. Accounts are otherwise created by the identity
// provider, so this is the only way to get the first admin in.
func EnsureBootstrapAdmin(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	email := strings.TrimSpace(strings.ToLower(cfg.BootstrapAdminEmail))
	if email == "" {
		return nil
	}

	users := service.NewUserService(repository.NewUserRepository(db))
	if _, err := users.SetAdmin(ctx, email, true); err != nil {
		if models.ErrorCode(err) != models.CodeNotFound {
			return err
		}
		if _, err := users.Register(ctx, service.RegisterUserInput{Email: email}); err != nil {
			return err
		}
		if _, err := users.SetAdmin(ctx, email, true); err != nil {
			return err
		}
	}
	slog.Info("bootstrap admin ensured", slog.String("email", email))
	return nil
}

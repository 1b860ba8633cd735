package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"keymint/internal/application/license/usecases"
	"keymint/internal/domain/license"
	"keymint/internal/domain/shared/events"
	"keymint/internal/infrastructure/cache"
	"keymint/internal/infrastructure/config"
	"keymint/internal/infrastructure/database"
	"keymint/internal/infrastructure/repository"
	"keymint/internal/shared/db"
	"keymint/internal/shared/logger"
)

var env string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Expire lapsed license keys",
		Long:  `Scan for keys whose computed expiry has passed and pin their stored status to expired. Intended to run from cron.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	queryCache := newQueryCache(cfg, log)
	gormDB := database.Get()

	uc := usecases.NewSweepExpiredUseCase(
		repository.NewKeyRepository(gormDB, queryCache, log),
		db.NewTransactionManager(gormDB),
		newEventPublisher(log),
		license.ClockFunc(func() time.Time { return time.Now().UTC() }),
		log,
	)

	swept, err := uc.Execute(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Expired %d keys\n", swept)
	return nil
}

func newQueryCache(cfg *config.Config, log logger.Interface) cache.QueryCache {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryQueryCache(5 * time.Minute)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Warnw("redis unreachable, falling back to in-memory query cache", "error", err)
		return cache.NewMemoryQueryCache(5 * time.Minute)
	}
	return cache.NewRedisQueryCache(client, "keymint:", 5*time.Minute)
}

func newEventPublisher(log logger.Interface) *events.Dispatcher {
	d := events.NewDispatcher()
	_ = d.Subscribe("", func(e events.DomainEvent) error {
		log.Debugw("domain event", "type", e.GetEventType(), "aggregate_id", e.GetAggregateID())
		return nil
	})
	return d
}

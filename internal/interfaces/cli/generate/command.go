package generate

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"keymint/internal/application/license/dto"
	"keymint/internal/application/license/usecases"
	"keymint/internal/domain/shared/events"
	"keymint/internal/infrastructure/cache"
	"keymint/internal/infrastructure/config"
	"keymint/internal/infrastructure/database"
	"keymint/internal/infrastructure/provider"
	"keymint/internal/infrastructure/repository"
	"keymint/internal/shared/db"
	"keymint/internal/shared/logger"
)

var (
	env         string
	productID   uint
	generatorID uint
	pattern     string
	charset     string
	quantity    int
	sequential  bool
	validFor    int
	limit       int
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a batch of license keys",
		Long:  `Generate license keys for a product from a pattern or a stored generator template and insert them into the database.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().UintVar(&productID, "product", 0, "Product ID the keys belong to (required)")
	cmd.Flags().UintVar(&generatorID, "generator", 0, "Stored generator template ID")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Key pattern, # marks generated characters")
	cmd.Flags().StringVar(&charset, "charset", "", "Character set for random generation")
	cmd.Flags().IntVarP(&quantity, "quantity", "q", 1, "Number of keys to generate")
	cmd.Flags().BoolVar(&sequential, "sequential", false, "Fill masks from the per-product counter instead of random draws")
	cmd.Flags().IntVar(&validFor, "valid-for", 0, "Validity in days after purchase, 0 = no expiry")
	cmd.Flags().IntVar(&limit, "activation-limit", 0, "Activation limit per key, 0 = unlimited")
	cmd.MarkFlagRequired("product")

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

	keyRepo := repository.NewKeyRepository(gormDB, queryCache, log)
	generatorRepo := repository.NewGeneratorRepository(gormDB, queryCache, log)
	sequenceRepo := repository.NewSequenceRepository(gormDB, log)

	uc := usecases.NewGenerateKeysUseCase(
		keyRepo,
		generatorRepo,
		sequenceRepo,
		provider.NewStaticProductProvider(),
		db.NewTransactionManager(gormDB),
		newEventPublisher(log),
		systemClock{},
		cfg.License,
		log,
	)

	result, err := uc.Execute(cmd.Context(), dto.GenerateKeysRequest{
		ProductID:       productID,
		GeneratorID:     generatorID,
		Pattern:         pattern,
		Charset:         charset,
		Quantity:        quantity,
		Sequential:      sequential,
		ValidFor:        validFor,
		ActivationLimit: limit,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Generated %d keys (%d skipped)\n", result.Generated, result.Skipped)
	for _, key := range result.Keys {
		fmt.Println(key.Code)
	}
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

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

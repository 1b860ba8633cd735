package usecases

import (
	"context"
	"fmt"
	"time"

	"keymint/internal/domain/license"
	vo "keymint/internal/domain/license/valueobjects"
	"keymint/internal/shared/logger"
	"keymint/internal/shared/query"
)

const sweepBatchSize = 500

// SweepExpiredUseCase pins the stored status of keys whose computed
// expiry has passed. The expiry check is derived (expires_at or
// valid_for relative to ordered_at), so the candidate scan happens in
// batches and the decision runs on the entity.
type SweepExpiredUseCase struct {
	keyRepo   license.KeyRepository
	txManager TransactionManager
	publisher EventPublisher
	clock     license.Clock
	logger    logger.Interface
}

func NewSweepExpiredUseCase(
	keyRepo license.KeyRepository,
	txManager TransactionManager,
	publisher EventPublisher,
	clock license.Clock,
	logger logger.Interface,
) *SweepExpiredUseCase {
	return &SweepExpiredUseCase{
		keyRepo:   keyRepo,
		txManager: txManager,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
	}
}

// Execute returns the number of keys flipped to expired.
func (uc *SweepExpiredUseCase) Execute(ctx context.Context) (int, error) {
	now := uc.clock.Now()
	swept := 0

	// Keyset pagination: swept rows leave the candidate set mid-scan, so
	// offset paging would skip rows.
	lastID := uint(0)
	for {
		filter := &query.Filter{
			OrderBy: "id",
			Order:   "ASC",
			Page:    1,
			Limit:   sweepBatchSize,
		}
		filter.Where(query.Neq("status", vo.KeyStatusExpired.String()))
		filter.Where(query.Gt("id", lastID))

		keys, err := uc.keyRepo.List(ctx, filter)
		if err != nil {
			return swept, fmt.Errorf("failed to scan keys: %w", err)
		}
		if len(keys) == 0 {
			break
		}

		for _, key := range keys {
			lastID = key.ID()
			if !key.IsExpired(now) {
				continue
			}
			if err := uc.expire(ctx, key, now); err != nil {
				return swept, err
			}
			swept++
		}

		if len(keys) < sweepBatchSize {
			break
		}
	}

	uc.logger.Infow("expiry sweep finished", "swept", swept)
	return swept, nil
}

func (uc *SweepExpiredUseCase) expire(ctx context.Context, key *license.Key, now time.Time) error {
	return uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		key.Normalize(now)
		if !key.IsDirty() {
			return nil
		}
		return saveKey(txCtx, uc.keyRepo, uc.publisher, uc.logger, key, now)
	})
}

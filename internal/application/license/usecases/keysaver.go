package usecases

import (
	"context"
	"time"

	"keymint/internal/domain/license"
	"keymint/internal/shared/logger"
)

// saveKey persists a key and publishes the pre/post transition events
// around the physical write when the status changed. Event failures are
// logged, never propagated: the write is the source of truth.
func saveKey(
	ctx context.Context,
	repo license.KeyRepository,
	publisher EventPublisher,
	log logger.Interface,
	key *license.Key,
	now time.Time,
) error {
	from, to, changed := key.StatusChange()

	if changed {
		event := license.NewKeyStatusEvent(license.EventKeyStatusChanging, key.ID(), from, to, now)
		if err := publisher.Publish(event); err != nil {
			log.Warnw("failed to publish event", "type", license.EventKeyStatusChanging, "error", err)
		}
	}

	if err := repo.Update(ctx, key); err != nil {
		return err
	}

	if changed {
		event := license.NewKeyStatusEvent(license.EventKeyStatusChanged, key.ID(), from, to, now)
		if err := publisher.Publish(event); err != nil {
			log.Warnw("failed to publish event", "type", license.EventKeyStatusChanged, "error", err)
		}
	}

	return nil
}

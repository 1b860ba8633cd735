package usecases

import (
	"context"
	"fmt"

	"keymint/internal/application/license/dto"
	"keymint/internal/domain/license"
	"keymint/internal/shared/logger"
	"keymint/internal/shared/query"
	"keymint/internal/shared/utils"
)

// ReleaseOrderUseCase reverses an order binding: the key returns to the
// available pool, its activations are deleted and subscription-linked keys
// lose their computed expiry.
type ReleaseOrderUseCase struct {
	keyRepo        license.KeyRepository
	activationRepo license.ActivationRepository
	txManager      TransactionManager
	publisher      EventPublisher
	clock          license.Clock
	recycle        bool
	logger         logger.Interface
}

func NewReleaseOrderUseCase(
	keyRepo license.KeyRepository,
	activationRepo license.ActivationRepository,
	txManager TransactionManager,
	publisher EventPublisher,
	clock license.Clock,
	recycle bool,
	logger logger.Interface,
) *ReleaseOrderUseCase {
	return &ReleaseOrderUseCase{
		keyRepo:        keyRepo,
		activationRepo: activationRepo,
		txManager:      txManager,
		publisher:      publisher,
		clock:          clock,
		recycle:        recycle,
		logger:         logger,
	}
}

// Execute releases a single key regardless of the recycle policy; an
// explicit call is always honored.
func (uc *ReleaseOrderUseCase) Execute(ctx context.Context, req dto.ReleaseOrderRequest) (*dto.KeyDTO, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	var result *dto.KeyDTO
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		key, err := uc.keyRepo.FindByID(txCtx, req.KeyID)
		if err != nil {
			return fmt.Errorf("failed to load key: %w", err)
		}
		if key == nil {
			return license.ErrKeyNotFound
		}

		released, err := uc.release(txCtx, key)
		if err != nil {
			return err
		}
		if released {
			uc.logger.Infow("order released", "key_id", key.ID())
		}

		result = dto.ToKeyDTO(key)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ExecuteForOrder releases every key bound to an order. It is the
// refund/cancellation path and only runs when the recycle policy is on.
func (uc *ReleaseOrderUseCase) ExecuteForOrder(ctx context.Context, orderID uint) (int, error) {
	if !uc.recycle {
		uc.logger.Debugw("recycle policy disabled, keeping keys bound", "order_id", orderID)
		return 0, nil
	}
	if orderID == 0 {
		return 0, license.ErrOrderNotFound
	}

	released := 0
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		filter := (&query.Filter{}).Where(query.Eq("order_id", orderID))
		keys, err := uc.keyRepo.List(txCtx, filter)
		if err != nil {
			return fmt.Errorf("failed to list order keys: %w", err)
		}

		for _, key := range keys {
			ok, err := uc.release(txCtx, key)
			if err != nil {
				return err
			}
			if ok {
				released++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	uc.logger.Infow("order keys released", "order_id", orderID, "count", released)
	return released, nil
}

// release performs the reversal for one key. A key with no order binding
// is left untouched.
func (uc *ReleaseOrderUseCase) release(ctx context.Context, key *license.Key) (bool, error) {
	orderID := key.OrderID()
	if orderID == 0 && key.SubscriptionID() == 0 {
		return false, nil
	}

	if err := uc.activationRepo.DeleteByKeyID(ctx, key.ID()); err != nil {
		return false, fmt.Errorf("failed to delete activations: %w", err)
	}

	key.Release()
	key.DeleteMeta(license.MetaOrderEmail)

	now := uc.clock.Now()
	if err := saveKey(ctx, uc.keyRepo, uc.publisher, uc.logger, key, now); err != nil {
		return false, err
	}

	event := license.NewKeyOrderEvent(license.EventKeyOrderReleased, key.ID(), orderID, now)
	if err := uc.publisher.Publish(event); err != nil {
		uc.logger.Warnw("failed to publish event", "type", license.EventKeyOrderReleased, "error", err)
	}
	return true, nil
}

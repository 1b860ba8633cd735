package usecases

import (
	"context"
	"fmt"

	"keymint/internal/application/license/dto"
	"keymint/internal/domain/license"
	"keymint/internal/shared/logger"
	"keymint/internal/shared/utils"
)

// AssignOrderUseCase binds a key to a paid order item: it locates the
// matching line, computes the per-key price from the line total and the
// delivery quantity, flips the key to sold and flags the parent order as
// a key order.
type AssignOrderUseCase struct {
	keyRepo   license.KeyRepository
	orders    license.OrderProvider
	products  license.ProductProvider
	txManager TransactionManager
	publisher EventPublisher
	clock     license.Clock
	logger    logger.Interface
}

func NewAssignOrderUseCase(
	keyRepo license.KeyRepository,
	orders license.OrderProvider,
	products license.ProductProvider,
	txManager TransactionManager,
	publisher EventPublisher,
	clock license.Clock,
	logger logger.Interface,
) *AssignOrderUseCase {
	return &AssignOrderUseCase{
		keyRepo:   keyRepo,
		orders:    orders,
		products:  products,
		txManager: txManager,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
	}
}

func (uc *AssignOrderUseCase) Execute(ctx context.Context, req dto.AssignOrderRequest) (*dto.KeyDTO, error) {
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
		if key.OrderID() != 0 && key.OrderID() != req.OrderID {
			return license.ErrKeyNotSellable
		}
		// An unbound key must still be in stock; cancelled or expired
		// keys stay off the shelf. Rebinding the same order skips this
		// so the hook is idempotent.
		if key.OrderID() == 0 && !key.Status().IsSellable() {
			return license.ErrKeyNotSellable
		}

		order, err := uc.orders.GetOrder(txCtx, req.OrderID)
		if err != nil {
			return fmt.Errorf("failed to load order: %w", err)
		}
		if order == nil {
			return license.ErrOrderNotFound
		}

		line := uc.resolveLine(order, key, req.OrderItemID)
		if line == nil {
			return license.ErrOrderItemNotFound
		}

		product, err := uc.products.GetProduct(txCtx, line.ProductID)
		if err != nil {
			return fmt.Errorf("failed to load product: %w", err)
		}
		if product == nil {
			return license.ErrProductNotFound
		}
		if !product.SellsKeys {
			return license.ErrNotKeyedProduct
		}

		qty, err := uc.deliveryQty(txCtx, line.ItemID, product)
		if err != nil {
			return err
		}

		now := uc.clock.Now()
		key.MarkSold(order, line.ItemID, perKeyPrice(line.Total, qty), now)
		key.SetMeta(license.MetaOrderEmail, order.BillingEmail)

		if err := saveKey(txCtx, uc.keyRepo, uc.publisher, uc.logger, key, now); err != nil {
			return err
		}

		flagged, err := uc.orders.IsKeyOrder(txCtx, order.ID)
		if err != nil {
			return fmt.Errorf("failed to check order flag: %w", err)
		}
		if !flagged {
			if err := uc.orders.FlagKeyOrder(txCtx, order.ID); err != nil {
				return fmt.Errorf("failed to flag key order: %w", err)
			}
		}

		event := license.NewKeyOrderEvent(license.EventKeyOrderAssigned, key.ID(), order.ID, now)
		if err := uc.publisher.Publish(event); err != nil {
			uc.logger.Warnw("failed to publish event", "type", license.EventKeyOrderAssigned, "error", err)
		}

		result = dto.ToKeyDTO(key)
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("order assigned",
		"key_id", req.KeyID,
		"order_id", req.OrderID,
		"status", result.Status)
	return result, nil
}

// resolveLine picks the explicit item when given, otherwise the first
// line whose product matches the key.
func (uc *AssignOrderUseCase) resolveLine(order *license.Order, key *license.Key, itemID uint) *license.OrderLine {
	if itemID != 0 {
		for i := range order.Lines {
			if order.Lines[i].ItemID == itemID {
				return &order.Lines[i]
			}
		}
		return nil
	}
	return order.LineFor(key.ProductID())
}

// deliveryQty reads the cached per-item delivery quantity, seeding it from
// the product's configured quantity on first use so later assignments for
// the same item price identically.
func (uc *AssignOrderUseCase) deliveryQty(ctx context.Context, orderItemID uint, product *license.Product) (int, error) {
	qty, ok, err := uc.orders.GetItemDeliveryQty(ctx, orderItemID)
	if err != nil {
		return 0, fmt.Errorf("failed to read delivery quantity: %w", err)
	}
	if ok {
		return qty, nil
	}

	qty = product.DeliveryQty
	if qty < 1 {
		qty = 1
	}
	if err := uc.orders.SetItemDeliveryQty(ctx, orderItemID, qty); err != nil {
		return 0, fmt.Errorf("failed to record delivery quantity: %w", err)
	}
	return qty, nil
}

// perKeyPrice splits the line total across the delivered keys. A
// non-positive quantity or total falls back to the raw total.
func perKeyPrice(total float64, qty int) float64 {
	if qty <= 0 || total <= 0 {
		return total
	}
	return total / float64(qty)
}

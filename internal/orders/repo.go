package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/TThanhhDatt/agent-bot/internal/repo"
	"github.com/TThanhhDatt/agent-bot/pkg/db/models"
	"github.com/TThanhhDatt/agent-bot/pkg/enums"
	"github.com/TThanhhDatt/agent-bot/pkg/retry"
)

const (
	ActionCreateOrder = "create order"
	ActionUpdateOrder = "update order"
	ActionCancelOrder = "cancel order"
)

// ErrOrderNotFound is returned when an order referenced by a write no longer exists.
var ErrOrderNotFound = errors.New("order not found")

type repository struct {
	base repo.Base
}

// NewRepository returns an order repository bound to the provided database.
func NewRepository(db *gorm.DB, policy retry.Policy) Repository {
	return &repository{base: repo.NewBase(db, policy)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{base: r.base.WithTx(tx)}
}

// Create inserts the order header only; items are written separately with CreateItems.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.base.Do(ctx, func(db *gorm.DB) error {
		return db.Omit("Items").Create(order).Error
	})
}

// Place writes the order header, its items and the creation log in one transaction, then
// returns the stored order with its items.
func (r *repository) Place(ctx context.Context, order *models.Order, items []models.OrderItem, log *models.OrderLog) (*models.Order, error) {
	err := r.base.Transaction(ctx, func(tx *gorm.DB) error {
		txRepo := r.WithTx(tx)
		if err := txRepo.Create(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := txRepo.CreateItems(ctx, items); err != nil {
			return fmt.Errorf("create order items: %w", err)
		}
		if log != nil {
			log.OrderID = order.ID
			if err := txRepo.CreateLog(ctx, log); err != nil {
				return fmt.Errorf("create order log: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.Details(ctx, order.ID)
}

func (r *repository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return errors.New("no order items to insert")
	}
	return r.base.Do(ctx, func(db *gorm.DB) error {
		return db.Create(&items).Error
	})
}

func (r *repository) CreateLog(ctx context.Context, log *models.OrderLog) error {
	return r.base.Do(ctx, func(db *gorm.DB) error {
		return db.Create(log).Error
	})
}

// Details loads an order with its items, or nil when it does not exist.
func (r *repository) Details(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return repo.First[models.Order](ctx, r.base, func(db *gorm.DB) *gorm.DB {
		return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).Where("id = ?", orderID)
	})
}

// ListEditable returns the customer's newest orders that are not closed, items included.
func (r *repository) ListEditable(ctx context.Context, customerID uuid.UUID, limit int) ([]models.Order, error) {
	if limit <= 0 || limit > EditableListLimit {
		limit = EditableListLimit
	}
	return repo.Value(ctx, r.base, func(db *gorm.DB) ([]models.Order, error) {
		var out []models.Order
		err := db.Preload("Items").
			Where("customer_id = ? AND status NOT IN ?", customerID, enums.ClosedOrderStatuses).
			Order("created_at DESC").
			Limit(limit).
			Find(&out).Error
		return out, err
	})
}

func (r *repository) UpdateReceiver(ctx context.Context, orderID uuid.UUID, receiver ReceiverUpdate) error {
	if receiver.Empty() {
		return nil
	}
	return r.updateOrder(ctx, orderID, receiver.columns())
}

func (r *repository) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	return r.updateOrder(ctx, orderID, map[string]any{"status": status})
}

// UpdateTotals overwrites the money columns of the order header.
func (r *repository) UpdateTotals(ctx context.Context, orderID uuid.UUID, totals Totals) error {
	return r.updateOrder(ctx, orderID, map[string]any{
		"order_total":  totals.OrderTotal,
		"shipping_fee": totals.ShippingFee,
		"grand_total":  totals.GrandTotal,
	})
}

func (r *repository) updateOrder(ctx context.Context, orderID uuid.UUID, cols map[string]any) error {
	return r.base.Do(ctx, func(db *gorm.DB) error {
		result := db.Model(&models.Order{}).Where("id = ?", orderID).Updates(cols)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrOrderNotFound
		}
		return nil
	})
}

func (r *repository) AddItem(ctx context.Context, item *models.OrderItem) error {
	item.Subtotal = int64(item.Quantity) * item.PriceAfterDiscount
	return r.base.Do(ctx, func(db *gorm.DB) error {
		return db.Create(item).Error
	})
}

// UpdateItemQuantity sets a new quantity and recomputes the subtotal from the stored unit price.
func (r *repository) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) (*models.OrderItem, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("invalid quantity %d", quantity)
	}
	err := r.base.Do(ctx, func(db *gorm.DB) error {
		result := db.Model(&models.OrderItem{}).
			Where("id = ?", itemID).
			Updates(map[string]any{
				"quantity": quantity,
				"subtotal": gorm.Expr("price_after_discount * ?", quantity),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return repo.First[models.OrderItem](ctx, r.base, func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ?", itemID)
	})
}

func (r *repository) DeleteItem(ctx context.Context, itemID uuid.UUID) (bool, error) {
	return repo.Value(ctx, r.base, func(db *gorm.DB) (bool, error) {
		result := db.Where("id = ?", itemID).Delete(&models.OrderItem{})
		if result.Error != nil {
			return false, result.Error
		}
		return result.RowsAffected > 0, nil
	})
}

func (r *repository) SumSubtotals(ctx context.Context, orderID uuid.UUID) (int64, error) {
	return repo.Value(ctx, r.base, func(db *gorm.DB) (int64, error) {
		var total int64
		err := db.Model(&models.OrderItem{}).
			Where("order_id = ?", orderID).
			Select("COALESCE(SUM(subtotal), 0)").
			Scan(&total).Error
		return total, err
	})
}

// RecomputeTotals brings the order header back in line with its items in one transaction:
// totals follow the item subtotals, and an order left without value is cancelled. A log entry
// records the change. The refreshed order is returned.
func (r *repository) RecomputeTotals(ctx context.Context, orderID uuid.UUID, role enums.ActorRole) (*models.Order, error) {
	err := r.base.Transaction(ctx, func(tx *gorm.DB) error {
		txRepo := r.WithTx(tx)

		var order models.Order
		if err := tx.Where("id = ?", orderID).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		total, err := txRepo.SumSubtotals(ctx, orderID)
		if err != nil {
			return err
		}

		oldStatus := order.Status
		totals := newTotals(total, order.ShippingFee)
		action := ActionUpdateOrder
		newStatus := oldStatus
		if total == 0 {
			// cancelled with zero totals, shipping included
			totals = Totals{}
			action = ActionCancelOrder
			newStatus = enums.OrderStatusCancelled
		}
		if err := txRepo.UpdateTotals(ctx, orderID, totals); err != nil {
			return err
		}
		if newStatus != oldStatus {
			if err := txRepo.UpdateStatus(ctx, orderID, newStatus); err != nil {
				return err
			}
		}

		return txRepo.CreateLog(ctx, &models.OrderLog{
			OrderID:       orderID,
			Action:        action,
			ChangedByRole: role,
			OldStatus:     &oldStatus,
			NewStatus:     &newStatus,
		})
	})
	if err != nil {
		return nil, err
	}
	return r.Details(ctx, orderID)
}

// ActivePaymentQR returns the newest active payment account, or nil when none is configured.
func (r *repository) ActivePaymentQR(ctx context.Context) (*models.PaymentQR, error) {
	return repo.First[models.PaymentQR](ctx, r.base, func(db *gorm.DB) *gorm.DB {
		return db.Where("is_active = ?", true).Order("created_at DESC")
	})
}

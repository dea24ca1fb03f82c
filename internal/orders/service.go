package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Mantoine56/mariouomo-sub000/internal/catalog"
	"github.com/Mantoine56/mariouomo-sub000/internal/events"
	"github.com/Mantoine56/mariouomo-sub000/internal/inventory"
	"github.com/Mantoine56/mariouomo-sub000/pkg/db/models"
	"github.com/Mantoine56/mariouomo-sub000/pkg/enums"
	pkgerrors "github.com/Mantoine56/mariouomo-sub000/pkg/errors"
	"github.com/Mantoine56/mariouomo-sub000/pkg/logger"
	"github.com/Mantoine56/mariouomo-sub000/pkg/metrics"
	"github.com/Mantoine56/mariouomo-sub000/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CatalogReader resolves variants with their products inside the placement
// transaction.
type CatalogReader interface {
	GetVariants(ctx context.Context, tx *gorm.DB, variantIDs []uuid.UUID) (map[uuid.UUID]catalog.VariantDetail, error)
}

// InventoryControl covers the stock mutations placement and cancellation
// perform. All calls run inside the caller's transaction.
type InventoryControl interface {
	LockForUpdate(ctx context.Context, tx *gorm.DB, variantIDs []uuid.UUID) (map[uuid.UUID]models.InventoryItem, error)
	Decrement(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int) error
	Increment(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int) error
}

type userChecker interface {
	Exists(ctx context.Context, userID uuid.UUID) (bool, error)
}

type availabilityInvalidator interface {
	Invalidate(ctx context.Context, variantIDs ...uuid.UUID)
}

// Service defines the order operations exposed to the API layer.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	UpdateOrder(ctx context.Context, input UpdateOrderInput) (*models.Order, error)
	CancelOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

type service struct {
	repo         Repository
	tx           txRunner
	catalog      CatalogReader
	inventory    InventoryControl
	users        userChecker
	pricing      PricingPolicy
	sink         events.Sink
	availability availabilityInvalidator
	metrics      *metrics.OrderMetrics
	logg         *logger.Logger
}

// Params bundles the service dependencies. Availability and metrics are
// optional; everything else is required.
type Params struct {
	Repo         Repository
	Tx           txRunner
	Catalog      CatalogReader
	Inventory    InventoryControl
	Users        userChecker
	Pricing      PricingPolicy
	Sink         events.Sink
	Availability availabilityInvalidator
	Metrics      *metrics.OrderMetrics
	Logger       *logger.Logger
}

// NewService builds the order service with the required dependencies.
func NewService(params Params) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory control required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user checker required")
	}
	if params.Pricing == nil {
		return nil, fmt.Errorf("pricing policy required")
	}
	if params.Sink == nil {
		return nil, fmt.Errorf("event sink required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:         params.Repo,
		tx:           params.Tx,
		catalog:      params.Catalog,
		inventory:    params.Inventory,
		users:        params.Users,
		pricing:      params.Pricing,
		sink:         params.Sink,
		availability: params.Availability,
		metrics:      params.Metrics,
		logg:         params.Logger,
	}, nil
}

// OrderCreatedEvent is the payload emitted after a successful placement.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	UserID      uuid.UUID         `json:"user_id"`
	Status      enums.OrderStatus `json:"status"`
	TotalAmount string            `json:"total_amount"`
	ItemCount   int               `json:"item_count"`
}

// OrderStatusChangedEvent is the payload emitted after a lifecycle change.
type OrderStatusChangedEvent struct {
	OrderID    uuid.UUID         `json:"order_id"`
	UserID     uuid.UUID         `json:"user_id"`
	FromStatus enums.OrderStatus `json:"from_status"`
	ToStatus   enums.OrderStatus `json:"to_status"`
}

func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	started := time.Now()
	order, err := s.placeOrder(ctx, input)
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	s.metrics.ObservePlacement(outcome, time.Since(started))
	return order, err
}

func (s *service) placeOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	if err := validatePlaceOrderInput(input); err != nil {
		return nil, err
	}

	exists, err := s.users.Exists(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}

	variantIDs := make([]uuid.UUID, 0, len(input.Items))
	for _, line := range input.Items {
		variantIDs = append(variantIDs, line.VariantID)
	}

	var created *models.Order
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		stock, err := s.inventory.LockForUpdate(ctx, tx, variantIDs)
		if err != nil {
			return err
		}

		details, err := s.catalog.GetVariants(ctx, tx, variantIDs)
		if err != nil {
			return err
		}

		items := make([]models.OrderItem, 0, len(input.Items))
		subtotal := decimal.Zero
		for _, line := range input.Items {
			detail := details[line.VariantID]
			if !detail.Product.IsActive {
				return pkgerrors.Newf(pkgerrors.CodeValidation, "product %s is not available", detail.Product.Name)
			}
			if stock[line.VariantID].Quantity < line.Quantity {
				return pkgerrors.Newf(pkgerrors.CodeConflict, "insufficient stock for variant %s", detail.Variant.SKU)
			}

			unitPrice := detail.UnitPrice()
			lineSubtotal := unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
			items = append(items, models.OrderItem{
				ID:          uuid.New(),
				VariantID:   line.VariantID,
				ProductName: detail.Product.Name,
				VariantName: detail.Variant.Name,
				SKU:         detail.Variant.SKU,
				Weight:      detail.Variant.Weight,
				Dimensions:  detail.Variant.Dimensions,
				UnitPrice:   unitPrice,
				Quantity:    line.Quantity,
				Subtotal:    lineSubtotal,
			})
			subtotal = subtotal.Add(lineSubtotal)
		}

		for _, line := range input.Items {
			if err := s.inventory.Decrement(ctx, tx, line.VariantID, line.Quantity); err != nil {
				return err
			}
		}

		tax := s.pricing.Tax(subtotal)
		shipping := s.pricing.Shipping(subtotal, items)
		order := &models.Order{
			ID:              uuid.New(),
			UserID:          input.UserID,
			Status:          enums.OrderStatusPending,
			Subtotal:        subtotal,
			Tax:             tax,
			Shipping:        shipping,
			TotalAmount:     subtotal.Add(tax).Add(shipping),
			ShippingAddress: input.ShippingAddress,
			BillingAddress:  input.BillingAddress,
			CustomerNotes:   input.CustomerNotes,
			Items:           items,
		}

		created, err = s.repo.WithTx(tx).CreateOrder(ctx, order)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order")
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if s.availability != nil {
		s.availability.Invalidate(ctx, variantIDs...)
	}

	// Re-read so the caller sees exactly what was committed.
	order, err := s.repo.FindByID(ctx, created.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading order")
	}

	s.emit(ctx, events.TypeOrderCreated, order, OrderCreatedEvent{
		OrderID:     order.ID,
		UserID:      order.UserID,
		Status:      order.Status,
		TotalAmount: order.TotalAmount.StringFixed(2),
		ItemCount:   len(order.Items),
	})

	return order, nil
}

func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return order, nil
}

func (s *service) ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	list, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	return list, nil
}

func (s *service) UpdateOrder(ctx context.Context, input UpdateOrderInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order status %q", *input.Status)
	}

	var (
		fromStatus enums.OrderStatus
		toStatus   enums.OrderStatus
		restored   []uuid.UUID
		transition bool
	)
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByIDForUpdate(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
		}

		updates := map[string]any{}
		if input.CustomerNotes != nil {
			updates["customer_notes"] = *input.CustomerNotes
		}
		if input.StaffNotes != nil {
			updates["staff_notes"] = *input.StaffNotes
		}

		if input.Status != nil && *input.Status == order.Status && order.Status.IsTerminal() {
			return pkgerrors.Newf(
				pkgerrors.CodeStateConflict,
				"invalid status transition from %s to %s", order.Status, *input.Status,
			)
		}

		if input.Status != nil && *input.Status != order.Status {
			fromStatus = order.Status
			toStatus = *input.Status
			if !CanTransition(fromStatus, toStatus) {
				return pkgerrors.Newf(
					pkgerrors.CodeStateConflict,
					"invalid status transition from %s to %s", fromStatus, toStatus,
				)
			}
			transition = true
			updates["status"] = toStatus

			if restoresInventory(fromStatus, toStatus) && len(order.Items) > 0 {
				ids := make([]uuid.UUID, 0, len(order.Items))
				for _, item := range order.Items {
					ids = append(ids, item.VariantID)
				}
				if _, err := s.inventory.LockForUpdate(ctx, tx, ids); err != nil {
					return err
				}
				for _, item := range order.Items {
					if err := s.inventory.Increment(ctx, tx, item.VariantID, item.Quantity); err != nil {
						return err
					}
					restored = append(restored, item.VariantID)
				}
			}
		}

		if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating order")
		}
		return nil
	})
	if txErr != nil {
		if transition {
			s.metrics.ObserveTransition(toStatus.String(), "failure")
		}
		return nil, txErr
	}

	if len(restored) > 0 && s.availability != nil {
		s.availability.Invalidate(ctx, restored...)
	}

	order, err := s.repo.FindByID(ctx, input.OrderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading order")
	}

	if transition {
		s.metrics.ObserveTransition(toStatus.String(), "success")

		eventType := events.TypeOrderStatusChanged
		if toStatus == enums.OrderStatusCancelled {
			eventType = events.TypeOrderCancelled
		}
		s.emit(ctx, eventType, order, OrderStatusChangedEvent{
			OrderID:    order.ID,
			UserID:     order.UserID,
			FromStatus: fromStatus,
			ToStatus:   toStatus,
		})
	}

	return order, nil
}

func (s *service) CancelOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	status := enums.OrderStatusCancelled
	return s.UpdateOrder(ctx, UpdateOrderInput{OrderID: orderID, Status: &status})
}

// emit publishes an order event without affecting the calling operation.
// Sink failures are logged and dropped.
func (s *service) emit(ctx context.Context, typ events.Type, order *models.Order, payload any) {
	event, err := events.NewEvent(typ, order.ID, order.UserID, payload)
	if err != nil {
		s.logg.Error(ctx, "building order event", err)
		return
	}
	if err := s.sink.Publish(ctx, event); err != nil {
		s.logg.Error(ctx, "publishing order event", err)
	}
}

func validatePlaceOrderInput(input PlaceOrderInput) error {
	if input.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	seen := make(map[uuid.UUID]struct{}, len(input.Items))
	for _, line := range input.Items {
		if line.VariantID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "variant id required")
		}
		if line.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		if _, dup := seen[line.VariantID]; dup {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "duplicate variant %s in order", line.VariantID)
		}
		seen[line.VariantID] = struct{}{}
	}
	if err := input.ShippingAddress.Validate(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "shipping address invalid")
	}
	if err := input.BillingAddress.Validate(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "billing address invalid")
	}
	return nil
}

// NewCatalogGateway adapts the catalog reader to the placement transaction.
func NewCatalogGateway(reader *catalog.Reader) CatalogReader {
	return catalogGateway{reader: reader}
}

type catalogGateway struct {
	reader *catalog.Reader
}

func (g catalogGateway) GetVariants(ctx context.Context, tx *gorm.DB, variantIDs []uuid.UUID) (map[uuid.UUID]catalog.VariantDetail, error) {
	return g.reader.WithTx(tx).GetVariants(ctx, variantIDs)
}

// NewInventoryGateway adapts the inventory store to the placement transaction.
func NewInventoryGateway(store *inventory.Store) InventoryControl {
	return inventoryGateway{store: store}
}

type inventoryGateway struct {
	store *inventory.Store
}

func (g inventoryGateway) LockForUpdate(ctx context.Context, tx *gorm.DB, variantIDs []uuid.UUID) (map[uuid.UUID]models.InventoryItem, error) {
	return g.store.WithTx(tx).LockForUpdate(ctx, variantIDs)
}

func (g inventoryGateway) Decrement(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int) error {
	return g.store.WithTx(tx).Decrement(ctx, variantID, qty)
}

func (g inventoryGateway) Increment(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int) error {
	return g.store.WithTx(tx).Increment(ctx, variantID, qty)
}

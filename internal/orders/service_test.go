package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Mantoine56/mariouomo-sub000/internal/catalog"
	"github.com/Mantoine56/mariouomo-sub000/internal/events"
	"github.com/Mantoine56/mariouomo-sub000/pkg/db/models"
	"github.com/Mantoine56/mariouomo-sub000/pkg/enums"
	pkgerrors "github.com/Mantoine56/mariouomo-sub000/pkg/errors"
	"github.com/Mantoine56/mariouomo-sub000/pkg/logger"
	"github.com/Mantoine56/mariouomo-sub000/pkg/pagination"
	"github.com/Mantoine56/mariouomo-sub000/pkg/types"
)

type stubOrdersRepo struct {
	orders      map[uuid.UUID]*models.Order
	createErr   error
	listErr     error
	lastUpdates map[string]any
}

func newStubOrdersRepo() *stubOrdersRepo {
	return &stubOrdersRepo{orders: make(map[uuid.UUID]*models.Order)}
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubOrdersRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	s.orders[order.ID] = order
	return order, nil
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	return &copied, nil
}

func (s *stubOrdersRepo) FindByIDForUpdate(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.FindByID(ctx, orderID)
}

func (s *stubOrdersRepo) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	list := &OrderList{}
	for _, order := range s.orders {
		if order.UserID == userID {
			list.Orders = append(list.Orders, *order)
		}
	}
	return list, nil
}

func (s *stubOrdersRepo) FindPendingBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	var rows []models.Order
	for _, order := range s.orders {
		if order.Status == enums.OrderStatusPending && order.CreatedAt.Before(cutoff) {
			rows = append(rows, *order)
		}
	}
	return rows, nil
}

func (s *stubOrdersRepo) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	s.lastUpdates = updates
	order, ok := s.orders[orderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for key, value := range updates {
		switch key {
		case "status":
			if v, ok := value.(enums.OrderStatus); ok {
				order.Status = v
			}
		case "customer_notes":
			if v, ok := value.(string); ok {
				order.CustomerNotes = &v
			}
		case "staff_notes":
			if v, ok := value.(string); ok {
				order.StaffNotes = &v
			}
		}
	}
	return nil
}

type stubCatalog struct {
	details map[uuid.UUID]catalog.VariantDetail
	err     error
}

func (s *stubCatalog) GetVariants(ctx context.Context, tx *gorm.DB, variantIDs []uuid.UUID) (map[uuid.UUID]catalog.VariantDetail, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.details, nil
}

type inventoryCall struct {
	variantID uuid.UUID
	qty       int
}

type stubInventory struct {
	stock      map[uuid.UUID]int
	locks      [][]uuid.UUID
	decrements []inventoryCall
	increments []inventoryCall
	ops        []string
}

func (s *stubInventory) LockForUpdate(ctx context.Context, tx *gorm.DB, variantIDs []uuid.UUID) (map[uuid.UUID]models.InventoryItem, error) {
	s.locks = append(s.locks, variantIDs)
	s.ops = append(s.ops, "lock")
	out := make(map[uuid.UUID]models.InventoryItem, len(variantIDs))
	for _, id := range variantIDs {
		qty, ok := s.stock[id]
		if !ok {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "inventory for variant %s not found", id)
		}
		out[id] = models.InventoryItem{VariantID: id, Quantity: qty}
	}
	return out, nil
}

func (s *stubInventory) Decrement(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int) error {
	s.decrements = append(s.decrements, inventoryCall{variantID: variantID, qty: qty})
	s.ops = append(s.ops, "decrement")
	s.stock[variantID] -= qty
	return nil
}

func (s *stubInventory) Increment(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int) error {
	s.increments = append(s.increments, inventoryCall{variantID: variantID, qty: qty})
	s.ops = append(s.ops, "increment")
	s.stock[variantID] += qty
	return nil
}

type stubUsers struct {
	exists bool
	err    error
}

func (s *stubUsers) Exists(ctx context.Context, userID uuid.UUID) (bool, error) {
	return s.exists, s.err
}

type stubSink struct {
	events []events.Event
	err    error
}

func (s *stubSink) Publish(ctx context.Context, event events.Event) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func testAddress() types.Address {
	return types.Address{
		Street:     "1 Via Mario",
		City:       "Milan",
		State:      "MI",
		Country:    "IT",
		PostalCode: "20121",
	}
}

type serviceFixture struct {
	svc       Service
	repo      *stubOrdersRepo
	inventory *stubInventory
	sink      *stubSink
	users     *stubUsers
	catalog   *stubCatalog
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		repo:      newStubOrdersRepo(),
		inventory: &stubInventory{stock: make(map[uuid.UUID]int)},
		sink:      &stubSink{},
		users:     &stubUsers{exists: true},
		catalog:   &stubCatalog{details: make(map[uuid.UUID]catalog.VariantDetail)},
	}

	svc, err := NewService(Params{
		Repo:      f.repo,
		Tx:        stubTxRunner{},
		Catalog:   f.catalog,
		Inventory: f.inventory,
		Users:     f.users,
		Pricing: FlatPricing{
			TaxRate:     decimal.RequireFromString("0.10"),
			ShippingFee: decimal.RequireFromString("10.00"),
		},
		Sink:   f.sink,
		Logger: logger.New(logger.Options{ServiceName: "test"}),
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *serviceFixture) addVariant(sku string, basePrice, adjustment string, stock int) uuid.UUID {
	variantID := uuid.New()
	f.catalog.details[variantID] = catalog.VariantDetail{
		Variant: models.ProductVariant{
			ID:              variantID,
			Name:            "variant " + sku,
			SKU:             sku,
			PriceAdjustment: decimal.RequireFromString(adjustment),
		},
		Product: models.Product{
			ID:        uuid.New(),
			Name:      "product " + sku,
			BasePrice: decimal.RequireFromString(basePrice),
			IsActive:  true,
		},
	}
	f.inventory.stock[variantID] = stock
	return variantID
}

func TestPlaceOrderComputesTotals(t *testing.T) {
	f := newServiceFixture(t)
	variantID := f.addVariant("COAT-L", "100.00", "0.00", 5)

	order, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:          uuid.New(),
		Items:           []LineInput{{VariantID: variantID, Quantity: 1}},
		ShippingAddress: testAddress(),
		BillingAddress:  testAddress(),
	})
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.True(t, order.Subtotal.Equal(decimal.RequireFromString("100.00")), "subtotal %s", order.Subtotal)
	assert.True(t, order.Tax.Equal(decimal.RequireFromString("10.00")), "tax %s", order.Tax)
	assert.True(t, order.Shipping.Equal(decimal.RequireFromString("10.00")), "shipping %s", order.Shipping)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("120.00")), "total %s", order.TotalAmount)

	require.Len(t, order.Items, 1)
	item := order.Items[0]
	assert.Equal(t, "COAT-L", item.SKU)
	assert.Equal(t, "product COAT-L", item.ProductName)
	assert.Equal(t, 1, item.Quantity)

	require.Len(t, f.inventory.decrements, 1)
	assert.Equal(t, 1, f.inventory.decrements[0].qty)
	assert.Equal(t, 4, f.inventory.stock[variantID])

	require.Len(t, f.sink.events, 1)
	assert.Equal(t, events.TypeOrderCreated, f.sink.events[0].Type)
}

func TestPlaceOrderAppliesPriceAdjustment(t *testing.T) {
	f := newServiceFixture(t)
	variantID := f.addVariant("COAT-XL", "100.00", "10.00", 5)

	order, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:          uuid.New(),
		Items:           []LineInput{{VariantID: variantID, Quantity: 2}},
		ShippingAddress: testAddress(),
		BillingAddress:  testAddress(),
	})
	require.NoError(t, err)

	require.Len(t, order.Items, 1)
	assert.True(t, order.Items[0].UnitPrice.Equal(decimal.RequireFromString("110.00")))
	assert.True(t, order.Subtotal.Equal(decimal.RequireFromString("220.00")))
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	f := newServiceFixture(t)
	variantID := f.addVariant("SKU-1", "50.00", "0.00", 1)

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:          uuid.New(),
		Items:           []LineInput{{VariantID: variantID, Quantity: 2}},
		ShippingAddress: testAddress(),
		BillingAddress:  testAddress(),
	})
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())
	assert.Contains(t, appErr.Message(), "insufficient stock for variant SKU-1")

	assert.Empty(t, f.repo.orders)
	assert.Empty(t, f.sink.events)
	assert.Empty(t, f.inventory.decrements)
}

func TestPlaceOrderUnknownUser(t *testing.T) {
	f := newServiceFixture(t)
	f.users.exists = false
	variantID := f.addVariant("SKU-2", "50.00", "0.00", 5)

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:          uuid.New(),
		Items:           []LineInput{{VariantID: variantID, Quantity: 1}},
		ShippingAddress: testAddress(),
		BillingAddress:  testAddress(),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestPlaceOrderInactiveProduct(t *testing.T) {
	f := newServiceFixture(t)
	variantID := f.addVariant("SKU-3", "50.00", "0.00", 5)
	detail := f.catalog.details[variantID]
	detail.Product.IsActive = false
	f.catalog.details[variantID] = detail

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:          uuid.New(),
		Items:           []LineInput{{VariantID: variantID, Quantity: 1}},
		ShippingAddress: testAddress(),
		BillingAddress:  testAddress(),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestPlaceOrderValidation(t *testing.T) {
	f := newServiceFixture(t)
	variantID := f.addVariant("SKU-4", "50.00", "0.00", 5)

	cases := []struct {
		name  string
		input PlaceOrderInput
	}{
		{
			name: "missing user",
			input: PlaceOrderInput{
				Items:           []LineInput{{VariantID: variantID, Quantity: 1}},
				ShippingAddress: testAddress(),
				BillingAddress:  testAddress(),
			},
		},
		{
			name: "no items",
			input: PlaceOrderInput{
				UserID:          uuid.New(),
				ShippingAddress: testAddress(),
				BillingAddress:  testAddress(),
			},
		},
		{
			name: "zero quantity",
			input: PlaceOrderInput{
				UserID:          uuid.New(),
				Items:           []LineInput{{VariantID: variantID, Quantity: 0}},
				ShippingAddress: testAddress(),
				BillingAddress:  testAddress(),
			},
		},
		{
			name: "duplicate variant",
			input: PlaceOrderInput{
				UserID: uuid.New(),
				Items: []LineInput{
					{VariantID: variantID, Quantity: 1},
					{VariantID: variantID, Quantity: 2},
				},
				ShippingAddress: testAddress(),
				BillingAddress:  testAddress(),
			},
		},
		{
			name: "missing shipping address",
			input: PlaceOrderInput{
				UserID:         uuid.New(),
				Items:          []LineInput{{VariantID: variantID, Quantity: 1}},
				BillingAddress: testAddress(),
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.PlaceOrder(context.Background(), tc.input)
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
		})
	}
}

func seedOrder(f *serviceFixture, status enums.OrderStatus, items ...models.OrderItem) *models.Order {
	order := &models.Order{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Status: status,
		Items:  items,
	}
	f.repo.orders[order.ID] = order
	return order
}

func TestUpdateOrderConfirmsPendingOrder(t *testing.T) {
	f := newServiceFixture(t)
	order := seedOrder(f, enums.OrderStatusPending)

	status := enums.OrderStatusConfirmed
	updated, err := f.svc.UpdateOrder(context.Background(), UpdateOrderInput{
		OrderID: order.ID,
		Status:  &status,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, updated.Status)
	assert.Empty(t, f.inventory.increments)

	require.Len(t, f.sink.events, 1)
	assert.Equal(t, events.TypeOrderStatusChanged, f.sink.events[0].Type)
}

func TestUpdateOrderCancellationRestoresInventory(t *testing.T) {
	f := newServiceFixture(t)
	variantID := uuid.New()
	f.inventory.stock[variantID] = 0
	order := seedOrder(f, enums.OrderStatusPending, models.OrderItem{
		VariantID: variantID,
		Quantity:  3,
	})

	status := enums.OrderStatusCancelled
	updated, err := f.svc.UpdateOrder(context.Background(), UpdateOrderInput{
		OrderID: order.ID,
		Status:  &status,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, updated.Status)

	require.Len(t, f.inventory.increments, 1)
	assert.Equal(t, 3, f.inventory.increments[0].qty)
	assert.Equal(t, 3, f.inventory.stock[variantID])

	require.Len(t, f.sink.events, 1)
	assert.Equal(t, events.TypeOrderCancelled, f.sink.events[0].Type)
}

func TestUpdateOrderRefundDoesNotRestoreInventory(t *testing.T) {
	f := newServiceFixture(t)
	order := seedOrder(f, enums.OrderStatusDelivered, models.OrderItem{
		VariantID: uuid.New(),
		Quantity:  2,
	})

	status := enums.OrderStatusRefunded
	_, err := f.svc.UpdateOrder(context.Background(), UpdateOrderInput{
		OrderID: order.ID,
		Status:  &status,
	})
	require.NoError(t, err)
	assert.Empty(t, f.inventory.increments)
}

func TestUpdateOrderRejectsInvalidTransition(t *testing.T) {
	f := newServiceFixture(t)

	cases := []struct {
		from enums.OrderStatus
		to   enums.OrderStatus
	}{
		{enums.OrderStatusPending, enums.OrderStatusShipped},
		{enums.OrderStatusShipped, enums.OrderStatusCancelled},
		{enums.OrderStatusCancelled, enums.OrderStatusConfirmed},
		{enums.OrderStatusRefunded, enums.OrderStatusPending},
		{enums.OrderStatusDelivered, enums.OrderStatusShipped},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			order := seedOrder(f, tc.from)
			status := tc.to
			_, err := f.svc.UpdateOrder(context.Background(), UpdateOrderInput{
				OrderID: order.ID,
				Status:  &status,
			})
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
		})
	}
}

func TestUpdateOrderNotesOnly(t *testing.T) {
	f := newServiceFixture(t)
	order := seedOrder(f, enums.OrderStatusPending)

	notes := "leave at the front desk"
	updated, err := f.svc.UpdateOrder(context.Background(), UpdateOrderInput{
		OrderID:       order.ID,
		CustomerNotes: &notes,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.CustomerNotes)
	assert.Equal(t, notes, *updated.CustomerNotes)
	assert.Equal(t, enums.OrderStatusPending, updated.Status)
	assert.Empty(t, f.sink.events)
}

func TestUpdateOrderNotFound(t *testing.T) {
	f := newServiceFixture(t)

	status := enums.OrderStatusConfirmed
	_, err := f.svc.UpdateOrder(context.Background(), UpdateOrderInput{
		OrderID: uuid.New(),
		Status:  &status,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestCancelOrder(t *testing.T) {
	f := newServiceFixture(t)
	order := seedOrder(f, enums.OrderStatusConfirmed)

	updated, err := f.svc.CancelOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, updated.Status)
}

func TestPlaceOrderDecrementsInLineOrder(t *testing.T) {
	f := newServiceFixture(t)
	first := f.addVariant("SKU-A", "10.00", "0.00", 5)
	second := f.addVariant("SKU-B", "20.00", "0.00", 5)
	third := f.addVariant("SKU-C", "30.00", "0.00", 5)

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID: uuid.New(),
		Items: []LineInput{
			{VariantID: third, Quantity: 2},
			{VariantID: first, Quantity: 1},
			{VariantID: second, Quantity: 3},
		},
		ShippingAddress: testAddress(),
		BillingAddress:  testAddress(),
	})
	require.NoError(t, err)

	require.Len(t, f.inventory.decrements, 3)
	got := []uuid.UUID{
		f.inventory.decrements[0].variantID,
		f.inventory.decrements[1].variantID,
		f.inventory.decrements[2].variantID,
	}
	assert.Equal(t, []uuid.UUID{third, first, second}, got)
}

func TestCancelOrderTwiceRejected(t *testing.T) {
	f := newServiceFixture(t)
	variantID := uuid.New()
	f.inventory.stock[variantID] = 0
	order := seedOrder(f, enums.OrderStatusPending, models.OrderItem{
		VariantID: variantID,
		Quantity:  2,
	})

	_, err := f.svc.CancelOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, f.inventory.stock[variantID])

	_, err = f.svc.CancelOrder(context.Background(), order.ID)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())

	require.Len(t, f.inventory.increments, 1)
	assert.Equal(t, 2, f.inventory.stock[variantID])
}

func TestUpdateOrderRejectsTerminalSameStatus(t *testing.T) {
	f := newServiceFixture(t)
	order := seedOrder(f, enums.OrderStatusRefunded)

	status := enums.OrderStatusRefunded
	_, err := f.svc.UpdateOrder(context.Background(), UpdateOrderInput{
		OrderID: order.ID,
		Status:  &status,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestUpdateOrderCancellationLocksBeforeRestore(t *testing.T) {
	f := newServiceFixture(t)
	first := uuid.New()
	second := uuid.New()
	f.inventory.stock[first] = 0
	f.inventory.stock[second] = 0
	order := seedOrder(f, enums.OrderStatusProcessing,
		models.OrderItem{VariantID: first, Quantity: 1},
		models.OrderItem{VariantID: second, Quantity: 4},
	)

	status := enums.OrderStatusCancelled
	_, err := f.svc.UpdateOrder(context.Background(), UpdateOrderInput{
		OrderID: order.ID,
		Status:  &status,
	})
	require.NoError(t, err)

	require.Len(t, f.inventory.locks, 1)
	assert.ElementsMatch(t, []uuid.UUID{first, second}, f.inventory.locks[0])
	assert.Equal(t, []string{"lock", "increment", "increment"}, f.inventory.ops)
}

func TestListOrdersKeepsCodedErrors(t *testing.T) {
	f := newServiceFixture(t)
	f.repo.listErr = pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")

	_, err := f.svc.ListOrders(context.Background(), uuid.New(), pagination.Params{Cursor: "not-a-cursor"})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestPlaceOrderSinkFailureDoesNotFailPlacement(t *testing.T) {
	f := newServiceFixture(t)
	f.sink.err = assert.AnError
	variantID := f.addVariant("SKU-5", "30.00", "0.00", 5)

	order, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:          uuid.New(),
		Items:           []LineInput{{VariantID: variantID, Quantity: 1}},
		ShippingAddress: testAddress(),
		BillingAddress:  testAddress(),
	})
	require.NoError(t, err)
	assert.NotNil(t, order)
}

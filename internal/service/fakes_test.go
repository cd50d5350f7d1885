package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Semzy1/Log-In-page-main/internal/entities"
	"github.com/Semzy1/Log-In-page-main/internal/gateway"
	"github.com/Semzy1/Log-In-page-main/pkg/trm"
)

// fakeTxManager runs the callback directly. The fakes below keep their own
// state consistent the way a rolled-back transaction would, because the
// services compensate explicitly before aborting.
type fakeTxManager struct{}

var _ trm.Manager = fakeTxManager{}

func (fakeTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeProductStore struct {
	mu       sync.Mutex
	products map[string]entities.Product

	getErr       map[string]error
	decrementErr map[string]error
}

func newFakeProductStore(products ...entities.Product) *fakeProductStore {
	s := &fakeProductStore{
		products:     make(map[string]entities.Product, len(products)),
		getErr:       make(map[string]error),
		decrementErr: make(map[string]error),
	}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *fakeProductStore) GetProduct(_ context.Context, productID string) (entities.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.getErr[productID]; err != nil {
		return entities.Product{}, err
	}
	p, ok := s.products[productID]
	if !ok {
		return entities.Product{}, entities.ProductError(entities.ErrProductUnavailable, productID)
	}
	return p, nil
}

// DecrementStock mirrors the conditional UPDATE: check and mutate under one
// lock, report false when the guard fails.
func (s *fakeProductStore) DecrementStock(_ context.Context, productID string, qty int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.decrementErr[productID]; err != nil {
		return false, err
	}
	p, ok := s.products[productID]
	if !ok || !p.TrackQuantity || p.Quantity < qty {
		return false, nil
	}
	p.Quantity -= qty
	s.products[productID] = p
	return true, nil
}

func (s *fakeProductStore) RestoreStock(_ context.Context, productID string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return fmt.Errorf("no product %s", productID)
	}
	p.Quantity += qty
	s.products[productID] = p
	return nil
}

func (s *fakeProductStore) quantity(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[productID].Quantity
}

type fakeCartStore struct {
	mu       sync.Mutex
	carts    map[string][]entities.CartItem
	readErr  error
	clearErr error
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{carts: make(map[string][]entities.CartItem)}
}

func (s *fakeCartStore) ReadCart(_ context.Context, userID string) ([]entities.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	return s.carts[userID], nil
}

func (s *fakeCartStore) ClearCart(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clearErr != nil {
		return s.clearErr
	}
	delete(s.carts, userID)
	return nil
}

func (s *fakeCartStore) put(userID string, items ...entities.CartItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[userID] = items
}

func (s *fakeCartStore) size(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts[userID])
}

type fakeOrderRepo struct {
	mu      sync.Mutex
	orders  map[string]entities.Order
	saveErr error
}

func newFakeOrderRepo(orders ...entities.Order) *fakeOrderRepo {
	r := &fakeOrderRepo{orders: make(map[string]entities.Order, len(orders))}
	for _, o := range orders {
		r.orders[o.ID] = o
	}
	return r
}

func (r *fakeOrderRepo) SaveOrder(_ context.Context, o entities.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.orders[o.ID] = o
	return nil
}

func (r *fakeOrderRepo) GetOrderByID(_ context.Context, orderID string) (entities.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	return o, nil
}

func (r *fakeOrderRepo) CancelOrder(_ context.Context, orderID, reason string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok || (o.Status != entities.OrderPending && o.Status != entities.OrderProcessing) {
		return false, nil
	}
	now := time.Now().UTC()
	o.Status = entities.OrderCancelled
	o.CancelReason = reason
	o.CancelledAt = &now
	r.orders[orderID] = o
	return true, nil
}

func (r *fakeOrderRepo) MarkProcessing(_ context.Context, orderID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok || o.Status != entities.OrderPending {
		return false, nil
	}
	o.Status = entities.OrderProcessing
	r.orders[orderID] = o
	return true, nil
}

func (r *fakeOrderRepo) SetStatus(_ context.Context, orderID string, from, to entities.OrderStatus, trackingNumber, notes string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok || o.Status != from {
		return false, nil
	}
	now := time.Now().UTC()
	o.Status = to
	if trackingNumber != "" {
		o.TrackingNumber = trackingNumber
	}
	if notes != "" {
		o.Notes = notes
	}
	switch to {
	case entities.OrderShipped:
		if o.ShippedAt == nil {
			o.ShippedAt = &now
		}
	case entities.OrderDelivered:
		if o.DeliveredAt == nil {
			o.DeliveredAt = &now
		}
	}
	r.orders[orderID] = o
	return true, nil
}

func (r *fakeOrderRepo) get(orderID string) entities.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orders[orderID]
}

type fakeNotifier struct {
	mu     sync.Mutex
	orders []entities.Order
}

func (n *fakeNotifier) NotifyOrderCreated(_ context.Context, order entities.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, order)
	return nil
}

type fakePaymentRepo struct {
	mu       sync.Mutex
	payments map[string]entities.Payment
	failErr  error
}

func newFakePaymentRepo(payments ...entities.Payment) *fakePaymentRepo {
	r := &fakePaymentRepo{payments: make(map[string]entities.Payment, len(payments))}
	for _, p := range payments {
		r.payments[p.ID] = p
	}
	return r
}

func (r *fakePaymentRepo) CreatePayment(_ context.Context, p entities.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.payments {
		if existing.OrderID == p.OrderID && existing.Status.Active() {
			return entities.ErrDuplicatePayment
		}
	}
	r.payments[p.ID] = p
	return nil
}

func (r *fakePaymentRepo) UpdatePaymentReference(_ context.Context, paymentID, reference string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[paymentID]
	if !ok {
		return entities.ErrPaymentNotFound
	}
	p.Reference = reference
	r.payments[paymentID] = p
	return nil
}

func (r *fakePaymentRepo) GetPaymentByID(_ context.Context, paymentID string) (entities.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[paymentID]
	if !ok {
		return entities.Payment{}, entities.ErrPaymentNotFound
	}
	return p, nil
}

func (r *fakePaymentRepo) GetPaymentByReference(_ context.Context, gatewayName, reference string) (entities.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.Gateway == gatewayName && p.Reference == reference {
			return p, nil
		}
	}
	return entities.Payment{}, entities.ErrPaymentNotFound
}

func (r *fakePaymentRepo) GetPaymentForUpdate(ctx context.Context, paymentID string) (entities.Payment, error) {
	return r.GetPaymentByID(ctx, paymentID)
}

func (r *fakePaymentRepo) CompletePaymentIfPending(_ context.Context, paymentID, gatewayTxnID string, metadata map[string]string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[paymentID]
	if !ok || (p.Status != entities.PaymentPending && p.Status != entities.PaymentProcessing) {
		return false, nil
	}
	now := time.Now().UTC()
	p.Status = entities.PaymentCompleted
	p.GatewayTxnID = gatewayTxnID
	p.Metadata = metadata
	p.CompletedAt = &now
	r.payments[paymentID] = p
	return true, nil
}

func (r *fakePaymentRepo) FailPayment(_ context.Context, paymentID, errCode, errMsg string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return false, r.failErr
	}
	p, ok := r.payments[paymentID]
	if !ok || (p.Status != entities.PaymentPending && p.Status != entities.PaymentProcessing) {
		return false, nil
	}
	now := time.Now().UTC()
	p.Status = entities.PaymentFailed
	p.LastErrCode = errCode
	p.LastErrMsg = errMsg
	p.FailedAt = &now
	r.payments[paymentID] = p
	return true, nil
}

func (r *fakePaymentRepo) AddRefund(_ context.Context, paymentID string, refund entities.Refund, newStatus entities.PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[paymentID]
	if !ok {
		return entities.ErrPaymentNotFound
	}
	p.Refunds = append(p.Refunds, refund)
	p.Status = newStatus
	r.payments[paymentID] = p
	return nil
}

func (r *fakePaymentRepo) get(paymentID string) entities.Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.payments[paymentID]
}

// fakeAdapter carries its behavior in overridable funcs so each test case
// states only what it cares about.
type fakeAdapter struct {
	name          string
	initiateFn    func(ctx context.Context, req gateway.InitiateRequest) (gateway.InitiateResult, error)
	verifyFn      func(ctx context.Context, reference string) (gateway.VerifyResult, error)
	verifyHookFn  func(payload []byte, signature string) error
	parseHookFn   func(payload []byte) (gateway.WebhookEvent, error)
	initiateCalls int
}

func (a *fakeAdapter) Name() string { return a.name }

func (a *fakeAdapter) Initiate(ctx context.Context, req gateway.InitiateRequest) (gateway.InitiateResult, error) {
	a.initiateCalls++
	if a.initiateFn != nil {
		return a.initiateFn(ctx, req)
	}
	return gateway.InitiateResult{Reference: req.Reference}, nil
}

func (a *fakeAdapter) Verify(ctx context.Context, reference string) (gateway.VerifyResult, error) {
	if a.verifyFn != nil {
		return a.verifyFn(ctx, reference)
	}
	return gateway.VerifyResult{}, errors.New("verify not stubbed")
}

func (a *fakeAdapter) VerifyWebhook(payload []byte, signature string) error {
	if a.verifyHookFn != nil {
		return a.verifyHookFn(payload, signature)
	}
	return nil
}

func (a *fakeAdapter) ParseWebhook(payload []byte) (gateway.WebhookEvent, error) {
	if a.parseHookFn != nil {
		return a.parseHookFn(payload)
	}
	return gateway.WebhookEvent{}, errors.New("parse not stubbed")
}

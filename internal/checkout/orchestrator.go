// Package checkout drives a checkout session from cart review to a payment
// outcome.
//
// A session captures the cart when the shopper commits to pay. Only the
// captured lines are cleared on success, whatever happened to the live cart
// in the meantime. At most one payment order is outstanding per session.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nirmalhandloom/storefront/internal/events"
	"github.com/nirmalhandloom/storefront/internal/gateway"
	"github.com/nirmalhandloom/storefront/internal/identity"
	"github.com/nirmalhandloom/storefront/internal/models"
	"github.com/nirmalhandloom/storefront/internal/pricing"
)

type Cart interface {
	Cart() []models.LineItem
	RemoveItems(ids ...identity.ID) int
}

type Addresses interface {
	Addresses(ctx context.Context) ([]models.Address, error)
	AddAddressChecked(ctx context.Context, current []models.Address, a models.Address) ([]models.Address, error)
}

type Orders interface {
	CreatePaymentOrder(ctx context.Context, amount int64) (*models.PaymentOrder, error)
}

type Gateway interface {
	Load(ctx context.Context) error
	Open(opts gateway.Options, ref string) error
	Take(orderID string) (ref string, ok bool)
	Forget(orderID string)
	ScriptURL() string
}

type Users interface {
	User() (models.UserInfo, bool)
}

type Notifier interface {
	Publish(topic, key, eventType string, body any)
}

// Config is the merchant side of the widget options.
type Config struct {
	KeyID       string
	StoreName   string
	Description string
	Image       string
	ThemeColor  string

	// IdleTTL is how long a session may go untouched before Sweep closes it.
	// Zero means DefaultIdleTTL.
	IdleTTL time.Duration
}

const DefaultIdleTTL = 30 * time.Minute

type Deps struct {
	Cart      Cart
	Addresses Addresses
	Orders    Orders
	Gateway   Gateway
	Users     Users
	Notifier  Notifier
	Logger    *slog.Logger
	Clock     func() time.Time
}

type session struct {
	id        string
	status    Status
	addresses []models.Address
	selected  string
	snapshot  []models.LineItem
	total     int64
	order     *models.PaymentOrder
	createdAt time.Time
	touchedAt time.Time
}

func (s *session) to(next Status) error {
	if !CanTransitionTo(s.status, next) {
		return fmt.Errorf("%s -> %s: %w", s.status, next, ErrIllegalTransition)
	}
	s.status = next
	return nil
}

// View is a read-only copy of a session. Items and Total come from the
// captured cart once payment has been initiated, else from the live cart.
type View struct {
	ID                string            `json:"id"`
	Status            Status            `json:"status"`
	Items             []models.LineItem `json:"items"`
	Total             int64             `json:"total"`
	Addresses         []models.Address  `json:"addresses"`
	SelectedAddressID string            `json:"selected_address_id,omitempty"`
	OrderID           string            `json:"order_id,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

type OutcomeKind string

const (
	OutcomeSucceeded OutcomeKind = "succeeded"
	OutcomeFailed    OutcomeKind = "failed"
	OutcomeAbandoned OutcomeKind = "abandoned"
	OutcomeIgnored   OutcomeKind = "ignored"
)

// Outcome is what a widget callback led to, including where to send the
// shopper next.
type Outcome struct {
	Kind      OutcomeKind      `json:"kind"`
	SessionID string           `json:"session_id,omitempty"`
	PaymentID string           `json:"payment_id,omitempty"`
	Failure   *gateway.Failure `json:"failure,omitempty"`
	Settled   int              `json:"settled,omitempty"`
	Route     string           `json:"route,omitempty"`
}

const (
	RouteCheckout       = "/checkout"
	RoutePaymentSuccess = "/payment-success"
	RoutePaymentFailure = "/payment-failure"
)

type Orchestrator struct {
	cfg  Config
	deps Deps
	log  *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

func New(cfg Config, deps Deps) *Orchestrator {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Orchestrator{
		cfg:      cfg,
		deps:     deps,
		log:      log.With("component", "checkout"),
		sessions: make(map[string]*session),
	}
}

// lookup finds a live session and marks it as touched. Must be called with
// o.mu held.
func (o *Orchestrator) lookup(sid string) (*session, bool) {
	s, ok := o.sessions[sid]
	if ok {
		s.touchedAt = o.deps.Clock().UTC()
	}
	return s, ok
}

func (o *Orchestrator) publish(sid, eventType string, body any) {
	if o.deps.Notifier != nil {
		o.deps.Notifier.Publish(events.TopicCheckout, sid, eventType, body)
	}
}

func (o *Orchestrator) view(s *session) View {
	v := View{
		ID:                s.id,
		Status:            s.status,
		Addresses:         append([]models.Address{}, s.addresses...),
		SelectedAddressID: s.selected,
		CreatedAt:         s.createdAt,
	}
	if s.snapshot != nil {
		v.Items = append([]models.LineItem{}, s.snapshot...)
		v.Total = s.total
	} else {
		v.Items = o.deps.Cart.Cart()
		v.Total = pricing.Total(v.Items)
	}
	if s.order != nil {
		v.OrderID = s.order.ID
	}
	return v
}

// Begin opens a session. With a non-empty cart it fetches addresses right
// away; if that fetch fails the session stays in review and the returned
// View is valid alongside an ErrAddressUnavailable error.
func (o *Orchestrator) Begin(ctx context.Context) (View, error) {
	now := o.deps.Clock().UTC()
	s := &session{id: uuid.NewString(), status: StatusEmpty, createdAt: now, touchedAt: now}
	if len(o.deps.Cart.Cart()) > 0 {
		s.status = StatusReviewing
	}

	o.mu.Lock()
	o.sessions[s.id] = s
	v := o.view(s)
	o.mu.Unlock()

	o.log.Info("checkout_started", "session", s.id, "status", s.status)
	o.publish(s.id, "checkout_started", v)

	if s.status == StatusEmpty {
		return v, nil
	}
	return o.LoadAddresses(ctx, s.id)
}

func (o *Orchestrator) Get(sid string) (View, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.lookup(sid)
	if !ok {
		return View{}, ErrSessionNotFound
	}
	return o.view(s), nil
}

// refreshCart moves an idle session between Empty and Reviewing to follow
// the live cart. Must be called with o.mu held.
func (o *Orchestrator) refreshCart(s *session) {
	empty := len(o.deps.Cart.Cart()) == 0
	switch {
	case empty && (s.status == StatusReviewing || s.status == StatusAddressSelected):
		_ = s.to(StatusEmpty)
	case !empty && s.status == StatusEmpty:
		_ = s.to(StatusReviewing)
	}
}

// autoSelect keeps a selection that is still listed, else prefers the
// default address, else the first one.
func autoSelect(current string, list []models.Address) string {
	for _, a := range list {
		if current != "" && a.ID == current {
			return current
		}
	}
	for _, a := range list {
		if a.IsDefault {
			return a.ID
		}
	}
	if len(list) > 0 {
		return list[0].ID
	}
	return ""
}

func (o *Orchestrator) applyAddresses(s *session, list []models.Address, selected string) {
	s.addresses = list
	s.selected = selected
	if s.status.InProgress() {
		return
	}
	o.refreshCart(s)
	switch {
	case s.selected != "" && s.status == StatusReviewing:
		_ = s.to(StatusAddressSelected)
	case s.selected == "" && s.status == StatusAddressSelected:
		_ = s.to(StatusReviewing)
	}
}

func (o *Orchestrator) LoadAddresses(ctx context.Context, sid string) (View, error) {
	o.mu.Lock()
	if _, ok := o.lookup(sid); !ok {
		o.mu.Unlock()
		return View{}, ErrSessionNotFound
	}
	o.mu.Unlock()

	list, err := o.deps.Addresses.Addresses(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.lookup(sid)
	if !ok {
		return View{}, ErrSessionNotFound
	}
	if err != nil {
		o.log.Warn("address_fetch_failed", "session", sid, "error", err)
		o.refreshCart(s)
		return o.view(s), fmt.Errorf("%w: %w", ErrAddressUnavailable, err)
	}
	selected := s.selected
	if !s.status.InProgress() {
		selected = autoSelect(s.selected, list)
	}
	o.applyAddresses(s, list, selected)
	return o.view(s), nil
}

// AddAddress saves a new address and selects it when it is the only one or
// is flagged default.
func (o *Orchestrator) AddAddress(ctx context.Context, sid string, a models.Address) (View, error) {
	o.mu.Lock()
	s, ok := o.lookup(sid)
	if !ok {
		o.mu.Unlock()
		return View{}, ErrSessionNotFound
	}
	current := append([]models.Address{}, s.addresses...)
	o.mu.Unlock()

	list, err := o.deps.Addresses.AddAddressChecked(ctx, current, a)
	if err != nil {
		return View{}, fmt.Errorf("add address: %w", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok = o.lookup(sid)
	if !ok {
		return View{}, ErrSessionNotFound
	}
	selected := s.selected
	if len(list) > 0 && !s.status.InProgress() && (len(list) == 1 || a.IsDefault) {
		selected = list[len(list)-1].ID
	}
	o.applyAddresses(s, list, selected)
	return o.view(s), nil
}

func (o *Orchestrator) SelectAddress(sid, addressID string) (View, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.lookup(sid)
	if !ok {
		return View{}, ErrSessionNotFound
	}
	if s.status.InProgress() {
		return View{}, ErrPaymentInProgress
	}
	found := false
	for _, a := range s.addresses {
		if a.ID == addressID {
			found = true
			break
		}
	}
	if !found {
		return View{}, fmt.Errorf("address %q: %w", addressID, ErrNoAddress)
	}
	o.applyAddresses(s, s.addresses, addressID)
	return o.view(s), nil
}

// rollback returns a session whose payment could not be opened to
// AddressSelected. Must be called with o.mu held.
func (o *Orchestrator) rollback(sid string) {
	s, ok := o.sessions[sid]
	if !ok || s.status != StatusPaymentInitiating {
		return
	}
	s.snapshot = nil
	s.total = 0
	s.order = nil
	_ = s.to(StatusAddressSelected)
}

// Pay captures the cart, creates the backend payment order, loads the
// widget script and opens the widget. The returned options are what the
// browser passes to the widget constructor.
func (o *Orchestrator) Pay(ctx context.Context, sid string) (gateway.Options, error) {
	o.mu.Lock()
	s, ok := o.lookup(sid)
	if !ok {
		o.mu.Unlock()
		return gateway.Options{}, ErrSessionNotFound
	}
	if s.status.InProgress() {
		o.mu.Unlock()
		return gateway.Options{}, ErrPaymentInProgress
	}
	o.refreshCart(s)
	if s.status == StatusEmpty {
		o.mu.Unlock()
		return gateway.Options{}, ErrEmptyCart
	}
	if s.selected == "" || s.status != StatusAddressSelected {
		o.mu.Unlock()
		return gateway.Options{}, ErrNoAddress
	}
	if o.cfg.KeyID == "" {
		o.mu.Unlock()
		o.log.Error("payment_key_missing", "session", sid)
		return gateway.Options{}, ErrConfiguration
	}
	snapshot := o.deps.Cart.Cart()
	total := pricing.Total(snapshot)
	s.snapshot = snapshot
	s.total = total
	if err := s.to(StatusPaymentInitiating); err != nil {
		o.mu.Unlock()
		return gateway.Options{}, err
	}
	o.mu.Unlock()

	o.log.Info("payment_initiating", "session", sid, "amount", total, "lines", len(snapshot))

	order, err := o.deps.Orders.CreatePaymentOrder(ctx, total)
	if err == nil && (order == nil || order.ID == "") {
		err = errors.New("backend returned no order id")
	}
	if err != nil {
		o.mu.Lock()
		o.rollback(sid)
		o.mu.Unlock()
		o.log.Warn("payment_order_failed", "session", sid, "error", err)
		return gateway.Options{}, fmt.Errorf("%w: %w", ErrOrderCreation, err)
	}

	if err := o.deps.Gateway.Load(ctx); err != nil {
		o.mu.Lock()
		o.rollback(sid)
		o.mu.Unlock()
		o.log.Warn("payment_script_failed", "session", sid, "order", order.ID, "error", err)
		return gateway.Options{}, fmt.Errorf("%w: %w", ErrGatewayUnavailable, err)
	}

	opts := o.options(order)

	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok = o.lookup(sid)
	if !ok {
		o.log.Info("payment_abandoned_before_open", "session", sid, "order", order.ID)
		return gateway.Options{}, ErrSessionNotFound
	}
	if err := o.deps.Gateway.Open(opts, sid); err != nil {
		o.rollback(sid)
		return gateway.Options{}, fmt.Errorf("%w: %w", ErrGatewayUnavailable, err)
	}
	s.order = order
	if err := s.to(StatusPaymentPending); err != nil {
		o.deps.Gateway.Forget(order.ID)
		return gateway.Options{}, err
	}

	o.log.Info("payment_pending", "session", sid, "order", order.ID, "amount", order.Amount, "currency", order.Currency)
	o.publish(sid, "payment_initiated", map[string]any{"order_id": order.ID, "amount": total, "currency": order.Currency})
	return opts, nil
}

func (o *Orchestrator) options(order *models.PaymentOrder) gateway.Options {
	opts := gateway.Options{
		Key:         o.cfg.KeyID,
		Amount:      order.Amount,
		Currency:    order.Currency,
		Name:        o.cfg.StoreName,
		Description: o.cfg.Description,
		Image:       o.cfg.Image,
		OrderID:     order.ID,
		Theme:       gateway.Theme{Color: o.cfg.ThemeColor},
		ScriptURL:   o.deps.Gateway.ScriptURL(),
	}
	if o.deps.Users != nil {
		if u, ok := o.deps.Users.User(); ok {
			opts.Prefill = gateway.Prefill{Name: u.Name, Email: u.Email, Contact: u.Phone}
		}
	}
	return opts
}

// Succeed handles the widget's success handler for orderID. Callbacks for
// orders that are unknown, already settled or whose session was closed come
// back as OutcomeIgnored.
func (o *Orchestrator) Succeed(orderID, paymentID string) Outcome {
	sid, ok := o.deps.Gateway.Take(orderID)
	if !ok {
		o.log.Info("callback_ignored", "order", orderID, "event", "success")
		return Outcome{Kind: OutcomeIgnored}
	}
	return o.succeed(sid, paymentID)
}

// Fail handles the widget's payment.failed event.
func (o *Orchestrator) Fail(orderID string, f gateway.Failure) Outcome {
	sid, ok := o.deps.Gateway.Take(orderID)
	if !ok {
		o.log.Info("callback_ignored", "order", orderID, "event", "failure")
		return Outcome{Kind: OutcomeIgnored}
	}
	return o.fail(sid, f)
}

// Dismiss handles the widget's ondismiss hook.
func (o *Orchestrator) Dismiss(orderID string) Outcome {
	sid, ok := o.deps.Gateway.Take(orderID)
	if !ok {
		o.log.Info("callback_ignored", "order", orderID, "event", "dismiss")
		return Outcome{Kind: OutcomeIgnored}
	}
	return o.dismiss(sid)
}

func (o *Orchestrator) succeed(sid, paymentID string) Outcome {
	o.mu.Lock()
	s, ok := o.sessions[sid]
	if !ok || s.status != StatusPaymentPending {
		o.mu.Unlock()
		return Outcome{Kind: OutcomeIgnored, SessionID: sid}
	}
	_ = s.to(StatusPaymentSucceeded)
	ids := make([]identity.ID, 0, len(s.snapshot))
	for _, it := range s.snapshot {
		ids = append(ids, it.ID)
	}
	delete(o.sessions, sid)
	o.mu.Unlock()

	settled := o.deps.Cart.RemoveItems(ids...)
	o.log.Info("payment_succeeded", "session", sid, "payment", paymentID, "settled", settled)
	o.publish(sid, "payment_succeeded", map[string]any{"payment_id": paymentID, "settled": settled})

	return Outcome{
		Kind:      OutcomeSucceeded,
		SessionID: sid,
		PaymentID: paymentID,
		Settled:   settled,
		Route:     RoutePaymentSuccess + "?payment_id=" + url.QueryEscape(paymentID),
	}
}

func (o *Orchestrator) fail(sid string, f gateway.Failure) Outcome {
	o.mu.Lock()
	s, ok := o.sessions[sid]
	if !ok || s.status != StatusPaymentPending {
		o.mu.Unlock()
		return Outcome{Kind: OutcomeIgnored, SessionID: sid}
	}
	_ = s.to(StatusPaymentFailed)
	delete(o.sessions, sid)
	o.mu.Unlock()

	o.log.Warn("payment_failed", "session", sid, "code", f.Code, "reason", f.Reason, "description", f.Description)
	o.publish(sid, "payment_failed", f)
	return Outcome{Kind: OutcomeFailed, SessionID: sid, Failure: &f, Route: RoutePaymentFailure}
}

func (o *Orchestrator) dismiss(sid string) Outcome {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.sessions[sid]
	if !ok || s.status != StatusPaymentPending {
		return Outcome{Kind: OutcomeIgnored, SessionID: sid}
	}
	_ = s.to(StatusPaymentAbandoned)
	s.snapshot = nil
	s.total = 0
	s.order = nil
	_ = s.to(StatusAddressSelected)

	o.log.Info("payment_abandoned", "session", sid)
	o.publish(sid, "payment_abandoned", nil)
	return Outcome{Kind: OutcomeAbandoned, SessionID: sid, Route: RouteCheckout}
}

// Close discards a session. A payment that is still open is not cancelled;
// its callback will find no session and be ignored.
func (o *Orchestrator) Close(sid string) bool {
	o.mu.Lock()
	s, ok := o.sessions[sid]
	if ok {
		delete(o.sessions, sid)
	}
	o.mu.Unlock()
	if !ok {
		return false
	}
	if s.order != nil {
		o.deps.Gateway.Forget(s.order.ID)
	}
	o.log.Info("checkout_closed", "session", sid, "status", s.status)
	return true
}

// Sweep closes every session untouched for longer than the idle TTL, the
// same way Close does. It returns how many were closed.
func (o *Orchestrator) Sweep() int {
	cutoff := o.deps.Clock().UTC().Add(-o.cfg.IdleTTL)

	o.mu.Lock()
	var orders []string
	n := 0
	for sid, s := range o.sessions {
		if !s.touchedAt.Before(cutoff) {
			continue
		}
		delete(o.sessions, sid)
		n++
		if s.order != nil {
			orders = append(orders, s.order.ID)
		}
	}
	o.mu.Unlock()

	for _, id := range orders {
		o.deps.Gateway.Forget(id)
	}
	if n > 0 {
		o.log.Info("checkout_sessions_expired", "count", n)
	}
	return n
}

// Run sweeps idle sessions every interval until ctx is done.
func (o *Orchestrator) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			o.Sweep()
		}
	}
}

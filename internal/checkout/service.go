package checkout

import (
	"context"
	stderrors "errors"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"

	"github.com/ticketeira/storefront/internal/cart"
	"github.com/ticketeira/storefront/internal/session"
	pkgerrors "github.com/ticketeira/storefront/pkg/errors"
	"github.com/ticketeira/storefront/pkg/logger"
	"github.com/ticketeira/storefront/pkg/metrics"
	"github.com/ticketeira/storefront/pkg/ticketingapi"
)

type cartService interface {
	Get(ctx context.Context, sessionID string) (*cart.Cart, error)
	AttachRemote(ctx context.Context, sessionID, remoteID string, expiresAt time.Time) (*cart.Cart, error)
	DetachRemote(ctx context.Context, sessionID string) (*cart.Cart, error)
	Clear(ctx context.Context, sessionID string) (*cart.Cart, error)
}

type sessionService interface {
	Current(ctx context.Context, sessionID string) (*session.Session, error)
	Login(ctx context.Context, sessionID, email, password string) (*session.Session, error)
}

type reservationClient interface {
	CreateCart(ctx context.Context, accessToken string, tickets []ticketingapi.CartTicket) (*ticketingapi.RemoteCart, error)
}

// Service drives the checkout wizard for each browser session: step
// transitions, ticket-holder assignment, and the remote cart synchronization
// hooks.
type Service interface {
	State(ctx context.Context, sessionID string) (*State, error)
	ConfirmCart(ctx context.Context, sessionID string) (*State, error)
	CompleteAuth(ctx context.Context, sessionID, email, password string) (*State, error)
	AssignmentRows(ctx context.Context, sessionID string) ([]AssignmentRow, error)
	CopyMyInfo(ctx context.Context, sessionID string, row int) ([]AssignmentRow, error)
	SubmitAssignments(ctx context.Context, sessionID string, holders []HolderAssignment) (*State, error)
	ConfirmPayment(ctx context.Context, sessionID string, method PaymentMethod) (*State, error)
	Retry(ctx context.Context, sessionID string) (*State, error)
	Exit(ctx context.Context, sessionID string) error
}

// ServiceParams groups dependencies for the checkout service.
type ServiceParams struct {
	Carts     cartService
	Sessions  sessionService
	Ticketing reservationClient
	Logger    *logger.Logger
	Metrics   *metrics.CheckoutMetrics
	Now       func() time.Time
}

// flow is the transient per-session wizard state. It lives in memory only and
// is discarded on restart; the cart itself survives in Redis.
type flow struct {
	mu             sync.Mutex
	step           Step
	assignments    []HolderAssignment
	prefills       map[int]HolderAssignment
	paymentMethod  PaymentMethod
	resultStatus   ResultStatus
	copyMyInfoUsed bool
}

func newFlow() *flow {
	return &flow{step: StepCart, prefills: map[int]HolderAssignment{}}
}

type service struct {
	carts     cartService
	sessions  sessionService
	ticketing reservationClient
	logg      *logger.Logger
	metrics   *metrics.CheckoutMetrics
	now       func() time.Time
	validate  *validator.Validate

	mu    sync.Mutex
	flows map[string]*flow
}

// NewService builds the checkout service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Carts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart service is required")
	}
	if params.Sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session service is required")
	}
	if params.Ticketing == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ticketing client is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &service{
		carts:     params.Carts,
		sessions:  params.Sessions,
		ticketing: params.Ticketing,
		logg:      params.Logger,
		metrics:   params.Metrics,
		now:       now,
		validate:  validate,
		flows:     map[string]*flow{},
	}, nil
}

// State returns the session's flow snapshot, starting a fresh flow at the cart
// step when none exists.
func (s *service) State(ctx context.Context, sessionID string) (*State, error) {
	f, err := s.lockFlow(sessionID)
	if err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	return snapshot(f), nil
}

// ConfirmCart leaves the cart step: authenticated sessions go straight to
// tickets, others must pass through auth first. An empty cart never advances.
func (s *service) ConfirmCart(ctx context.Context, sessionID string) (*State, error) {
	f, err := s.lockFlow(sessionID)
	if err != nil {
		return nil, err
	}
	defer f.mu.Unlock()

	if f.step != StepCart {
		return nil, stepConflict(f.step, StepCart)
	}

	current, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if current.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	sess, err := s.sessions.Current(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Authenticated() {
		f.step = StepAuth
		return snapshot(f), nil
	}

	f.step = StepTickets
	s.ensureRemoteCart(ctx, sessionID, sess)
	return snapshot(f), nil
}

// CompleteAuth logs in from inside the wizard and advances to tickets. A
// failed login keeps the flow at the auth step.
func (s *service) CompleteAuth(ctx context.Context, sessionID, email, password string) (*State, error) {
	f, err := s.lockFlow(sessionID)
	if err != nil {
		return nil, err
	}
	defer f.mu.Unlock()

	if f.step != StepAuth {
		return nil, stepConflict(f.step, StepAuth)
	}

	sess, err := s.sessions.Login(ctx, sessionID, email, password)
	if err != nil {
		return nil, err
	}

	f.step = StepTickets
	s.ensureRemoteCart(ctx, sessionID, sess)
	return snapshot(f), nil
}

// AssignmentRows expands the cart into one holder form row per individual
// ticket, in cart order.
func (s *service) AssignmentRows(ctx context.Context, sessionID string) ([]AssignmentRow, error) {
	f, err := s.lockFlow(sessionID)
	if err != nil {
		return nil, err
	}
	defer f.mu.Unlock()

	if f.step != StepTickets {
		return nil, stepConflict(f.step, StepTickets)
	}
	return s.expandRows(ctx, sessionID, f)
}

// CopyMyInfo fills one row from the authenticated profile. The convenience is
// one-shot per flow: after the first use further calls change nothing.
func (s *service) CopyMyInfo(ctx context.Context, sessionID string, row int) ([]AssignmentRow, error) {
	f, err := s.lockFlow(sessionID)
	if err != nil {
		return nil, err
	}
	defer f.mu.Unlock()

	if f.step != StepTickets {
		return nil, stepConflict(f.step, StepTickets)
	}
	if f.copyMyInfoUsed {
		return s.expandRows(ctx, sessionID, f)
	}

	sess, err := s.sessions.Current(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Authenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}

	rows, err := s.expandRows(ctx, sessionID, f)
	if err != nil {
		return nil, err
	}
	if row < 0 || row >= len(rows) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "row is out of range")
	}

	first, last := holderNameParts(sess)
	f.prefills[row] = HolderAssignment{FirstName: first, LastName: last, Email: sess.User.Email}
	f.copyMyInfoUsed = true
	return s.expandRows(ctx, sessionID, f)
}

// SubmitAssignments validates one holder per ticket and advances to payment.
// Validation failures keep the flow at the tickets step and report every bad
// field at once.
func (s *service) SubmitAssignments(ctx context.Context, sessionID string, holders []HolderAssignment) (*State, error) {
	f, err := s.lockFlow(sessionID)
	if err != nil {
		return nil, err
	}
	defer f.mu.Unlock()

	if f.step != StepTickets {
		return nil, stepConflict(f.step, StepTickets)
	}

	current, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if expected := current.TotalQuantity(); len(holders) != expected {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "one holder is required per ticket").
			WithDetails(map[string]int{"expected": expected, "received": len(holders)})
	}

	var combined error
	var fields []FieldError
	for i, holder := range holders {
		err := s.validate.Struct(holder)
		if err == nil {
			continue
		}
		combined = multierr.Append(combined, err)
		var invalid validator.ValidationErrors
		if stderrors.As(err, &invalid) {
			for _, fieldErr := range invalid {
				fields = append(fields, FieldError{Row: i, Field: fieldErr.Field(), Rule: fieldErr.Tag()})
			}
		}
	}
	if combined != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, combined, "holder assignment is invalid").
			WithDetails(fields)
	}

	f.assignments = holders
	f.step = StepPayment

	sess, err := s.sessions.Current(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.ensureRemoteCart(ctx, sessionID, sess)
	return snapshot(f), nil
}

// ConfirmPayment classifies the flow's terminal result. Completion is
// simulated: success needs a live reservation and an authenticated user, and
// clears the cart. A lapsed reservation yields the expired result and drops
// the remote identity so a retry reserves afresh. Anything else fails without
// touching the cart.
func (s *service) ConfirmPayment(ctx context.Context, sessionID string, method PaymentMethod) (*State, error) {
	f, err := s.lockFlow(sessionID)
	if err != nil {
		return nil, err
	}
	defer f.mu.Unlock()

	if f.step != StepPayment {
		return nil, stepConflict(f.step, StepPayment)
	}
	if !method.valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}
	f.paymentMethod = method

	current, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.Current(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	switch {
	case !current.HasRemote() || !sess.Authenticated():
		f.resultStatus = ResultFailed
	case current.RemoteExpiresAt != nil && s.now().After(*current.RemoteExpiresAt):
		if _, err := s.carts.DetachRemote(ctx, sessionID); err != nil {
			return nil, err
		}
		f.resultStatus = ResultExpired
	default:
		if _, err := s.carts.Clear(ctx, sessionID); err != nil {
			return nil, err
		}
		f.resultStatus = ResultSuccess
	}

	f.step = StepResult
	s.metrics.IncOutcome(string(f.resultStatus))
	if s.logg != nil {
		s.logg.Info(s.logg.WithCheckoutStep(ctx, string(StepResult)), "checkout finished with status "+string(f.resultStatus))
	}
	return snapshot(f), nil
}

// Retry restarts the wizard from the cart step with whatever the cart still
// holds.
func (s *service) Retry(ctx context.Context, sessionID string) (*State, error) {
	f, err := s.lockFlow(sessionID)
	if err != nil {
		return nil, err
	}

	if f.step != StepResult {
		defer f.mu.Unlock()
		return nil, stepConflict(f.step, StepResult)
	}
	f.mu.Unlock()

	s.mu.Lock()
	fresh := newFlow()
	s.flows[sessionID] = fresh
	s.mu.Unlock()
	return snapshot(fresh), nil
}

// Exit discards the session's flow entirely.
func (s *service) Exit(_ context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	s.mu.Lock()
	delete(s.flows, sessionID)
	s.mu.Unlock()
	return nil
}

// ensureRemoteCart is the level-triggered synchronizer, evaluated on entry to
// the tickets and payment steps. It reserves server-side only when the session
// is authenticated, the cart has items, and no reservation exists yet. It
// never fails the transition: errors are logged and counted.
func (s *service) ensureRemoteCart(ctx context.Context, sessionID string, sess *session.Session) {
	if !sess.Authenticated() {
		return
	}

	current, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		s.syncFailed(ctx, "load cart for synchronization", err)
		return
	}
	if current.HasRemote() || current.IsEmpty() {
		return
	}

	tickets := make([]ticketingapi.CartTicket, 0, len(current.Items))
	for _, item := range current.Items {
		tickets = append(tickets, ticketingapi.CartTicket{BatchID: item.BatchID, Quantity: item.Quantity})
	}

	remote, err := s.ticketing.CreateCart(ctx, sess.AccessToken, tickets)
	if err != nil {
		s.syncFailed(ctx, "create remote cart", err)
		return
	}
	if _, err := s.carts.AttachRemote(ctx, sessionID, remote.ID, remote.ExpiresAt); err != nil {
		s.syncFailed(ctx, "persist remote cart identity", err)
		return
	}
	s.metrics.IncSyncCreated()
}

func (s *service) syncFailed(ctx context.Context, stage string, err error) {
	s.metrics.IncSyncFailure()
	if s.logg != nil {
		s.logg.Error(ctx, "cart synchronization failed: "+stage, err)
	}
}

func (s *service) expandRows(ctx context.Context, sessionID string, f *flow) ([]AssignmentRow, error) {
	current, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	rows := make([]AssignmentRow, 0, current.TotalQuantity())
	for _, item := range current.Items {
		for i := 0; i < item.Quantity; i++ {
			row := AssignmentRow{Row: len(rows), BatchID: item.BatchID, BatchName: item.BatchName}
			if prefill, ok := f.prefills[row.Row]; ok {
				holder := prefill
				row.Holder = &holder
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// lockFlow returns the session's flow with its mutex held, creating the flow
// on first touch. A flow already busy with another request is not waited on.
func (s *service) lockFlow(sessionID string) (*flow, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	s.mu.Lock()
	f, ok := s.flows[sessionID]
	if !ok {
		f = newFlow()
		s.flows[sessionID] = f
	}
	s.mu.Unlock()

	if !f.mu.TryLock() {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "another checkout request is in flight")
	}
	return f, nil
}

func snapshot(f *flow) *State {
	return &State{
		Step:           f.step,
		PaymentMethod:  f.paymentMethod,
		ResultStatus:   f.resultStatus,
		CopyMyInfoUsed: f.copyMyInfoUsed,
	}
}

func stepConflict(current, required Step) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "operation not allowed in the current step").
		WithDetails(map[string]Step{"current": current, "required": required})
}

func holderNameParts(sess *session.Session) (first, last string) {
	first = strings.TrimSpace(sess.User.FirstName)
	last = strings.TrimSpace(sess.User.LastName)
	if first != "" || last != "" {
		return first, last
	}
	parts := strings.Fields(sess.User.Name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

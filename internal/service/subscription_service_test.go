package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/amiirziyaa/video-platform/internal/entity"
	"github.com/amiirziyaa/video-platform/internal/repository/contract"
	"github.com/amiirziyaa/video-platform/internal/repository/specification"
	"github.com/amiirziyaa/video-platform/internal/repository/unitofwork"
	"github.com/amiirziyaa/video-platform/pkg/events"
	"github.com/amiirziyaa/video-platform/pkg/gateway"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ---- in-memory store standing in for Postgres ----

type memStore struct {
	users         map[uuid.UUID]*entity.User
	plans         map[uuid.UUID]*entity.SubscriptionPlan
	payments      map[uuid.UUID]*entity.Payment
	subscriptions map[uuid.UUID]*entity.Subscription
	videos        map[uuid.UUID]*entity.Video
	watchEntries  []*entity.WatchHistory

	planQueries int

	// duplicateKeyOnce simulates the partial unique index rejecting a
	// concurrent create; winnerSub is what the "other" transaction wrote.
	duplicateKeyOnce bool
	winnerSub        *entity.Subscription

	// Row locks back the FOR UPDATE semantics of the real store.
	rowLockMu sync.Mutex
	rowLocks  map[uuid.UUID]*sync.Mutex

	// Test hooks for concurrency scenarios.
	lockAttempted chan struct{} // signalled before a locked read blocks
	createSubGate func()        // runs at the top of a subscription insert
}

func (s *memStore) lockFor(id uuid.UUID) *sync.Mutex {
	s.rowLockMu.Lock()
	defer s.rowLockMu.Unlock()
	if s.rowLocks[id] == nil {
		s.rowLocks[id] = &sync.Mutex{}
	}
	return s.rowLocks[id]
}

func newMemStore() *memStore {
	return &memStore{
		users:         map[uuid.UUID]*entity.User{},
		plans:         map[uuid.UUID]*entity.SubscriptionPlan{},
		payments:      map[uuid.UUID]*entity.Payment{},
		subscriptions: map[uuid.UUID]*entity.Subscription{},
		videos:        map[uuid.UUID]*entity.Video{},
		rowLocks:      map[uuid.UUID]*sync.Mutex{},
	}
}

func copyPayment(p *entity.Payment) *entity.Payment {
	cp := *p
	cp.Metadata = map[string]interface{}{}
	for k, v := range p.Metadata {
		cp.Metadata[k] = v
	}
	return &cp
}

func copySub(s *entity.Subscription) *entity.Subscription {
	cp := *s
	return &cp
}

type memPaymentRepo struct {
	store *memStore
	uow   *memUnitOfWork
}

func (r *memPaymentRepo) Create(_ context.Context, p *entity.Payment) error {
	r.store.payments[p.Id] = copyPayment(p)
	return nil
}

func (r *memPaymentRepo) Update(_ context.Context, p *entity.Payment) error {
	r.store.payments[p.Id] = copyPayment(p)
	return nil
}

func (r *memPaymentRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.Payment, error) {
	var found *entity.Payment
	for _, p := range r.store.payments {
		if paymentMatches(p, specs) {
			found = p
			break
		}
	}
	if found == nil {
		return nil, nil
	}

	for _, s := range specs {
		if _, ok := s.(specification.ForUpdate); ok {
			mu := r.store.lockFor(found.Id)
			if r.store.lockAttempted != nil {
				select {
				case r.store.lockAttempted <- struct{}{}:
				default:
				}
			}
			mu.Lock()
			if r.uow != nil {
				r.uow.held = append(r.uow.held, mu)
			}
			// The row may have changed while we waited on the lock.
			found = r.store.payments[found.Id]
			break
		}
	}
	return copyPayment(found), nil
}

func (r *memPaymentRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.Payment, error) {
	var out []*entity.Payment
	for _, p := range r.store.payments {
		if paymentMatches(p, specs) {
			out = append(out, copyPayment(p))
		}
	}
	return out, nil
}

func paymentMatches(p *entity.Payment, specs []specification.Specification) bool {
	for _, s := range specs {
		switch sp := s.(type) {
		case specification.ByID:
			if p.Id != sp.ID {
				return false
			}
		case specification.ByAuthority:
			if p.AuthorityCode != sp.Authority {
				return false
			}
		case specification.UserOwnedBy:
			if p.UserId != sp.UserID {
				return false
			}
		case specification.PaymentStatusIs:
			if p.Status != sp.Status {
				return false
			}
		}
	}
	return true
}

type memSubscriptionRepo struct{ store *memStore }

func (r *memSubscriptionRepo) CreatePlan(_ context.Context, p *entity.SubscriptionPlan) error {
	r.store.plans[p.Id] = p
	return nil
}

func (r *memSubscriptionRepo) UpdatePlan(_ context.Context, p *entity.SubscriptionPlan) error {
	r.store.plans[p.Id] = p
	return nil
}

func (r *memSubscriptionRepo) FindOnePlan(_ context.Context, specs ...specification.Specification) (*entity.SubscriptionPlan, error) {
	for _, p := range r.store.plans {
		if planMatches(p, specs) {
			return p, nil
		}
	}
	return nil, nil
}

func (r *memSubscriptionRepo) FindAllPlans(_ context.Context, specs ...specification.Specification) ([]*entity.SubscriptionPlan, error) {
	r.store.planQueries++
	var out []*entity.SubscriptionPlan
	for _, p := range r.store.plans {
		if planMatches(p, specs) {
			out = append(out, p)
		}
	}
	return out, nil
}

func planMatches(p *entity.SubscriptionPlan, specs []specification.Specification) bool {
	for _, s := range specs {
		switch sp := s.(type) {
		case specification.ByID:
			if p.Id != sp.ID {
				return false
			}
		case specification.BySlug:
			if p.Slug != sp.Slug {
				return false
			}
		case specification.ActivePlansOnly:
			if !p.IsActive {
				return false
			}
		}
	}
	return true
}

func (r *memSubscriptionRepo) CreateSubscription(_ context.Context, sub *entity.Subscription) error {
	if r.store.createSubGate != nil {
		r.store.createSubGate()
	}
	if r.store.duplicateKeyOnce {
		r.store.duplicateKeyOnce = false
		if r.store.winnerSub != nil {
			r.store.subscriptions[r.store.winnerSub.Id] = copySub(r.store.winnerSub)
		}
		return gorm.ErrDuplicatedKey
	}
	for _, existing := range r.store.subscriptions {
		if existing.UserId == sub.UserId &&
			(existing.Status == entity.SubscriptionStatusPending || existing.Status == entity.SubscriptionStatusActive) {
			return gorm.ErrDuplicatedKey
		}
	}
	r.store.subscriptions[sub.Id] = copySub(sub)
	return nil
}

func (r *memSubscriptionRepo) UpdateSubscription(_ context.Context, sub *entity.Subscription) error {
	r.store.subscriptions[sub.Id] = copySub(sub)
	return nil
}

func (r *memSubscriptionRepo) FindOneSubscription(_ context.Context, specs ...specification.Specification) (*entity.Subscription, error) {
	for _, sub := range r.store.subscriptions {
		if subscriptionMatches(sub, specs) {
			return copySub(sub), nil
		}
	}
	return nil, nil
}

func (r *memSubscriptionRepo) FindAllSubscriptions(_ context.Context, specs ...specification.Specification) ([]*entity.Subscription, error) {
	var out []*entity.Subscription
	for _, sub := range r.store.subscriptions {
		if subscriptionMatches(sub, specs) {
			out = append(out, copySub(sub))
		}
	}
	return out, nil
}

func (r *memSubscriptionRepo) FindActiveOrPending(_ context.Context, userId uuid.UUID) (*entity.Subscription, error) {
	for _, sub := range r.store.subscriptions {
		if sub.UserId == userId &&
			(sub.Status == entity.SubscriptionStatusPending || sub.Status == entity.SubscriptionStatusActive) {
			return copySub(sub), nil
		}
	}
	return nil, nil
}

func subscriptionMatches(sub *entity.Subscription, specs []specification.Specification) bool {
	for _, s := range specs {
		switch sp := s.(type) {
		case specification.ByID:
			if sub.Id != sp.ID {
				return false
			}
		case specification.UserOwnedBy:
			if sub.UserId != sp.UserID {
				return false
			}
		case specification.FilterBy:
			if sp.Field == "payment_id" {
				if sub.PaymentId == nil || *sub.PaymentId != sp.Value.(uuid.UUID) {
					return false
				}
			}
		}
	}
	return true
}

type memUserRepo struct{ store *memStore }

func (r *memUserRepo) Create(_ context.Context, u *entity.User) error {
	r.store.users[u.Id] = u
	return nil
}

func (r *memUserRepo) Update(_ context.Context, u *entity.User) error {
	r.store.users[u.Id] = u
	return nil
}

func (r *memUserRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.User, error) {
	for _, u := range r.store.users {
		match := true
		for _, s := range specs {
			if sp, ok := s.(specification.ByID); ok && u.Id != sp.ID {
				match = false
			}
		}
		if match {
			return u, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, u := range r.store.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.store.users)), nil
}

type memVideoRepo struct{ store *memStore }

func (r *memVideoRepo) CreateVideo(_ context.Context, v *entity.Video) error {
	r.store.videos[v.Id] = v
	return nil
}

func (r *memVideoRepo) FindOneVideo(_ context.Context, specs ...specification.Specification) (*entity.Video, error) {
	for _, v := range r.store.videos {
		if videoMatches(v, specs) {
			return v, nil
		}
	}
	return nil, nil
}

func (r *memVideoRepo) FindAllVideos(_ context.Context, specs ...specification.Specification) ([]*entity.Video, error) {
	var out []*entity.Video
	for _, v := range r.store.videos {
		if videoMatches(v, specs) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *memVideoRepo) CreateWatchEntry(_ context.Context, e *entity.WatchHistory) error {
	r.store.watchEntries = append(r.store.watchEntries, e)
	return nil
}

func (r *memVideoRepo) FindAllWatchEntries(_ context.Context, specs ...specification.Specification) ([]*entity.WatchHistory, error) {
	var out []*entity.WatchHistory
	for _, e := range r.store.watchEntries {
		match := true
		for _, s := range specs {
			if sp, ok := s.(specification.UserOwnedBy); ok && e.UserId != sp.UserID {
				match = false
			}
		}
		if match {
			out = append(out, e)
		}
	}
	return out, nil
}

func videoMatches(v *entity.Video, specs []specification.Specification) bool {
	for _, s := range specs {
		switch sp := s.(type) {
		case specification.ByID:
			if v.Id != sp.ID {
				return false
			}
		case specification.BySlug:
			if v.Slug != sp.Slug {
				return false
			}
		case specification.PublishedOnly:
			if v.Status != entity.VideoStatusPublished {
				return false
			}
		}
	}
	return true
}

type memUnitOfWork struct {
	store *memStore
	held  []*sync.Mutex
}

func (u *memUnitOfWork) release() {
	for _, m := range u.held {
		m.Unlock()
	}
	u.held = nil
}

func (u *memUnitOfWork) Begin(_ context.Context) error { return nil }
func (u *memUnitOfWork) Commit() error                 { u.release(); return nil }
func (u *memUnitOfWork) Rollback() error               { u.release(); return nil }

func (u *memUnitOfWork) UserRepository() contract.UserRepository {
	return &memUserRepo{store: u.store}
}
func (u *memUnitOfWork) PaymentRepository() contract.PaymentRepository {
	return &memPaymentRepo{store: u.store, uow: u}
}
func (u *memUnitOfWork) SubscriptionRepository() contract.SubscriptionRepository {
	return &memSubscriptionRepo{store: u.store}
}
func (u *memUnitOfWork) VideoRepository() contract.VideoRepository {
	return &memVideoRepo{store: u.store}
}

type memFactory struct{ store *memStore }

func (f *memFactory) NewUnitOfWork(_ context.Context) unitofwork.UnitOfWork {
	return &memUnitOfWork{store: f.store}
}

// ---- scripted collaborators ----

type scriptedGateway struct {
	initiateResult gateway.InitiateResult
	verifyResult   gateway.VerifyResult
	initiateCalls  int
	verifyCalls    int
}

func (g *scriptedGateway) Initiate(_ context.Context, _ gateway.InitiateRequest) gateway.InitiateResult {
	g.initiateCalls++
	return g.initiateResult
}

func (g *scriptedGateway) Verify(_ context.Context, _ int64, _ string) gateway.VerifyResult {
	g.verifyCalls++
	return g.verifyResult
}

type capturingPublisher struct {
	published []events.Event
}

func (p *capturingPublisher) Publish(_ context.Context, e events.Event) error {
	p.published = append(p.published, e)
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

// ---- fixtures ----

type billingFixture struct {
	store   *memStore
	gateway *scriptedGateway
	events  *capturingPublisher
	service ISubscriptionService

	user *entity.User
	plan *entity.SubscriptionPlan
}

func newBillingFixture(t *testing.T) *billingFixture {
	t.Helper()

	store := newMemStore()
	gw := &scriptedGateway{
		initiateResult: gateway.InitiateResult{
			Success:     true,
			Authority:   "A000000000000000000000000001",
			RedirectURL: "https://sandbox.zarinpal.com/pg/StartPay/A000000000000000000000000001",
			Message:     "Success",
		},
		verifyResult: gateway.VerifyResult{
			Success:   true,
			Reference: "123456789",
			Message:   "Verified",
		},
	}
	pub := &capturingPublisher{}

	user := &entity.User{
		Id:       uuid.New(),
		Email:    "viewer@example.com",
		FullName: "Test Viewer",
		Role:     entity.UserRoleUser,
	}
	store.users[user.Id] = user

	plan := &entity.SubscriptionPlan{
		Id:           uuid.New(),
		Name:         "Premium",
		Slug:         "premium",
		Price:        decimal.NewFromInt(990000),
		Currency:     "IRR",
		DurationDays: 30,
		Level:        2,
		IsActive:     true,
	}
	store.plans[plan.Id] = plan

	svc := NewSubscriptionService(
		&memFactory{store: store},
		gw,
		pub,
		nil, // no mailer in unit tests
		nopLogger{},
		"http://localhost:3000/api/payment/callback",
	)

	return &billingFixture{
		store:   store,
		gateway: gw,
		events:  pub,
		service: svc,
		user:    user,
		plan:    plan,
	}
}

func (f *billingFixture) checkout(t *testing.T) string {
	t.Helper()
	res, err := f.service.StartPurchase(context.Background(), f.user.Id, f.plan.Id)
	require.NoError(t, err)
	payment := f.store.payments[res.PaymentId]
	require.NotNil(t, payment)
	return payment.AuthorityCode
}

// ---- tests ----

func TestStartPurchaseCreatesPendingPaymentWithAuthority(t *testing.T) {
	f := newBillingFixture(t)

	res, err := f.service.StartPurchase(context.Background(), f.user.Id, f.plan.Id)
	require.NoError(t, err)
	assert.NotEmpty(t, res.RedirectUrl)

	payment := f.store.payments[res.PaymentId]
	require.NotNil(t, payment)
	assert.Equal(t, entity.PaymentStatusPending, payment.Status)
	assert.Equal(t, f.gateway.initiateResult.Authority, payment.AuthorityCode)
	assert.True(t, payment.Amount.Equal(f.plan.Price))
	assert.Empty(t, f.store.subscriptions, "no entitlement before settlement")
}

func TestStartPurchaseInactivePlan(t *testing.T) {
	f := newBillingFixture(t)
	f.plan.IsActive = false

	_, err := f.service.StartPurchase(context.Background(), f.user.Id, f.plan.Id)
	assert.ErrorIs(t, err, ErrPlanInactive)
	assert.Empty(t, f.store.payments)
	assert.Zero(t, f.gateway.initiateCalls)
}

func TestStartPurchaseGatewayRejectionPersistsFailedPayment(t *testing.T) {
	f := newBillingFixture(t)
	f.gateway.initiateResult = gateway.InitiateResult{Success: false, Message: "merchant not found"}

	_, err := f.service.StartPurchase(context.Background(), f.user.Id, f.plan.Id)

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "merchant not found", gwErr.Message)

	// The FAILED attempt is still on the ledger.
	require.Len(t, f.store.payments, 1)
	for _, p := range f.store.payments {
		assert.Equal(t, entity.PaymentStatusFailed, p.Status)
		assert.Equal(t, "merchant not found", p.Metadata["reason"])
	}
}

func TestCallbackSettlesNewSubscription(t *testing.T) {
	f := newBillingFixture(t)
	authority := f.checkout(t)

	result, err := f.service.HandleCallback(context.Background(), authority, "OK")
	require.NoError(t, err)

	assert.Equal(t, SettleStatusSuccess, result.Status)
	assert.False(t, result.WasUpgrade)
	require.NotNil(t, result.Subscription)
	assert.Equal(t, entity.SubscriptionStatusActive, result.Subscription.Status)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), result.Subscription.EndDate, time.Second)

	assert.Equal(t, entity.PaymentStatusSuccess, result.Payment.Status)
	assert.Equal(t, "123456789", result.Payment.ReferenceCode)

	require.Len(t, f.events.published, 1)
	assert.Equal(t, events.TypePaymentSettled, f.events.published[0].EventType())
}

func TestCallbackUpgradeExtendsExistingSubscription(t *testing.T) {
	f := newBillingFixture(t)

	existing := &entity.Subscription{
		Id:        uuid.New(),
		UserId:    f.user.Id,
		PlanId:    f.plan.Id,
		Status:    entity.SubscriptionStatusActive,
		StartDate: time.Now().AddDate(0, 0, -20),
		EndDate:   time.Now().AddDate(0, 0, 10),
	}
	f.store.subscriptions[existing.Id] = existing

	authority := f.checkout(t)
	result, err := f.service.HandleCallback(context.Background(), authority, "OK")
	require.NoError(t, err)

	assert.Equal(t, SettleStatusSuccess, result.Status)
	assert.True(t, result.WasUpgrade)
	require.NotNil(t, result.Subscription)

	// Same row, never a second live subscription.
	assert.Equal(t, existing.Id, result.Subscription.Id)
	assert.Len(t, f.store.subscriptions, 1)

	// 10 remaining + 30 purchased, stacked.
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 40), result.Subscription.EndDate, time.Second)
}

func TestCallbackVerifyFailureLeavesSubscriptionUntouched(t *testing.T) {
	f := newBillingFixture(t)
	f.gateway.verifyResult = gateway.VerifyResult{Success: false, Message: "Payment not confirmed by bank"}

	authority := f.checkout(t)
	result, err := f.service.HandleCallback(context.Background(), authority, "OK")
	require.NoError(t, err)

	assert.Equal(t, SettleStatusFailed, result.Status)
	assert.Equal(t, entity.PaymentStatusFailed, result.Payment.Status)
	assert.Empty(t, f.store.subscriptions)

	require.Len(t, f.events.published, 1)
	assert.Equal(t, events.TypePaymentFailed, f.events.published[0].EventType())
}

func TestCallbackCancelledAtGatewayMutatesNothing(t *testing.T) {
	f := newBillingFixture(t)
	authority := f.checkout(t)

	result, err := f.service.HandleCallback(context.Background(), authority, "NOK")
	require.NoError(t, err)

	assert.Equal(t, SettleStatusCancelled, result.Status)
	assert.Zero(t, f.gateway.verifyCalls)

	// The payment stays PENDING; abandoning at the bank is not a failure.
	payment := f.store.payments[findPaymentId(f.store, authority)]
	assert.Equal(t, entity.PaymentStatusPending, payment.Status)
	assert.Empty(t, f.store.subscriptions)
}

func TestCallbackReplayIsIdempotent(t *testing.T) {
	f := newBillingFixture(t)
	authority := f.checkout(t)

	first, err := f.service.HandleCallback(context.Background(), authority, "OK")
	require.NoError(t, err)
	require.Equal(t, SettleStatusSuccess, first.Status)
	firstEnd := first.Subscription.EndDate

	second, err := f.service.HandleCallback(context.Background(), authority, "OK")
	require.NoError(t, err)

	assert.Equal(t, SettleStatusSuccess, second.Status)
	assert.False(t, second.WasUpgrade)
	require.NotNil(t, second.Subscription)
	assert.Equal(t, first.Subscription.Id, second.Subscription.Id)
	assert.Equal(t, firstEnd, second.Subscription.EndDate, "replay must not extend again")

	assert.Equal(t, 1, f.gateway.verifyCalls, "terminal payment must not be re-verified")
}

func TestCallbackReplayAfterUpgradeReportsWasUpgrade(t *testing.T) {
	f := newBillingFixture(t)

	existing := &entity.Subscription{
		Id:      uuid.New(),
		UserId:  f.user.Id,
		PlanId:  f.plan.Id,
		Status:  entity.SubscriptionStatusActive,
		EndDate: time.Now().AddDate(0, 0, 10),
	}
	f.store.subscriptions[existing.Id] = existing

	authority := f.checkout(t)
	_, err := f.service.HandleCallback(context.Background(), authority, "OK")
	require.NoError(t, err)

	replay, err := f.service.HandleCallback(context.Background(), authority, "OK")
	require.NoError(t, err)
	assert.True(t, replay.WasUpgrade)
}

func TestOverlappingCallbacksSettleExactlyOnce(t *testing.T) {
	f := newBillingFixture(t)
	authority := f.checkout(t)

	// Hold the first settlement open mid-transaction, after it has
	// locked the payment row, while the second one runs against it.
	entered := make(chan struct{})
	release := make(chan struct{})
	var gateOnce sync.Once
	f.store.createSubGate = func() {
		gateOnce.Do(func() {
			close(entered)
			<-release
		})
	}

	type outcome struct {
		res *SettleResult
		err error
	}
	outcomes := make(chan outcome, 2)
	settle := func() {
		res, err := f.service.HandleCallback(context.Background(), authority, "OK")
		outcomes <- outcome{res: res, err: err}
	}

	go settle()
	<-entered

	// Only the second settlement should report a lock wait.
	f.store.lockAttempted = make(chan struct{}, 1)
	go settle()
	<-f.store.lockAttempted
	close(release)

	first := <-outcomes
	second := <-outcomes
	require.NoError(t, first.err)
	require.NoError(t, second.err)

	assert.Equal(t, 1, f.gateway.verifyCalls, "one payment must be verified exactly once")
	assert.Len(t, f.store.subscriptions, 1)

	for _, out := range []outcome{first, second} {
		assert.Equal(t, SettleStatusSuccess, out.res.Status)
		assert.False(t, out.res.WasUpgrade)
		require.NotNil(t, out.res.Subscription)
	}
	assert.Equal(t, first.res.Subscription.Id, second.res.Subscription.Id)

	// A single 30-day payment buys 30 days, not 60.
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), first.res.Subscription.EndDate, time.Second)
}

func TestReplayAfterLaterPurchaseStillReturnsSubscription(t *testing.T) {
	f := newBillingFixture(t)

	firstAuthority := f.checkout(t)
	_, err := f.service.HandleCallback(context.Background(), firstAuthority, "OK")
	require.NoError(t, err)

	// A second purchase extends the same row and re-points its
	// payment_id at the newer payment.
	f.gateway.initiateResult.Authority = "A000000000000000000000000002"
	secondAuthority := f.checkout(t)
	upgrade, err := f.service.HandleCallback(context.Background(), secondAuthority, "OK")
	require.NoError(t, err)
	require.True(t, upgrade.WasUpgrade)

	replay, err := f.service.HandleCallback(context.Background(), firstAuthority, "OK")
	require.NoError(t, err)

	assert.Equal(t, SettleStatusSuccess, replay.Status)
	assert.False(t, replay.WasUpgrade)
	require.NotNil(t, replay.Subscription, "replay must still resolve the live subscription")
	assert.Equal(t, upgrade.Subscription.Id, replay.Subscription.Id)

	assert.Equal(t, 2, f.gateway.verifyCalls, "replay must not re-verify")
}

func TestCallbackUnknownAuthority(t *testing.T) {
	f := newBillingFixture(t)

	_, err := f.service.HandleCallback(context.Background(), "A-unknown", "OK")
	assert.ErrorIs(t, err, ErrUnknownAuthority)
}

func TestSettleRecoversFromConcurrentCreateRace(t *testing.T) {
	f := newBillingFixture(t)
	authority := f.checkout(t)

	// The "other" request's subscription lands exactly when our create
	// hits the unique index.
	winner := &entity.Subscription{
		Id:      uuid.New(),
		UserId:  f.user.Id,
		PlanId:  f.plan.Id,
		Status:  entity.SubscriptionStatusActive,
		EndDate: time.Now().AddDate(0, 0, 30),
	}
	f.store.duplicateKeyOnce = true
	f.store.winnerSub = winner

	result, err := f.service.HandleCallback(context.Background(), authority, "OK")
	require.NoError(t, err)

	assert.Equal(t, SettleStatusSuccess, result.Status)
	assert.True(t, result.WasUpgrade)
	assert.Equal(t, winner.Id, result.Subscription.Id)
	assert.Len(t, f.store.subscriptions, 1)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 60), result.Subscription.EndDate, time.Second)
}

func TestCancelSubscription(t *testing.T) {
	f := newBillingFixture(t)
	authority := f.checkout(t)
	_, err := f.service.HandleCallback(context.Background(), authority, "OK")
	require.NoError(t, err)

	sub, err := f.service.CancelSubscription(context.Background(), f.user.Id)
	require.NoError(t, err)

	assert.Equal(t, entity.SubscriptionStatusCancelled, sub.Status)
	assert.WithinDuration(t, time.Now(), sub.EndDate, time.Second)
	assert.NotNil(t, sub.CancelledAt)
	assert.False(t, sub.IsActive())
}

func TestCancelWithoutSubscription(t *testing.T) {
	f := newBillingFixture(t)

	_, err := f.service.CancelSubscription(context.Background(), f.user.Id)
	assert.ErrorIs(t, err, ErrNoActiveSubscription)
}

func TestRenewDefaultsToPlanDuration(t *testing.T) {
	f := newBillingFixture(t)
	authority := f.checkout(t)
	_, err := f.service.HandleCallback(context.Background(), authority, "OK")
	require.NoError(t, err)

	sub, err := f.service.RenewSubscription(context.Background(), f.user.Id, 0)
	require.NoError(t, err)

	assert.WithinDuration(t, time.Now().AddDate(0, 0, 60), sub.EndDate, time.Second)
}

func TestCurrentSubscriptionRefreshesExpired(t *testing.T) {
	f := newBillingFixture(t)

	stale := &entity.Subscription{
		Id:      uuid.New(),
		UserId:  f.user.Id,
		PlanId:  f.plan.Id,
		Status:  entity.SubscriptionStatusActive,
		EndDate: time.Now().AddDate(0, 0, -2),
	}
	f.store.subscriptions[stale.Id] = stale

	sub, plan, err := f.service.CurrentSubscription(context.Background(), f.user.Id)
	require.NoError(t, err)

	assert.Equal(t, entity.SubscriptionStatusExpired, sub.Status)
	assert.Equal(t, f.plan.Id, plan.Id)

	// The demotion was persisted, not just computed.
	assert.Equal(t, entity.SubscriptionStatusExpired, f.store.subscriptions[stale.Id].Status)
}

func TestCurrentSubscriptionNone(t *testing.T) {
	f := newBillingFixture(t)

	_, _, err := f.service.CurrentSubscription(context.Background(), f.user.Id)
	assert.ErrorIs(t, err, ErrNoSubscription)
}

func TestPaymentHistoryOnlyOwnRows(t *testing.T) {
	f := newBillingFixture(t)
	f.checkout(t)

	other := &entity.Payment{
		Id:          uuid.New(),
		UserId:      uuid.New(),
		Amount:      decimal.NewFromInt(490000),
		Status:      entity.PaymentStatusSuccess,
		RequestedAt: time.Now(),
	}
	f.store.payments[other.Id] = other

	history, err := f.service.PaymentHistory(context.Background(), f.user.Id)
	require.NoError(t, err)

	require.Len(t, history, 1)
	assert.Equal(t, f.user.Id, history[0].UserId)
}

func findPaymentId(store *memStore, authority string) uuid.UUID {
	for id, p := range store.payments {
		if p.AuthorityCode == authority {
			return id
		}
	}
	return uuid.Nil
}

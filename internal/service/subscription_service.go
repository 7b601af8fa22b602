package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amiirziyaa/video-platform/internal/dto"
	"github.com/amiirziyaa/video-platform/internal/entity"
	"github.com/amiirziyaa/video-platform/internal/pkg/logger"
	"github.com/amiirziyaa/video-platform/internal/pkg/mailer"
	"github.com/amiirziyaa/video-platform/internal/repository/specification"
	"github.com/amiirziyaa/video-platform/internal/repository/unitofwork"
	"github.com/amiirziyaa/video-platform/pkg/events"
	"github.com/amiirziyaa/video-platform/pkg/gateway"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SettleStatus string

const (
	SettleStatusSuccess   SettleStatus = "success"
	SettleStatusFailed    SettleStatus = "failed"
	SettleStatusCancelled SettleStatus = "cancelled"
)

// SettleResult is the structured outcome of a gateway callback. No raw
// gateway or storage error ever crosses this boundary.
type SettleResult struct {
	Status       SettleStatus
	Message      string
	Payment      *entity.Payment
	Subscription *entity.Subscription
	WasUpgrade   bool
}

// EventPublisher decouples the service from the NATS client so tests can
// run without a broker.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type ISubscriptionService interface {
	StartPurchase(ctx context.Context, userId, planId uuid.UUID) (*dto.CheckoutResponse, error)
	HandleCallback(ctx context.Context, authority, gatewayStatus string) (*SettleResult, error)
	SettlePurchase(ctx context.Context, authority string) (*SettleResult, error)
	CancelSubscription(ctx context.Context, userId uuid.UUID) (*entity.Subscription, error)
	RenewSubscription(ctx context.Context, userId uuid.UUID, extraDays int) (*entity.Subscription, error)
	CurrentSubscription(ctx context.Context, userId uuid.UUID) (*entity.Subscription, *entity.SubscriptionPlan, error)
	PaymentHistory(ctx context.Context, userId uuid.UUID) ([]*entity.Payment, error)
}

type subscriptionService struct {
	uowFactory     unitofwork.RepositoryFactory
	gateway        gateway.Gateway
	eventPublisher EventPublisher
	emailService   mailer.IEmailService
	log            logger.ILogger
	callbackURL    string
}

func NewSubscriptionService(
	uowFactory unitofwork.RepositoryFactory,
	gw gateway.Gateway,
	eventPublisher EventPublisher,
	emailService mailer.IEmailService,
	log logger.ILogger,
	callbackURL string,
) ISubscriptionService {
	return &subscriptionService{
		uowFactory:     uowFactory,
		gateway:        gw,
		eventPublisher: eventPublisher,
		emailService:   emailService,
		log:            log,
		callbackURL:    callbackURL,
	}
}

// wholeUnits converts an exact decimal price to the gateway's whole-unit
// integer amount. IRR/toman pricing has no fractional minor units; a
// currency that does would need its own conversion policy here before
// the amount reaches the port.
func wholeUnits(amount decimal.Decimal) int64 {
	return amount.IntPart()
}

// StartPurchase creates a PENDING payment and asks the gateway to open a
// transaction for it. The payment row is committed in both branches so a
// failed initiation still leaves an auditable FAILED record.
//
// Re-submitting checkout while an earlier PENDING payment exists is not
// deduplicated: each call creates a fresh payment row. Only the storage
// constraint on live subscriptions prevents double entitlement.
func (s *subscriptionService) StartPurchase(ctx context.Context, userId, planId uuid.UUID) (*dto.CheckoutResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	plan, err := uow.SubscriptionRepository().FindOnePlan(ctx, specification.ByID{ID: planId})
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}
	if !plan.IsActive {
		return nil, ErrPlanInactive
	}

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	payment := &entity.Payment{
		Id:          uuid.New(),
		UserId:      userId,
		PlanId:      &plan.Id,
		Amount:      plan.Price,
		Currency:    plan.Currency,
		Status:      entity.PaymentStatusPending,
		RequestedAt: time.Now(),
		Metadata:    map[string]interface{}{},
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.PaymentRepository().Create(ctx, payment); err != nil {
		return nil, err
	}

	result := s.gateway.Initiate(ctx, gateway.InitiateRequest{
		Amount:      wholeUnits(plan.Price),
		Description: fmt.Sprintf("Subscription purchase: %s", plan.Name),
		CallbackURL: s.callbackURL,
		Email:       user.Email,
		Mobile:      user.PhoneNumber,
	})

	if !result.Success {
		if err := payment.MarkFailed(result.Message); err != nil {
			return nil, err
		}
		if err := uow.PaymentRepository().Update(ctx, payment); err != nil {
			return nil, err
		}
		if err := uow.Commit(); err != nil {
			return nil, err
		}
		s.log.Warn("billing", "payment initiation rejected by gateway", map[string]interface{}{
			"payment_id": payment.Id,
			"user_id":    userId,
			"message":    result.Message,
		})
		return nil, &GatewayError{Message: result.Message}
	}

	payment.AuthorityCode = result.Authority
	payment.Metadata["gateway_message"] = result.Message
	if err := uow.PaymentRepository().Update(ctx, payment); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.log.Info("billing", "payment initiated", map[string]interface{}{
		"payment_id": payment.Id,
		"user_id":    userId,
		"plan_id":    plan.Id,
		"authority":  result.Authority,
	})

	return &dto.CheckoutResponse{
		PaymentId:   payment.Id,
		RedirectUrl: result.RedirectURL,
	}, nil
}

// HandleCallback is the entry point for the gateway's redirect back. A
// missing authority or a non-OK status flag means the payer abandoned or
// cancelled at the gateway: nothing is mutated.
func (s *subscriptionService) HandleCallback(ctx context.Context, authority, gatewayStatus string) (*SettleResult, error) {
	if authority == "" || gatewayStatus != "OK" {
		return &SettleResult{
			Status:  SettleStatusCancelled,
			Message: "Payment was cancelled or failed at the gateway.",
		}, nil
	}
	return s.SettlePurchase(ctx, authority)
}

// SettlePurchase applies a gateway verification result to the payment
// ledger and the subscription store in one transaction. Replayed
// callbacks for an already-terminal payment return the stored outcome
// without a second Verify call.
func (s *subscriptionService) SettlePurchase(ctx context.Context, authority string) (*SettleResult, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	payment, err := uow.PaymentRepository().FindOne(ctx, specification.ByAuthority{Authority: authority})
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrUnknownAuthority
	}
	if payment.IsTerminal() {
		return s.storedOutcome(ctx, uow, payment)
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	// Lock the payment row for the rest of the transaction. A
	// concurrent callback for the same authority blocks here, re-reads
	// the then-terminal row and short-circuits below, so one payment is
	// settled exactly once and never verified twice.
	payment, err = uow.PaymentRepository().FindOne(ctx,
		specification.ByAuthority{Authority: authority},
		specification.ForUpdate{},
	)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrUnknownAuthority
	}
	if payment.IsTerminal() {
		return s.storedOutcome(ctx, uow, payment)
	}

	// Verification runs under the row lock; the gateway call is bounded
	// by its own timeout, so the lock cannot be held indefinitely.
	verification := s.gateway.Verify(ctx, wholeUnits(payment.Amount), authority)

	if !verification.Success {
		if err := payment.MarkFailed(verification.Message); err != nil {
			return nil, err
		}
		if err := uow.PaymentRepository().Update(ctx, payment); err != nil {
			return nil, err
		}
		if err := uow.Commit(); err != nil {
			return nil, err
		}
		s.log.Warn("billing", "payment verification failed", map[string]interface{}{
			"payment_id": payment.Id,
			"message":    verification.Message,
		})
		s.publishEvent(ctx, events.TypePaymentFailed, map[string]interface{}{
			"payment_id": payment.Id,
			"user_id":    payment.UserId,
			"reason":     verification.Message,
		})
		return &SettleResult{
			Status:  SettleStatusFailed,
			Message: verification.Message,
			Payment: payment,
		}, nil
	}

	if err := payment.MarkSuccess(verification.Reference, map[string]interface{}{
		"gateway_message": verification.Message,
	}); err != nil {
		return nil, err
	}

	sub, wasUpgrade, err := s.applyEntitlement(ctx, uow, payment)
	if err != nil {
		return nil, err
	}

	payment.Metadata["was_upgrade"] = wasUpgrade
	if err := uow.PaymentRepository().Update(ctx, payment); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.log.Info("billing", "payment settled", map[string]interface{}{
		"payment_id":      payment.Id,
		"user_id":         payment.UserId,
		"reference":       verification.Reference,
		"subscription_id": subscriptionId(sub),
		"was_upgrade":     wasUpgrade,
	})
	s.publishEvent(ctx, events.TypePaymentSettled, map[string]interface{}{
		"payment_id":      payment.Id,
		"user_id":         payment.UserId,
		"reference":       verification.Reference,
		"subscription_id": subscriptionId(sub),
		"was_upgrade":     wasUpgrade,
	})
	s.sendReceipt(ctx, uow, payment, verification.Reference)

	return &SettleResult{
		Status:       SettleStatusSuccess,
		Message:      "Payment successfully confirmed",
		Payment:      payment,
		Subscription: sub,
		WasUpgrade:   wasUpgrade,
	}, nil
}

// applyEntitlement extends the user's live subscription or creates one.
// A duplicate-key error from the partial unique index means a concurrent
// settlement won the create race; that is recovered by falling into the
// extend path, never surfaced to the user.
func (s *subscriptionService) applyEntitlement(ctx context.Context, uow unitofwork.UnitOfWork, payment *entity.Payment) (*entity.Subscription, bool, error) {
	if payment.PlanId == nil {
		s.log.Error("billing", "settled payment has no plan attached", map[string]interface{}{
			"payment_id": payment.Id,
		})
		return nil, false, nil
	}

	plan, err := uow.SubscriptionRepository().FindOnePlan(ctx, specification.ByID{ID: *payment.PlanId})
	if err != nil {
		return nil, false, err
	}
	if plan == nil {
		s.log.Error("billing", "settled payment references a missing plan", map[string]interface{}{
			"payment_id": payment.Id,
			"plan_id":    *payment.PlanId,
		})
		return nil, false, nil
	}

	existing, err := uow.SubscriptionRepository().FindActiveOrPending(ctx, payment.UserId)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return s.extendExisting(ctx, uow, existing, plan, payment)
	}

	sub := entity.NewSubscriptionForPlan(payment.UserId, plan, &payment.Id)
	err = uow.SubscriptionRepository().CreateSubscription(ctx, sub)
	if err == nil {
		return sub, false, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, false, err
	}

	existing, ferr := uow.SubscriptionRepository().FindActiveOrPending(ctx, payment.UserId)
	if ferr != nil {
		return nil, false, ferr
	}
	if existing == nil {
		// The winner vanished between the constraint violation and the
		// re-read; nothing sane is left to extend.
		return nil, false, err
	}
	return s.extendExisting(ctx, uow, existing, plan, payment)
}

func (s *subscriptionService) extendExisting(ctx context.Context, uow unitofwork.UnitOfWork, sub *entity.Subscription, plan *entity.SubscriptionPlan, payment *entity.Payment) (*entity.Subscription, bool, error) {
	sub.PlanId = plan.Id
	sub.PaymentId = &payment.Id
	sub.Extend(plan.DurationDays)
	if err := uow.SubscriptionRepository().UpdateSubscription(ctx, sub); err != nil {
		return nil, false, err
	}
	return sub, true, nil
}

// storedOutcome rebuilds the terminal result of an already-settled
// payment for replayed callbacks.
func (s *subscriptionService) storedOutcome(ctx context.Context, uow unitofwork.UnitOfWork, payment *entity.Payment) (*SettleResult, error) {
	if payment.Status != entity.PaymentStatusSuccess {
		message := "Payment not confirmed by bank"
		if reason, ok := payment.Metadata["reason"].(string); ok && reason != "" {
			message = reason
		}
		return &SettleResult{
			Status:  SettleStatusFailed,
			Message: message,
			Payment: payment,
		}, nil
	}

	sub, err := uow.SubscriptionRepository().FindOneSubscription(ctx, specification.Filter("payment_id", payment.Id))
	if err != nil {
		return nil, err
	}
	if sub == nil {
		// A later purchase re-points the live row's payment_id; the
		// replayed payment still funded whatever is live now.
		sub, err = uow.SubscriptionRepository().FindActiveOrPending(ctx, payment.UserId)
		if err != nil {
			return nil, err
		}
	}
	wasUpgrade, _ := payment.Metadata["was_upgrade"].(bool)
	return &SettleResult{
		Status:       SettleStatusSuccess,
		Message:      "Payment successfully confirmed",
		Payment:      payment,
		Subscription: sub,
		WasUpgrade:   wasUpgrade,
	}, nil
}

func (s *subscriptionService) CancelSubscription(ctx context.Context, userId uuid.UUID) (*entity.Subscription, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sub, err := uow.SubscriptionRepository().FindActiveOrPending(ctx, userId)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrNoActiveSubscription
	}

	sub.Cancel()
	if err := uow.SubscriptionRepository().UpdateSubscription(ctx, sub); err != nil {
		return nil, err
	}

	s.log.Info("billing", "subscription cancelled", map[string]interface{}{
		"subscription_id": sub.Id,
		"user_id":         userId,
	})
	s.publishEvent(ctx, events.TypeSubscriptionCancelled, map[string]interface{}{
		"subscription_id": sub.Id,
		"user_id":         userId,
	})
	s.sendCancellationNotice(ctx, uow, sub)

	return sub, nil
}

func (s *subscriptionService) RenewSubscription(ctx context.Context, userId uuid.UUID, extraDays int) (*entity.Subscription, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sub, err := uow.SubscriptionRepository().FindActiveOrPending(ctx, userId)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrNoActiveSubscription
	}

	days := extraDays
	if days <= 0 {
		plan, err := uow.SubscriptionRepository().FindOnePlan(ctx, specification.ByID{ID: sub.PlanId})
		if err != nil {
			return nil, err
		}
		if plan == nil {
			return nil, ErrPlanNotFound
		}
		days = plan.DurationDays
	}

	sub.Extend(days)
	if err := uow.SubscriptionRepository().UpdateSubscription(ctx, sub); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.TypeSubscriptionExtended, map[string]interface{}{
		"subscription_id": sub.Id,
		"user_id":         userId,
		"days":            days,
	})

	return sub, nil
}

// CurrentSubscription returns the user's live subscription with its plan,
// refreshing expiry lazily on read instead of relying on a timer.
func (s *subscriptionService) CurrentSubscription(ctx context.Context, userId uuid.UUID) (*entity.Subscription, *entity.SubscriptionPlan, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sub, err := uow.SubscriptionRepository().FindActiveOrPending(ctx, userId)
	if err != nil {
		return nil, nil, err
	}
	if sub == nil {
		return nil, nil, ErrNoSubscription
	}

	if sub.RefreshStatus() {
		if err := uow.SubscriptionRepository().UpdateSubscription(ctx, sub); err != nil {
			return nil, nil, err
		}
	}

	plan, err := uow.SubscriptionRepository().FindOnePlan(ctx, specification.ByID{ID: sub.PlanId})
	if err != nil {
		return nil, nil, err
	}

	return sub, plan, nil
}

func (s *subscriptionService) PaymentHistory(ctx context.Context, userId uuid.UUID) ([]*entity.Payment, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.PaymentRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "requested_at", Desc: true},
	)
}

func (s *subscriptionService) publishEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.eventPublisher == nil {
		return
	}
	evt := events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.log.Warn("billing", "failed to publish event", map[string]interface{}{
			"event_type": eventType,
			"error":      err.Error(),
		})
	}
}

func (s *subscriptionService) sendReceipt(ctx context.Context, uow unitofwork.UnitOfWork, payment *entity.Payment, reference string) {
	if s.emailService == nil {
		return
	}
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: payment.UserId})
	if err != nil || user == nil {
		return
	}
	planName := ""
	if payment.PlanId != nil {
		if plan, err := uow.SubscriptionRepository().FindOnePlan(ctx, specification.ByID{ID: *payment.PlanId}); err == nil && plan != nil {
			planName = plan.Name
		}
	}
	amount := fmt.Sprintf("%s %s", payment.Amount.StringFixed(0), payment.Currency)
	if err := s.emailService.SendPaymentReceipt(user.Email, planName, amount, reference); err != nil {
		s.log.Warn("billing", "failed to send receipt email", map[string]interface{}{
			"payment_id": payment.Id,
			"error":      err.Error(),
		})
	}
}

func (s *subscriptionService) sendCancellationNotice(ctx context.Context, uow unitofwork.UnitOfWork, sub *entity.Subscription) {
	if s.emailService == nil {
		return
	}
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: sub.UserId})
	if err != nil || user == nil {
		return
	}
	planName := ""
	if plan, err := uow.SubscriptionRepository().FindOnePlan(ctx, specification.ByID{ID: sub.PlanId}); err == nil && plan != nil {
		planName = plan.Name
	}
	if err := s.emailService.SendCancellationNotice(user.Email, planName); err != nil {
		s.log.Warn("billing", "failed to send cancellation email", map[string]interface{}{
			"subscription_id": sub.Id,
			"error":           err.Error(),
		})
	}
}

func subscriptionId(sub *entity.Subscription) interface{} {
	if sub == nil {
		return nil
	}
	return sub.Id
}

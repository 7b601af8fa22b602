package controller

import (
	"errors"

	"github.com/amiirziyaa/video-platform/internal/dto"
	"github.com/amiirziyaa/video-platform/internal/entity"
	"github.com/amiirziyaa/video-platform/internal/pkg/serverutils"
	"github.com/amiirziyaa/video-platform/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IPaymentController interface {
	RegisterRoutes(r fiber.Router)
	Checkout(ctx *fiber.Ctx) error
	Callback(ctx *fiber.Ctx) error
	Cancel(ctx *fiber.Ctx) error
	Renew(ctx *fiber.Ctx) error
	GetSubscription(ctx *fiber.Ctx) error
	GetHistory(ctx *fiber.Ctx) error
}

type paymentController struct {
	subscriptionService service.ISubscriptionService
	planService         service.IPlanService
}

func NewPaymentController(subscriptionService service.ISubscriptionService, planService service.IPlanService) IPaymentController {
	return &paymentController{
		subscriptionService: subscriptionService,
		planService:         planService,
	}
}

func (c *paymentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/payment")

	// The gateway redirects the payer's browser here; no auth header.
	h.Get("/callback", c.Callback)

	h.Post("/checkout", serverutils.JwtMiddleware, c.Checkout)
	h.Post("/cancel", serverutils.JwtMiddleware, c.Cancel)
	h.Post("/renew", serverutils.JwtMiddleware, c.Renew)
	h.Get("/subscription", serverutils.JwtMiddleware, c.GetSubscription)
	h.Get("/history", serverutils.JwtMiddleware, c.GetHistory)
}

func (c *paymentController) Checkout(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.CheckoutRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	// Downgrades are rejected here, before any money moves. The store
	// only enforces one live subscription per user, not plan ordering.
	if err := c.guardDowngrade(ctx, userId, req.PlanId); err != nil {
		return err
	}

	res, err := c.subscriptionService.StartPurchase(ctx.Context(), userId, req.PlanId)
	if err != nil {
		var gwErr *service.GatewayError
		if errors.As(err, &gwErr) {
			return ctx.Status(fiber.StatusBadGateway).JSON(serverutils.ErrorResponse(fiber.StatusBadGateway, gwErr.Message))
		}
		return billingError(ctx, err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Payment initiated", res))
}

func (c *paymentController) guardDowngrade(ctx *fiber.Ctx, userId, planId uuid.UUID) error {
	current, currentPlan, err := c.subscriptionService.CurrentSubscription(ctx.Context(), userId)
	if err != nil {
		if errors.Is(err, service.ErrNoSubscription) {
			return nil
		}
		return err
	}
	if current == nil || !current.IsActive() || currentPlan == nil {
		return nil
	}

	target, err := c.planService.GetByID(ctx.Context(), planId)
	if err != nil {
		return billingError(ctx, err)
	}
	if target.Level < currentPlan.Level {
		return fiber.NewError(fiber.StatusConflict, service.ErrDowngradeNotAllowed.Error())
	}
	return nil
}

// Callback receives the gateway redirect. Settlement outcomes are data,
// not errors: only an unknown authority or an infrastructure failure
// produces a non-200.
func (c *paymentController) Callback(ctx *fiber.Ctx) error {
	authority := ctx.Query("Authority")
	status := ctx.Query("Status")

	result, err := c.subscriptionService.HandleCallback(ctx.Context(), authority, status)
	if err != nil {
		if errors.Is(err, service.ErrUnknownAuthority) {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(fiber.StatusNotFound, err.Error()))
		}
		return err
	}

	res := &dto.CallbackResponse{
		Outcome:    string(result.Status),
		Message:    result.Message,
		WasUpgrade: result.WasUpgrade,
	}
	if result.Subscription != nil {
		res.Subscription = toSubscriptionResponse(result.Subscription, nil)
	}

	return ctx.JSON(serverutils.SuccessResponse("Callback processed", res))
}

func (c *paymentController) Cancel(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	sub, err := c.subscriptionService.CancelSubscription(ctx.Context(), userId)
	if err != nil {
		return billingError(ctx, err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Subscription cancelled", toSubscriptionResponse(sub, nil)))
}

func (c *paymentController) Renew(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.RenewRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	sub, err := c.subscriptionService.RenewSubscription(ctx.Context(), userId, req.ExtraDays)
	if err != nil {
		return billingError(ctx, err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Subscription renewed", toSubscriptionResponse(sub, nil)))
}

func (c *paymentController) GetSubscription(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	sub, plan, err := c.subscriptionService.CurrentSubscription(ctx.Context(), userId)
	if err != nil {
		return billingError(ctx, err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Subscription status", toSubscriptionResponse(sub, plan)))
}

func (c *paymentController) GetHistory(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	payments, err := c.subscriptionService.PaymentHistory(ctx.Context(), userId)
	if err != nil {
		return billingError(ctx, err)
	}

	res := make([]*dto.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		res = append(res, toPaymentResponse(p))
	}
	return ctx.JSON(serverutils.SuccessResponse("Payment history", res))
}

// billingError maps service-level conditions onto HTTP codes; anything
// unrecognized bubbles up to the error middleware as a 500.
func billingError(ctx *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrPlanNotFound), errors.Is(err, service.ErrUserNotFound):
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(fiber.StatusNotFound, err.Error()))
	case errors.Is(err, service.ErrPlanInactive):
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(serverutils.ErrorResponse(fiber.StatusUnprocessableEntity, err.Error()))
	case errors.Is(err, service.ErrNoActiveSubscription), errors.Is(err, service.ErrNoSubscription):
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(fiber.StatusNotFound, err.Error()))
	default:
		return err
	}
}

func toSubscriptionResponse(sub *entity.Subscription, plan *entity.SubscriptionPlan) *dto.SubscriptionResponse {
	if sub == nil {
		return nil
	}
	res := &dto.SubscriptionResponse{
		Id:          sub.Id,
		PlanId:      sub.PlanId,
		Status:      string(sub.Status),
		StartDate:   sub.StartDate,
		EndDate:     sub.EndDate,
		AutoRenew:   sub.AutoRenew,
		CancelledAt: sub.CancelledAt,
		IsActive:    sub.IsActive(),
	}
	if plan != nil {
		res.PlanName = plan.Name
		res.PlanLevel = plan.Level
	}
	return res
}

func toPaymentResponse(p *entity.Payment) *dto.PaymentResponse {
	return &dto.PaymentResponse{
		Id:            p.Id,
		PlanId:        p.PlanId,
		Amount:        p.Amount.String(),
		Currency:      p.Currency,
		Status:        string(p.Status),
		ReferenceCode: p.ReferenceCode,
		RequestedAt:   p.RequestedAt,
		ProcessedAt:   p.ProcessedAt,
	}
}

package controller

import (
	"github.com/amiirziyaa/video-platform/internal/dto"
	"github.com/amiirziyaa/video-platform/internal/entity"
	"github.com/amiirziyaa/video-platform/internal/pkg/serverutils"
	"github.com/amiirziyaa/video-platform/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IPlanController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
}

type planController struct {
	planService service.IPlanService
}

func NewPlanController(planService service.IPlanService) IPlanController {
	return &planController{planService: planService}
}

func (c *planController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/plans")
	h.Get("", c.List)
	h.Get(":slug", c.Show)
}

func (c *planController) List(ctx *fiber.Ctx) error {
	plans, err := c.planService.ListActive(ctx.Context())
	if err != nil {
		return err
	}

	res := make([]*dto.PlanResponse, 0, len(plans))
	for _, p := range plans {
		res = append(res, toPlanResponse(p))
	}
	return ctx.JSON(serverutils.SuccessResponse("Available plans", res))
}

func (c *planController) Show(ctx *fiber.Ctx) error {
	plan, err := c.planService.GetBySlug(ctx.Context(), ctx.Params("slug"))
	if err != nil {
		return billingError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Plan detail", toPlanResponse(plan)))
}

func toPlanResponse(p *entity.SubscriptionPlan) *dto.PlanResponse {
	return &dto.PlanResponse{
		Id:           p.Id,
		Name:         p.Name,
		Slug:         p.Slug,
		Description:  p.Description,
		Price:        p.Price.String(),
		Currency:     p.Currency,
		DurationDays: p.DurationDays,
		Level:        p.Level,
	}
}

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

type ICatalogController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Watch(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
}

type catalogController struct {
	catalogService service.ICatalogService
}

func NewCatalogController(catalogService service.ICatalogService) ICatalogController {
	return &catalogController{catalogService: catalogService}
}

func (c *catalogController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/videos")
	h.Get("", c.List)
	h.Get("/history", serverutils.JwtMiddleware, c.History)
	h.Get(":slug", serverutils.JwtMiddleware, c.Show)
	h.Post("/watch", serverutils.JwtMiddleware, c.Watch)
}

func (c *catalogController) List(ctx *fiber.Ctx) error {
	videos, err := c.catalogService.ListPublished(ctx.Context())
	if err != nil {
		return err
	}

	res := make([]*dto.VideoResponse, 0, len(videos))
	for _, v := range videos {
		// Listing never exposes stream URLs; those require the
		// per-video access check in Show.
		res = append(res, toVideoResponse(v, false))
	}
	return ctx.JSON(serverutils.SuccessResponse("Video catalog", res))
}

func (c *catalogController) Show(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	video, err := c.catalogService.GetBySlug(ctx.Context(), ctx.Params("slug"))
	if err != nil {
		if errors.Is(err, service.ErrVideoNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(fiber.StatusNotFound, err.Error()))
		}
		return err
	}

	allowed, err := c.catalogService.CanUserAccess(ctx.Context(), userId, video)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Video detail", toVideoResponse(video, allowed)))
}

func (c *catalogController) Watch(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.WatchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	err := c.catalogService.RecordWatch(ctx.Context(), userId, req.VideoId, req.Progress, req.Completed)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrVideoNotFound):
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(fiber.StatusNotFound, err.Error()))
		case errors.Is(err, service.ErrAccessDenied):
			return ctx.Status(fiber.StatusForbidden).JSON(serverutils.ErrorResponse(fiber.StatusForbidden, err.Error()))
		default:
			return err
		}
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Watch recorded", nil))
}

func (c *catalogController) History(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	entries, err := c.catalogService.WatchHistory(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Watch history", entries))
}

func toVideoResponse(v *entity.Video, includeStream bool) *dto.VideoResponse {
	res := &dto.VideoResponse{
		Id:                   v.Id,
		Title:                v.Title,
		Slug:                 v.Slug,
		Description:          v.Description,
		DurationSeconds:      v.DurationSeconds,
		ThumbnailURL:         v.ThumbnailURL,
		MinSubscriptionLevel: v.MinSubscriptionLevel,
		IsPremium:            v.IsPremium,
		PublishedAt:          v.PublishedAt,
	}
	if includeStream {
		res.StreamURL = v.StreamURL
	}
	return res
}

package service

import (
	"context"
	"time"

	"github.com/amiirziyaa/video-platform/internal/entity"
	"github.com/amiirziyaa/video-platform/internal/repository/specification"
	"github.com/amiirziyaa/video-platform/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const (
	planCacheKey = "plans:active"
	planCacheTTL = 5 * time.Minute
)

type IPlanService interface {
	ListActive(ctx context.Context) ([]*entity.SubscriptionPlan, error)
	GetBySlug(ctx context.Context, slug string) (*entity.SubscriptionPlan, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.SubscriptionPlan, error)
}

type planService struct {
	uowFactory unitofwork.RepositoryFactory
	cache      *cache.Cache
}

func NewPlanService(uowFactory unitofwork.RepositoryFactory) IPlanService {
	return &planService{
		uowFactory: uowFactory,
		cache:      cache.New(planCacheTTL, 10*time.Minute),
	}
}

// ListActive serves the pricing page. Plans change rarely, so the list
// is cached; entitlement decisions never read through this path.
func (s *planService) ListActive(ctx context.Context) ([]*entity.SubscriptionPlan, error) {
	if cached, found := s.cache.Get(planCacheKey); found {
		return cached.([]*entity.SubscriptionPlan), nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	plans, err := uow.SubscriptionRepository().FindAllPlans(ctx,
		specification.ActivePlansOnly{},
		specification.OrderBy{Field: "level"},
	)
	if err != nil {
		return nil, err
	}

	s.cache.Set(planCacheKey, plans, planCacheTTL)
	return plans, nil
}

func (s *planService) GetBySlug(ctx context.Context, slug string) (*entity.SubscriptionPlan, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	plan, err := uow.SubscriptionRepository().FindOnePlan(ctx, specification.BySlug{Slug: slug})
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}
	return plan, nil
}

func (s *planService) GetByID(ctx context.Context, id uuid.UUID) (*entity.SubscriptionPlan, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	plan, err := uow.SubscriptionRepository().FindOnePlan(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}
	return plan, nil
}

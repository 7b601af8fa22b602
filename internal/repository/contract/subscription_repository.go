package contract

import (
	"context"

	"github.com/amiirziyaa/video-platform/internal/entity"
	"github.com/amiirziyaa/video-platform/internal/repository/specification"

	"github.com/google/uuid"
)

type SubscriptionRepository interface {
	// Plans (read-mostly reference data)
	CreatePlan(ctx context.Context, plan *entity.SubscriptionPlan) error
	UpdatePlan(ctx context.Context, plan *entity.SubscriptionPlan) error
	FindOnePlan(ctx context.Context, specs ...specification.Specification) (*entity.SubscriptionPlan, error)
	FindAllPlans(ctx context.Context, specs ...specification.Specification) ([]*entity.SubscriptionPlan, error)

	// Subscriptions
	CreateSubscription(ctx context.Context, subscription *entity.Subscription) error
	UpdateSubscription(ctx context.Context, subscription *entity.Subscription) error
	FindOneSubscription(ctx context.Context, specs ...specification.Specification) (*entity.Subscription, error)
	FindAllSubscriptions(ctx context.Context, specs ...specification.Specification) ([]*entity.Subscription, error)

	// FindActiveOrPending is the branch-decision lookup. It always hits
	// the database row, never a cache: concurrent checkouts are possible.
	FindActiveOrPending(ctx context.Context, userId uuid.UUID) (*entity.Subscription, error)
}

package mapper

import (
	"github.com/amiirziyaa/video-platform/internal/entity"
	"github.com/amiirziyaa/video-platform/internal/model"
)

type SubscriptionMapper struct{}

func NewSubscriptionMapper() *SubscriptionMapper {
	return &SubscriptionMapper{}
}

func (m *SubscriptionMapper) PlanToEntity(p *model.SubscriptionPlan) *entity.SubscriptionPlan {
	if p == nil {
		return nil
	}
	return &entity.SubscriptionPlan{
		Id:           p.Id,
		Name:         p.Name,
		Slug:         p.Slug,
		Description:  p.Description,
		Price:        p.Price,
		Currency:     p.Currency,
		DurationDays: p.DurationDays,
		Level:        p.Level,
		IsActive:     p.IsActive,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func (m *SubscriptionMapper) PlanToModel(p *entity.SubscriptionPlan) *model.SubscriptionPlan {
	if p == nil {
		return nil
	}
	return &model.SubscriptionPlan{
		Id:           p.Id,
		Name:         p.Name,
		Slug:         p.Slug,
		Description:  p.Description,
		Price:        p.Price,
		Currency:     p.Currency,
		DurationDays: p.DurationDays,
		Level:        p.Level,
		IsActive:     p.IsActive,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func (m *SubscriptionMapper) ToEntity(s *model.Subscription) *entity.Subscription {
	if s == nil {
		return nil
	}
	return &entity.Subscription{
		Id:          s.Id,
		UserId:      s.UserId,
		PlanId:      s.PlanId,
		PaymentId:   s.PaymentId,
		Status:      entity.SubscriptionStatus(s.Status),
		StartDate:   s.StartDate,
		EndDate:     s.EndDate,
		AutoRenew:   s.AutoRenew,
		CancelledAt: s.CancelledAt,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func (m *SubscriptionMapper) ToModel(s *entity.Subscription) *model.Subscription {
	if s == nil {
		return nil
	}
	return &model.Subscription{
		Id:          s.Id,
		UserId:      s.UserId,
		PlanId:      s.PlanId,
		PaymentId:   s.PaymentId,
		Status:      string(s.Status),
		StartDate:   s.StartDate,
		EndDate:     s.EndDate,
		AutoRenew:   s.AutoRenew,
		CancelledAt: s.CancelledAt,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

package mapper

import (
	"github.com/amiirziyaa/video-platform/internal/entity"
	"github.com/amiirziyaa/video-platform/internal/model"

	"gorm.io/datatypes"
)

type PaymentMapper struct{}

func NewPaymentMapper() *PaymentMapper {
	return &PaymentMapper{}
}

func (m *PaymentMapper) ToEntity(p *model.Payment) *entity.Payment {
	if p == nil {
		return nil
	}
	return &entity.Payment{
		Id:            p.Id,
		UserId:        p.UserId,
		PlanId:        p.PlanId,
		Amount:        p.Amount,
		Currency:      p.Currency,
		AuthorityCode: p.AuthorityCode,
		ReferenceCode: p.ReferenceCode,
		Status:        entity.PaymentStatus(p.Status),
		RequestedAt:   p.RequestedAt,
		ProcessedAt:   p.ProcessedAt,
		Metadata:      map[string]interface{}(p.Metadata),
	}
}

func (m *PaymentMapper) ToModel(p *entity.Payment) *model.Payment {
	if p == nil {
		return nil
	}
	return &model.Payment{
		Id:            p.Id,
		UserId:        p.UserId,
		PlanId:        p.PlanId,
		Amount:        p.Amount,
		Currency:      p.Currency,
		AuthorityCode: p.AuthorityCode,
		ReferenceCode: p.ReferenceCode,
		Status:        string(p.Status),
		RequestedAt:   p.RequestedAt,
		ProcessedAt:   p.ProcessedAt,
		Metadata:      datatypes.JSONMap(p.Metadata),
	}
}

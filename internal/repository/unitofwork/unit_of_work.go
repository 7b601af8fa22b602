package unitofwork

import (
	"context"

	"github.com/amiirziyaa/video-platform/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	PaymentRepository() contract.PaymentRepository
	SubscriptionRepository() contract.SubscriptionRepository
	VideoRepository() contract.VideoRepository
}

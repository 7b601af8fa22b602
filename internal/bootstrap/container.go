package bootstrap

import (
	"log"

	"github.com/amiirziyaa/video-platform/internal/config"
	"github.com/amiirziyaa/video-platform/internal/controller"
	"github.com/amiirziyaa/video-platform/internal/pkg/logger"
	"github.com/amiirziyaa/video-platform/internal/pkg/mailer"
	"github.com/amiirziyaa/video-platform/internal/repository/unitofwork"
	"github.com/amiirziyaa/video-platform/internal/service"
	"github.com/amiirziyaa/video-platform/pkg/gateway"

	pkgNats "github.com/amiirziyaa/video-platform/pkg/nats"

	"gorm.io/gorm"
)

type Container struct {
	AuthController    controller.IAuthController
	PlanController    controller.IPlanController
	PaymentController controller.IPaymentController
	CatalogController controller.ICatalogController

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Infrastructure
	var natsPub service.EventPublisher
	if pub, err := pkgNats.NewPublisher(cfg.App.NatsURL); err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		natsPub = pub
	}

	var gw gateway.Gateway
	if cfg.Gateway.Provider == "mock" {
		gw = gateway.NewMockGateway(cfg.Gateway.SuccessRate)
		log.Printf("[INFO] Using Payment Gateway: MOCK (success rate %.2f)", cfg.Gateway.SuccessRate)
	} else {
		gw = gateway.NewZarinpalGateway(cfg.Gateway.MerchantID, cfg.Gateway.Sandbox)
		log.Printf("[INFO] Using Payment Gateway: ZARINPAL (sandbox=%v)", cfg.Gateway.Sandbox)
	}

	// 3. Services
	callbackURL := cfg.App.BaseURL + "/api/payment/callback"
	subscriptionService := service.NewSubscriptionService(uowFactory, gw, natsPub, emailService, sysLogger, callbackURL)
	planService := service.NewPlanService(uowFactory)
	authService := service.NewAuthService(uowFactory, cfg.App.JWTSecret, sysLogger)
	catalogService := service.NewCatalogService(uowFactory)

	// 4. Controllers
	return &Container{
		AuthController:    controller.NewAuthController(authService),
		PlanController:    controller.NewPlanController(planService),
		PaymentController: controller.NewPaymentController(subscriptionService, planService),
		CatalogController: controller.NewCatalogController(catalogService),
		Logger:            sysLogger,
	}
}

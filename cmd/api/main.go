package main

import (
	"os"

	"menswear/internal/config"
	"menswear/internal/domain/model"
	"menswear/internal/handler"
	"menswear/internal/infra/db"
	"menswear/internal/infra/payment"
	infraRepo "menswear/internal/infra/repository"
	"menswear/internal/pairing"
	"menswear/internal/server"
	"menswear/internal/usecase"
	auth "menswear/internal/usecase/auth_usecase"
	"menswear/internal/validator"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
)

func logLevel(s string) log.Lvl {
	switch s {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	default:
		return log.INFO
	}
}

func main() {
	//.envは無くてもよい（本番は環境変数）
	_ = godotenv.Load()

	logger := log.New("menswear-api")
	logger.SetHeader(`{"time":"${time_rfc3339}","level":"${level}","prefix":"${prefix}","file":"${short_file}","line":"${line}"}`)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	logger.SetLevel(logLevel(cfg.LogLevel))

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		logger.Fatalf("db connect: %v", err)
	}
	if err := gormDB.AutoMigrate(model.All()...); err != nil {
		logger.Fatalf("migrate: %v", err)
	}

	//Repository（GORM実装）生成
	txm := infraRepo.NewTxManagerGorm(gormDB)
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	rtRepo := infraRepo.NewRefreshTokenRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	variantRepo := infraRepo.NewVariantGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)
	collectionRepo := infraRepo.NewCollectionGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	cartItemRepo := infraRepo.NewCartItemGormRepository(gormDB)
	addressRepo := infraRepo.NewAddressGormRepository(gormDB)
	checkoutRepo := infraRepo.NewCheckoutGormRepository(gormDB)
	customerRepo := infraRepo.NewCustomerGormRepository(gormDB)
	supplierRepo := infraRepo.NewSupplierGormRepository(gormDB)
	poRepo := infraRepo.NewPurchaseOrderGormRepository(gormDB)
	analyticsRepo := infraRepo.NewAnalyticsGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)

	if cfg.StripeSecretKey == "" {
		logger.Warn("STRIPE_SECRET_KEY is not set: payment endpoints return 503")
	}
	gateway := payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret)

	//認証の部品（bcrypt / JWT / UUID / 時計）
	hasher := auth.NewBcryptPasswordHasher(12)
	verifier := auth.NewBcryptPasswordVerifier()
	issuer := auth.NewJWTIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)
	authValidator := validator.NewAuthValidator()
	idGen := auth.UUIDGenerator{}
	clock := auth.SystemClock{}

	//Usecase生成
	registerUC := auth.NewRegisterUserUsecase(txm, authValidator, hasher)
	loginUC := auth.NewLoginUsecase(userRepo, rtRepo, authValidator, verifier, issuer, idGen, clock, cfg.RefreshTokenTTL)
	sessionUC := auth.NewSessionUsecase(txm, userRepo, rtRepo, issuer, idGen, clock, cfg.RefreshTokenTTL)

	productUC := usecase.NewProductUsecase(productRepo, variantRepo, pairing.Default())
	inventoryUC := usecase.NewInventoryUsecase(txm, inventoryRepo, cfg.LowStockThreshold)
	collectionUC := usecase.NewCollectionUsecase(txm, collectionRepo, productRepo)
	cartUC := usecase.NewCartUsecase(cartRepo, cartItemRepo, productRepo, variantRepo)
	addressUC := usecase.NewAddressUsecase(addressRepo)
	orderUC := usecase.NewOrderUsecase(txm, addressRepo, cfg.Currency, logger)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm, logger)
	checkoutUC := usecase.NewCheckoutUsecase(txm, cartRepo, cartItemRepo, checkoutRepo, addressRepo, gateway, usecase.CheckoutConfig{
		Currency:              cfg.Currency,
		TTL:                   cfg.CheckoutTTL,
		FreeShippingThreshold: cfg.FreeShippingThreshold,
	}, logger)
	customerUC := usecase.NewCustomerUsecase(customerRepo, userRepo)
	supplierUC := usecase.NewSupplierUsecase(txm, supplierRepo, poRepo, variantRepo, logger)
	analyticsUC := usecase.NewAnalyticsUsecase(analyticsRepo, cfg.Currency)
	auditUC := usecase.NewAuditLogUsecase(auditRepo)

	//Handler生成 + ルーティング
	e := server.New(cfg, logger)
	server.RegisterRoutes(e, cfg.JWTSecret, userRepo, server.Handlers{
		Auth:         handler.NewAuthHandler(registerUC, loginUC, sessionUC, cfg.CookieSecure),
		AdminUser:    handler.NewAdminUserHandler(sessionUC),
		Product:      handler.NewProductHandler(productUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		Inventory:    handler.NewInventoryHandler(inventoryUC),
		Collection:   handler.NewCollectionHandler(collectionUC),
		Cart:         handler.NewCartHandler(cartUC),
		Address:      handler.NewAddressHandler(addressUC),
		Checkout:     handler.NewCheckoutHandler(checkoutUC),
		Order:        handler.NewOrderHandler(orderUC),
		AdminOrder:   handler.NewAdminOrderHandler(adminOrderUC),
		Customer:     handler.NewCustomerHandler(customerUC),
		Supplier:     handler.NewSupplierHandler(supplierUC),
		Analytics:    handler.NewAnalyticsHandler(analyticsUC),
		AuditLog:     handler.NewAuditLogHandler(auditUC),
	})

	//Server起動
	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}
	if err := server.Start(e, addr); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

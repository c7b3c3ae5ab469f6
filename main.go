package main

import (
	"log"

	"shop-service/config"
	"shop-service/controllers"
	"shop-service/database"
	"shop-service/events"
	"shop-service/middleware"
	"shop-service/models"
	"shop-service/providers"
	"shop-service/repository"
	"shop-service/routes"
	"shop-service/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("[ShopService] Failed to load config: ", err)
	}

	var logger *zap.Logger
	if cfg.Env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatal("[ShopService] Failed to initialize logger: ", err)
	}
	defer logger.Sync()

	db, err := database.ConnectPostgres(cfg, logger, &models.Order{}, &models.OrderItem{})
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer database.ClosePostgres()

	if err := database.ConnectMongo(cfg.MongoURL, cfg.MongoDBName); err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer database.CloseMongo()

	orderRepo := repository.NewGormOrderRepository(db)
	productRepo := repository.NewMongoProductRepository(database.Mongo)

	provider := providers.NewPayPayProvider(
		cfg.PayPayAPIKey,
		cfg.PayPayAPISecret,
		cfg.PayPayMerchantID,
		cfg.PayPayBaseURL,
	)

	broadcaster := events.NewBroadcaster(logger)
	defer broadcaster.Close()

	orderSvc := services.NewOrderService(orderRepo, provider, broadcaster, cfg.FrontendURL, logger)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMiddleware())
	r.Use(middleware.RateLimitMiddleware(rate.Limit(50), 100))

	routes.Register(r, routes.Controllers{
		Orders:   controllers.NewOrderController(orderSvc, logger),
		Payments: controllers.NewPaymentController(orderSvc, logger),
		Products: controllers.NewProductController(productRepo, logger),
		Events:   controllers.NewEventsController(broadcaster, logger),
	}, cfg.JWTSecret)

	logger.Info("Shop service running", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

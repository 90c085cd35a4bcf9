package main

import (
	"log"

	"focustimer/internal/config"
	"focustimer/internal/db"
	"focustimer/internal/handler"
	"focustimer/internal/repository"
	"focustimer/internal/router"
	"focustimer/internal/service"
)

func main() {
	cfg := config.Load()

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsDir); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	userRepo := repository.NewUserRepository(database)
	docRepo := repository.NewDocumentRepository(database)

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL)
	dataService := service.NewDataService(docRepo, cfg.WatchTimeout)
	billingService := service.NewBillingService(userRepo, cfg.BillingCheckoutURL, cfg.BillingPortalURL)

	authHandler := handler.NewAuthHandler(authService)
	dataHandler := handler.NewDataHandler(dataService)
	billingHandler := handler.NewBillingHandler(billingService, cfg.BillingWebhookToken)

	engine := router.New(authService, authHandler, dataHandler, billingHandler, cfg.CORSOrigins)
	log.Printf("focusd listening on :%s", cfg.Port)
	if err := engine.Run(":" + cfg.Port); err != nil {
		log.Fatalf("run server: %v", err)
	}
}

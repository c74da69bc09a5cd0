package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nurpe/freight-sync/internal/auth"
	"github.com/nurpe/freight-sync/internal/config"
	"github.com/nurpe/freight-sync/internal/db"
	"github.com/nurpe/freight-sync/internal/esi"
	"github.com/nurpe/freight-sync/internal/excel"
	httphandler "github.com/nurpe/freight-sync/internal/http"
	"github.com/nurpe/freight-sync/internal/http/middleware"
	"github.com/nurpe/freight-sync/internal/logger"
	"github.com/nurpe/freight-sync/internal/notify"
	"github.com/nurpe/freight-sync/internal/pdf"
	"github.com/nurpe/freight-sync/internal/repository"
	"github.com/nurpe/freight-sync/internal/scheduler"
	"github.com/nurpe/freight-sync/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	handlerRepo := repository.NewHandlerRepository(database)
	contractRepo := repository.NewContractRepository(database)
	locationRepo := repository.NewLocationRepository(database)
	entityRepo := repository.NewEntityRepository(database)
	pricingRepo := repository.NewPricingRepository(database)

	esiClient := esi.NewClient(cfg.ESI.BaseURL)

	syncService := service.NewSyncService(handlerRepo, contractRepo, locationRepo, entityRepo, esiClient, cfg, log)
	pricingService := service.NewPricingService(pricingRepo, contractRepo, handlerRepo, log)

	var pilotWebhook, customerWebhook service.WebhookSender
	if cfg.Freight.WebhookURL != "" {
		pilotWebhook = notify.NewWebhook(cfg.Freight.WebhookURL, "Freight Sync")
	}
	if cfg.Freight.CustomerWebhookURL != "" {
		customerWebhook = notify.NewWebhook(cfg.Freight.CustomerWebhookURL, "Freight Sync")
	}
	notificationService := service.NewNotificationService(contractRepo, pilotWebhook, customerWebhook, cfg, log)

	excelGenerator := excel.NewGenerator()
	pdfGenerator, err := pdf.NewGenerator()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init pdf generator")
	}
	adminService := service.NewAdminService(handlerRepo, pricingRepo, locationRepo, contractRepo, syncService, excelGenerator, pdfGenerator, cfg)

	cycle := scheduler.New(syncService, pricingService, notificationService, cfg, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go cycle.Run(ctx)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(adminService, cycle, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting freight sync service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}

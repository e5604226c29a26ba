package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/lingora/lingora-backend/internal/config"
	"github.com/lingora/lingora-backend/internal/db"
	"github.com/lingora/lingora-backend/internal/goroutine"
	httpHandlers "github.com/lingora/lingora-backend/internal/http/handlers"
	"github.com/lingora/lingora-backend/internal/http/middleware"
	httpRouter "github.com/lingora/lingora-backend/internal/http/router"
	"github.com/lingora/lingora-backend/internal/logger"
	"github.com/lingora/lingora-backend/internal/queue"
	"github.com/lingora/lingora-backend/internal/repository"
	"github.com/lingora/lingora-backend/internal/service"
	"github.com/lingora/lingora-backend/internal/storage"
	"github.com/lingora/lingora-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}
	mainLog := logger.Component("main")

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Redis необязателен: без него кэш живёт в памяти, лимиты считаются в процессе.
	rdb := config.NewRedisClient(ctx, cfg.Redis)
	var responseCache service.ResponseCache
	if rdb != nil {
		defer closeRedis(rdb)
		responseCache = service.NewRedisCache(rdb)
		mainLog.Infof("main: redis подключён (%s)", cfg.Redis.Addr)
	} else {
		memCache := service.NewCacheService(time.Minute)
		defer memCache.Close()
		responseCache = memCache
		mainLog.Warn("main: redis недоступен, кэш и лимиты в памяти")
	}

	// Очередь писем: без брокера письма только логируются.
	var publisher queue.Publisher = queue.NoopPublisher{}
	if amqpPublisher, err := queue.NewAMQPPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue); err != nil {
		mainLog.WithError(err).Warn("main: rabbitmq недоступен, письма не отправляются")
	} else {
		defer func() { _ = amqpPublisher.Close() }()
		publisher = amqpPublisher
		consumer := queue.NewConsumer(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, queue.NewLogMailer())
		goroutine.SafeGoWithContext(ctx, func(ctx context.Context) {
			if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
				mainLog.WithError(err).Error("main: потребитель почты остановлен")
			}
		})
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	files, err := storage.NewFileStorage(cfg.MediaStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	providerRepo := repository.NewProviderRepository(dbConn)
	offeringRepo := repository.NewOfferingRepository(dbConn)
	staffRepo := repository.NewStaffRepository(dbConn)
	catalogRepo := repository.NewCatalogRepository(dbConn)
	searchRepo := repository.NewSearchRepository(dbConn)
	contactRepo := repository.NewContactRepository(dbConn)
	supportRepo := repository.NewSupportRepository(dbConn)
	noteRepo := repository.NewNoteRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)

	// Вебсокеты.
	notificationService := service.NewNotificationService(notificationRepo)
	hub := ws.NewHub(ctx)
	hub.SetNotificationSaver(ws.NewNotificationServiceAdapter(notificationService))
	goroutine.SafeGo(hub.Run)

	// Сервисы.
	authService := service.NewAuthService(userRepo, providerRepo, tokenManager, publisher, service.AuthOptions{
		TrialPeriod:   time.Duration(cfg.TrialPeriodDays) * 24 * time.Hour,
		ResetTokenTTL: time.Hour,
		PublicURL:     cfg.PublicURL,
	})
	providerService := service.NewProviderService(service.ProviderDeps{
		Repo:      providerRepo,
		Offerings: offeringRepo,
		Staff:     staffRepo,
		Catalog:   catalogRepo,
		Admins:    userRepo,
		Files:     files,
		Events:    hub,
	}, service.ProviderOptions{
		GalleryMaxImages: cfg.GalleryMaxImages,
		MediaURLPrefix:   "/media",
		MaxUploadMB:      cfg.MaxUploadSizeMB,
	})
	offeringService := service.NewOfferingService(offeringRepo, catalogRepo, providerService)
	staffService := service.NewStaffService(staffRepo, providerService, providerRepo, catalogRepo)
	searchService := service.NewSearchService(searchRepo, providerRepo, offeringRepo, catalogRepo, service.SearchOptions{
		MaxRadiusKM: float64(cfg.SearchMaxRadiusKM),
	})
	catalogService := service.NewCatalogService(catalogRepo)
	contactService := service.NewContactService(contactRepo, providerRepo, userRepo, publisher, service.ContactOptions{
		HourlyLimit: int(cfg.RateLimitContact),
		AdminEmail:  cfg.AdminEmail,
	})
	supportService := service.NewSupportService(service.SupportDeps{
		Repo:      supportRepo,
		Providers: providerRepo,
		Users:     userRepo,
		Admins:    userRepo,
		Files:     files,
		Publisher: publisher,
		Events:    hub,
	}, service.SupportOptions{
		AdminEmail:  cfg.AdminEmail,
		MaxUploadMB: cfg.MaxUploadSizeMB,
	})
	noteService := service.NewNoteService(noteRepo, providerRepo, supportRepo)

	// HTTP слой.
	engine := httpRouter.SetupRouter(cfg, httpRouter.Handlers{
		Auth:          httpHandlers.NewAuthHandler(authService),
		Providers:     httpHandlers.NewProviderHandler(providerService, cfg.MaxUploadSizeMB),
		Offerings:     httpHandlers.NewOfferingHandler(offeringService),
		Staff:         httpHandlers.NewStaffHandler(staffService),
		Search:        httpHandlers.NewSearchHandler(searchService),
		Catalog:       httpHandlers.NewCatalogHandler(catalogService),
		Contact:       httpHandlers.NewContactHandler(contactService),
		Support:       httpHandlers.NewSupportHandler(supportService, cfg.MaxUploadSizeMB),
		Notes:         httpHandlers.NewNoteHandler(noteService),
		Notifications: httpHandlers.NewNotificationHandler(notificationService),
		Health:        httpHandlers.NewHealthHandler(dbConn, rdb),
		WS:            httpHandlers.NewWSHandler(hub, tokenManager, cfg.AllowedOrigins),
	}, httpRouter.Infra{
		Tokens:       tokenManager,
		Cache:        responseCache,
		LimiterStore: middleware.NewLimiterStore(rdb, "lingora:ratelimit"),
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			mainLog.WithError(err).Error("main: ошибка остановки http сервера")
		}
	}()

	mainLog.Infof("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}

func closeRedis(rdb *redis.Client) {
	if err := rdb.Close(); err != nil {
		log.Printf("main: ошибка закрытия redis: %v", err)
	}
}

package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	_ "turcrm/docs"
	"turcrm/internal/cache"
	"turcrm/internal/config"
	"turcrm/internal/handlers"
	"turcrm/internal/metrics"
	"turcrm/internal/middleware"
	"turcrm/internal/migrations"
	"turcrm/internal/pdf"
	"turcrm/internal/realtime"
	"turcrm/internal/repositories"
	"turcrm/internal/routes"
	"turcrm/internal/services"
)

func Run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Ошибка закрытия БД: %v", err)
		}
	}()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("pinging database: %w", err)
	}
	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Printf("[app] database ready, migrations applied")

	// === Metrics ===
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	crmMetrics := metrics.NewCRMMetrics(reg)

	// === Change feed: websocket-доска + кэш сводки ===
	hub := realtime.NewBoardHub()
	listeners := []services.ChangeListener{hub}

	var summaryCache services.SummaryCache
	if cfg.Redis.Addr != "" {
		rdb, err := openRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		sc := cache.NewSummaryCache(rdb, time.Duration(cfg.Redis.TTLSeconds)*time.Second)
		summaryCache = sc
		listeners = append(listeners, sc)
		log.Printf("[app] summary cache on %s", cfg.Redis.Addr)
	} else {
		log.Printf("[app] redis.addr is empty, summary cache disabled")
	}

	// === Notifications ===
	var mailer services.MailSender
	if cfg.Email.SMTPHost != "" {
		mailer = services.NewMailDialer(cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.SMTPUser, cfg.Email.SMTPPassword)
	}
	var bot services.TelegramSender
	if cfg.Telegram.BotToken != "" {
		api, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
		if err != nil {
			// без бота работаем дальше, письма остаются
			log.Printf("[app][telegram][err] %v", err)
		} else {
			log.Printf("[app][telegram] authorized as @%s", api.Self.UserName)
			bot = api
		}
	}
	notifier := services.NewNotificationService(mailer, cfg.Email.FromEmail, cfg.Email.ManagerEmail, bot, cfg.Telegram.ChatID)

	// === Repos ===
	leadRepo := repositories.NewLeadRepository(db)
	touristRepo := repositories.NewTouristRepository(db)
	eventRepo := repositories.NewEventRepository(db)
	visitRepo := repositories.NewVisitRepository(db)
	formRepo := repositories.NewFormRepository(db)
	prefRepo := repositories.NewPreferenceRepository(db)
	documentRepo := repositories.NewDocumentRepository(db)

	// === Services ===
	leadService := services.NewLeadService(leadRepo, eventRepo, crmMetrics, listeners...)
	touristService := services.NewTouristService(touristRepo, leadRepo, listeners...)
	eventService := services.NewEventService(eventRepo, leadRepo, touristRepo, listeners...)
	summaryService := services.NewSummaryService(eventRepo, leadRepo, touristRepo, visitRepo, summaryCache, crmMetrics, listeners...)
	formService := services.NewFormService(formRepo, eventRepo, leadService, notifier, crmMetrics)
	prefService := services.NewPreferenceService(prefRepo)

	if err := os.MkdirAll(cfg.Files.RootDir, 0o755); err != nil {
		return fmt.Errorf("creating files root: %w", err)
	}
	pdfGen := pdf.NewDocumentGenerator(cfg.Files.RootDir, cfg.Files.FontPath)
	documentService := services.NewDocumentService(
		documentRepo,
		leadRepo,
		eventRepo,
		touristRepo,
		cfg.Files.RootDir,
		pdfGen,
		cfg.Server.CompanyName,
	)

	// === Handlers ===
	healthHandler := handlers.NewHealthHandler(db)
	leadHandler := handlers.NewLeadHandler(leadService)
	touristHandler := handlers.NewTouristHandler(touristService, summaryService)
	eventHandler := handlers.NewEventHandler(eventService, summaryService, prefService)
	formHandler := handlers.NewFormHandler(formService)
	documentHandler := handlers.NewDocumentHandler(documentService)
	preferenceHandler := handlers.NewPreferenceHandler(prefService)
	boardHandler := handlers.NewBoardHandler(hub)

	// === Gin ===
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(middleware.Metrics(crmMetrics))

	routes.SetupRoutes(
		router,
		[]byte(cfg.Auth.JWTSecret),
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		healthHandler,
		leadHandler,
		touristHandler,
		eventHandler,
		formHandler,
		documentHandler,
		preferenceHandler,
		boardHandler,
	)

	// === Run ===
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Сервер запущен на %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Printf("[app] shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

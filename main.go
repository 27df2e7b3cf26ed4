package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"concierge/config"
	"concierge/cron"
	"concierge/database"
	catalogRepo "concierge/database/repository/catalog"
	conversationRepo "concierge/database/repository/conversation"
	guestRepo "concierge/database/repository/guest"
	knowledgeRepo "concierge/database/repository/knowledge"
	pendingRepo "concierge/database/repository/pending"
	rulesRepo "concierge/database/repository/rules"
	taskRepo "concierge/database/repository/tasks"
	tenantRepo "concierge/database/repository/tenant"
	"concierge/handlers"
	"concierge/middleware"
	"concierge/routes"
	"concierge/services/actions"
	"concierge/services/catalog"
	"concierge/services/classifier"
	"concierge/services/concierge"
	"concierge/services/guest"
	ai "concierge/services/intelligence"
	"concierge/services/knowledge"
	"concierge/services/notification"
	"concierge/services/rules"
	"concierge/services/slots"
	"concierge/services/state"
	"concierge/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer logger.Sync()
	tuning := config.AppConfig.Tuning

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if err := database.InitDB(ctx); err != nil {
		logger.Fatal("main: failed to connect to MongoDB", zap.Error(err))
	}
	utils.InitCache()
	redisClients := []*redis.Client{utils.GetCacheClient()}
	if config.AppConfig.LockBackend == "redis" {
		utils.InitLockCache()
		redisClients = append(redisClients, utils.GetLockClient())
	}
	utils.StartHealthMonitor(ctx, 30*time.Second, redisClients, database.MongoClient)

	// repositories.
	convRepo := conversationRepo.NewMongoConversationRepo()
	tenants := tenantRepo.NewMongoTenantRepo()
	rulesStore := rulesRepo.NewMongoRulesRepo()

	// oracle.
	gemini, err := ai.NewGeminiClient(ctx, config.AppConfig.GeminiAPIKey, config.AppConfig.GeminiModel, tuning.OracleTimeout, logger)
	if err != nil {
		logger.Fatal("main: failed to initialize Gemini", zap.Error(err))
	}
	defer gemini.Close()

	// staff notifications.
	queue := asynq.NewClient(cron.NotifyRedisOpt())
	defer queue.Close()

	var worker *asynq.Server
	if err := utils.FirebaseInit(ctx); err != nil {
		logger.Warn("main: Firebase unavailable, staff notifications stay queued", zap.Error(err))
	} else {
		notifSvc, err := notification.NewDefaultNotificationService(utils.FCMClient, logger)
		if err != nil {
			logger.Fatal("main: failed to initialize notifications", zap.Error(err))
		}
		worker = cron.InitNotificationWorker(notifSvc)
	}

	// services.
	store := &state.DefaultStore{
		Conversations: convRepo,
		Pending:       pendingRepo.NewMongoPendingRepo(),
		History:       state.NewRedisHistoryCache(utils.GetCacheClient(), concierge.ConversationHistoryLimit, utils.HistoryCacheTTL),
		Logger:        logger,
	}
	catalogSvc := &catalog.DefaultCatalogService{Repo: catalogRepo.NewMongoCatalogRepo(), Logger: logger}
	rulesSvc := &rules.DefaultRulesService{Repo: rulesStore, Logger: logger}
	sink := &actions.DefaultTaskSink{
		Repo:        taskRepo.NewMongoTaskRepo(),
		Queue:       queue,
		DedupWindow: tuning.DedupWindow,
		Now:         time.Now,
		Logger:      logger,
	}

	router := concierge.NewRouter(concierge.Deps{
		Store:     store,
		Oracle:    gemini,
		Catalog:   catalogSvc,
		Knowledge: &knowledge.DefaultKnowledgeService{Repo: knowledgeRepo.NewMongoFAQRepo(), Threshold: tuning.KBSimilarityThreshold, Logger: logger},
		Rules:     rulesSvc,
		Guests:    &guest.DefaultGuestService{Stays: guestRepo.NewMongoStayRepo(), Now: time.Now, Logger: logger},
		Tasks:     sink,
		Extractor: &actions.Extractor{
			Thresholds: actions.Thresholds{
				Food:        tuning.FoodOrderThreshold,
				Item:        tuning.ItemRequestThreshold,
				Maintenance: tuning.MaintenanceThreshold,
				Complaint:   tuning.ComplaintThreshold,
			},
			Logger: logger,
		},
		Slots: &slots.Engine{
			Oracle:       gemini,
			Catalog:      catalogSvc,
			Rules:        rulesSvc,
			Tasks:        sink,
			MaxQuestions: tuning.MaxQuestions,
			Now:          time.Now,
			Logger:       logger,
		},
		Classifier: &classifier.Classifier{
			Oracle:          gemini,
			Mode:            classifier.ParseMode(tuning.ClassifierMode),
			RegexThreshold:  tuning.RegexThreshold,
			OracleThreshold: tuning.OracleThreshold,
			Logger:          logger,
		},
		Tuning: tuning,
		Now:    time.Now,
		Logger: logger,
	})

	var locker concierge.Locker = concierge.NewMemoryLocker()
	if config.AppConfig.LockBackend == "redis" {
		locker = &concierge.RedisLocker{
			Client: utils.GetLockClient(),
			Prefix: utils.LockPrefix,
			TTL:    tuning.LockTTL,
			Logger: logger,
		}
	}
	conciergeSvc := &concierge.DefaultConciergeService{
		Router:   router,
		Store:    store,
		Tenants:  tenants,
		Locker:   locker,
		LockWait: tuning.LockTTL,
		Logger:   logger,
	}

	sweeper := &cron.Sweeper{
		Finder: convRepo,
		Store:  store,
		Locker: locker,
		MaxAge: tuning.StaleDialogAfter,
		Batch:  200,
		Now:    time.Now,
		Logger: logger,
	}
	if err := sweeper.Start("*/10 * * * *"); err != nil {
		logger.Fatal("main: failed to schedule stale dialog sweeper", zap.Error(err))
	}

	conciergeHandler := handlers.NewConciergeHandler(conciergeSvc)
	handlerBundle := &handlers.HandlerBundle{
		PostMessageHandler:     conciergeHandler.PostMessageHandler,
		GetConversationHandler: conciergeHandler.GetConversationHandler,
		ResetDialogHandler:     conciergeHandler.ResetDialogHandler,
		HealthHandler:          handlers.HealthHandler,
	}

	// Create the Gin router.
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(utils.ErrorHandler())
	engine.Use(middleware.LoggingMiddleware(logger))
	routes.RegisterRoutes(engine, handlerBundle, middleware.NewRateLimiter(config.AppConfig.MaxRequestsPerMin))

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: engine,
	}

	logger.Info("Starting server", zap.String("addr", srv.Addr))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("main: server failed to start", zap.Error(err))
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}
	sweeper.Stop()
	if worker != nil {
		worker.Shutdown()
	}
	stop()
	utils.CloseCaches()
	if err := database.Disconnect(shutdownCtx); err != nil {
		logger.Warn("main: failed to disconnect MongoDB", zap.Error(err))
	}

	logger.Info("main: server stopped gracefully")
}

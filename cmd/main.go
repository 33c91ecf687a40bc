package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ghandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	areaSpotsHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/area_spots"
	cancelBookingHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/cancel_booking"
	completeBookingHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/complete_booking"
	createAreaHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/create_area"
	createBookingHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/create_booking"
	createUserHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/create_user"
	deleteAreaHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/delete_area"
	deleteUserHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/delete_user"
	extendBookingHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/extend_booking"
	favoritesHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/favorites"
	getAreaHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/get_area"
	getAreaSpotsHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/get_area_spots"
	getBookingHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/get_booking"
	getNearbyAreasHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/get_nearby_areas"
	getUserHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/get_user"
	getUserBookingsHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/get_user_bookings"
	purgeUserCacheHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/purge_user_cache"
	quoteAreaHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/quote_area"
	rateAreaHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/rate_area"
	searchAreasHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/search_areas"
	streamSpotsHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/stream_spots"
	updateAreaHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/update_area"
	updateUserHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/update_user"
	"github.com/m04kA/SMC-ParkingService/internal/api/middleware"
	"github.com/m04kA/SMC-ParkingService/internal/config"
	"github.com/m04kA/SMC-ParkingService/internal/infra/cache"
	"github.com/m04kA/SMC-ParkingService/internal/infra/realtime"
	areaRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/area"
	bookingRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/booking"
	favoriteRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/favorite"
	spotRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/spot"
	userRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/user"
	areasService "github.com/m04kA/SMC-ParkingService/internal/service/areas"
	bookingsService "github.com/m04kA/SMC-ParkingService/internal/service/bookings"
	ledgerService "github.com/m04kA/SMC-ParkingService/internal/service/ledger"
	usersService "github.com/m04kA/SMC-ParkingService/internal/service/users"
	advanceStatusesUC "github.com/m04kA/SMC-ParkingService/internal/usecase/advance_booking_statuses"
	"github.com/m04kA/SMC-ParkingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ParkingService/pkg/logger"
	"github.com/m04kA/SMC-ParkingService/pkg/metrics"
	"github.com/m04kA/SMC-ParkingService/pkg/txmanager"
	"github.com/m04kA/SMC-ParkingService/pkg/workerpool"
)

// recoveryLogger адаптер логгера для gorilla/handlers.RecoveryHandler
type recoveryLogger struct {
	log *logger.Logger
}

func (r recoveryLogger) Println(v ...interface{}) {
	r.log.Error("panic recovered: %s", fmt.Sprint(v...))
}

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	flag.Parse()

	// Загружаем конфигурацию
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-ParkingService...")
	log.Info("Configuration loaded from %s", *configPath)

	// Метрики; при выключенных метриках компоненты получают nil
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName, prometheus.DefaultRegisterer)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	wrappedDB := dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Database.DBName, stopMetricsCh)
	txMgr := txmanager.NewTransactionManager(wrappedDB)

	// Репозитории
	bookingRepository := bookingRepo.NewRepository(wrappedDB)
	spotRepository := spotRepo.NewRepository(wrappedDB)
	areaRepository := areaRepo.NewRepository(wrappedDB)
	userRepository := userRepo.NewRepository(wrappedDB)
	favoriteRepository := favoriteRepo.NewRepository(wrappedDB)

	// Живая лента: публикация через pg_notify, прием через LISTEN
	publisher := realtime.NewPublisher(wrappedDB, cfg.Database.ListenChannel)
	hub := realtime.NewHub(log, metricsCollector)

	listener := pq.NewListener(
		cfg.Database.DSN(),
		time.Duration(cfg.Database.ListenMinReconnectMs)*time.Millisecond,
		time.Duration(cfg.Database.ListenMaxReconnectMs)*time.Millisecond,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Warn("Spot feed listener event=%d: %v", ev, err)
			}
		},
	)
	if err := listener.Listen(cfg.Database.ListenChannel); err != nil {
		log.Fatal("Failed to listen on channel %s: %v", cfg.Database.ListenChannel, err)
	}
	defer listener.Close()

	feedCtx, stopFeed := context.WithCancel(context.Background())
	defer stopFeed()
	go hub.Run(feedCtx, listener)
	log.Info("Spot feed listening on channel %s", cfg.Database.ListenChannel)

	// Локальная реплика; интерфейсные переменные остаются nil, если кэш выключен
	var (
		bookingCache bookingsService.BookingCache
		ledgerCache  ledgerService.BookingCache
		areaCache    areasService.AreaCache
		userCache    usersService.UserCache
		cachePool    *workerpool.Pool
	)

	if cfg.Cache.Enabled {
		cacheDB, err := cache.Open(cfg.Cache.Driver, cfg.Cache.DSN)
		if err != nil {
			log.Fatal("Failed to open local cache: %v", err)
		}

		cachePool = workerpool.New(cfg.Cache.Workers, cfg.Cache.QueueSize, log, metricsCollector)

		store, err := cache.New(cacheDB, cachePool, log)
		if err != nil {
			log.Fatal("Failed to initialize local cache: %v", err)
		}

		bookingCache, ledgerCache, areaCache, userCache = store, store, store, store
		log.Info("Local cache enabled (driver=%s, workers=%d)", cfg.Cache.Driver, cfg.Cache.Workers)
	}

	// Сервисы
	ledgerSvc := ledgerService.NewService(
		bookingRepository,
		spotRepository,
		areaRepository,
		userRepository,
		publisher,
		ledgerCache,
		txMgr,
		metricsCollector,
		log,
	)
	bookingSvc := bookingsService.NewService(bookingRepository, bookingCache, metricsCollector, log)
	areaSvc := areasService.NewService(
		areaRepository,
		spotRepository,
		favoriteRepository,
		publisher,
		areaCache,
		txMgr,
		metricsCollector,
		log,
	)
	userSvc := usersService.NewService(
		userRepository,
		favoriteRepository,
		bookingRepository,
		userCache,
		txMgr,
		metricsCollector,
		log,
	)

	// Фоновый перевод статусов бронирований
	scheduler := cron.New()
	if cfg.Scheduler.Enabled {
		statusJob := advanceStatusesUC.NewUseCase(bookingRepository, ledgerSvc, advanceStatusesUC.Config{
			BatchSize:   cfg.Scheduler.BatchSize,
			GracePeriod: time.Duration(cfg.Ledger.ExpiryGraceMin) * time.Minute,
			RunTimeout:  time.Duration(cfg.Scheduler.RunTimeout) * time.Second,
		}, log)

		if _, err := statusJob.Register(scheduler, cfg.Scheduler.StatusCron); err != nil {
			log.Fatal("Failed to schedule status job: %v", err)
		}
		scheduler.Start()
		log.Info("Status job scheduled (%s, batch=%d)", cfg.Scheduler.StatusCron, cfg.Scheduler.BatchSize)
	}

	// Handlers
	createBooking := createBookingHandler.NewHandler(ledgerSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(ledgerSvc, log)
	extendBooking := extendBookingHandler.NewHandler(ledgerSvc, log)
	completeBooking := completeBookingHandler.NewHandler(ledgerSvc, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	getUserBookings := getUserBookingsHandler.NewHandler(bookingSvc, log)
	createUser := createUserHandler.NewHandler(userSvc, log)
	getUser := getUserHandler.NewHandler(userSvc, log)
	updateUser := updateUserHandler.NewHandler(userSvc, log)
	purgeUserCache := purgeUserCacheHandler.NewHandler(userSvc, log)
	deleteUser := deleteUserHandler.NewHandler(userSvc, log)
	favorites := favoritesHandler.NewHandler(areaSvc, log)
	getNearbyAreas := getNearbyAreasHandler.NewHandler(areaSvc, log)
	createArea := createAreaHandler.NewHandler(areaSvc, log)
	getArea := getAreaHandler.NewHandler(areaSvc, log)
	getAreaSpots := getAreaSpotsHandler.NewHandler(areaSvc, log)
	quoteArea := quoteAreaHandler.NewHandler(areaSvc, log)
	searchAreas := searchAreasHandler.NewHandler(areaSvc, log)
	rateArea := rateAreaHandler.NewHandler(areaSvc, log)
	updateArea := updateAreaHandler.NewHandler(areaSvc, log)
	deleteArea := deleteAreaHandler.NewHandler(areaSvc, log)
	areaSpots := areaSpotsHandler.NewHandler(areaSvc, log)
	streamSpots := streamSpotsHandler.NewHandler(hub, areaSvc, log)

	auth := middleware.NewAuth(cfg.Auth.JWTSecret, cfg.Auth.Issuer, log)
	opTimeout := middleware.Timeout(time.Duration(cfg.Ledger.OperationTimeout) * time.Second)

	// Настраиваем роутер
	r := mux.NewRouter()

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (токен необязателен, нужен только для отметки избранного)
	// ============================================================

	public := api.PathPrefix("/areas").Subrouter()
	public.Use(auth.Optional)

	// Поток не ограничиваем таймаутом
	public.HandleFunc("/{areaId}/spots/stream", streamSpots.Handle).Methods(http.MethodGet)

	bounded := public.PathPrefix("").Subrouter()
	bounded.Use(opTimeout)
	bounded.HandleFunc("", getNearbyAreas.Handle).Methods(http.MethodGet)
	bounded.HandleFunc("/search", searchAreas.Handle).Methods(http.MethodGet)
	bounded.HandleFunc("/{areaId}", getArea.Handle).Methods(http.MethodGet)
	bounded.HandleFunc("/{areaId}/spots", getAreaSpots.Handle).Methods(http.MethodGet)
	bounded.HandleFunc("/{areaId}/quote", quoteArea.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (Bearer JWT)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(auth.Middleware, opTimeout)

	// --- Парковки ---
	protected.HandleFunc("/areas", createArea.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/areas/{areaId}", updateArea.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/areas/{areaId}", deleteArea.Handle).Methods(http.MethodDelete)
	protected.HandleFunc("/areas/{areaId}/ratings", rateArea.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/areas/{areaId}/spots", areaSpots.Add).Methods(http.MethodPost)
	protected.HandleFunc("/areas/{areaId}/spots/{spotId}", areaSpots.Update).Methods(http.MethodPatch)
	protected.HandleFunc("/areas/{areaId}/spots/{spotId}", areaSpots.Delete).Methods(http.MethodDelete)

	// --- Бронирования ---
	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/extend", extendBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/complete", completeBooking.Handle).Methods(http.MethodPatch)

	// --- Профиль ---
	protected.HandleFunc("/users", createUser.Handle).Methods(http.MethodPost)

	self := protected.PathPrefix("/users/{userId}").Subrouter()
	self.Use(middleware.SelfOnly("userId", log))
	self.HandleFunc("", getUser.Handle).Methods(http.MethodGet)
	self.HandleFunc("", updateUser.Handle).Methods(http.MethodPut)
	self.HandleFunc("", deleteUser.Handle).Methods(http.MethodDelete)
	self.HandleFunc("/cache", purgeUserCache.Handle).Methods(http.MethodDelete)
	self.HandleFunc("/bookings", getUserBookings.Handle).Methods(http.MethodGet)
	self.HandleFunc("/favorites", favorites.List).Methods(http.MethodGet)
	self.HandleFunc("/favorites/{areaId}", favorites.Add).Methods(http.MethodPut)
	self.HandleFunc("/favorites/{areaId}", favorites.Remove).Methods(http.MethodDelete)

	// CORS для мобильного клиента и восстановление после паники
	handler := ghandlers.RecoveryHandler(
		ghandlers.RecoveryLogger(recoveryLogger{log: log}),
		ghandlers.PrintRecoveryStack(true),
	)(r)
	handler = ghandlers.CORS(
		ghandlers.AllowedOrigins(cfg.Server.AllowedOrigins),
		ghandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
		ghandlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)(handler)

	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Дожидаемся текущего прохода задачи статусов
	<-scheduler.Stop().Done()

	// Закрываем ленту: WebSocket-клиенты получают кадр error и отключаются
	stopFeed()

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	// Дописываем отложенные записи в реплику
	if cachePool != nil {
		cachePool.Close()
	}

	close(stopMetricsCh)

	log.Info("Server stopped gracefully")
}

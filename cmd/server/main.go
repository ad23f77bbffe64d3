package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-booking/internal/booking"
	"github.com/iliyamo/tour-booking/internal/config"
	"github.com/iliyamo/tour-booking/internal/database"
	"github.com/iliyamo/tour-booking/internal/handler"
	"github.com/iliyamo/tour-booking/internal/middleware"
	"github.com/iliyamo/tour-booking/internal/queue"
	"github.com/iliyamo/tour-booking/internal/repository"
	"github.com/iliyamo/tour-booking/internal/router"
	"github.com/iliyamo/tour-booking/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	if err := database.Migrate(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.MigrationsPath); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	accounts := repository.NewAccountRepo(db)
	tokens := repository.NewTokenRepo(db)
	tours := repository.NewTourRepo(db)
	capacity := repository.NewCapacityRepo(db)
	ledger := repository.NewLedgerRepo(db)
	favourites := repository.NewFavouriteRepo(db)

	engine := booking.NewEngine(accounts, tours, capacity, ledger, service.NewQueuePublisher())

	e := echo.New()
	e.HideBanner = true

	// Redis backs both the rate limiter and the public response cache.
	// Either feature degrades to a no-op when disabled or when Redis is
	// not reachable at startup.
	rdb := config.NewRedisClient()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	authH := handler.NewAuthHandler(cfg, accounts, tokens)
	customerH := handler.NewCustomerHandler(engine)
	operatorH := handler.NewOperatorHandler(tours, engine)
	profileH := handler.NewProfileHandler(accounts, tours, ledger, favourites)
	publicH := &handler.PublicHandler{Tours: tours, Accounts: accounts}

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, publicH, cacheMW)
	router.RegisterProfile(e, profileH, cfg.JWTSecret)
	router.RegisterCustomer(e, customerH, profileH, cfg.JWTSecret)
	router.RegisterOperator(e, operatorH, cfg.JWTSecret)

	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

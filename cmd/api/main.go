package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"go-inventory-procurement/internal/config"
	"go-inventory-procurement/internal/handler"
	"go-inventory-procurement/internal/lock"
	"go-inventory-procurement/internal/model"
	"go-inventory-procurement/internal/repository"
	"go-inventory-procurement/internal/service"
	"go-inventory-procurement/internal/ws"
	"go-inventory-procurement/pkg/database"
	"go-inventory-procurement/pkg/jwt"
	"go-inventory-procurement/pkg/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func main() {
	// 1. Load Env
	envErr := godotenv.Load()
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)
	if envErr != nil {
		log.Info(".env file not found, relying on system env")
	}

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}
	// Auto Migrate (use a dedicated migration tool in production)
	if err := db.AutoMigrate(
		&model.Location{},
		&model.Category{},
		&model.Company{},
		&model.User{},
		&model.Product{},
		&model.Transaction{},
		&model.TransactionItem{},
	); err != nil {
		log.WithError(err).Fatal("auto migrate failed")
	}

	// 3. Seed headquarters and admin user
	seedDefaults(db, cfg, log)

	// 4. Setup WebSocket Hub
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	wsHub := ws.NewHub(log)
	go wsHub.Run(ctx)

	// 5. Optional redis for cross-replica locks
	locker := lock.NewNoop()
	if cfg.RedisAddress != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			PoolSize: 20,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("redis unreachable, po number lock disabled")
		} else {
			locker = lock.NewRedisLocker(rdb)
			log.WithField("addr", cfg.RedisAddress).Info("connected to redis")
		}
	}

	// 6. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	userRepo := repository.NewUserRepo(db)
	locationRepo := repository.NewLocationRepo(db)
	companyRepo := repository.NewCompanyRepo(db)
	categoryRepo := repository.NewCategoryRepo(db)

	jwtManager := jwt.NewManager(cfg.JWTSecret, cfg.JWTTTL)

	txService := service.NewTransactionService(db, txRepo, productRepo, locationRepo, companyRepo, locker, wsHub, log)
	queryService := service.NewTransactionQueryService(txRepo)
	invService := service.NewInventoryService(db, productRepo, locationRepo, companyRepo, categoryRepo, wsHub, log)
	dashService := service.NewDashboardService(txRepo)
	authService := service.NewAuthService(userRepo, jwtManager, wsHub)

	// 7. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Inventory Procurement v1.0",
	})

	// Middleware
	app.Use(fiberlogger.New()) // Logging request
	app.Use(recover.New())     // Panic recovery
	app.Use(cors.New())        // CORS

	handler.Register(app, handler.Handlers{
		Auth:        handler.NewAuthHandler(authService),
		Transaction: handler.NewTransactionHandler(txService, queryService),
		Inventory:   handler.NewInventoryHandler(invService),
		Dashboard:   handler.NewDashboardHandler(dashService),
		AuthService: authService,
	})

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(wsHub.Serve))

	// 8. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Error("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.WithError(err).Fatal("Server forced to shutdown")
	}
	log.Info("Server exited")
}

// seedDefaults creates the headquarters location and the admin user when missing.
func seedDefaults(db *gorm.DB, cfg config.Config, log *logrus.Logger) {
	bg := context.Background()
	locationRepo := repository.NewLocationRepo(db)
	userRepo := repository.NewUserRepo(db)

	if _, err := locationRepo.FindHeadquarters(bg); errors.Is(err, repository.ErrNotFound) {
		hq := &model.Location{
			LocationName:        "HQ",
			LocationDescription: "Headquarters",
			IsHeadquarters:      true,
		}
		hq.StampCreated("system")
		if err := locationRepo.Create(bg, hq); err != nil {
			logger.LogError(log, "main", "seedDefaults", "failed to create headquarters", nil, err)
		} else {
			log.Info("headquarters location created")
		}
	}

	if _, err := userRepo.FindByEmail(bg, cfg.SeedAdminEmail); !errors.Is(err, repository.ErrNotFound) {
		return
	}
	admin := &model.User{
		Email:    cfg.SeedAdminEmail,
		Name:     "Administrator",
		Role:     model.RoleAdmin,
		IsActive: true,
	}
	admin.StampCreated("system")
	if err := admin.SetPassword(cfg.SeedAdminPassword); err != nil {
		logger.LogError(log, "main", "seedDefaults", "failed to hash admin password", nil, err)
		return
	}
	if err := userRepo.Create(bg, admin); err != nil {
		logger.LogError(log, "main", "seedDefaults", "failed to create admin user", cfg.SeedAdminEmail, err)
		return
	}
	log.WithField("email", cfg.SeedAdminEmail).Info("admin user created")
}

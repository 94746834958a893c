package main

import (
	"context"
	"log"
	"strings"

	"barpos-backend/internal/auth"
	"barpos-backend/internal/cache"
	"barpos-backend/internal/config"
	"barpos-backend/internal/database"
	"barpos-backend/internal/ledger"
	"barpos-backend/internal/models"
	"barpos-backend/internal/offline"
	"barpos-backend/internal/pos"
	"barpos-backend/internal/sale"
	"barpos-backend/internal/syncer"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	// Çevrimdışı kuyruk yerel SQLite dosyasında tutulur; Postgres'e
	// erişilemediğinde bile satışlar buraya yazılır.
	store, err := offline.OpenSQLiteKV(cfg.OfflineStorePath)
	if err != nil {
		log.Fatalf("Çevrimdışı depo açılamadı: %v", err)
	}
	queue, err := offline.NewQueue(store)
	if err != nil {
		log.Fatalf("Çevrimdışı kuyruk yüklenemedi: %v", err)
	}

	remote := ledger.NewGorm(database.DB)

	projection := cache.NewProjection()
	if products, err := remote.AllProducts(context.Background()); err != nil {
		log.Printf("[WARN] Ürün önbelleği doldurulamadı: %v", err)
	} else {
		projection.ReplaceAll(products)
	}

	monitor := offline.NewMonitor(true)
	processor := sale.NewProcessor(remote, projection, queue, monitor, cfg.TaxRate)
	reconciler := syncer.New(remote, queue, projection, cfg.SyncMaxAttempts, cfg.SyncBackoffBase)

	// Bağlantı geri gelince bekleyen satışlar otomatik senkronize edilir.
	monitor.OnOnline(func() {
		if _, err := reconciler.Drain(context.Background()); err != nil {
			log.Printf("[WARN] Otomatik senkronizasyon hatası: %v", err)
		}
	})

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Satış
	protected.Post("/sales", pos.CreateSaleHandler(processor, projection))
	protected.Post("/sales/park", pos.ParkOrderHandler(processor, projection))
	protected.Get("/sales/today", pos.TodaySalesHandler())

	// Masalar
	protected.Get("/seats", pos.ListSeatsHandler())
	protected.Get("/seats/:id/order", pos.GetSeatOrderHandler(processor))
	protected.Post("/seats/:id/cancel-order", pos.CancelSeatOrderHandler(processor))

	// Ürünler
	protected.Get("/products", pos.ListProductsHandler())
	protected.Get("/products/:id", pos.GetProductHandler())

	// Stok hareketleri
	protected.Post("/stock-movements", pos.CreateMovementHandler(projection))
	protected.Get("/stock-movements", pos.ListMovementsHandler())

	// Senkronizasyon ve bağlantı durumu
	protected.Post("/sync", pos.SyncHandler(reconciler, monitor))
	protected.Get("/sync/pending", pos.PendingSalesHandler(queue))
	protected.Get("/sync/dead-letter", pos.DeadLetterSalesHandler(queue))
	protected.Get("/connectivity", pos.GetConnectivityHandler(monitor, queue))
	protected.Post("/connectivity", pos.SetConnectivityHandler(monitor))

	// Admin routes
	adminRoutes := protected.Group("")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	adminRoutes.Post("/products", pos.CreateProductHandler(projection))
	adminRoutes.Put("/products/:id", pos.UpdateProductHandler(projection))
	adminRoutes.Delete("/products/:id", pos.DeactivateProductHandler(projection))

	adminRoutes.Post("/seats", pos.CreateSeatHandler())
	adminRoutes.Put("/seats/:id", pos.UpdateSeatHandler())
	adminRoutes.Delete("/seats/:id", pos.DeleteSeatHandler())

	log.Println("Server çalışıyor port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}

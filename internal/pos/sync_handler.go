package pos

import (
	"barpos-backend/internal/offline"
	"barpos-backend/internal/syncer"

	"github.com/gofiber/fiber/v2"
)

// POST /api/sync — bekleyen çevrimdışı satışları uzak depoya oynatır.
func SyncHandler(r *syncer.Reconciler, monitor *offline.Monitor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !monitor.IsOnline() {
			return fiber.NewError(fiber.StatusServiceUnavailable, "Bağlantı yokken senkronizasyon yapılamaz")
		}

		report, err := r.Drain(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Senkronizasyon tamamlanamadı: "+err.Error())
		}

		return c.JSON(fiber.Map{
			"succeeded":     report.Succeeded,
			"failed":        report.Failed,
			"remaining":     report.Remaining,
			"dead_lettered": report.DeadLettered,
			"message":       report.Summary(),
		})
	}
}

// GET /api/sync/pending — kuyruktaki satışlar.
func PendingSalesHandler(queue *offline.Queue) fiber.Handler {
	return func(c *fiber.Ctx) error {
		entries := queue.Entries()
		return c.JSON(fiber.Map{
			"count":   len(entries),
			"entries": entries,
		})
	}
}

// GET /api/sync/dead-letter — deneme sınırını aşıp ayrılan satışlar.
func DeadLetterSalesHandler(queue *offline.Queue) fiber.Handler {
	return func(c *fiber.Ctx) error {
		entries, err := queue.DeadLetters()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ölü kuyruk okunamadı")
		}
		return c.JSON(fiber.Map{
			"count":   len(entries),
			"entries": entries,
		})
	}
}

type ConnectivityRequest struct {
	Online bool `json:"online"`
}

// POST /api/connectivity — terminalin bağlantı durumunu bildirir. Çevrimiçine
// geçiş kayıtlı callback'ler üzerinden senkronizasyonu tetikler.
func SetConnectivityHandler(monitor *offline.Monitor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ConnectivityRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		monitor.SetOnline(body.Online)
		return c.JSON(fiber.Map{"online": monitor.IsOnline()})
	}
}

// GET /api/connectivity
func GetConnectivityHandler(monitor *offline.Monitor, queue *offline.Queue) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"online":  monitor.IsOnline(),
			"pending": queue.Len(),
		})
	}
}

package pos

import (
	"fmt"
	"math"
	"time"

	"barpos-backend/internal/cache"
	"barpos-backend/internal/database"
	"barpos-backend/internal/models"
	"barpos-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
)

type CreateMovementRequest struct {
	ProductID uint    `json:"product_id"` // zorunlu
	Kind      string  `json:"kind"`       // IN, OUT, ADJUST
	Quantity  float64 `json:"quantity"`   // IN/OUT: miktar; ADJUST: yeni hedef stok
	Note      string  `json:"note"`
}

type MovementResponse struct {
	ID          uint    `json:"id"`
	ProductID   uint    `json:"product_id"`
	ProductName string  `json:"product_name"`
	Kind        string  `json:"kind"`
	Quantity    float64 `json:"quantity"`
	Note        string  `json:"note"`
	Date        string  `json:"date"`
	NewStock    float64 `json:"new_stock,omitempty"`
}

// POST /api/stock-movements — manuel stok hareketi. IN ekler, OUT düşer
// (tabanı sıfırdır), ADJUST stoku verilen hedefe eşitler ve aradaki farkı
// hareket olarak kaydeder.
func CreateMovementHandler(proj *cache.Projection) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateMovementRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.ProductID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "product_id zorunludur")
		}

		kind := models.MovementKind(body.Kind)
		switch kind {
		case models.MovementIn, models.MovementOut:
			if body.Quantity <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "quantity 0'dan büyük olmalıdır")
			}
		case models.MovementAdjust:
			if body.Quantity < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Hedef stok negatif olamaz")
			}
		default:
			return fiber.NewError(fiber.StatusBadRequest, "kind IN, OUT veya ADJUST olmalı")
		}

		var product models.Product
		if err := database.DB.First(&product, "id = ?", body.ProductID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}
		if product.Kind == models.ProductComposite {
			return fiber.NewError(fiber.StatusBadRequest, "Reçeteli ürünün stoku malzemelerinden türetilir, doğrudan değiştirilemez")
		}

		var newStock, movementQty float64
		switch kind {
		case models.MovementIn:
			newStock = stock.Round4(product.StockOnHand + body.Quantity)
			movementQty = body.Quantity
		case models.MovementOut:
			newStock = math.Max(0, stock.Round4(product.StockOnHand-body.Quantity))
			movementQty = body.Quantity
		case models.MovementAdjust:
			newStock = stock.Round4(body.Quantity)
			movementQty = math.Abs(stock.Round4(newStock - product.StockOnHand))
		}

		if body.Note == "" && kind == models.MovementAdjust {
			body.Note = fmt.Sprintf("Stok düzeltmesi: %.4g → %.4g", product.StockOnHand, newStock)
		}

		product.StockOnHand = newStock
		if err := database.DB.Save(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stok güncellenemedi")
		}

		movement := models.StockMovement{
			ProductID: product.ID,
			Kind:      kind,
			Quantity:  movementQty,
			Note:      body.Note,
			Date:      time.Now(),
		}
		if err := database.DB.Create(&movement).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Hareket kaydedilemedi")
		}

		proj.SetStock(product.ID, newStock)

		return c.Status(fiber.StatusCreated).JSON(MovementResponse{
			ID:          movement.ID,
			ProductID:   movement.ProductID,
			ProductName: product.Name,
			Kind:        string(movement.Kind),
			Quantity:    movement.Quantity,
			Note:        movement.Note,
			Date:        movement.Date.Format("2006-01-02 15:04:05"),
			NewStock:    newStock,
		})
	}
}

// GET /api/stock-movements
func ListMovementsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 100)
		if limit <= 0 || limit > 500 {
			limit = 100
		}

		query := database.DB.Preload("Product").Order("date DESC, id DESC").Limit(limit)
		if pid := c.QueryInt("product_id", 0); pid > 0 {
			query = query.Where("product_id = ?", pid)
		}

		var movements []models.StockMovement
		if err := query.Find(&movements).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Hareketler listelenemedi")
		}

		resp := make([]MovementResponse, 0, len(movements))
		for _, m := range movements {
			name := ""
			if m.Product != nil {
				name = m.Product.Name
			}
			resp = append(resp, MovementResponse{
				ID:          m.ID,
				ProductID:   m.ProductID,
				ProductName: name,
				Kind:        string(m.Kind),
				Quantity:    m.Quantity,
				Note:        m.Note,
				Date:        m.Date.Format("2006-01-02 15:04:05"),
			})
		}
		return c.JSON(resp)
	}
}

package pos

import (
	"errors"
	"time"

	"barpos-backend/internal/cache"
	"barpos-backend/internal/database"
	"barpos-backend/internal/models"
	"barpos-backend/internal/sale"

	"github.com/gofiber/fiber/v2"
)

type SaleLineRequest struct {
	ProductID uint    `json:"product_id"` // zorunlu
	Quantity  float64 `json:"quantity"`   // zorunlu, > 0
}

type CreateSaleRequest struct {
	Lines         []SaleLineRequest `json:"lines"`
	PaymentMethod string            `json:"payment_method"` // CASH, CARD, TRANSFER, CREDIT
	CustomerName  string            `json:"customer_name"`
	Discount      float64           `json:"discount"`
	SeatID        *uint             `json:"seat_id"`     // adisyon kapatma için
	SeatNumber    *int              `json:"seat_number"` // yanıtta gösterim için
}

type SaleResponse struct {
	ID            uint    `json:"id"`
	Number        string  `json:"number"`
	Date          string  `json:"date"`
	Subtotal      float64 `json:"subtotal"`
	Tax           float64 `json:"tax"`
	Total         float64 `json:"total"`
	Discount      float64 `json:"discount"`
	PaymentMethod string  `json:"payment_method,omitempty"`
	State         string  `json:"state"`
	CustomerName  string  `json:"customer_name"`
	SeatID        *uint   `json:"seat_id,omitempty"`
	Offline       bool    `json:"offline"`
}

func saleToResponse(s *models.Sale, offline bool) SaleResponse {
	resp := SaleResponse{
		ID:           s.ID,
		Number:       s.Number,
		Date:         s.Date.Format("2006-01-02 15:04:05"),
		Subtotal:     s.Subtotal,
		Tax:          s.Tax,
		Total:        s.Total,
		Discount:     s.Discount,
		State:        string(s.State),
		CustomerName: s.CustomerName,
		SeatID:       s.SeatID,
		Offline:      offline,
	}
	if s.PaymentMethod != nil {
		resp.PaymentMethod = string(*s.PaymentMethod)
	}
	return resp
}

// buildSession: istek satırlarını yerel önbellekten çözerek bir oturuma çevirir.
// Ad, fiyat ve maliyet istemciden değil önbellekteki üründen alınır.
func buildSession(proj *cache.Projection, lines []SaleLineRequest, seatID *uint, seatNumber *int) (*sale.Session, error) {
	sess := sale.NewSession()
	sess.ActiveSeatID = seatID
	sess.ActiveSeatNumber = seatNumber
	for _, line := range lines {
		p, ok := proj.Get(line.ProductID)
		if !ok {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Ürün bulunamadı")
		}
		if !p.Active {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Ürün satışa kapalı: "+p.Name)
		}
		sess.AddProduct(p)
		sess.UpdateQuantity(p.ID, line.Quantity)
	}
	return sess, nil
}

func parsePaymentMethod(s string) (models.PaymentMethod, error) {
	switch models.PaymentMethod(s) {
	case models.PaymentCash, models.PaymentCard, models.PaymentTransfer, models.PaymentCredit:
		return models.PaymentMethod(s), nil
	}
	return "", fiber.NewError(fiber.StatusBadRequest, "Geçersiz ödeme yöntemi")
}

// saleError: işlemci hatalarını HTTP durum kodlarına çevirir.
func saleError(err error) error {
	var vErr *sale.ValidationError
	var stockErr *sale.InsufficientStockError
	var tabErr *sale.NoOpenTabError
	var remoteErr *sale.RemoteOperationError
	switch {
	case errors.As(err, &vErr):
		return fiber.NewError(fiber.StatusBadRequest, vErr.Error())
	case errors.As(err, &stockErr):
		return fiber.NewError(fiber.StatusConflict, stockErr.Error())
	case errors.As(err, &tabErr):
		return fiber.NewError(fiber.StatusNotFound, tabErr.Error())
	case errors.As(err, &remoteErr):
		return fiber.NewError(fiber.StatusBadGateway, remoteErr.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, "Satış işlenemedi")
}

// POST /api/sales
func CreateSaleHandler(p *sale.Processor, proj *cache.Projection) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateSaleRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		method, err := parsePaymentMethod(body.PaymentMethod)
		if err != nil {
			return err
		}

		sess, err := buildSession(proj, body.Lines, body.SeatID, body.SeatNumber)
		if err != nil {
			return err
		}

		result, err := p.ProcessSale(c.Context(), sess, method, body.CustomerName, body.Discount)
		if err != nil {
			return saleError(err)
		}

		// Uzak kimliği olmayan satış kuyruğa alınmış demektir.
		offline := result.ID == 0
		return c.Status(fiber.StatusCreated).JSON(saleToResponse(result, offline))
	}
}

// POST /api/sales/park — sepeti masaya adisyon olarak kaydeder.
func ParkOrderHandler(p *sale.Processor, proj *cache.Projection) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateSaleRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.SeatID == nil {
			return fiber.NewError(fiber.StatusBadRequest, "seat_id zorunludur")
		}

		sess, err := buildSession(proj, body.Lines, body.SeatID, body.SeatNumber)
		if err != nil {
			return err
		}

		result, err := p.ParkOrder(c.Context(), sess)
		if err != nil {
			return saleError(err)
		}

		return c.Status(fiber.StatusCreated).JSON(saleToResponse(result, false))
	}
}

// POST /api/seats/:id/cancel-order — masanın açık adisyonunu iptal eder.
func CancelSeatOrderHandler(p *sale.Processor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		seatID, err := c.ParamsInt("id")
		if err != nil || seatID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz masa ID")
		}

		id := uint(seatID)
		sess := sale.NewSession()
		sess.ActiveSeatID = &id

		if err := p.CancelSeatOrder(c.Context(), sess); err != nil {
			return saleError(err)
		}

		return c.JSON(fiber.Map{"message": "Adisyon iptal edildi"})
	}
}

// GET /api/seats/:id/order — masanın açık adisyonunun satırlarını döndürür.
func GetSeatOrderHandler(p *sale.Processor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		seatID, err := c.ParamsInt("id")
		if err != nil || seatID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz masa ID")
		}

		var seat models.Seat
		if err := database.DB.First(&seat, "id = ?", seatID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Masa bulunamadı")
		}

		sess := sale.NewSession()
		found, err := p.LoadSeatOrder(c.Context(), sess, seat.ID, seat.Number)
		if err != nil {
			return saleError(err)
		}
		if !found {
			return fiber.NewError(fiber.StatusNotFound, "Masada açık adisyon yok")
		}

		return c.JSON(fiber.Map{
			"seat_id":     seat.ID,
			"seat_number": seat.Number,
			"lines":       sess.Cart,
		})
	}
}

type TodaySummaryResponse struct {
	Date      string             `json:"date"`
	SaleCount int64              `json:"sale_count"`
	Total     float64            `json:"total"`
	Net       float64            `json:"net"`
	Tax       float64            `json:"tax"`
	Profit    float64            `json:"profit"`
	ByPayment map[string]float64 `json:"by_payment"`
	Sales     []SaleResponse     `json:"sales"`
}

// GET /api/sales/today — günün tamamlanmış satışları ve toplamları.
func TodaySalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		now := time.Now()
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

		var sales []models.Sale
		if err := database.DB.Preload("Items").
			Where("state = ? AND date >= ?", models.SaleCompleted, dayStart).
			Order("date DESC").
			Find(&sales).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Satışlar listelenemedi")
		}

		resp := TodaySummaryResponse{
			Date:      dayStart.Format("2006-01-02"),
			SaleCount: int64(len(sales)),
			ByPayment: map[string]float64{},
			Sales:     make([]SaleResponse, 0, len(sales)),
		}
		for i := range sales {
			s := &sales[i]
			resp.Total += s.Total
			resp.Net += s.Subtotal
			resp.Tax += s.Tax
			for _, it := range s.Items {
				resp.Profit += (it.UnitPrice - it.UnitCost) * it.Quantity
			}
			if s.PaymentMethod != nil {
				resp.ByPayment[string(*s.PaymentMethod)] += s.Total
			}
			resp.Sales = append(resp.Sales, saleToResponse(s, false))
		}

		return c.JSON(resp)
	}
}

package pos

import (
	"barpos-backend/internal/database"
	"barpos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type SeatRequest struct {
	Number      int    `json:"number"` // zorunlu, tekil
	Capacity    int    `json:"capacity"`
	Description string `json:"description"`
}

type SeatResponse struct {
	ID          uint   `json:"id"`
	Number      int    `json:"number"`
	Capacity    int    `json:"capacity"`
	Status      string `json:"status"`
	Description string `json:"description"`
}

func seatToResponse(s *models.Seat) SeatResponse {
	return SeatResponse{
		ID:          s.ID,
		Number:      s.Number,
		Capacity:    s.Capacity,
		Status:      string(s.Status),
		Description: s.Description,
	}
}

// GET /api/seats
func ListSeatsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var seats []models.Seat
		if err := database.DB.Order("number ASC").Find(&seats).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Masalar listelenemedi")
		}

		resp := make([]SeatResponse, 0, len(seats))
		for i := range seats {
			resp = append(resp, seatToResponse(&seats[i]))
		}
		return c.JSON(resp)
	}
}

// POST /api/seats
func CreateSeatHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SeatRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.Number <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Masa numarası 0'dan büyük olmalıdır")
		}

		var count int64
		database.DB.Model(&models.Seat{}).Where("number = ?", body.Number).Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, "Bu numarayla bir masa zaten var")
		}

		capacity := body.Capacity
		if capacity <= 0 {
			capacity = 2
		}

		seat := models.Seat{
			Number:      body.Number,
			Capacity:    capacity,
			Status:      models.SeatFree,
			Description: body.Description,
		}
		if err := database.DB.Create(&seat).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Masa oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(seatToResponse(&seat))
	}
}

// PUT /api/seats/:id
func UpdateSeatHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var seat models.Seat
		if err := database.DB.First(&seat, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Masa bulunamadı")
		}

		var body SeatRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.Number > 0 && body.Number != seat.Number {
			var count int64
			database.DB.Model(&models.Seat{}).
				Where("number = ? AND id <> ?", body.Number, seat.ID).
				Count(&count)
			if count > 0 {
				return fiber.NewError(fiber.StatusConflict, "Bu numarayla bir masa zaten var")
			}
			seat.Number = body.Number
		}
		if body.Capacity > 0 {
			seat.Capacity = body.Capacity
		}
		seat.Description = body.Description

		if err := database.DB.Save(&seat).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Masa güncellenemedi")
		}

		return c.JSON(seatToResponse(&seat))
	}
}

// DELETE /api/seats/:id — açık adisyonu olan masa silinemez.
func DeleteSeatHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var seat models.Seat
		if err := database.DB.First(&seat, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Masa bulunamadı")
		}

		var openCount int64
		database.DB.Model(&models.Sale{}).
			Where("seat_id = ? AND state = ?", seat.ID, models.SalePending).
			Count(&openCount)
		if openCount > 0 {
			return fiber.NewError(fiber.StatusConflict, "Masada açık adisyon var, önce kapatılmalı")
		}

		if err := database.DB.Delete(&seat).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Masa silinemedi")
		}

		return c.JSON(fiber.Map{"message": "Masa silindi"})
	}
}

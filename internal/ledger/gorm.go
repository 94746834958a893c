package ledger

import (
	"context"
	"errors"

	"barpos-backend/internal/models"

	"gorm.io/gorm"
)

// Gorm: Client'ın Postgres/GORM implementasyonu.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (g *Gorm) ProductsByID(ctx context.Context, ids []uint) (map[uint]*models.Product, error) {
	if len(ids) == 0 {
		return map[uint]*models.Product{}, nil
	}

	var products []models.Product
	if err := g.db.WithContext(ctx).
		Preload("Recipe.Components.ComponentProduct").
		Where("id IN ?", ids).
		Find(&products).Error; err != nil {
		return nil, err
	}

	out := make(map[uint]*models.Product, len(products))
	for i := range products {
		out[products[i].ID] = &products[i]
	}
	return out, nil
}

func (g *Gorm) AllProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := g.db.WithContext(ctx).
		Preload("Recipe.Components.ComponentProduct").
		Where("active = ?", true).
		Order("name asc").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (g *Gorm) UpdateStock(ctx context.Context, productID uint, newStock float64) error {
	return g.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Update("stock_on_hand", newStock).Error
}

func (g *Gorm) AppendMovement(ctx context.Context, m *models.StockMovement) error {
	return g.db.WithContext(ctx).Create(m).Error
}

func (g *Gorm) InsertSale(ctx context.Context, sale *models.Sale) error {
	return g.db.WithContext(ctx).Omit("Items", "Seat").Create(sale).Error
}

func (g *Gorm) InsertSaleItems(ctx context.Context, items []models.SaleItem) error {
	if len(items) == 0 {
		return nil
	}
	return g.db.WithContext(ctx).Create(&items).Error
}

func (g *Gorm) SaleItems(ctx context.Context, saleID uint) ([]models.SaleItem, error) {
	var items []models.SaleItem
	if err := g.db.WithContext(ctx).
		Where("sale_id = ?", saleID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (g *Gorm) DeleteSaleItems(ctx context.Context, saleID uint) error {
	return g.db.WithContext(ctx).
		Where("sale_id = ?", saleID).
		Delete(&models.SaleItem{}).Error
}

func (g *Gorm) UpdateSale(ctx context.Context, sale *models.Sale) error {
	return g.db.WithContext(ctx).Omit("Items", "Seat").Save(sale).Error
}

func (g *Gorm) PendingSaleBySeat(ctx context.Context, seatID uint) (*models.Sale, error) {
	var sale models.Sale
	err := g.db.WithContext(ctx).
		Where("seat_id = ? AND state = ?", seatID, models.SalePending).
		Order("created_at DESC").
		First(&sale).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (g *Gorm) UpdateSeatStatus(ctx context.Context, seatID uint, status models.SeatStatus) error {
	return g.db.WithContext(ctx).
		Model(&models.Seat{}).
		Where("id = ?", seatID).
		Update("status", status).Error
}

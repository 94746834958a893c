package ledger

import (
	"context"

	"barpos-backend/internal/models"
)

// Client: otoriter uzak depoya (RemoteTruth) giden stok ve satış operasyonları.
// Her çağrı bağımsız bir istektir; depo çağrılar arası transaction sunmaz.
type Client interface {
	// ProductsByID: reçeteleri ve malzeme ürünleriyle birlikte toplu ürün okuması.
	ProductsByID(ctx context.Context, ids []uint) (map[uint]*models.Product, error)
	// AllProducts: tüm aktif ürünler, önbellek tazelemesi için.
	AllProducts(ctx context.Context) ([]models.Product, error)
	// UpdateStock: ürünün StockOnHand alanını yeni değere yazar (son yazan kazanır).
	UpdateStock(ctx context.Context, productID uint, newStock float64) error
	// AppendMovement: stok hareket kaydı ekler. Hareketler hiç güncellenmez.
	AppendMovement(ctx context.Context, m *models.StockMovement) error

	InsertSale(ctx context.Context, sale *models.Sale) error
	InsertSaleItems(ctx context.Context, items []models.SaleItem) error
	SaleItems(ctx context.Context, saleID uint) ([]models.SaleItem, error)
	DeleteSaleItems(ctx context.Context, saleID uint) error
	UpdateSale(ctx context.Context, sale *models.Sale) error
	// PendingSaleBySeat: masaya bağlı açık adisyon. Yoksa (nil, nil) döner.
	PendingSaleBySeat(ctx context.Context, seatID uint) (*models.Sale, error)

	UpdateSeatStatus(ctx context.Context, seatID uint, status models.SeatStatus) error
}

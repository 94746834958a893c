package models

import "time"

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "CASH"     // nakit
	PaymentCard     PaymentMethod = "CARD"     // kredi/banka kartı
	PaymentTransfer PaymentMethod = "TRANSFER" // havale
	PaymentCredit   PaymentMethod = "CREDIT"   // veresiye
)

type SaleState string

const (
	SalePending   SaleState = "PENDING"   // masaya bağlı, ödeme bekleyen adisyon
	SaleCompleted SaleState = "COMPLETED" // tahsil edildi (terminal durum)
	SaleCancelled SaleState = "CANCELLED" // iptal edildi (terminal durum)
)

type Sale struct {
	ID            uint           `gorm:"primaryKey"`
	Number        string         `gorm:"size:40;index"` // offline satışlarda istemci tarafında üretilen UUID
	Date          time.Time      `gorm:"index;not null"`
	Subtotal      float64        `gorm:"not null"` // KDV hariç net
	Tax           float64        `gorm:"not null"`
	Total         float64        `gorm:"not null"` // KDV dahil, indirim düşülmüş
	Discount      float64        `gorm:"not null;default:0"`
	PaymentMethod *PaymentMethod `gorm:"size:20"` // PENDING adisyonlarda null
	State         SaleState      `gorm:"size:20;index;not null"`
	CustomerName  string         `gorm:"size:100"`
	SeatID        *uint          `gorm:"index"`
	Seat          *Seat
	Items         []SaleItem
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type SaleItem struct {
	ID          uint    `gorm:"primaryKey"`
	SaleID      uint    `gorm:"index;not null"`
	ProductID   uint    `gorm:"index;not null"`
	ProductName string  `gorm:"size:100;not null"` // satış anındaki ad, ürün silinirse de kalır
	Quantity    float64 `gorm:"not null"`
	UnitPrice   float64 `gorm:"not null"`
	Subtotal    float64 `gorm:"not null"`
	UnitCost    float64 `gorm:"not null;default:0"`
	CreatedAt   time.Time
}

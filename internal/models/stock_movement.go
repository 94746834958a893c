package models

import "time"

type MovementKind string

const (
	MovementIn     MovementKind = "IN"     // giriş (alım, iade)
	MovementOut    MovementKind = "OUT"    // çıkış (satış, zayiat)
	MovementAdjust MovementKind = "ADJUST" // manuel düzeltme
)

// StockMovement: stok değiştiren her işlemin eklendiği, hiç silinmeyen hareket kaydı.
// Ürünün StockOnHand alanı bu hareketlerin net toplamının önbelleğidir.
type StockMovement struct {
	ID        uint `gorm:"primaryKey"`
	ProductID uint `gorm:"index;not null"`
	Product   *Product
	Kind      MovementKind `gorm:"size:10;not null"`
	Quantity  float64      `gorm:"not null"` // her zaman >= 0, yön Kind ile belirlenir
	Note      string       `gorm:"size:255"`
	Date      time.Time    `gorm:"index;not null"`
	CreatedAt time.Time
}

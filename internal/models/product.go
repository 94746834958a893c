package models

import "time"

type ProductKind string

const (
	ProductSimple    ProductKind = "SIMPLE"    // stoklu, doğrudan satılan ürün
	ProductComposite ProductKind = "COMPOSITE" // reçeteyle satış anında üretilen ürün (ör. kokteyl)
)

type Product struct {
	ID              uint        `gorm:"primaryKey"`
	Name            string      `gorm:"size:100;not null"`
	Code            string      `gorm:"size:50;index"` // barkod / stok kodu
	Kind            ProductKind `gorm:"size:20;not null;default:'SIMPLE'"`
	UnitPrice       float64     `gorm:"not null"`           // satış fiyatı (KDV dahil)
	UnitCost        float64     `gorm:"not null;default:0"` // maliyet
	StockOnHand     float64     `gorm:"not null;default:0"` // SIMPLE: eldeki ambalaj adedi. COMPOSITE için anlamı yok, stok reçeteden türetilir
	UnitsPerPackage float64     `gorm:"not null;default:1"` // ambalaj başına baz birim (ör. 750 ml'lik şişe → 750)
	BaseUnit        string      `gorm:"size:20"`            // ml, gr, adet
	MinStock        float64     `gorm:"not null;default:0"`
	Active          bool        `gorm:"not null;default:true"`
	Recipe          *Recipe     // sadece COMPOSITE ürünlerde dolu
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Recipe: bir COMPOSITE ürünün malzeme listesi. Her reçete tek bir ürüne aittir.
type Recipe struct {
	ID         uint `gorm:"primaryKey"`
	ProductID  uint `gorm:"uniqueIndex;not null"`
	Components []RecipeComponent
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type RecipeComponent struct {
	ID                 uint     `gorm:"primaryKey"`
	RecipeID           uint     `gorm:"index;not null"`
	ComponentProductID uint     `gorm:"index;not null"`
	ComponentProduct   *Product `gorm:"foreignKey:ComponentProductID"`
	QuantityPerUnit    float64  `gorm:"not null"` // bir birim satış için tüketilen baz miktar (ör. 60 ml)
	Unit               string   `gorm:"size:20"`
	CreatedAt          time.Time
}

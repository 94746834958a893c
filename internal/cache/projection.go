package cache

import (
	"sort"
	"sync"

	"barpos-backend/internal/models"
)

// Projection: cihaz-yerel ürün önbelleği. UI çevrimdışıyken de güncel stok
// görebilsin diye iyimser düşümlerle güncellenir; senkronizasyon sonrası
// otoriter depodan TOPTAN değiştirilir, alan bazında birleştirme yapılmaz.
type Projection struct {
	mu       sync.RWMutex
	products map[uint]*models.Product
}

func NewProjection() *Projection {
	return &Projection{products: make(map[uint]*models.Product)}
}

// ReplaceAll: önbelleği otoriter veriyle toptan değiştirir.
func (pr *Projection) ReplaceAll(products []models.Product) {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	pr.products = make(map[uint]*models.Product, len(products))
	for i := range products {
		p := products[i]
		pr.products[p.ID] = &p
	}
	// Reçete bileşenlerini canlı önbellek girdilerine bağla: bir malzemenin
	// iyimser düşümü, onu kullanan kokteylin türetilmiş stoğuna anında yansır.
	for _, p := range pr.products {
		if p.Recipe == nil {
			continue
		}
		for i := range p.Recipe.Components {
			comp := &p.Recipe.Components[i]
			if live, ok := pr.products[comp.ComponentProductID]; ok {
				comp.ComponentProduct = live
			}
		}
	}
}

func (pr *Projection) Get(id uint) (*models.Product, bool) {
	pr.mu.RLock()
	defer pr.mu.RUnlock()
	p, ok := pr.products[id]
	return p, ok
}

// All: ürünler ada göre sıralı döner.
func (pr *Projection) All() []models.Product {
	pr.mu.RLock()
	defer pr.mu.RUnlock()
	out := make([]models.Product, 0, len(pr.products))
	for _, p := range pr.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SetStock: tek ürünün yerel stok değerini yazar (iyimser düşüm).
func (pr *Projection) SetStock(id uint, newStock float64) {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	if p, ok := pr.products[id]; ok {
		p.StockOnHand = newStock
	}
}

func (pr *Projection) Len() int {
	pr.mu.RLock()
	defer pr.mu.RUnlock()
	return len(pr.products)
}

package ledger

import (
	"context"
	"fmt"
	"sync"

	"barpos-backend/internal/models"
)

// Memory: Client'ın bellek içi implementasyonu. Testlerde uzak depo yerine
// geçer; hook alanlarıyla belirli çağrılar deterministik olarak
// başarısızlaştırılabilir. Her okuma kopya döner, gerçek depo gibi.
type Memory struct {
	mu        sync.Mutex
	products  map[uint]*models.Product
	sales     []*models.Sale
	items     []models.SaleItem
	movements []models.StockMovement
	seats     map[uint]*models.Seat
	nextSale  uint

	// Test kancaları: nil değilse ilgili çağrıdan önce çalışır,
	// hata dönerse çağrı o hatayla başarısız olur.
	InsertSaleHook  func(sale *models.Sale) error
	UpdateStockHook func(productID uint, newStock float64) error
}

func NewMemory() *Memory {
	return &Memory{
		products: make(map[uint]*models.Product),
		seats:    make(map[uint]*models.Seat),
		nextSale: 1,
	}
}

// SeedProduct: test kurulumunda ürün ekler.
func (m *Memory) SeedProduct(p models.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := copyProduct(&p)
	m.products[cp.ID] = cp
}

// SeedSeat: test kurulumunda masa ekler.
func (m *Memory) SeedSeat(s models.Seat) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := s
	m.seats[s.ID] = &cp
}

func (m *Memory) ProductsByID(_ context.Context, ids []uint) (map[uint]*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[uint]*models.Product, len(ids))
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = m.resolveLocked(copyProduct(p))
		}
	}
	return out, nil
}

func (m *Memory) AllProducts(_ context.Context) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Product, 0, len(m.products))
	for _, p := range m.products {
		if !p.Active {
			continue
		}
		out = append(out, *m.resolveLocked(copyProduct(p)))
	}
	return out, nil
}

func (m *Memory) UpdateStock(_ context.Context, productID uint, newStock float64) error {
	if m.UpdateStockHook != nil {
		if err := m.UpdateStockHook(productID, newStock); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return fmt.Errorf("ürün bulunamadı: %d", productID)
	}
	p.StockOnHand = newStock
	return nil
}

func (m *Memory) AppendMovement(_ context.Context, mv *models.StockMovement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *mv
	cp.ID = uint(len(m.movements) + 1)
	cp.Product = nil
	m.movements = append(m.movements, cp)
	return nil
}

func (m *Memory) InsertSale(_ context.Context, sale *models.Sale) error {
	if m.InsertSaleHook != nil {
		if err := m.InsertSaleHook(sale); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sale.ID = m.nextSale
	m.nextSale++
	cp := *sale
	cp.Items = nil
	cp.Seat = nil
	m.sales = append(m.sales, &cp)
	return nil
}

func (m *Memory) InsertSaleItems(_ context.Context, items []models.SaleItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range items {
		it.ID = uint(len(m.items) + 1)
		m.items = append(m.items, it)
	}
	return nil
}

func (m *Memory) DeleteSaleItems(_ context.Context, saleID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.items[:0]
	for _, it := range m.items {
		if it.SaleID != saleID {
			kept = append(kept, it)
		}
	}
	m.items = kept
	return nil
}

func (m *Memory) UpdateSale(_ context.Context, sale *models.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.sales {
		if s.ID == sale.ID {
			cp := *sale
			cp.Items = nil
			cp.Seat = nil
			m.sales[i] = &cp
			return nil
		}
	}
	return fmt.Errorf("satış bulunamadı: %d", sale.ID)
}

func (m *Memory) PendingSaleBySeat(_ context.Context, seatID uint) (*models.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sales) - 1; i >= 0; i-- {
		s := m.sales[i]
		if s.SeatID != nil && *s.SeatID == seatID && s.State == models.SalePending {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *Memory) UpdateSeatStatus(_ context.Context, seatID uint, status models.SeatStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.seats[seatID]; ok {
		s.Status = status
	}
	return nil
}

// Testlerin depo durumunu doğrulaması için okuma yardımcıları.

func (m *Memory) Sales() []models.Sale {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Sale, 0, len(m.sales))
	for _, s := range m.sales {
		out = append(out, *s)
	}
	return out
}

func (m *Memory) SaleItems(_ context.Context, saleID uint) ([]models.SaleItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.SaleItem
	for _, it := range m.items {
		if it.SaleID == saleID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *Memory) Movements() []models.StockMovement {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.StockMovement, len(m.movements))
	copy(out, m.movements)
	return out
}

func (m *Memory) StockOf(productID uint) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.products[productID]; ok {
		return p.StockOnHand
	}
	return 0
}

func (m *Memory) Seat(seatID uint) *models.Seat {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.seats[seatID]; ok {
		cp := *s
		return &cp
	}
	return nil
}

// copyProduct: reçete zinciriyle birlikte derin kopya.
func copyProduct(p *models.Product) *models.Product {
	cp := *p
	if p.Recipe != nil {
		rc := *p.Recipe
		rc.Components = make([]models.RecipeComponent, len(p.Recipe.Components))
		copy(rc.Components, p.Recipe.Components)
		for i := range rc.Components {
			if ing := rc.Components[i].ComponentProduct; ing != nil {
				ingCp := *ing
				rc.Components[i].ComponentProduct = &ingCp
			}
		}
		cp.Recipe = &rc
	}
	return &cp
}

// resolveLocked: kopyadaki malzeme ürünlerini depodaki güncel stokla çözer,
// okuma gerçek depodaki gibi tutarlı bir anlık görüntü olsun diye.
func (m *Memory) resolveLocked(cp *models.Product) *models.Product {
	if cp.Recipe == nil {
		return cp
	}
	for i := range cp.Recipe.Components {
		comp := &cp.Recipe.Components[i]
		if live, ok := m.products[comp.ComponentProductID]; ok {
			ingCp := *live
			ingCp.Recipe = nil
			comp.ComponentProduct = &ingCp
		}
	}
	return cp
}

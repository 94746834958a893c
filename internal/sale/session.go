package sale

import "barpos-backend/internal/models"

// Session: bir POS terminalinin aktif sepet durumu. Global/reaktif bir store
// yerine süreç ömrü başına bir adet oluşturulur ve işlemciye açıkça geçirilir.
type Session struct {
	Cart             []models.CartLine
	ActiveSeatID     *uint
	ActiveSeatNumber *int
}

func NewSession() *Session {
	return &Session{}
}

// AddProduct: ürünü sepete ekler, satır varsa adedini artırır.
func (s *Session) AddProduct(p *models.Product) {
	for i := range s.Cart {
		if s.Cart[i].ProductID == p.ID {
			s.Cart[i].Quantity++
			return
		}
	}
	s.Cart = append(s.Cart, models.CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		Quantity:  1,
		UnitPrice: p.UnitPrice,
		UnitCost:  p.UnitCost,
	})
}

func (s *Session) RemoveLine(productID uint) {
	for i := range s.Cart {
		if s.Cart[i].ProductID == productID {
			s.Cart = append(s.Cart[:i], s.Cart[i+1:]...)
			return
		}
	}
}

// UpdateQuantity: adet 0 veya altına inerse satır silinir.
func (s *Session) UpdateQuantity(productID uint, qty float64) {
	if qty <= 0 {
		s.RemoveLine(productID)
		return
	}
	for i := range s.Cart {
		if s.Cart[i].ProductID == productID {
			s.Cart[i].Quantity = qty
			return
		}
	}
}

func (s *Session) Clear() {
	s.Cart = nil
}

func (s *Session) ItemCount() float64 {
	var count float64
	for _, line := range s.Cart {
		count += line.Quantity
	}
	return count
}

// SetActiveSeat: masa seçimi. Masa seçilince mevcut sepet temizlenir (masanın
// adisyonu yüklenecek ya da boş başlanacak).
func (s *Session) SetActiveSeat(id *uint, number *int) {
	s.ActiveSeatID = id
	s.ActiveSeatNumber = number
	if id != nil {
		s.Clear()
	}
}

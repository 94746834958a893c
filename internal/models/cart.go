package models

// CartLine: aktif sepetteki bir satır. Veritabanına yazılmaz; satış tamamlanınca
// SaleItem'a dönüşür, sepet sıfırlanınca kaybolur.
type CartLine struct {
	ProductID uint    `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	UnitCost  float64 `json:"unit_cost"`
}

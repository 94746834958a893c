package sale

import (
	"math"

	"barpos-backend/internal/models"
)

// Totals: KDV dahil fiyatlandırma. Toplam satır fiyatlarından gelir, net ve
// KDV toplamdan türetilir (üstüne eklenmez): net = round(total / (1 + oran)),
// kdv = total - net. Böylece net + kdv her zaman tam olarak total eder.
type Totals struct {
	Net      float64 `json:"net"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
	Discount float64 `json:"discount"`
}

// ComputeTotals: indirim toplamdan düşülür, 0'ın altına inmez.
func ComputeTotals(lines []models.CartLine, discount, taxRate float64) Totals {
	var gross float64
	for _, line := range lines {
		gross += line.UnitPrice * line.Quantity
	}
	total := math.Max(0, gross-discount)
	net := math.Round(total / (1 + taxRate))
	return Totals{
		Net:      net,
		Tax:      total - net,
		Total:    total,
		Discount: discount,
	}
}

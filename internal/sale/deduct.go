package sale

import (
	"context"
	"fmt"
	"math"
	"time"

	"barpos-backend/internal/ledger"
	"barpos-backend/internal/models"
	"barpos-backend/internal/stock"

	"github.com/sirupsen/logrus"
)

// ApplyDeductions: satılan her satır için ilgili SIMPLE ürünlerin stokunu
// düşer ve OUT hareketi ekler. Çevrimiçi satış da senkronizasyon da aynı
// algoritmayı kullanır.
//
// Düşüm 0'ın altına inmez: fazla satış sessizce 0'a sabitlenir, hata değildir
// (çevrimdışı yol canlı stoğa karşı doğrulama yapmadığından bu durum
// olağandır). Satır bazlı hatalar loglanır ve atlanır; satış kaydı yazılmış
// olduğundan geri alınmaz, sapma hareket kayıtlarından geri kazanılabilir.
// Başarısız düşüm sayısını döner.
func ApplyDeductions(ctx context.Context, cl ledger.Client, products map[uint]*models.Product, lines []models.CartLine, notePrefix string) int {
	failed := 0

	// Aynı ürüne birden çok düşüm olabilir (iki kokteyl aynı malzemeyi
	// kullanabilir); güncel değerler yerel olarak zincirlenir.
	stockNow := make(map[uint]float64)
	current := func(p *models.Product) float64 {
		if v, ok := stockNow[p.ID]; ok {
			return v
		}
		stockNow[p.ID] = p.StockOnHand
		return p.StockOnHand
	}

	deductOne := func(target *models.Product, units float64, note string) {
		newStock := math.Max(0, stock.Round4(current(target)-units))
		if err := cl.UpdateStock(ctx, target.ID, newStock); err != nil {
			logrus.WithError(err).WithField("product_id", target.ID).
				Warn("Stok düşülemedi, satış kaydı korunuyor")
			failed++
			return
		}
		stockNow[target.ID] = newStock

		mv := &models.StockMovement{
			ProductID: target.ID,
			Kind:      models.MovementOut,
			Quantity:  units,
			Note:      note,
			Date:      time.Now(),
		}
		if err := cl.AppendMovement(ctx, mv); err != nil {
			logrus.WithError(err).WithField("product_id", target.ID).
				Warn("Stok hareketi yazılamadı")
			failed++
		}
	}

	for _, line := range lines {
		p := products[line.ProductID]
		if p == nil {
			logrus.WithField("product_id", line.ProductID).
				Warn("Satılan ürün depoda bulunamadı, düşüm atlandı")
			failed++
			continue
		}

		if p.Kind != models.ProductComposite {
			deductOne(p, line.Quantity, notePrefix)
			continue
		}
		if p.Recipe == nil {
			continue
		}
		ingredients := make(map[uint]*models.Product, len(p.Recipe.Components))
		for i := range p.Recipe.Components {
			if ing := p.Recipe.Components[i].ComponentProduct; ing != nil {
				ingredients[ing.ID] = ing
			}
		}
		for _, c := range stock.ConsumptionFor(p, line.Quantity) {
			ing := ingredients[c.ProductID]
			if ing == nil {
				continue
			}
			deductOne(ing, c.Units, fmt.Sprintf("%s (%s malzemesi)", notePrefix, p.Name))
		}
	}

	return failed
}

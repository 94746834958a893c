package stock

import (
	"math"

	"barpos-backend/internal/models"

	"github.com/shopspring/decimal"
)

// Consumption: bir satış satırının tek bir SIMPLE ürüne yansıyan stok tüketimi.
// Units ambalaj eşdeğeri birimdir (doğrudan SIMPLE satışta satış adedi,
// malzeme tüketiminde baz miktar / ambalaj içeriği).
type Consumption struct {
	ProductID uint
	Units     float64
}

// unitsPerPackage: 0 veya negatif içerik 1 kabul edilir, sıfıra bölme olmaz.
func unitsPerPackage(p *models.Product) float64 {
	if p.UnitsPerPackage <= 0 {
		return 1
	}
	return p.UnitsPerPackage
}

// AvailableUnits: ürünün satılabilir adedi.
// SIMPLE ürün için doğrudan eldeki stok.
// COMPOSITE ürün için kısıtlayıcı reaktan kuralı: her malzemeden kaç birim
// üretilebileceği hesaplanır, en kıt malzeme sonucu belirler. Reçetesiz veya
// boş reçeteli bir COMPOSITE üretilemez, stoğu 0'dır.
func AvailableUnits(p *models.Product) int {
	if p.Kind != models.ProductComposite {
		return int(math.Floor(p.StockOnHand))
	}
	if p.Recipe == nil || len(p.Recipe.Components) == 0 {
		return 0
	}

	maxPossible := math.Inf(1)
	for _, comp := range p.Recipe.Components {
		ing := comp.ComponentProduct
		if ing == nil {
			continue
		}
		// Sıfır veya negatif miktarlı bileşen kısıt oluşturmaz
		if comp.QuantityPerUnit <= 0 {
			continue
		}
		totalBase := ing.StockOnHand * unitsPerPackage(ing)
		possible := math.Floor(totalBase / comp.QuantityPerUnit)
		if possible < maxPossible {
			maxPossible = possible
		}
	}

	if math.IsInf(maxPossible, 1) {
		return 0
	}
	return int(maxPossible)
}

// ConsumptionFor: saleQty adet satışın stok tüketim vektörü.
// SIMPLE: ürünün kendisinden saleQty birim.
// COMPOSITE: her malzeme için baz miktar ambalaj eşdeğerine çevrilir ve float
// kaymasını sınırlamak için 4 ondalık basamağa yuvarlanır.
func ConsumptionFor(p *models.Product, saleQty float64) []Consumption {
	if p.Kind != models.ProductComposite {
		return []Consumption{{ProductID: p.ID, Units: saleQty}}
	}
	// Reçetesiz COMPOSITE hiçbir stok tüketmez (zaten satılabilir adedi 0)
	if p.Recipe == nil {
		return nil
	}

	out := make([]Consumption, 0, len(p.Recipe.Components))
	for _, comp := range p.Recipe.Components {
		ing := comp.ComponentProduct
		if ing == nil {
			continue
		}
		baseUnits := comp.QuantityPerUnit * saleQty
		out = append(out, Consumption{
			ProductID: ing.ID,
			Units:     Round4(baseUnits / unitsPerPackage(ing)),
		})
	}
	return out
}

// AggregateConsumption: sepetin ürün başına toplam ihtiyacını çıkarır. Aynı
// SIMPLE ürün hem doğrudan hem de birden çok kokteylin malzemesi olarak
// tüketiliyorsa ihtiyaçlar toplanır. Doğrudan satışlar satış adedi, malzeme
// tüketimleri baz birim cinsindendir; karşılaştırma stok * ambalaj içeriği
// üzerinden yapılır.
// İkinci dönüş değeri, dokunulan her ürünün (malzemeler dahil) bilgisini taşır.
func AggregateConsumption(lines []models.CartLine, products map[uint]*models.Product) (map[uint]float64, map[uint]*models.Product) {
	required := make(map[uint]float64)
	touched := make(map[uint]*models.Product)

	for _, line := range lines {
		p := products[line.ProductID]
		if p == nil {
			continue
		}
		if p.Kind != models.ProductComposite {
			required[p.ID] += line.Quantity
			touched[p.ID] = p
			continue
		}
		if p.Recipe == nil {
			continue
		}
		for i := range p.Recipe.Components {
			comp := &p.Recipe.Components[i]
			if comp.ComponentProduct == nil {
				continue
			}
			required[comp.ComponentProductID] += comp.QuantityPerUnit * line.Quantity
			if _, ok := touched[comp.ComponentProductID]; !ok {
				touched[comp.ComponentProductID] = comp.ComponentProduct
			}
		}
	}

	return required, touched
}

// TotalBaseAvailable: doğrulamada kullanılan kullanılabilirlik ölçüsü.
func TotalBaseAvailable(p *models.Product) float64 {
	return p.StockOnHand * unitsPerPackage(p)
}

// Round4: 4 ondalık basamağa yuvarlar.
func Round4(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(4).Float64()
	return f
}

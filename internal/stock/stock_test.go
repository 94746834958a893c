package stock

import (
	"testing"

	"barpos-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simpleProduct(id uint, name string, stock, upp float64) *models.Product {
	return &models.Product{
		ID:              id,
		Name:            name,
		Kind:            models.ProductSimple,
		StockOnHand:     stock,
		UnitsPerPackage: upp,
		Active:          true,
	}
}

func compositeProduct(id uint, name string, comps ...models.RecipeComponent) *models.Product {
	return &models.Product{
		ID:     id,
		Name:   name,
		Kind:   models.ProductComposite,
		Active: true,
		Recipe: &models.Recipe{ID: id, ProductID: id, Components: comps},
	}
}

func component(ing *models.Product, qtyPerUnit float64) models.RecipeComponent {
	return models.RecipeComponent{
		ComponentProductID: ing.ID,
		ComponentProduct:   ing,
		QuantityPerUnit:    qtyPerUnit,
	}
}

func TestAvailableUnitsSimple(t *testing.T) {
	p := simpleProduct(1, "Tonik", 10, 1)
	assert.Equal(t, 10, AvailableUnits(p))

	// Kesirli stok aşağı yuvarlanır
	p.StockOnHand = 3.7
	assert.Equal(t, 3, AvailableUnits(p))
}

func TestAvailableUnitsCompositeLimitingIngredient(t *testing.T) {
	gin := simpleProduct(1, "Gin", 2, 750)    // 1500 ml
	tonik := simpleProduct(2, "Tonik", 10, 1) // 10 şişe

	ginTonik := compositeProduct(3, "Gin Tonik",
		component(gin, 60),  // 1500/60 = 25 bardak
		component(tonik, 1), // 10/1 = 10 bardak
	)

	// En kıt malzeme belirler
	assert.Equal(t, 10, AvailableUnits(ginTonik))
}

func TestAvailableUnitsCompositeWithoutRecipe(t *testing.T) {
	p := &models.Product{ID: 1, Kind: models.ProductComposite}
	assert.Equal(t, 0, AvailableUnits(p))

	p.Recipe = &models.Recipe{}
	assert.Equal(t, 0, AvailableUnits(p))
}

func TestAvailableUnitsSkipsZeroQuantityComponents(t *testing.T) {
	buz := simpleProduct(1, "Buz", 100, 1)
	nane := simpleProduct(2, "Nane", 5, 1)

	// Sıfır miktarlı bileşen kısıt oluşturmaz
	mojito := compositeProduct(3, "Mojito",
		component(buz, 0),
		component(nane, 1),
	)
	assert.Equal(t, 5, AvailableUnits(mojito))

	// Tüm bileşenler sıfır miktarlıysa kısıt yok demek değil, üretilemez demek
	garnitur := compositeProduct(4, "Garnitür",
		component(buz, 0),
	)
	assert.Equal(t, 0, AvailableUnits(garnitur))
}

func TestAvailableUnitsTreatsZeroPackageSizeAsOne(t *testing.T) {
	ing := simpleProduct(1, "Şurup", 6, 0)
	p := compositeProduct(2, "Limonata", component(ing, 2))
	assert.Equal(t, 3, AvailableUnits(p))
}

func TestConsumptionForSimple(t *testing.T) {
	p := simpleProduct(1, "Bira", 24, 1)
	cons := ConsumptionFor(p, 3)
	require.Len(t, cons, 1)
	assert.Equal(t, uint(1), cons[0].ProductID)
	assert.Equal(t, 3.0, cons[0].Units)
}

func TestConsumptionForComposite(t *testing.T) {
	gin := simpleProduct(1, "Gin", 2, 750)
	tonik := simpleProduct(2, "Tonik", 10, 1)
	ginTonik := compositeProduct(3, "Gin Tonik",
		component(gin, 60),
		component(tonik, 1),
	)

	cons := ConsumptionFor(ginTonik, 3)
	require.Len(t, cons, 2)

	// 60 ml * 3 / 750 ml = 0.24 şişe
	assert.Equal(t, uint(1), cons[0].ProductID)
	assert.InDelta(t, 0.24, cons[0].Units, 1e-9)
	assert.Equal(t, uint(2), cons[1].ProductID)
	assert.InDelta(t, 3.0, cons[1].Units, 1e-9)
}

func TestConsumptionForCompositeWithoutRecipe(t *testing.T) {
	p := &models.Product{ID: 9, Kind: models.ProductComposite}
	assert.Empty(t, ConsumptionFor(p, 5))
}

func TestConsumptionRoundsToFourDecimals(t *testing.T) {
	ing := simpleProduct(1, "Viski", 5, 700)
	p := compositeProduct(2, "Viski Kola", component(ing, 45))

	cons := ConsumptionFor(p, 1)
	require.Len(t, cons, 1)
	// 45/700 = 0.064285714... → 0.0643
	assert.Equal(t, 0.0643, cons[0].Units)
}

func TestAggregateConsumptionMergesSharedIngredients(t *testing.T) {
	gin := simpleProduct(1, "Gin", 2, 750)
	tonik := simpleProduct(2, "Tonik", 10, 1)
	ginTonik := compositeProduct(3, "Gin Tonik",
		component(gin, 60),
		component(tonik, 1),
	)

	products := map[uint]*models.Product{
		2: tonik,
		3: ginTonik,
	}
	cart := []models.CartLine{
		{ProductID: 3, Name: "Gin Tonik", Quantity: 2},
		{ProductID: 2, Name: "Tonik", Quantity: 3},
	}

	required, touched := AggregateConsumption(cart, products)

	// Tonik hem doğrudan hem malzeme olarak tüketiliyor
	assert.InDelta(t, 5.0, required[2], 1e-9)
	assert.InDelta(t, 120.0, required[1], 1e-9) // 60 ml * 2
	assert.Contains(t, touched, uint(1))
	assert.Contains(t, touched, uint(2))
	assert.NotContains(t, touched, uint(3)) // kokteylin kendisi stok taşımaz
}

func TestAggregateConsumptionSkipsRecipelessComposite(t *testing.T) {
	broken := &models.Product{ID: 7, Kind: models.ProductComposite}
	products := map[uint]*models.Product{7: broken}
	cart := []models.CartLine{{ProductID: 7, Quantity: 1}}

	required, touched := AggregateConsumption(cart, products)
	assert.Empty(t, required)
	assert.Empty(t, touched)
}

func TestTotalBaseAvailable(t *testing.T) {
	assert.Equal(t, 1500.0, TotalBaseAvailable(simpleProduct(1, "Gin", 2, 750)))
	assert.Equal(t, 4.0, TotalBaseAvailable(simpleProduct(2, "Tonik", 4, 0)))
}

func TestRound4(t *testing.T) {
	assert.Equal(t, 0.0643, Round4(45.0/700.0))
	assert.Equal(t, 1.0, Round4(0.99996))
	assert.Equal(t, 0.1, Round4(0.1))
}

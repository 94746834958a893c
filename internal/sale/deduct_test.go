package sale

import (
	"context"
	"errors"
	"testing"

	"barpos-backend/internal/ledger"
	"barpos-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDeductionsClampsAtZero(t *testing.T) {
	mem := ledger.NewMemory()
	mem.SeedProduct(models.Product{
		ID: 1, Name: "Bira", Kind: models.ProductSimple,
		StockOnHand: 3, UnitsPerPackage: 1, Active: true,
	})
	products, err := mem.ProductsByID(context.Background(), []uint{1})
	require.NoError(t, err)

	lines := []models.CartLine{{ProductID: 1, Name: "Bira", Quantity: 5}}
	failed := ApplyDeductions(context.Background(), mem, products, lines, "test")

	// Fazla satış hata değildir, stok 0'a sabitlenir
	assert.Zero(t, failed)
	assert.Equal(t, 0.0, mem.StockOf(1))

	// Hareket istenen miktarı kaydeder, sabitlenmiş farkı değil
	movements := mem.Movements()
	require.Len(t, movements, 1)
	assert.Equal(t, 5.0, movements[0].Quantity)
	assert.Equal(t, models.MovementOut, movements[0].Kind)
}

func TestApplyDeductionsChainsSharedIngredient(t *testing.T) {
	mem := ledger.NewMemory()
	mem.SeedProduct(models.Product{
		ID: 1, Name: "Tonik", Kind: models.ProductSimple,
		StockOnHand: 10, UnitsPerPackage: 1, Active: true,
	})
	mem.SeedProduct(models.Product{
		ID: 2, Name: "Gin Tonik", Kind: models.ProductComposite, Active: true,
		Recipe: &models.Recipe{
			ID: 1, ProductID: 2,
			Components: []models.RecipeComponent{
				{RecipeID: 1, ComponentProductID: 1, QuantityPerUnit: 1},
			},
		},
	})
	products, err := mem.ProductsByID(context.Background(), []uint{1, 2})
	require.NoError(t, err)

	// Aynı ürün hem doğrudan hem malzeme olarak art arda düşülür
	lines := []models.CartLine{
		{ProductID: 1, Name: "Tonik", Quantity: 4},
		{ProductID: 2, Name: "Gin Tonik", Quantity: 3},
	}
	failed := ApplyDeductions(context.Background(), mem, products, lines, "test")

	assert.Zero(t, failed)
	assert.InDelta(t, 3.0, mem.StockOf(1), 1e-9)
	assert.Len(t, mem.Movements(), 2)
}

func TestApplyDeductionsCountsFailuresWithoutAborting(t *testing.T) {
	mem := ledger.NewMemory()
	mem.SeedProduct(models.Product{
		ID: 1, Name: "Bira", Kind: models.ProductSimple,
		StockOnHand: 10, UnitsPerPackage: 1, Active: true,
	})
	mem.SeedProduct(models.Product{
		ID: 2, Name: "Tonik", Kind: models.ProductSimple,
		StockOnHand: 10, UnitsPerPackage: 1, Active: true,
	})
	products, err := mem.ProductsByID(context.Background(), []uint{1, 2})
	require.NoError(t, err)

	mem.UpdateStockHook = func(productID uint, _ float64) error {
		if productID == 1 {
			return errors.New("bağlantı koptu")
		}
		return nil
	}

	lines := []models.CartLine{
		{ProductID: 1, Name: "Bira", Quantity: 2},
		{ProductID: 2, Name: "Tonik", Quantity: 2},
	}
	failed := ApplyDeductions(context.Background(), mem, products, lines, "test")

	// Başarısız satır sayılır ama sonraki satır yine de düşülür
	assert.Equal(t, 1, failed)
	assert.Equal(t, 10.0, mem.StockOf(1))
	assert.Equal(t, 8.0, mem.StockOf(2))
}

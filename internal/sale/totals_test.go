package sale

import (
	"testing"

	"barpos-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestComputeTotalsTaxInclusive(t *testing.T) {
	lines := []models.CartLine{
		{ProductID: 1, Quantity: 2, UnitPrice: 5000},
		{ProductID: 2, Quantity: 1, UnitPrice: 1900},
	}

	totals := ComputeTotals(lines, 0, 0.19)

	assert.Equal(t, 11900.0, totals.Total)
	assert.Equal(t, 10000.0, totals.Net)
	assert.Equal(t, 1900.0, totals.Tax)
	// Net + KDV her zaman tam olarak toplamı eder
	assert.Equal(t, totals.Total, totals.Net+totals.Tax)
}

func TestComputeTotalsDiscount(t *testing.T) {
	lines := []models.CartLine{{ProductID: 1, Quantity: 1, UnitPrice: 10000}}

	totals := ComputeTotals(lines, 2500, 0.19)
	assert.Equal(t, 7500.0, totals.Total)
	assert.Equal(t, 2500.0, totals.Discount)
	assert.Equal(t, totals.Total, totals.Net+totals.Tax)
}

func TestComputeTotalsDiscountFloorsAtZero(t *testing.T) {
	lines := []models.CartLine{{ProductID: 1, Quantity: 1, UnitPrice: 1000}}

	totals := ComputeTotals(lines, 5000, 0.19)
	assert.Equal(t, 0.0, totals.Total)
	assert.Equal(t, 0.0, totals.Net)
	assert.Equal(t, 0.0, totals.Tax)
}

func TestComputeTotalsReconcilesAfterRounding(t *testing.T) {
	// Küsuratlı toplamda bile net + kdv == total değişmezi korunur
	lines := []models.CartLine{{ProductID: 1, Quantity: 3, UnitPrice: 3333}}

	totals := ComputeTotals(lines, 0, 0.19)
	assert.Equal(t, 9999.0, totals.Total)
	assert.Equal(t, totals.Total, totals.Net+totals.Tax)
}

func TestComputeTotalsZeroTaxRate(t *testing.T) {
	lines := []models.CartLine{{ProductID: 1, Quantity: 2, UnitPrice: 750}}

	totals := ComputeTotals(lines, 0, 0)
	assert.Equal(t, 1500.0, totals.Total)
	assert.Equal(t, 1500.0, totals.Net)
	assert.Equal(t, 0.0, totals.Tax)
}

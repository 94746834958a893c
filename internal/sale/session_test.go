package sale

import (
	"testing"

	"barpos-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionAddProductIncrementsExistingLine(t *testing.T) {
	sess := NewSession()
	p := &models.Product{ID: 1, Name: "Bira", UnitPrice: 1500}

	sess.AddProduct(p)
	sess.AddProduct(p)

	require.Len(t, sess.Cart, 1)
	assert.Equal(t, 2.0, sess.Cart[0].Quantity)
	assert.Equal(t, 1500.0, sess.Cart[0].UnitPrice)
}

func TestSessionUpdateQuantityRemovesAtZero(t *testing.T) {
	sess := NewSession()
	sess.AddProduct(&models.Product{ID: 1, Name: "Bira"})
	sess.AddProduct(&models.Product{ID: 2, Name: "Tonik"})

	sess.UpdateQuantity(1, 5)
	assert.Equal(t, 5.0, sess.Cart[0].Quantity)

	sess.UpdateQuantity(1, 0)
	require.Len(t, sess.Cart, 1)
	assert.Equal(t, uint(2), sess.Cart[0].ProductID)
}

func TestSessionItemCount(t *testing.T) {
	sess := NewSession()
	sess.AddProduct(&models.Product{ID: 1})
	sess.AddProduct(&models.Product{ID: 2})
	sess.UpdateQuantity(2, 3)

	assert.Equal(t, 4.0, sess.ItemCount())
}

func TestSessionSetActiveSeatClearsCart(t *testing.T) {
	sess := NewSession()
	sess.AddProduct(&models.Product{ID: 1})

	seatID := uint(4)
	seatNo := 4
	sess.SetActiveSeat(&seatID, &seatNo)

	assert.Empty(t, sess.Cart)
	require.NotNil(t, sess.ActiveSeatID)
	assert.Equal(t, uint(4), *sess.ActiveSeatID)

	// Masa bırakılınca sepet korunur
	sess.AddProduct(&models.Product{ID: 2})
	sess.SetActiveSeat(nil, nil)
	assert.Len(t, sess.Cart, 1)
	assert.Nil(t, sess.ActiveSeatID)
}

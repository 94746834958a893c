package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"barpos-backend/internal/cache"
	"barpos-backend/internal/ledger"
	"barpos-backend/internal/models"
	"barpos-backend/internal/offline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSyncFixture(t *testing.T) (*Reconciler, *ledger.Memory, *offline.Queue, *cache.Projection) {
	t.Helper()

	mem := ledger.NewMemory()
	mem.SeedProduct(models.Product{
		ID: 1, Name: "Bira", Kind: models.ProductSimple,
		StockOnHand: 24, UnitsPerPackage: 1, UnitPrice: 1500, Active: true,
	})
	mem.SeedProduct(models.Product{
		ID: 2, Name: "Gin", Kind: models.ProductSimple,
		StockOnHand: 2, UnitsPerPackage: 750, Active: true,
	})
	mem.SeedProduct(models.Product{
		ID: 3, Name: "Gin Tonik", Kind: models.ProductComposite,
		UnitPrice: 5000, Active: true,
		Recipe: &models.Recipe{
			ID: 1, ProductID: 3,
			Components: []models.RecipeComponent{
				{RecipeID: 1, ComponentProductID: 2, QuantityPerUnit: 60},
			},
		},
	})

	queue, err := offline.NewQueue(offline.NewMemoryKV())
	require.NoError(t, err)

	proj := cache.NewProjection()
	r := New(mem, queue, proj, 3, time.Minute)
	return r, mem, queue, proj
}

func enqueueSale(t *testing.T, queue *offline.Queue, number string, productID uint, qty float64) offline.PendingEntry {
	t.Helper()
	entry, err := queue.Enqueue(offline.SalePayload{
		Header: offline.SaleHeader{
			Number:        number,
			Date:          time.Now(),
			Total:         qty * 1500,
			Subtotal:      qty * 1500,
			PaymentMethod: models.PaymentCash,
			State:         models.SaleCompleted,
		},
		Lines: []models.CartLine{
			{ProductID: productID, Name: "Satır", Quantity: qty, UnitPrice: 1500},
		},
	}, true)
	require.NoError(t, err)
	return entry
}

func TestDrainEmptyQueueIsNoOp(t *testing.T) {
	r, mem, _, _ := newSyncFixture(t)

	report, err := r.Drain(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Succeeded)
	assert.Zero(t, report.Failed)
	assert.Zero(t, report.Remaining)
	assert.Empty(t, mem.Sales())
}

func TestDrainAppliesAllEntries(t *testing.T) {
	r, mem, queue, proj := newSyncFixture(t)

	enqueueSale(t, queue, "off-1", 1, 2)
	enqueueSale(t, queue, "off-2", 1, 3)

	report, err := r.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Succeeded)
	assert.Zero(t, report.Failed)
	assert.Zero(t, report.Remaining)

	sales := mem.Sales()
	require.Len(t, sales, 2)
	assert.Equal(t, "off-1", sales[0].Number)
	assert.Equal(t, models.SaleCompleted, sales[0].State)

	items, err := mem.SaleItems(context.Background(), sales[0].ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	// Stok düşümü çevrimiçi satışla aynı algoritmayla yapılır
	assert.InDelta(t, 19.0, mem.StockOf(1), 1e-9)
	assert.Len(t, mem.Movements(), 2)

	// Kuyruk boşalır, önbellek otoriter veriyle tazelenir
	assert.Zero(t, queue.Len())
	cached, ok := proj.Get(1)
	require.True(t, ok)
	assert.InDelta(t, 19.0, cached.StockOnHand, 1e-9)
}

func TestDrainIsolatesFailures(t *testing.T) {
	r, mem, queue, _ := newSyncFixture(t)

	enqueueSale(t, queue, "off-1", 1, 1)
	bad := enqueueSale(t, queue, "off-2", 1, 1)
	enqueueSale(t, queue, "off-3", 1, 1)

	// Yalnızca ikinci girdi başarısız olur
	mem.InsertSaleHook = func(s *models.Sale) error {
		if s.Number == "off-2" {
			return errors.New("bağlantı zaman aşımı")
		}
		return nil
	}

	report, err := r.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Remaining)
	assert.Zero(t, report.DeadLettered)

	// Başarılı girdiler tam uygulanmıştır
	sales := mem.Sales()
	require.Len(t, sales, 2)
	assert.InDelta(t, 22.0, mem.StockOf(1), 1e-9)

	// Başarısız girdi deneme sayacıyla kuyrukta kalır
	require.Equal(t, 1, queue.Len())
	kept := queue.Entries()[0]
	assert.Equal(t, bad.ID, kept.ID)
	assert.Equal(t, 1, kept.Attempts)
	assert.True(t, kept.NextAttemptAt.After(time.Now()))
}

func TestDrainSkipsBackedOffEntries(t *testing.T) {
	r, mem, queue, _ := newSyncFixture(t)

	entry := enqueueSale(t, queue, "off-1", 1, 1)
	entry.Attempts = 1
	entry.NextAttemptAt = time.Now().Add(time.Hour)
	require.NoError(t, queue.Replace([]offline.PendingEntry{entry}))

	report, err := r.Drain(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Succeeded)
	assert.Zero(t, report.Failed)
	assert.Equal(t, 1, report.Remaining)
	assert.Empty(t, mem.Sales())

	// Zaman ilerleyince girdi tekrar denenir
	r.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	report, err = r.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)
	assert.Zero(t, queue.Len())
}

func TestDrainDeadLettersAfterMaxAttempts(t *testing.T) {
	r, mem, queue, _ := newSyncFixture(t)

	entry := enqueueSale(t, queue, "off-1", 1, 1)
	entry.Attempts = 2 // sınır 3, bu tur son deneme
	require.NoError(t, queue.Replace([]offline.PendingEntry{entry}))

	mem.InsertSaleHook = func(*models.Sale) error {
		return errors.New("kalıcı hata")
	}

	report, err := r.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.DeadLettered)
	assert.Zero(t, report.Remaining)

	// Girdi normal kuyruktan çıkar, ölü kuyrukta incelenmeyi bekler
	assert.Zero(t, queue.Len())
	dead, err := queue.DeadLetters()
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, entry.ID, dead[0].ID)
	assert.Equal(t, 3, dead[0].Attempts)
}

func TestDrainExponentialBackoff(t *testing.T) {
	r, _, _, _ := newSyncFixture(t)

	assert.Equal(t, time.Minute, r.backoff(1))
	assert.Equal(t, 2*time.Minute, r.backoff(2))
	assert.Equal(t, 4*time.Minute, r.backoff(3))
	assert.Equal(t, 8*time.Minute, r.backoff(4))
}

func TestDrainCompositeSaleDeductsIngredients(t *testing.T) {
	r, mem, queue, _ := newSyncFixture(t)

	_, err := queue.Enqueue(offline.SalePayload{
		Header: offline.SaleHeader{
			Number:        "off-gt",
			Date:          time.Now(),
			Total:         10000,
			Subtotal:      8403,
			Tax:           1597,
			PaymentMethod: models.PaymentCard,
			State:         models.SaleCompleted,
		},
		Lines: []models.CartLine{
			{ProductID: 3, Name: "Gin Tonik", Quantity: 2, UnitPrice: 5000},
		},
	}, true)
	require.NoError(t, err)

	report, err := r.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)

	// Kokteylin kendisi değil malzemesi düşülür: 2 - 120/750
	assert.InDelta(t, 1.84, mem.StockOf(2), 1e-9)

	movements := mem.Movements()
	require.Len(t, movements, 1)
	assert.Equal(t, uint(2), movements[0].ProductID)
	assert.Equal(t, models.MovementOut, movements[0].Kind)
}

func TestDrainKeepsSalesEnqueuedMidDrain(t *testing.T) {
	r, mem, queue, _ := newSyncFixture(t)

	enqueueSale(t, queue, "off-1", 1, 2)

	// Başka bir handler oynatma sırasında yeni bir satış kuyruğa ekler: turun
	// sonucu yazılırken bu girdi kaybolmamalı.
	mem.InsertSaleHook = func(s *models.Sale) error {
		if s.Number == "off-1" {
			enqueueSale(t, queue, "off-mid", 1, 1)
		}
		return nil
	}

	report, err := r.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)

	entries := queue.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "off-mid", entries[0].Payload.Header.Number)

	// İkinci tur kalan satışı uygular.
	mem.InsertSaleHook = nil
	report, err = r.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)
	assert.Zero(t, queue.Len())
	assert.Len(t, mem.Sales(), 2)
}

// deadLetterFaultKV: yalnızca ölü kuyruk anahtarının yazımını reddeder.
type deadLetterFaultKV struct {
	offline.KV
}

func (f *deadLetterFaultKV) Set(key, value string) error {
	if key == "deadLetterTransactions" {
		return errors.New("disk dolu")
	}
	return f.KV.Set(key, value)
}

func TestDrainRetainsEntryWhenDeadLetterWriteFails(t *testing.T) {
	mem := ledger.NewMemory()
	mem.SeedProduct(models.Product{
		ID: 1, Name: "Bira", Kind: models.ProductSimple,
		StockOnHand: 24, UnitsPerPackage: 1, UnitPrice: 1500, Active: true,
	})
	mem.InsertSaleHook = func(*models.Sale) error {
		return errors.New("bağlantı koptu")
	}

	queue, err := offline.NewQueue(&deadLetterFaultKV{KV: offline.NewMemoryKV()})
	require.NoError(t, err)
	r := New(mem, queue, cache.NewProjection(), 3, time.Minute)

	entry := enqueueSale(t, queue, "off-dead", 1, 2)
	entry.Attempts = 2
	require.NoError(t, queue.Replace([]offline.PendingEntry{entry}))

	report, err := r.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Zero(t, report.DeadLettered)
	assert.Equal(t, 1, report.Remaining)

	// Ölü kuyruğa yazılamayan girdi ana kuyrukta kalır: satışın tek kopyası
	// hiçbir koşulda silinmez.
	entries := queue.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, entry.ID, entries[0].ID)
	assert.Equal(t, 3, entries[0].Attempts)
	assert.True(t, entries[0].NextAttemptAt.After(time.Now()))

	deads, err := queue.DeadLetters()
	require.NoError(t, err)
	assert.Empty(t, deads)
}

package syncer

import (
	"context"
	"fmt"
	"time"

	"barpos-backend/internal/cache"
	"barpos-backend/internal/ledger"
	"barpos-backend/internal/models"
	"barpos-backend/internal/offline"
	"barpos-backend/internal/sale"

	"github.com/sirupsen/logrus"
)

// Report: bir senkronizasyon turunun özeti, kullanıcı bildirimi için.
type Report struct {
	Succeeded    int `json:"succeeded"`
	Failed       int `json:"failed"`
	Remaining    int `json:"remaining"`
	DeadLettered int `json:"dead_lettered"`
}

func (r Report) Summary() string {
	return fmt.Sprintf("%d satış senkronize edildi, %d başarısız, %d beklemede",
		r.Succeeded, r.Failed, r.Remaining)
}

// Reconciler: bağlantı geri gelince çevrimdışı kuyruğu otoriter depoya karşı
// oynatır. Her girdi bağımsızdır: biri başarısız olursa sıradaki işlenmeye
// devam eder, başarısız girdi bir sonraki tur için kuyrukta kalır.
//
// Yeniden deneme üstel geri çekilmelidir ve sınırlıdır: deneme sınırını aşan
// girdi ölü kuyruğa taşınır ki deterministik olarak bozuk bir satış (örneğin
// silinmiş bir ürüne referans) kuyruğu sonsuza dek bloklamasın.
type Reconciler struct {
	ledger      ledger.Client
	queue       *offline.Queue
	projection  *cache.Projection
	maxAttempts int
	baseBackoff time.Duration

	// now: testlerde zaman ilerletebilmek için değiştirilebilir.
	now func() time.Time
}

func New(cl ledger.Client, queue *offline.Queue, proj *cache.Projection, maxAttempts int, baseBackoff time.Duration) *Reconciler {
	if maxAttempts <= 0 {
		maxAttempts = 8
	}
	if baseBackoff <= 0 {
		baseBackoff = 30 * time.Second
	}
	return &Reconciler{
		ledger:      cl,
		queue:       queue,
		projection:  proj,
		maxAttempts: maxAttempts,
		baseBackoff: baseBackoff,
		now:         time.Now,
	}
}

// Drain: kuyruğu bir tur işler. Boş kuyrukta no-op'tur ve istenildiği kadar
// tekrar çağrılabilir.
func (r *Reconciler) Drain(ctx context.Context) (Report, error) {
	entries := r.queue.Entries()
	if len(entries) == 0 {
		return Report{}, nil
	}

	logrus.WithField("pending", len(entries)).Info("Bekleyen satışlar senkronize ediliyor")

	var report Report
	var drop []string
	var updated []offline.PendingEntry
	var dead []offline.PendingEntry
	now := r.now()

	for _, entry := range entries {
		// Geri çekilme süresi dolmamış girdiler bu turda denenmez.
		if entry.NextAttemptAt.After(now) {
			report.Remaining++
			continue
		}

		if err := r.apply(ctx, entry); err != nil {
			logrus.WithError(err).WithField("entry_id", entry.ID).
				Warn("Satış senkronize edilemedi")
			report.Failed++
			entry.Attempts++
			if entry.Attempts >= r.maxAttempts {
				dead = append(dead, entry)
				continue
			}
			entry.NextAttemptAt = now.Add(r.backoff(entry.Attempts))
			report.Remaining++
			updated = append(updated, entry)
			continue
		}

		report.Succeeded++
		drop = append(drop, entry.ID)
	}

	// Ölü kuyruk önce yazılır: girdi ancak kopyası başka bir anahtarda kalıcı
	// olduktan sonra ana kuyruktan düşülür. Yazım başarısız olursa girdiler
	// kuyrukta kalır ve bir sonraki turda tekrar denenir.
	if len(dead) > 0 {
		if err := r.queue.DeadLetter(dead); err != nil {
			logrus.WithError(err).Error("Ölü kuyruk yazılamadı, girdiler kuyrukta tutuluyor")
			for _, entry := range dead {
				entry.NextAttemptAt = now.Add(r.backoff(entry.Attempts))
				report.Remaining++
				updated = append(updated, entry)
			}
		} else {
			report.DeadLettered = len(dead)
			for _, entry := range dead {
				drop = append(drop, entry.ID)
			}
		}
	}

	// Yalnızca bu turda ele alınan girdiler güncellenir; tur sırasında kuyruğa
	// eklenen satışlar olduğu gibi kalır.
	if err := r.queue.Resolve(drop, updated); err != nil {
		return report, fmt.Errorf("kuyruk durumu yazılamadı: %w", err)
	}

	// En az bir satış uygulandıysa iyimser yerel değerler çöpe gider: önbellek
	// otoriter depodan toptan tazelenir. Yerel matematik ile otoriter düşüm
	// (yuvarlama, diğer terminallerin eşzamanlı satışları) ayrışabilir.
	if report.Succeeded > 0 {
		if all, err := r.ledger.AllProducts(ctx); err != nil {
			logrus.WithError(err).Warn("Senkronizasyon sonrası önbellek tazelenemedi")
		} else {
			r.projection.ReplaceAll(all)
		}
	}

	logrus.Info(report.Summary())
	return report, nil
}

// apply: tek bir kuyruk girdisini uzak depoya uygular: başlık, satırlar ve
// çevrimiçi yol ile aynı stok düşüm algoritması. Başlık veya satır yazımı
// başarısız olursa girdi bir sonraki tura kalır; satış kalıcılaştıktan sonraki
// satır bazlı düşüm hataları girdiyi başarısız saymaz (satış önceliklidir,
// sapma hareket kayıtlarından geri kazanılır).
func (r *Reconciler) apply(ctx context.Context, entry offline.PendingEntry) error {
	h := entry.Payload.Header
	pm := h.PaymentMethod
	saleRow := &models.Sale{
		Number:        h.Number,
		Date:          h.Date,
		Subtotal:      h.Subtotal,
		Tax:           h.Tax,
		Total:         h.Total,
		Discount:      h.Discount,
		PaymentMethod: &pm,
		State:         h.State,
		CustomerName:  h.CustomerName,
		SeatID:        h.SeatID,
	}
	if err := r.ledger.InsertSale(ctx, saleRow); err != nil {
		return fmt.Errorf("satış başlığı eklenemedi: %w", err)
	}

	items := make([]models.SaleItem, 0, len(entry.Payload.Lines))
	for _, line := range entry.Payload.Lines {
		items = append(items, models.SaleItem{
			SaleID:      saleRow.ID,
			ProductID:   line.ProductID,
			ProductName: line.Name,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Subtotal:    line.UnitPrice * line.Quantity,
			UnitCost:    line.UnitCost,
		})
	}
	if err := r.ledger.InsertSaleItems(ctx, items); err != nil {
		return fmt.Errorf("satış satırları eklenemedi: %w", err)
	}

	// Ürünler güncel reçeteleriyle yeniden çözülür: kuyrukta bekleyen satış,
	// satış anındaki değil depodaki güncel yapıya göre düşülür.
	ids := make([]uint, 0, len(entry.Payload.Lines))
	for _, line := range entry.Payload.Lines {
		ids = append(ids, line.ProductID)
	}
	products, err := r.ledger.ProductsByID(ctx, ids)
	if err != nil {
		return fmt.Errorf("ürünler okunamadı: %w", err)
	}

	note := fmt.Sprintf("Senkronize çevrimdışı satış #%d", saleRow.ID)
	if failed := sale.ApplyDeductions(ctx, r.ledger, products, entry.Payload.Lines, note); failed > 0 {
		logrus.WithFields(logrus.Fields{"sale_id": saleRow.ID, "failed": failed}).
			Warn("Senkronizasyonda bazı stok düşümleri başarısız")
	}

	return nil
}

// backoff: attempt 1 → base, sonra her denemede iki katı.
func (r *Reconciler) backoff(attempt int) time.Duration {
	d := r.baseBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	return d
}

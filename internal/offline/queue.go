package offline

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"barpos-backend/internal/models"

	"github.com/google/uuid"
)

const (
	queueKey      = "pendingTransactions"
	deadLetterKey = "deadLetterTransactions"
)

// SaleHeader: kuyruğa alınan satışın başlık verisi. Uzak depoya yazılana kadar
// veritabanı kimliği yoktur, Number istemci tarafında üretilen UUID'dir.
type SaleHeader struct {
	Number        string               `json:"number"`
	Date          time.Time            `json:"date"`
	Subtotal      float64              `json:"subtotal"`
	Tax           float64              `json:"tax"`
	Total         float64              `json:"total"`
	Discount      float64              `json:"discount"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	State         models.SaleState     `json:"state"`
	CustomerName  string               `json:"customer_name"`
	SeatID        *uint                `json:"seat_id,omitempty"`
}

type SalePayload struct {
	Header SaleHeader        `json:"header"`
	Lines  []models.CartLine `json:"lines"`
}

// PendingEntry: bağlantı yokken kaydedilmiş, uzak depoya uygulanmayı bekleyen
// satış. Yalnızca senkronizasyon başarıyla tamamlanınca kuyruktan düşer.
type PendingEntry struct {
	ID        string      `json:"id"`
	CreatedAt time.Time   `json:"created_at"`
	Payload   SalePayload `json:"payload"`
	// StockAlreadyApplied: iyimser yerel düşüm yapıldığını işaretler.
	// Uzak depodaki düşüm hâlâ gereklidir; bayrak niyetin kaydıdır,
	// uzak durumun değil.
	StockAlreadyApplied bool `json:"stock_already_applied"`
	// Attempts / NextAttemptAt: senkronizasyon yeniden deneme durumu.
	Attempts      int       `json:"attempts"`
	NextAttemptAt time.Time `json:"next_attempt_at"`
}

// Queue: bağlantı yokken üretilen satışların kalıcı, ekleme sıralı kuyruğu.
// Her değişiklik kuyruğun tamamını senkron olarak yerel depoya yazar.
// HTTP handler'ları ile senkronizasyon eşzamanlı eriştiğinden tüm durum tek
// mutex'in arkasındadır.
type Queue struct {
	mu      sync.Mutex
	store   KV
	entries []PendingEntry
}

// NewQueue: kuyruğu yerel depodan yükler (yeniden başlatma sonrası kaldığı
// yerden devam eder).
func NewQueue(store KV) (*Queue, error) {
	q := &Queue{store: store}
	raw, err := store.Get(queueKey)
	if err != nil {
		return nil, fmt.Errorf("kuyruk yüklenemedi: %w", err)
	}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &q.entries); err != nil {
			return nil, fmt.Errorf("kuyruk çözümlenemedi: %w", err)
		}
	}
	return q, nil
}

// Enqueue: yeni bekleyen satışı kuyruğa ekler ve hemen kalıcılaştırır.
// Kalıcılaştırma başarısız olursa ekleme geri alınır: çağıran hatayı görüp
// satışı yeniden deneyecektir, bellekte kalan bir hayalet girdi aynı satışı
// ikinci kez senkronize ederdi.
func (q *Queue) Enqueue(payload SalePayload, stockAlreadyApplied bool) (PendingEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry := PendingEntry{
		ID:                  uuid.NewString(),
		CreatedAt:           time.Now(),
		Payload:             payload,
		StockAlreadyApplied: stockAlreadyApplied,
	}
	q.entries = append(q.entries, entry)
	if err := q.saveLocked(); err != nil {
		q.entries = q.entries[:len(q.entries)-1]
		return PendingEntry{}, err
	}
	return entry, nil
}

// Entries: ekleme sırasıyla kopya döner.
func (q *Queue) Entries() []PendingEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]PendingEntry, len(q.entries))
	copy(out, q.entries)
	return out
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Replace: kuyruk durumunu toptan yazar. Test kurulumu ve yeniden deneme
// alanlarının elle ayarlanması içindir; senkronizasyon sonuçları Resolve ile
// uygulanır, toptan yazım oynatma sırasında eklenen girdileri ezerdi.
func (q *Queue) Replace(entries []PendingEntry) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = entries
	return q.saveLocked()
}

// Resolve: bir senkronizasyon turunun sonucunu kuyruğa uygular: drop ID'leri
// (başarılı ya da ölü kuyruğa taşınmış girdiler) düşülür, updated girdiler
// (yeni deneme sayacı ve geri çekilme zamanıyla) yerinde değiştirilir. Tur
// sırasında kuyruğa eklenen girdilere dokunulmaz; bir girdi yalnızca uzak
// depoya uygulandığı doğrulanınca kuyruktan çıkar.
func (q *Queue) Resolve(drop []string, updated []PendingEntry) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	dropSet := make(map[string]struct{}, len(drop))
	for _, id := range drop {
		dropSet[id] = struct{}{}
	}
	upd := make(map[string]PendingEntry, len(updated))
	for _, e := range updated {
		upd[e.ID] = e
	}

	kept := q.entries[:0]
	for _, e := range q.entries {
		if _, ok := dropSet[e.ID]; ok {
			continue
		}
		if u, ok := upd[e.ID]; ok {
			e = u
		}
		kept = append(kept, e)
	}
	q.entries = kept
	return q.saveLocked()
}

// DeadLetter: deneme sınırını aşan girdileri ölü kuyruğa taşır. Ölü girdiler
// normal senkronizasyonu bloklamaz, manuel inceleme için saklanır.
func (q *Queue) DeadLetter(entries []PendingEntry) error {
	if len(entries) == 0 {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	existing, err := q.deadLettersLocked()
	if err != nil {
		return err
	}
	existing = append(existing, entries...)
	data, err := json.Marshal(existing)
	if err != nil {
		return fmt.Errorf("ölü kuyruk serileştirilemedi: %w", err)
	}
	return q.store.Set(deadLetterKey, string(data))
}

func (q *Queue) DeadLetters() ([]PendingEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.deadLettersLocked()
}

func (q *Queue) deadLettersLocked() ([]PendingEntry, error) {
	raw, err := q.store.Get(deadLetterKey)
	if err != nil {
		return nil, err
	}
	var entries []PendingEntry
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &entries); err != nil {
			return nil, fmt.Errorf("ölü kuyruk çözümlenemedi: %w", err)
		}
	}
	return entries, nil
}

func (q *Queue) saveLocked() error {
	data, err := json.Marshal(q.entries)
	if err != nil {
		return fmt.Errorf("kuyruk serileştirilemedi: %w", err)
	}
	if err := q.store.Set(queueKey, string(data)); err != nil {
		return fmt.Errorf("kuyruk kaydedilemedi: %w", err)
	}
	return nil
}

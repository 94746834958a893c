package sale

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"barpos-backend/internal/cache"
	"barpos-backend/internal/ledger"
	"barpos-backend/internal/models"
	"barpos-backend/internal/offline"
	"barpos-backend/internal/stock"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Processor: sepeti kalıcı bir satışa ve tutarlı bir stok düşümüne çeviren tek
// yetkili. Cihaz başına tek örnek oluşturulur; mutex satışları sıralar, bir
// satış doğrulama/commit aşamasındayken ikincisi başlayamaz.
type Processor struct {
	mu         sync.Mutex
	ledger     ledger.Client
	projection *cache.Projection
	queue      *offline.Queue
	monitor    *offline.Monitor
	taxRate    float64
}

func NewProcessor(cl ledger.Client, proj *cache.Projection, queue *offline.Queue, monitor *offline.Monitor, taxRate float64) *Processor {
	return &Processor{
		ledger:     cl,
		projection: proj,
		queue:      queue,
		monitor:    monitor,
		taxRate:    taxRate,
	}
}

func (p *Processor) TaxRate() float64 {
	return p.taxRate
}

// ProcessSale: satış akışının tamamı. Çevrimdışıysa satış kuyruğa alınır ve
// yerel önbellek iyimser olarak düşülür; çevrimiçiyse doğrula → toplamları
// hesapla → başlık/satırları yaz → stok düş → sepeti temizle.
func (p *Processor) ProcessSale(ctx context.Context, sess *Session, method models.PaymentMethod, customerName string, discount float64) (*models.Sale, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(sess.Cart) == 0 {
		return nil, &ValidationError{Reason: "Sepet boş"}
	}
	for _, line := range sess.Cart {
		if line.Quantity <= 0 {
			return nil, &ValidationError{Reason: fmt.Sprintf("Geçersiz miktar: %s", line.Name)}
		}
	}
	if discount < 0 {
		return nil, &ValidationError{Reason: "İndirim negatif olamaz"}
	}

	if !p.monitor.IsOnline() {
		return p.processOffline(sess, method, customerName, discount)
	}

	// 1. Doğrulama: dokunulan her ürün için otoriter stok tek toplu okumayla
	// gelir; ilk karşılanamayan ihtiyaçta hiçbir yazma yapılmadan reddedilir.
	cartIDs := make([]uint, 0, len(sess.Cart))
	for _, line := range sess.Cart {
		cartIDs = append(cartIDs, line.ProductID)
	}
	products, err := p.ledger.ProductsByID(ctx, cartIDs)
	if err != nil {
		return nil, &RemoteOperationError{Op: "ürün okuma", Err: err}
	}

	required, touched := stock.AggregateConsumption(sess.Cart, products)
	checkIDs := make([]uint, 0, len(required))
	for id := range required {
		checkIDs = append(checkIDs, id)
	}
	sort.Slice(checkIDs, func(i, j int) bool { return checkIDs[i] < checkIDs[j] })
	for _, id := range checkIDs {
		info := touched[id]
		if info == nil {
			continue
		}
		available := stock.TotalBaseAvailable(info)
		if available < required[id] {
			return nil, &InsufficientStockError{
				ProductID:   id,
				ProductName: info.Name,
				Required:    required[id],
				Available:   available,
			}
		}
	}

	// 2. Toplamlar (KDV dahil fiyatlandırma)
	totals := ComputeTotals(sess.Cart, discount, p.taxRate)

	// 3. Başlık + satırlar
	var saleRow *models.Sale
	if sess.ActiveSeatID != nil {
		saleRow, err = p.commitSeatSale(ctx, sess, method, customerName, totals)
	} else {
		saleRow, err = p.commitDirectSale(ctx, sess, method, customerName, totals)
	}
	if err != nil {
		return nil, err
	}

	// 4. Stok düşümü: satış kaydı artık kalıcı, buradan sonraki hatalar satır
	// bazında loglanır ama satışı geri almaz.
	if failed := ApplyDeductions(ctx, p.ledger, products, sess.Cart, fmt.Sprintf("POS satışı #%d", saleRow.ID)); failed > 0 {
		logrus.WithFields(logrus.Fields{"sale_id": saleRow.ID, "failed": failed}).
			Warn("Bazı stok düşümleri başarısız, hareket kayıtlarını kontrol edin")
	}

	// 5. Sonlandırma: masa serbest, önbellek otoriter veriyle tazelenir,
	// sepet temizlenir.
	if sess.ActiveSeatID != nil {
		if err := p.ledger.UpdateSeatStatus(ctx, *sess.ActiveSeatID, models.SeatFree); err != nil {
			logrus.WithError(err).Warn("Masa durumu güncellenemedi")
		}
	}
	p.refreshProjection(ctx)
	sess.Clear()
	sess.ActiveSeatID = nil
	sess.ActiveSeatNumber = nil

	return saleRow, nil
}

// commitDirectSale: serbest satış, doğrudan COMPLETED olarak yazılır.
func (p *Processor) commitDirectSale(ctx context.Context, sess *Session, method models.PaymentMethod, customerName string, totals Totals) (*models.Sale, error) {
	if customerName == "" {
		customerName = "Genel Müşteri"
	}
	saleRow := &models.Sale{
		Number:        uuid.NewString(),
		Date:          time.Now(),
		Subtotal:      totals.Net,
		Tax:           totals.Tax,
		Total:         totals.Total,
		Discount:      totals.Discount,
		PaymentMethod: &method,
		State:         models.SaleCompleted,
		CustomerName:  customerName,
	}
	if err := p.ledger.InsertSale(ctx, saleRow); err != nil {
		return nil, &RemoteOperationError{Op: "satış başlığı", Err: err}
	}
	if err := p.ledger.InsertSaleItems(ctx, buildItems(saleRow.ID, sess.Cart)); err != nil {
		return nil, &RemoteOperationError{Op: "satış satırları", Err: err}
	}
	return saleRow, nil
}

// commitSeatSale: masadaki açık (PENDING) adisyon bulunur, satırları toptan
// değiştirilir ve son toplamlarla COMPLETED durumuna geçirilir.
func (p *Processor) commitSeatSale(ctx context.Context, sess *Session, method models.PaymentMethod, customerName string, totals Totals) (*models.Sale, error) {
	seatID := *sess.ActiveSeatID
	existing, err := p.ledger.PendingSaleBySeat(ctx, seatID)
	if err != nil {
		return nil, &RemoteOperationError{Op: "adisyon okuma", Err: err}
	}
	if existing == nil {
		return nil, &NoOpenTabError{SeatID: seatID}
	}

	existing.State = models.SaleCompleted
	existing.PaymentMethod = &method
	existing.CustomerName = customerName
	existing.Subtotal = totals.Net
	existing.Tax = totals.Tax
	existing.Total = totals.Total
	existing.Discount = totals.Discount
	existing.Date = time.Now()
	if err := p.ledger.UpdateSale(ctx, existing); err != nil {
		return nil, &RemoteOperationError{Op: "adisyon kapama", Err: err}
	}

	if err := p.ledger.DeleteSaleItems(ctx, existing.ID); err != nil {
		return nil, &RemoteOperationError{Op: "adisyon satırları silme", Err: err}
	}
	if err := p.ledger.InsertSaleItems(ctx, buildItems(existing.ID, sess.Cart)); err != nil {
		return nil, &RemoteOperationError{Op: "adisyon satırları", Err: err}
	}
	return existing, nil
}

// processOffline: satış kuyruğa alınır ve yerel önbellek iyimser düşülür.
// Bu yol canlı stoğa karşı yeniden doğrulama YAPMAZ; çevrimiçi yol ile bilinen
// bir ayrışmadır, düşüm 0 tabanına sabitlenerek telafi edilir.
func (p *Processor) processOffline(sess *Session, method models.PaymentMethod, customerName string, discount float64) (*models.Sale, error) {
	totals := ComputeTotals(sess.Cart, discount, p.taxRate)
	if customerName == "" {
		customerName = "Genel Müşteri"
	}

	header := offline.SaleHeader{
		Number:        uuid.NewString(),
		Date:          time.Now(),
		Subtotal:      totals.Net,
		Tax:           totals.Tax,
		Total:         totals.Total,
		Discount:      totals.Discount,
		PaymentMethod: method,
		State:         models.SaleCompleted,
		CustomerName:  customerName,
		SeatID:        sess.ActiveSeatID,
	}
	lines := make([]models.CartLine, len(sess.Cart))
	copy(lines, sess.Cart)

	// stockAlreadyApplied=true: aşağıdaki düşüm yalnızca yerel önbellekte,
	// uzak depodaki düşümü senkronizasyon yapacak.
	if _, err := p.queue.Enqueue(offline.SalePayload{Header: header, Lines: lines}, true); err != nil {
		return nil, fmt.Errorf("çevrimdışı kuyruğa yazılamadı: %w", err)
	}

	p.applyOptimistic(lines)

	sess.Clear()
	sess.ActiveSeatID = nil
	sess.ActiveSeatNumber = nil

	pm := method
	return &models.Sale{
		Number:        header.Number,
		Date:          header.Date,
		Subtotal:      header.Subtotal,
		Tax:           header.Tax,
		Total:         header.Total,
		Discount:      header.Discount,
		PaymentMethod: &pm,
		State:         models.SaleCompleted,
		CustomerName:  customerName,
	}, nil
}

// applyOptimistic: satılan miktarları yalnızca yerel önbellekten düşer, UI
// senkronizasyondan önce de azalan stoğu görsün diye.
func (p *Processor) applyOptimistic(lines []models.CartLine) {
	for _, line := range lines {
		prod, ok := p.projection.Get(line.ProductID)
		if !ok {
			continue
		}
		if prod.Kind != models.ProductComposite {
			p.projection.SetStock(prod.ID, math.Max(0, prod.StockOnHand-line.Quantity))
			continue
		}
		if prod.Recipe == nil {
			continue
		}
		for i := range prod.Recipe.Components {
			comp := &prod.Recipe.Components[i]
			ing, ok := p.projection.Get(comp.ComponentProductID)
			if !ok {
				continue
			}
			upp := ing.UnitsPerPackage
			if upp <= 0 {
				upp = 1
			}
			units := comp.QuantityPerUnit * line.Quantity / upp
			p.projection.SetStock(ing.ID, math.Max(0, stock.Round4(ing.StockOnHand-units)))
		}
	}
}

// ParkOrder: sepeti masanın açık adisyonu olarak kaydeder; adisyon yoksa
// PENDING bir satış açılır, varsa satırları toptan değiştirilir. Stok bu
// aşamada düşülmez, tahsilatta düşülür.
func (p *Processor) ParkOrder(ctx context.Context, sess *Session) (*models.Sale, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if sess.ActiveSeatID == nil {
		return nil, &ValidationError{Reason: "Masa seçili değil"}
	}
	if len(sess.Cart) == 0 {
		return nil, &ValidationError{Reason: "Sepet boş"}
	}

	seatID := *sess.ActiveSeatID
	totals := ComputeTotals(sess.Cart, 0, p.taxRate)

	saleRow, err := p.ledger.PendingSaleBySeat(ctx, seatID)
	if err != nil {
		return nil, &RemoteOperationError{Op: "adisyon okuma", Err: err}
	}
	if saleRow == nil {
		saleRow = &models.Sale{
			Number:   uuid.NewString(),
			Date:     time.Now(),
			Subtotal: totals.Net,
			Tax:      totals.Tax,
			Total:    totals.Total,
			State:    models.SalePending,
			SeatID:   &seatID,
		}
		if err := p.ledger.InsertSale(ctx, saleRow); err != nil {
			return nil, &RemoteOperationError{Op: "adisyon açma", Err: err}
		}
	} else {
		saleRow.Subtotal = totals.Net
		saleRow.Tax = totals.Tax
		saleRow.Total = totals.Total
		saleRow.Date = time.Now()
		if err := p.ledger.UpdateSale(ctx, saleRow); err != nil {
			return nil, &RemoteOperationError{Op: "adisyon güncelleme", Err: err}
		}
		if err := p.ledger.DeleteSaleItems(ctx, saleRow.ID); err != nil {
			return nil, &RemoteOperationError{Op: "adisyon satırları silme", Err: err}
		}
	}

	if err := p.ledger.InsertSaleItems(ctx, buildItems(saleRow.ID, sess.Cart)); err != nil {
		return nil, &RemoteOperationError{Op: "adisyon satırları", Err: err}
	}
	if err := p.ledger.UpdateSeatStatus(ctx, seatID, models.SeatOccupied); err != nil {
		logrus.WithError(err).Warn("Masa durumu güncellenemedi")
	}

	// Sepet temizlenmez: kullanıcı adisyonu düzenlemeye devam edebilir.
	return saleRow, nil
}

// CancelSeatOrder: masanın açık adisyonunu iptal eder ve masayı serbest
// bırakır. Park edilmiş adisyonlarda stok düşülmediğinden iade gerekmez.
func (p *Processor) CancelSeatOrder(ctx context.Context, sess *Session) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if sess.ActiveSeatID == nil {
		return &ValidationError{Reason: "Masa seçili değil"}
	}
	seatID := *sess.ActiveSeatID

	existing, err := p.ledger.PendingSaleBySeat(ctx, seatID)
	if err != nil {
		return &RemoteOperationError{Op: "adisyon okuma", Err: err}
	}
	if existing != nil {
		existing.State = models.SaleCancelled
		if err := p.ledger.UpdateSale(ctx, existing); err != nil {
			return &RemoteOperationError{Op: "adisyon iptali", Err: err}
		}
	}

	if err := p.ledger.UpdateSeatStatus(ctx, seatID, models.SeatFree); err != nil {
		logrus.WithError(err).Warn("Masa durumu güncellenemedi")
	}

	sess.Clear()
	sess.ActiveSeatID = nil
	sess.ActiveSeatNumber = nil
	return nil
}

// LoadSeatOrder: masanın açık adisyonunu sepete yükler. Adisyon yoksa sepet
// boş başlar ve false döner.
func (p *Processor) LoadSeatOrder(ctx context.Context, sess *Session, seatID uint, seatNumber int) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sess.SetActiveSeat(&seatID, &seatNumber)

	existing, err := p.ledger.PendingSaleBySeat(ctx, seatID)
	if err != nil {
		return false, &RemoteOperationError{Op: "adisyon okuma", Err: err}
	}
	if existing == nil {
		return false, nil
	}

	items, err := p.ledger.SaleItems(ctx, existing.ID)
	if err != nil {
		return false, &RemoteOperationError{Op: "adisyon satırları okuma", Err: err}
	}
	cart := make([]models.CartLine, 0, len(items))
	for _, it := range items {
		cart = append(cart, models.CartLine{
			ProductID: it.ProductID,
			Name:      it.ProductName,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			UnitCost:  it.UnitCost,
		})
	}
	sess.Cart = cart
	return true, nil
}

func (p *Processor) refreshProjection(ctx context.Context) {
	all, err := p.ledger.AllProducts(ctx)
	if err != nil {
		logrus.WithError(err).Warn("Ürün önbelleği tazelenemedi")
		return
	}
	p.projection.ReplaceAll(all)
}

func buildItems(saleID uint, lines []models.CartLine) []models.SaleItem {
	items := make([]models.SaleItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.SaleItem{
			SaleID:      saleID,
			ProductID:   line.ProductID,
			ProductName: line.Name,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Subtotal:    line.UnitPrice * line.Quantity,
			UnitCost:    line.UnitCost,
		})
	}
	return items
}

package sale

import "fmt"

// ValidationError: hiçbir I/O yapılmadan reddedilen istek (boş sepet, geçersiz
// miktar). Çağıran düzeltip yeniden deneyebilir.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// InsufficientStockError: ilk karşılanamayan ihtiyaçta, herhangi bir yazma
// yapılmadan döner. Kullanıcı sepeti düzeltmeden yeniden deneme anlamsızdır.
type InsufficientStockError struct {
	ProductID   uint
	ProductName string
	Required    float64
	Available   float64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Yetersiz stok: %s (gerekli: %.4g, mevcut: %.4g)",
		e.ProductName, e.Required, e.Available)
}

// NoOpenTabError: masa satış yolunda, masada açık adisyon yoksa döner.
type NoOpenTabError struct {
	SeatID uint
}

func (e *NoOpenTabError) Error() string {
	return fmt.Sprintf("Masa için açık adisyon bulunamadı (masa: %d)", e.SeatID)
}

// RemoteOperationError: uzak depoya giden bir okuma/yazmanın başarısızlığı.
// Doğrulama ve başlık yazımı sırasında satışın tamamını iptal eder; satır
// bazlı stok düşümü sırasında ise loglanıp geçilir, satış geçerli kalır.
type RemoteOperationError struct {
	Op  string
	Err error
}

func (e *RemoteOperationError) Error() string {
	return fmt.Sprintf("Uzak depo hatası (%s): %v", e.Op, e.Err)
}

func (e *RemoteOperationError) Unwrap() error {
	return e.Err
}

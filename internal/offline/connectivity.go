package offline

import "sync"

// Monitor: cihazın çevrimiçi/çevrimdışı durumu. Kenar tetiklemelidir: geri
// çağırmalar yalnızca durum değiştiğinde çalışır, tekrarlanan aynı değer
// no-op'tur. Kimse yoklama yapmaz, durumu bağlantı sinyalinin sahibi bildirir.
type Monitor struct {
	mu        sync.Mutex
	online    bool
	onOnline  []func()
	onOffline []func()
}

func NewMonitor(initial bool) *Monitor {
	return &Monitor{online: initial}
}

func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// OnOnline: çevrimdışı → çevrimiçi geçişinde çağrılacak fonksiyonu kaydeder.
func (m *Monitor) OnOnline(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onOnline = append(m.onOnline, fn)
}

func (m *Monitor) OnOffline(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onOffline = append(m.onOffline, fn)
}

// SetOnline: durumu günceller. Geri çağırmalar kilidin dışında, kayıt
// sırasıyla çalıştırılır.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	var callbacks []func()
	if online {
		callbacks = append(callbacks, m.onOnline...)
	} else {
		callbacks = append(callbacks, m.onOffline...)
	}
	m.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort    string
	DatabaseDSN string
	JWTSecret   string
	CORSOrigins string

	TaxRate          float64       // KDV oranı (fiyatlara dahil)
	OfflineStorePath string        // Çevrimdışı kuyruğun SQLite dosya yolu
	SyncMaxAttempts  int           // Girdi başına senkronizasyon deneme sınırı
	SyncBackoffBase  time.Duration // İlk yeniden deneme gecikmesi
}

func Load() *Config {
	// .env varsa yüklenir, yoksa ortam değişkenleriyle devam edilir.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] .env dosyası okunamadı: %v", err)
	}

	cfg := &Config{
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:      getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=barpos port=5432 sslmode=disable"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		CORSOrigins:      getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		TaxRate:          getEnvFloat("TAX_RATE", 0.19),
		OfflineStorePath: getEnv("OFFLINE_STORE_PATH", "./barpos-offline.db"),
		SyncMaxAttempts:  getEnvInt("SYNC_MAX_ATTEMPTS", 8),
		SyncBackoffBase:  getEnvDuration("SYNC_BACKOFF_BASE", 30*time.Second),
	}

	// Production güvenlik kontrolleri
	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET environment değişkeni tanımlanmamış! Production için zorunludur.")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET en az 32 karakter olmalıdır! Güvenlik riski.")
	}
	if cfg.DatabaseDSN == "host=localhost user=postgres password=postgres dbname=barpos port=5432 sslmode=disable" {
		log.Println("[WARN] DATABASE_DSN varsayılan değer kullanılıyor, production için mutlaka kendi Postgres bağlantı bilgisini tanımla.")
	}
	if cfg.TaxRate < 0 || cfg.TaxRate >= 1 {
		log.Fatalf("[FATAL] TAX_RATE geçersiz: %v (0 ile 1 arasında olmalı)", cfg.TaxRate)
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Fatalf("[FATAL] %s sayısal değil: %q", key, v)
	}
	return f
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("[FATAL] %s tam sayı değil: %q", key, v)
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("[FATAL] %s süre formatında değil: %q", key, v)
	}
	return d
}

package models

import "time"

type SeatStatus string

const (
	SeatFree     SeatStatus = "FREE"
	SeatOccupied SeatStatus = "OCCUPIED"
)

// Seat: masa / adisyon noktası. Açık (PENDING) bir satış masayı işgal eder.
type Seat struct {
	ID          uint       `gorm:"primaryKey"`
	Number      int        `gorm:"uniqueIndex;not null"`
	Capacity    int        `gorm:"not null;default:2"`
	Status      SeatStatus `gorm:"size:20;not null;default:'FREE'"`
	Description string     `gorm:"size:255"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

package models

import "time"

// Counter backs a named strictly-increasing sequence. Count only ever grows;
// reservation happens as a single atomic increment in the store, never as a
// read followed by a write.
type Counter struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:64;uniqueIndex;not null" json:"name"`
	Count       int64     `gorm:"not null;default:0" json:"count"`
	LastUpdated time.Time `json:"lastUpdated"`
}

package models

import "time"

// Product is the relational projection of a catalog entry. Catalog
// payloads are open-schema on the wire; the conventional keys map to
// columns and anything else lands in Extra as a JSON document.
type Product struct {
	ID        uint    `gorm:"primaryKey"`
	Name      string  `gorm:"size:128"`
	Price     float64 `gorm:"not null;default:0"`
	Thumbnail string  `gorm:"size:512"`
	Extra     string  `gorm:"type:text"`
	CreatedAt time.Time
}

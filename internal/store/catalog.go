package store

import (
	"context"
	"encoding/json"
	"fmt"

	"livecart/internal/models"

	"gorm.io/gorm"
)

// GormCatalogLog implements CatalogLog on a gorm database.
type GormCatalogLog struct {
	DB *gorm.DB
}

func NewCatalogLog(db *gorm.DB) *GormCatalogLog {
	return &GormCatalogLog{DB: db}
}

// EnsureSchema creates the products table if it does not exist yet. The
// table only comes into being on first write, so callers invoke this
// before every batch rather than at startup.
func (l *GormCatalogLog) EnsureSchema(ctx context.Context) error {
	if err := l.DB.WithContext(ctx).AutoMigrate(&models.Product{}); err != nil {
		return fmt.Errorf("ensure products schema: %w", err)
	}
	return nil
}

// AppendBatch appends the given entries to the product log.
func (l *GormCatalogLog) AppendBatch(ctx context.Context, items []CatalogEntry) error {
	if len(items) == 0 {
		return nil
	}

	rows := make([]models.Product, 0, len(items))
	for _, item := range items {
		rows = append(rows, toProduct(item))
	}

	if err := l.DB.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("append products: %w", err)
	}
	return nil
}

// toProduct maps an open-schema entry onto the relational row. Keys the
// schema does not know about are kept in the Extra JSON column so nothing
// the client sent is lost.
func toProduct(item CatalogEntry) models.Product {
	var p models.Product
	extra := make(map[string]any)

	for k, v := range item {
		switch k {
		case "name":
			if s, ok := v.(string); ok {
				p.Name = s
				continue
			}
		case "price":
			switch n := v.(type) {
			case float64:
				p.Price = n
				continue
			case int:
				p.Price = float64(n)
				continue
			}
		case "thumbnail":
			if s, ok := v.(string); ok {
				p.Thumbnail = s
				continue
			}
		}
		extra[k] = v
	}

	if len(extra) > 0 {
		if b, err := json.Marshal(extra); err == nil {
			p.Extra = string(b)
		}
	}
	return p
}

package model

import "time"

// 商品ごとの現在庫
type StockEntry struct {
	ProductID   int64     `gorm:"primaryKey;autoIncrement:false" json:"product_id"`
	Quantity    int64     `gorm:"not null" json:"quantity"`
	LastUpdated time.Time `gorm:"not null" json:"last_updated"`
}

//在庫調整の履歴

type StockAdjustment struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID     int64     `gorm:"not null;index" json:"product_id"`
	ActorID       int64     `gorm:"not null;index" json:"actor_id"`
	Delta         int64     `gorm:"not null" json:"delta"`
	QuantityAfter int64     `gorm:"not null" json:"quantity_after"`
	Reason        string    `gorm:"type:varchar(255);not null" json:"reason"`
	CreatedAt     time.Time `gorm:"not null;index" json:"created_at"`
}

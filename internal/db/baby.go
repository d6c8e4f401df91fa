package db

import "time"

// Baby 归属于唯一的 User。
// Slug 由 Name 规范化得到，user_id + slug 唯一索引是名称冲突的最终保障。
// 采用硬删除，删除后 slug 可以被重新使用。
type Baby struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    uint      `gorm:"not null;uniqueIndex:idx_babies_user_slug,priority:1"`
	Name      string    `gorm:"not null"`
	Slug      string    `gorm:"size:190;not null;uniqueIndex:idx_babies_user_slug,priority:2"`
	DOB       time.Time `gorm:"column:dob"`
	Gender    string    `gorm:"size:1;not null"`
}

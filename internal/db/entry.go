package db

import "time"

// Entry 是所有记录类型共用的宽表行，Kind 为判别字段。
// 各类型专属的列均可为空，只有与 Kind 对应的列会被写入。
// BabyID + Start 组合索引服务于区间查询。
type Entry struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	BabyID    uint      `gorm:"not null;index:idx_entries_baby_start,priority:1"`
	Kind      string    `gorm:"size:32;not null;index"`
	Start     time.Time `gorm:"not null;index:idx_entries_baby_start,priority:2"`
	End       *time.Time
	Note      *string `gorm:"type:text"`

	LeftDuration  *time.Duration
	RightDuration *time.Duration
	Duration      *time.Duration
	Amount        *int
	Topup         *int
	Contents      *string `gorm:"size:16"`
}

// TableName 固定表名
func (Entry) TableName() string {
	return "entries"
}

package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/babytracker/internal/db"
	"github.com/babytracker/internal/entry"
	"gorm.io/gorm"
)

// EntryService 负责记录的增删改查与区间查询
type EntryService struct {
	db *gorm.DB
}

// EntryInput 定义创建记录时的输入。Fields 为类型专属字段的原始字符串值
type EntryInput struct {
	Kind   string
	Start  time.Time
	End    *time.Time
	Note   string
	Fields map[string]string
}

// EntryPatch 定义更新记录时可修改的字段，nil 表示不修改；ClearEnd 清除结束时间
type EntryPatch struct {
	Start    *time.Time
	End      *time.Time
	ClearEnd bool
	Note     *string
	Fields   map[string]string
}

// EntryFilter 指定查询区间与类型。Start/End 均为闭区间，且只与记录的 Start 比较
type EntryFilter struct {
	Start *time.Time
	End   *time.Time
	Kind  entry.Kind
}

// NewEntryService 构造 EntryService
func NewEntryService(gdb *gorm.DB) *EntryService {
	return &EntryService{db: gdb}
}

// NormalizeTimestamp 把 t 转成存储形式：UTC，精确到秒
func NormalizeTimestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// Create 为 baby 新建一条记录
func (s *EntryService) Create(baby *db.Baby, input EntryInput) (*entry.Entry, error) {
	schema, ok := entry.Lookup(input.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", entry.ErrUnknownKind, input.Kind)
	}
	if input.Start.IsZero() {
		return nil, fmt.Errorf("%w: start is required", ErrInvalidInput)
	}

	e := &entry.Entry{
		BabyID:  baby.ID,
		Start:   NormalizeTimestamp(input.Start),
		End:     normalizeOptional(input.End),
		Note:    strings.TrimSpace(input.Note),
		Details: schema.New(),
	}
	if err := validateSpan(e); err != nil {
		return nil, err
	}
	if err := schema.Apply(e.Details, input.Fields); err != nil {
		return nil, err
	}

	row := entry.ToRow(e)
	if err := s.db.Create(&row).Error; err != nil {
		return nil, fmt.Errorf("create entry: %w", err)
	}
	e.ID = row.ID
	e.CreatedAt = row.CreatedAt
	e.UpdatedAt = row.UpdatedAt
	return e, nil
}

// Update 局部更新记录，类型不可修改
func (s *EntryService) Update(e *entry.Entry, patch EntryPatch) error {
	schema := entry.SchemaFor(e.Kind())
	if schema == nil {
		return fmt.Errorf("%w: %q", entry.ErrUnknownKind, e.Kind())
	}

	updated := *e
	updated.Details = cloneDetails(e.Details)
	if patch.Start != nil {
		if patch.Start.IsZero() {
			return fmt.Errorf("%w: start is required", ErrInvalidInput)
		}
		updated.Start = NormalizeTimestamp(*patch.Start)
	}
	if patch.ClearEnd {
		updated.End = nil
	} else if patch.End != nil {
		updated.End = normalizeOptional(patch.End)
	}
	if patch.Note != nil {
		updated.Note = strings.TrimSpace(*patch.Note)
	}
	if err := validateSpan(&updated); err != nil {
		return err
	}
	if err := schema.Apply(updated.Details, patch.Fields); err != nil {
		return err
	}

	row := entry.ToRow(&updated)
	if err := s.db.Save(&row).Error; err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	updated.UpdatedAt = row.UpdatedAt
	*e = updated
	return nil
}

// Delete 删除指定记录
func (s *EntryService) Delete(e *entry.Entry) error {
	if err := s.db.Delete(&db.Entry{}, e.ID).Error; err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

// FindEntry 在 baby 下按 ID 查找记录，不存在时返回 nil, nil
func (s *EntryService) FindEntry(babyID, id uint) (*entry.Entry, error) {
	var row db.Entry
	if err := s.db.Where("baby_id = ? AND id = ?", babyID, id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find entry: %w", err)
	}
	return entry.FromRow(row)
}

// Get 按 ID 加载记录
func (s *EntryService) Get(id uint) (*entry.Entry, error) {
	var row db.Entry
	if err := s.db.First(&row, id).Error; err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return entry.FromRow(row)
}

// Between 返回 baby 在区间内的记录，按开始时间倒序
func (s *EntryService) Between(babyID uint, filter EntryFilter) ([]entry.Entry, error) {
	query := s.db.Where("baby_id = ?", babyID)

	if filter.Start != nil {
		query = query.Where("start >= ?", NormalizeTimestamp(*filter.Start))
	}
	if filter.End != nil {
		query = query.Where("start <= ?", NormalizeTimestamp(*filter.End))
	}
	if filter.Kind != "" {
		query = query.Where("kind = ?", string(filter.Kind))
	}

	var rows []db.Entry
	if err := query.Order("start DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entry.FromRows(rows)
}

// EntrySummary 汇总区间内的记录
type EntrySummary struct {
	Counts       map[entry.Kind]int
	FeedVolume   int
	BreastTime   time.Duration
	SleepTime    time.Duration
	WetNappies   int
	DirtyNappies int
	LastFeed     *time.Time
}

// Summarize 统计各类型次数、奶量、亲喂与睡眠时长
func Summarize(entries []entry.Entry) EntrySummary {
	summary := EntrySummary{Counts: make(map[entry.Kind]int, len(entry.Kinds))}
	for i := range entries {
		e := &entries[i]
		summary.Counts[e.Kind()]++

		fed := false
		switch d := e.Details.(type) {
		case *entry.BreastFeed:
			summary.BreastTime += d.LeftDuration + d.RightDuration
			fed = true
		case *entry.BottleFeed:
			summary.FeedVolume += d.Amount
			fed = true
		case *entry.MixedFeed:
			summary.BreastTime += d.LeftDuration + d.RightDuration
			summary.FeedVolume += d.Topup
			fed = true
		case *entry.Sleep:
			summary.SleepTime += e.Span()
		case *entry.NappyChange:
			switch d.Contents {
			case entry.ContentsWet:
				summary.WetNappies++
			case entry.ContentsDirty:
				summary.DirtyNappies++
			}
		}
		if fed && (summary.LastFeed == nil || e.Start.After(*summary.LastFeed)) {
			start := e.Start
			summary.LastFeed = &start
		}
	}
	return summary
}

func validateSpan(e *entry.Entry) error {
	if e.End != nil && e.End.Before(e.Start) {
		return fmt.Errorf("%w: end must not be before start", ErrInvalidInput)
	}
	return nil
}

func normalizeOptional(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	normalized := NormalizeTimestamp(*t)
	return &normalized
}

func cloneDetails(d entry.Details) entry.Details {
	switch v := d.(type) {
	case *entry.BreastFeed:
		c := *v
		return &c
	case *entry.BottleFeed:
		c := *v
		return &c
	case *entry.MixedFeed:
		c := *v
		return &c
	case *entry.Sleep:
		c := *v
		return &c
	case *entry.NappyChange:
		c := *v
		return &c
	}
	return d
}

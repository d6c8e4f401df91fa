package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/babytracker/internal/db"
	"github.com/babytracker/internal/resource"
	"gorm.io/gorm"
)

// 宝宝性别的可选值
const (
	GenderMale   = "m"
	GenderFemale = "f"
)

// BabyService 负责宝宝的增删改查
type BabyService struct {
	db *gorm.DB
}

// BabyInput 定义新建宝宝所需的字段
type BabyInput struct {
	Name   string
	DOB    time.Time
	Gender string
}

// BabyPatch 定义可修改的宝宝字段，nil 表示不修改
type BabyPatch struct {
	Name   *string
	DOB    *time.Time
	Gender *string
}

// NewBabyService 构造 BabyService
func NewBabyService(gdb *gorm.DB) *BabyService {
	return &BabyService{db: gdb}
}

// BabySlug 由名字生成路径片段：转小写、去首尾空白，连续空白替换为单个连字符
func BabySlug(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

// ListForUser 按创建顺序返回用户的宝宝
func (s *BabyService) ListForUser(userID uint) ([]db.Baby, error) {
	var babies []db.Baby
	if err := s.db.Where("user_id = ?", userID).Order("id ASC").Find(&babies).Error; err != nil {
		return nil, fmt.Errorf("list babies: %w", err)
	}
	return babies, nil
}

// FindBaby 按所属用户与 slug 查找宝宝，slug 先做规范化以与新建、改名保持一致。
// 不存在时返回 nil, nil
func (s *BabyService) FindBaby(userID uint, slug string) (*db.Baby, error) {
	slug = BabySlug(slug)
	if slug == "" {
		return nil, nil
	}

	var baby db.Baby
	if err := s.db.Where("user_id = ? AND slug = ?", userID, slug).First(&baby).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find baby: %w", err)
	}
	return &baby, nil
}

// Create 在 user 下新建宝宝
func (s *BabyService) Create(user *db.User, input BabyInput) (*db.Baby, error) {
	name := strings.TrimSpace(input.Name)
	if err := validateBaby(name, input.DOB, input.Gender); err != nil {
		return nil, err
	}

	slug := BabySlug(name)
	if err := s.ensureSlugAvailable(user.ID, slug, 0); err != nil {
		return nil, err
	}

	baby := db.Baby{
		UserID: user.ID,
		Name:   name,
		Slug:   slug,
		DOB:    normalizeDate(input.DOB),
		Gender: input.Gender,
	}
	if err := s.insert(&baby); err != nil {
		return nil, err
	}
	return &baby, nil
}

// insert 写入新宝宝，(user_id, slug) 唯一索引冲突时返回 ErrBabyNameTaken
func (s *BabyService) insert(baby *db.Baby) error {
	if err := s.db.Create(baby).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrBabyNameTaken
		}
		return fmt.Errorf("create baby: %w", err)
	}
	return nil
}

// Update 局部更新宝宝。改名只与同一用户下的其他宝宝比较，不与自身冲突
func (s *BabyService) Update(baby *db.Baby, patch BabyPatch) error {
	updated := *baby
	if patch.Name != nil {
		updated.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.DOB != nil {
		updated.DOB = normalizeDate(*patch.DOB)
	}
	if patch.Gender != nil {
		updated.Gender = *patch.Gender
	}

	if err := validateBaby(updated.Name, updated.DOB, updated.Gender); err != nil {
		return err
	}

	updated.Slug = BabySlug(updated.Name)
	if err := s.ensureSlugAvailable(baby.UserID, updated.Slug, baby.ID); err != nil {
		return err
	}

	if err := s.db.Model(&db.Baby{ID: baby.ID}).Updates(map[string]any{
		"name":   updated.Name,
		"slug":   updated.Slug,
		"dob":    updated.DOB,
		"gender": updated.Gender,
	}).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrBabyNameTaken
		}
		return fmt.Errorf("update baby: %w", err)
	}

	*baby = updated
	return nil
}

// Delete 删除宝宝及其全部记录
func (s *BabyService) Delete(baby *db.Baby) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("baby_id = ?", baby.ID).Delete(&db.Entry{}).Error; err != nil {
			return fmt.Errorf("delete baby entries: %w", err)
		}
		if err := tx.Delete(&db.Baby{}, baby.ID).Error; err != nil {
			return fmt.Errorf("delete baby: %w", err)
		}
		return nil
	})
}

func (s *BabyService) ensureSlugAvailable(userID uint, slug string, excludeID uint) error {
	query := s.db.Model(&db.Baby{}).Where("user_id = ? AND slug = ?", userID, slug)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return fmt.Errorf("check baby name: %w", err)
	}
	if count > 0 {
		return ErrBabyNameTaken
	}
	return nil
}

func validateBaby(name string, dob time.Time, gender string) error {
	slug := BabySlug(name)
	if name == "" || slug == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !isPathSegment(slug) {
		return fmt.Errorf("%w: name cannot be used in a url", ErrInvalidInput)
	}
	if dob.IsZero() {
		return fmt.Errorf("%w: date of birth is required", ErrInvalidInput)
	}
	if gender != GenderMale && gender != GenderFemale {
		return fmt.Errorf("%w: gender must be m or f", ErrInvalidInput)
	}
	return nil
}

// isPathSegment 判断 segment 能否被遍历回来：不含 /，不是 . 或 ..，也不带视图前缀
func isPathSegment(segment string) bool {
	if segment == "." || segment == ".." {
		return false
	}
	return !strings.Contains(segment, "/") && !strings.HasPrefix(segment, resource.ViewPrefix)
}

func normalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/babytracker/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserService 负责账号及其凭据
type UserService struct {
	db *gorm.DB
}

// UserPatch 定义可修改的账号字段，nil 表示不修改
type UserPatch struct {
	Name     *string
	Password *string
}

// NewUserService 构造 UserService
func NewUserService(gdb *gorm.DB) *UserService {
	return &UserService{db: gdb}
}

// NormalizeEmail 去除首尾空白并转小写
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register 新建账号，密码以 bcrypt 哈希保存
func (s *UserService) Register(email, name, password string) (*db.User, error) {
	email = NormalizeEmail(email)
	name = strings.TrimSpace(name)

	switch {
	case email == "":
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	case !strings.Contains(email, "@") || !isPathSegment(email):
		return nil, fmt.Errorf("%w: invalid email address", ErrInvalidInput)
	case name == "":
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	case password == "":
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}

	var count int64
	if err := s.db.Model(&db.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := db.User{Email: email, Name: name, Password: hashed}
	if err := s.insert(&user); err != nil {
		return nil, err
	}
	user.Babies = []db.Baby{}
	return &user, nil
}

// insert 写入新账号，email 唯一索引冲突时返回 ErrEmailTaken
func (s *UserService) insert(user *db.User) error {
	if err := s.db.Create(user).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Authenticate 校验邮箱与密码，邮箱不存在和密码错误都返回 ErrInvalidCredentials
func (s *UserService) Authenticate(email, password string) (*db.User, error) {
	user, err := s.FindUser(email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// FindUser 按邮箱加载账号及其宝宝，不存在时返回 nil, nil
func (s *UserService) FindUser(email string) (*db.User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, nil
	}

	var user db.User
	err := s.db.
		Preload("Babies", func(tx *gorm.DB) *gorm.DB { return tx.Order("babies.id ASC") }).
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

// Reload 从存储重新加载 user 及其宝宝
func (s *UserService) Reload(user *db.User) error {
	fresh, err := s.FindUser(user.Email)
	if err != nil {
		return err
	}
	if fresh == nil {
		return fmt.Errorf("reload user %s: %w", user.Email, gorm.ErrRecordNotFound)
	}
	*user = *fresh
	return nil
}

// Rename 修改显示名
func (s *UserService) Rename(user *db.User, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if err := s.db.Model(user).Update("name", name).Error; err != nil {
		return fmt.Errorf("rename user: %w", err)
	}
	user.Name = name
	return nil
}

// ChangePassword 替换密码哈希，不保留历史
func (s *UserService) ChangePassword(user *db.User, password string) error {
	if password == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	hashed, err := hashPassword(password)
	if err != nil {
		return err
	}
	if err := s.db.Model(user).Update("password", hashed).Error; err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	user.Password = hashed
	return nil
}

// Update 局部更新账号，至少需要一个字段
func (s *UserService) Update(user *db.User, patch UserPatch) error {
	if patch.Name == nil && patch.Password == nil {
		return fmt.Errorf("%w: name or password is required", ErrInvalidInput)
	}
	if patch.Name != nil {
		if err := s.Rename(user, *patch.Name); err != nil {
			return err
		}
	}
	if patch.Password != nil {
		if err := s.ChangePassword(user, *patch.Password); err != nil {
			return err
		}
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

package service

import (
	"errors"

	"github.com/babytracker/internal/db"
	"github.com/babytracker/internal/entry"
	"gorm.io/gorm"
)

var (
	// ErrInvalidInput 包装所有校验失败
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials 表示邮箱不存在或密码错误
	ErrInvalidCredentials = errors.New("invalid email address or password")
	// ErrEmailTaken 表示邮箱已被其他账号使用
	ErrEmailTaken = errors.New("an account with this email address already exists")
	// ErrBabyNameTaken 表示同一用户下已有规范化后同名的宝宝
	ErrBabyNameTaken = errors.New("a baby with this name already exists")
)

// IsConflict 判断 err 是否为唯一性冲突
func IsConflict(err error) bool {
	return errors.Is(err, ErrEmailTaken) || errors.Is(err, ErrBabyNameTaken)
}

// Services 汇总共享同一个 *gorm.DB 的服务，该句柄可以是根连接，也可以是进行中的事务
type Services struct {
	db      *gorm.DB
	Users   *UserService
	Babies  *BabyService
	Entries *EntryService
}

// New 返回绑定到 gdb 的服务集合
func New(gdb *gorm.DB) *Services {
	return &Services{
		db:      gdb,
		Users:   NewUserService(gdb),
		Babies:  NewBabyService(gdb),
		Entries: NewEntryService(gdb),
	}
}

// Transaction 在单个事务内执行 fn，fn 返回 nil 时提交，否则回滚
func (s *Services) Transaction(fn func(tx *Services) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}

// FindUser 按邮箱解析用户，不存在时返回 nil
func (s *Services) FindUser(email string) (*db.User, error) {
	return s.Users.FindUser(email)
}

// FindBaby 按所属用户与 slug 解析宝宝，不存在时返回 nil
func (s *Services) FindBaby(userID uint, slug string) (*db.Baby, error) {
	return s.Babies.FindBaby(userID, slug)
}

// FindEntry 按宝宝与 ID 解析记录，不存在时返回 nil
func (s *Services) FindEntry(babyID, id uint) (*entry.Entry, error) {
	return s.Entries.FindEntry(babyID, id)
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

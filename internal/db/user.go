package db

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User 定义了账号模型，Email 同时是资源树中的路径段
type User struct {
	gorm.Model
	Email    string `gorm:"uniqueIndex;size:255;not null"`
	Name     string `gorm:"not null"`
	Password string `gorm:"not null"`
	Babies   []Baby `gorm:"constraint:OnDelete:CASCADE"`
}

// EnsureUser 存在性检查：若邮箱与密码均非空且不存在对应账号，则创建一个 bcrypt 哈希的用户。
func EnsureUser(gdb *gorm.DB, email, name, password string) error {
	trimmedEmail := strings.ToLower(strings.TrimSpace(email))
	trimmedPassword := strings.TrimSpace(password)
	if trimmedEmail == "" || trimmedPassword == "" {
		return nil
	}

	if gdb == nil {
		return errors.New("database not initialized")
	}

	displayName := strings.TrimSpace(name)
	if displayName == "" {
		displayName = trimmedEmail
	}

	var existing User
	if err := gdb.Where("email = ?", trimmedEmail).First(&existing).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(trimmedPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		return gdb.Create(&User{Email: trimmedEmail, Name: displayName, Password: string(hashed)}).Error
	}

	return nil
}

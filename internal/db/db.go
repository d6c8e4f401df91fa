package db

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options 描述打开数据库所需的参数。
// URL 非空时优先使用 Postgres，否则回退到 SQLite 文件 Path。
type Options struct {
	Path     string
	URL      string
	LogLevel logger.LogLevel
}

// Open 建立数据库连接并执行自动迁移。
// Path 为空时将回退到默认值 babytracker.db。
func Open(opts Options) (*gorm.DB, error) {
	dialector, err := dialectorFor(opts)
	if err != nil {
		return nil, err
	}

	level := opts.LogLevel
	if level == 0 {
		level = logger.Warn
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(gdb); err != nil {
		return nil, err
	}
	return gdb, nil
}

// Migrate 为所有模型创建或更新数据表
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&User{},
		&Baby{},
		&Entry{},
	)
}

func dialectorFor(opts Options) (gorm.Dialector, error) {
	if url := strings.TrimSpace(opts.URL); url != "" {
		if !strings.HasPrefix(url, "postgres://") && !strings.HasPrefix(url, "postgresql://") {
			return nil, errors.New("DATABASE_URL must be a postgres:// url")
		}
		return postgres.New(postgres.Config{DriverName: "postgres", DSN: url}), nil
	}

	path := strings.TrimSpace(opts.Path)
	if path == "" {
		path = "babytracker.db"
	}
	if err := ensureParentDir(path); err != nil {
		return nil, err
	}
	return sqlite.Open(path), nil
}

func ensureParentDir(path string) error {
	if strings.HasPrefix(path, "file:") {
		return nil
	}

	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}

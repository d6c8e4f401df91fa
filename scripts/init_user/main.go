package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/babytracker/internal/config"
	"github.com/babytracker/internal/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("读取配置失败:", err)
	}

	var email, name, password string
	flag.StringVar(&email, "email", cfg.BootstrapEmail, "account email")
	flag.StringVar(&name, "name", cfg.BootstrapName, "display name")
	flag.StringVar(&password, "password", cfg.BootstrapPassword, "account password")
	flag.StringVar(&cfg.DatabasePath, "db", cfg.DatabasePath, "sqlite db path")
	flag.Parse()

	if email == "" || password == "" {
		log.Fatal("必须提供 -email 和 -password")
	}

	// 初始化数据库
	gdb, err := db.Open(db.Options{Path: cfg.DatabasePath, URL: cfg.DatabaseURL})
	if err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	// 已存在的账号保持不变
	if err := db.EnsureUser(gdb, email, name, password); err != nil {
		log.Fatal("创建用户失败:", err)
	}
	fmt.Println("用户已就绪:", email)
}

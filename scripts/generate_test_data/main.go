package main

import (
	"fmt"
	"log"
	"time"

	"github.com/babytracker/internal/config"
	"github.com/babytracker/internal/db"
	"github.com/babytracker/internal/entry"
	"github.com/babytracker/internal/service"
)

const (
	demoEmail    = "demo@example.com"
	demoPassword = "demo123"
	demoDays     = 7
)

// 测试数据生成器
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("读取配置失败:", err)
	}

	// 初始化数据库
	gdb, err := db.Open(db.Options{Path: cfg.DatabasePath, URL: cfg.DatabaseURL})
	if err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	fmt.Println("开始生成测试数据...")
	created, err := seed(service.New(gdb), time.Now().In(cfg.Location))
	if err != nil {
		log.Fatal("生成测试数据失败:", err)
	}
	if created == 0 {
		fmt.Println("演示账号已存在，跳过创建")
		return
	}

	fmt.Println("测试数据生成完成！")
	fmt.Printf("用户: %s (密码: %s)\n", demoEmail, demoPassword)
	fmt.Printf("记录: %d 条\n", created)
}

// seed 创建演示账号、两个宝宝以及截至 now 的一周记录，返回写入的记录数。
// 账号已存在时什么也不做。
func seed(svc *service.Services, now time.Time) (int, error) {
	existing, err := svc.FindUser(demoEmail)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return 0, nil
	}

	created := 0
	err = svc.Transaction(func(tx *service.Services) error {
		user, err := tx.Users.Register(demoEmail, "Demo Parent", demoPassword)
		if err != nil {
			return err
		}

		babies := []service.BabyInput{
			{Name: "Ada", DOB: now.AddDate(0, -3, 0), Gender: service.GenderFemale},
			{Name: "Ben", DOB: now.AddDate(0, -3, 0), Gender: service.GenderMale},
		}
		for _, input := range babies {
			baby, err := tx.Babies.Create(user, input)
			if err != nil {
				return err
			}
			for _, e := range demoSchedule(now, demoDays) {
				if _, err := tx.Entries.Create(baby, e); err != nil {
					return err
				}
				created++
			}
		}
		return nil
	})
	return created, err
}

// demoSchedule 生成 days 天的作息：每三小时一次喂奶并换尿布，晚上和午后各睡一觉。
func demoSchedule(now time.Time, days int) []service.EntryInput {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var inputs []service.EntryInput

	for d := days - 1; d >= 0; d-- {
		day := midnight.AddDate(0, 0, -d)
		for hour := 1; hour < 24; hour += 3 {
			start := day.Add(time.Duration(hour) * time.Hour)
			if start.After(now) {
				break
			}
			end := start.Add(25 * time.Minute)

			feed := service.EntryInput{Kind: string(entry.KindBreastFeed), Start: start, End: &end,
				Fields: map[string]string{"left_duration": "12", "right_duration": "10"}}
			if hour%2 == 0 {
				feed = service.EntryInput{Kind: string(entry.KindBottleFeed), Start: start, End: &end,
					Fields: map[string]string{"amount": "120"}}
			}
			contents := string(entry.ContentsWet)
			if hour == 10 || hour == 19 {
				contents = string(entry.ContentsDirty)
			}
			inputs = append(inputs, feed, service.EntryInput{
				Kind:   string(entry.KindNappyChange),
				Start:  end,
				Fields: map[string]string{"contents": contents},
			})
		}

		for _, nap := range []struct{ from, length time.Duration }{
			{from: 13 * time.Hour, length: 90 * time.Minute},
			{from: 20 * time.Hour, length: 9 * time.Hour},
		} {
			start := day.Add(nap.from)
			end := start.Add(nap.length)
			if end.After(now) {
				continue
			}
			inputs = append(inputs, service.EntryInput{Kind: string(entry.KindSleep), Start: start, End: &end, Note: "Slept well"})
		}
	}
	return inputs
}

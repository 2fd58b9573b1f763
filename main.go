package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/hoangtran-dev/subkeeper/internal/pkg/cache"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/clock"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/database"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/env"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/notify"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/renewal"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/router"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/scheduler"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/taskqueue"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	loc := businessLocation()
	clk := clock.FromEnv(loc)
	sender := notify.NewTelegramSenderFromEnv()

	renewer := renewal.NewService(database.GetDB(), clk, loc)
	taskqueue.Setup(renewer, sender)

	sched := scheduler.New(database.GetDB(), sender, clk, loc, scheduler.RedisLocker{})
	if err := sched.Start(); err != nil {
		log.Fatalf("scheduler: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName:     "subkeeper",
		ReadTimeout: 30 * time.Second,
	})
	app.Use(recover.New(), logger.New())
	app.Get("/metrics", monitor.New())

	// ROUTER
	router.InstallRouter(app)

	return app
}

func businessLocation() *time.Location {
	name := env.GetEnv("BUSINESS_TIMEZONE", "Asia/Ho_Chi_Minh")
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("timezone %s not found, falling back to UTC", name)
		return time.UTC
	}
	return loc
}

package controllers

import (
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hoangtran-dev/subkeeper/internal/pkg/clock"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/env"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	loc     *time.Location
	locOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// businessLocation resolves the timezone every date comparison runs in.
// Defaults to the shop's home timezone; falls back to UTC on a bad value.
func businessLocation() *time.Location {
	locOnce.Do(func() {
		name := env.GetEnv("BUSINESS_TIMEZONE", "Asia/Ho_Chi_Minh")
		l, err := time.LoadLocation(name)
		if err != nil {
			l = time.UTC
		}
		loc = l
	})
	return loc
}

func appClock() clock.Clock {
	return clock.FromEnv(businessLocation())
}

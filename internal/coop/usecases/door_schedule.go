package usecases

import (
	"errors"
	"fmt"
	"time"

	"coop-server/internal/coop/domain"

	"github.com/nathan-osman/go-sunrise"
	"github.com/robfig/cron/v3"
)

var (
	ErrNoSolarEvent    = errors.New("sun does not rise or set on this day")
	ErrInvalidSchedule = errors.New("closing time is not after opening time")
)

var _ DoorSchedule = (*SolarSchedule)(nil)

// SolarSchedule opens the door at sunrise and closes it at sunset, each
// shifted by its offset.
type SolarSchedule struct {
	Latitude    float64
	Longitude   float64
	OpenOffset  time.Duration
	CloseOffset time.Duration
}

func (s SolarSchedule) Times(day time.Time) (time.Time, time.Time, error) {
	year, month, date := day.Date()
	rise, set := sunrise.SunriseSunset(s.Latitude, s.Longitude, year, month, date)
	if rise.IsZero() || set.IsZero() {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %s at %.4f,%.4f", ErrNoSolarEvent, day.Format(time.DateOnly), s.Latitude, s.Longitude)
	}

	opening := rise.Add(s.OpenOffset).In(day.Location())
	closing := set.Add(s.CloseOffset).In(day.Location())
	if !closing.After(opening) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: opening %s, closing %s", ErrInvalidSchedule, opening, closing)
	}

	return opening, closing, nil
}

var _ DoorSchedule = (*CronSchedule)(nil)

// CronSchedule takes the first opening activation of the day and the first
// closing activation after it.
type CronSchedule struct {
	open  cron.Schedule
	close cron.Schedule
}

func NewCronSchedule(openSpec, closeSpec string) (*CronSchedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

	openSchedule, err := parser.Parse(openSpec)
	if err != nil {
		return nil, fmt.Errorf("parsing open schedule %q: %w", openSpec, err)
	}
	closeSchedule, err := parser.Parse(closeSpec)
	if err != nil {
		return nil, fmt.Errorf("parsing close schedule %q: %w", closeSpec, err)
	}

	return &CronSchedule{open: openSchedule, close: closeSchedule}, nil
}

func (s *CronSchedule) Times(day time.Time) (time.Time, time.Time, error) {
	year, month, date := day.Date()
	startOfDay := time.Date(year, month, date, 0, 0, 0, 0, day.Location())

	opening := s.open.Next(startOfDay.Add(-time.Second))
	if opening.IsZero() {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: open schedule never fires", ErrInvalidSchedule)
	}
	closing := s.close.Next(opening)
	if closing.IsZero() {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: close schedule never fires", ErrInvalidSchedule)
	}

	return opening, closing, nil
}

// desiredDirection is where the door should be at now given today's times.
func desiredDirection(now, opening, closing time.Time) domain.DoorDirection {
	if !now.Before(opening) && now.Before(closing) {
		return domain.DoorOpen
	}
	return domain.DoorClose
}

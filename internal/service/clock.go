package service

import "time"

// clock встраивается в сервисы, чтобы тесты могли зафиксировать время
type clock struct {
	now func() time.Time
}

func systemClock() clock {
	return clock{now: time.Now}
}

// SetClock подменяет источник времени
func (c *clock) SetClock(now func() time.Time) {
	c.now = now
}

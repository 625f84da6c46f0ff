package service

import "time"

// Clock supplies the current time so due-date gates stay testable.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// NewClock returns the wall clock.
func NewClock() Clock { return realClock{} }

// pastDue reports whether the due date lies strictly before today. A nil due
// date never gates; comparison happens at date granularity, so an assignment
// due today is still open.
func pastDue(due *time.Time, now time.Time) bool {
	if due == nil {
		return false
	}
	dueDay := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return dueDay.Before(today)
}

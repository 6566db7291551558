package clock

import (
	"context"
	"time"
)

type FakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t.UTC()}
}

func (c *FakeClock) Now() time.Time {
	return c.now
}

func (c *FakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// Sleep records the requested delay and advances the fake time instantly.
func (c *FakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *FakeClock) Sleeps() []time.Duration {
	return c.sleeps
}

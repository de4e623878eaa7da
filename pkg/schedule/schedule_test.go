package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCron(t *testing.T) {
	c, err := parseCron("0 8 * * 1-5")
	require.NoError(t, err)

	monday8 := time.Date(2026, 3, 2, 8, 0, 30, 0, time.UTC)
	sunday8 := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	assert.True(t, c.match(monday8))
	assert.False(t, c.match(sunday8))
	assert.False(t, c.match(monday8.Add(time.Minute)))

	c, err = parseCron("*/15 0,12 * * *")
	require.NoError(t, err)
	assert.True(t, c.match(time.Date(2026, 1, 1, 12, 45, 0, 0, time.UTC)))
	assert.False(t, c.match(time.Date(2026, 1, 1, 12, 40, 0, 0, time.UTC)))

	for _, bad := range []string{"* * *", "61 * * * *", "*/0 * * * *", "a * * * *", "5-1 * * * *"} {
		_, err := parseCron(bad)
		assert.Error(t, err, bad)
	}
}

func TestRunDue_CronOncePerMinute(t *testing.T) {
	s := New()
	var runs atomic.Int32
	require.NoError(t, s.Cron("digest", "0 8 * * *", func(context.Context) error {
		runs.Add(1)
		return nil
	}))

	at := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, s.RunDue(context.Background(), at))
	s.Wait()
	assert.Equal(t, 0, s.RunDue(context.Background(), at.Add(10*time.Second)))
	assert.Equal(t, 0, s.RunDue(context.Background(), at.Add(time.Minute)))
	s.Wait()
	assert.Equal(t, int32(1), runs.Load())
}

func TestRunDue_Interval(t *testing.T) {
	s := New()
	var runs atomic.Int32
	s.Every("gauge", time.Hour, func(context.Context) error {
		runs.Add(1)
		return nil
	})

	start := time.Now()
	s.RunDue(context.Background(), start)
	s.Wait()
	s.RunDue(context.Background(), start.Add(30*time.Minute))
	s.Wait()
	s.RunDue(context.Background(), start.Add(time.Hour))
	s.Wait()
	assert.Equal(t, int32(2), runs.Load())
	assert.Len(t, s.List(), 1)
}

func TestRunDue_SkipsOverlap(t *testing.T) {
	s := New()
	release := make(chan struct{})
	s.Every("slow", time.Millisecond, func(context.Context) error {
		<-release
		return nil
	})

	now := time.Now()
	assert.Equal(t, 1, s.RunDue(context.Background(), now))
	assert.Equal(t, 0, s.RunDue(context.Background(), now.Add(time.Second)))
	close(release)
	s.Wait()
}

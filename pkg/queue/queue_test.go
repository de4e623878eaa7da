package queue_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shashiranjanraj/pehnawa/pkg/queue"
)

type echoJob struct {
	Val string `json:"val"`

	seen *atomic.Value
}

func (j *echoJob) JobName() string { return "test.echo" }

func (j *echoJob) Handle(context.Context) error {
	j.seen.Store(j.Val)
	return nil
}

type failJob struct {
	attempts *atomic.Int32
}

func (j *failJob) JobName() string { return "test.fail" }

func (j *failJob) Handle(context.Context) error {
	j.attempts.Add(1)
	return errors.New("smtp unavailable")
}

func newManager(db *gorm.DB) *queue.Manager {
	return queue.New(queue.NewMemoryDriver(10), queue.Options{MaxRetry: 2, Backoff: time.Millisecond, DB: db})
}

func TestDispatchAndProcess(t *testing.T) {
	m := newManager(nil)
	seen := &atomic.Value{}
	m.Register("test.echo", func() queue.Job { return &echoJob{seen: seen} })

	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx, 2)
	require.NoError(t, m.Dispatch(ctx, &echoJob{Val: "ORD-1"}))

	assert.Eventually(t, func() bool { return seen.Load() == "ORD-1" }, time.Second, 5*time.Millisecond)
	cancel()
	m.Wait()
}

func TestProcess_RetriesThenRecordsFailure(t *testing.T) {
	m := newManager(nil)
	attempts := &atomic.Int32{}
	m.Register("test.fail", func() queue.Job { return &failJob{attempts: attempts} })

	raw := `{"type":"test.fail","payload":{}}`
	require.NoError(t, m.Process(context.Background(), []byte(raw)))
	assert.Equal(t, int32(2), attempts.Load())

	failed, err := m.FailedJobs(context.Background())
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "test.fail", failed[0].JobType)
	assert.Equal(t, "smtp unavailable", failed[0].Error)
}

func TestProcess_UnknownJob(t *testing.T) {
	m := newManager(nil)
	err := m.Process(context.Background(), []byte(`{"type":"nope","payload":{}}`))
	assert.ErrorIs(t, err, queue.ErrUnknownJob)
}

func TestFailedJobsPersistAndRetry(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:queue_failed?mode=memory&cache=shared"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&queue.FailedJob{}))

	driver := queue.NewMemoryDriver(10)
	m := queue.New(driver, queue.Options{MaxRetry: 1, Backoff: time.Millisecond, DB: db})
	m.Register("test.fail", func() queue.Job { return &failJob{attempts: &atomic.Int32{}} })

	require.NoError(t, m.Process(context.Background(), []byte(`{"type":"test.fail","payload":{}}`)))

	failed, err := m.FailedJobs(context.Background())
	require.NoError(t, err)
	require.Len(t, failed, 1)

	require.NoError(t, m.Retry(context.Background(), failed[0].ID))
	assert.Equal(t, 1, driver.Len())

	failed, err = m.FailedJobs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, failed)
}

func TestMemoryDriverFull(t *testing.T) {
	d := queue.NewMemoryDriver(1)
	require.NoError(t, d.Push(context.Background(), []byte("a")))
	assert.ErrorIs(t, d.Push(context.Background(), []byte("b")), queue.ErrQueueFull)
}

package migration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type widget struct {
	ID   uint
	Name string
}

type gadget struct {
	ID uint
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func fixtures() []Migration {
	return []Migration{
		{
			Name: "20260102_create_gadgets",
			Up:   func(tx *gorm.DB) error { return tx.AutoMigrate(&gadget{}) },
			Down: func(tx *gorm.DB) error { return tx.Migrator().DropTable(&gadget{}) },
		},
		{
			Name: "20260101_create_widgets",
			Up:   func(tx *gorm.DB) error { return tx.AutoMigrate(&widget{}) },
			Down: func(tx *gorm.DB) error { return tx.Migrator().DropTable(&widget{}) },
		},
	}
}

func TestUpRollback(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	r := New(db, fixtures())

	applied, err := r.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"20260101_create_widgets", "20260102_create_gadgets"}, applied)
	assert.True(t, db.Migrator().HasTable(&widget{}))

	applied, err = r.Up(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)

	st, err := r.Status(ctx)
	require.NoError(t, err)
	require.Len(t, st, 2)
	assert.True(t, st[0].Ran)
	assert.Equal(t, 1, st[0].Batch)

	reverted, err := r.Rollback(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"20260102_create_gadgets", "20260101_create_widgets"}, reverted)
	assert.False(t, db.Migrator().HasTable(&widget{}))

	reverted, err = r.Rollback(ctx)
	require.NoError(t, err)
	assert.Empty(t, reverted)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(fixtures()))
	dup := append(fixtures(), fixtures()[0])
	assert.ErrorIs(t, Validate(dup), ErrDuplicate)
	assert.Error(t, Validate([]Migration{{Name: "x"}}))
}

package orm

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type swatch struct {
	ID    uint
	Name  string
	Color string
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&swatch{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})
	return db
}

func TestPaginate(t *testing.T) {
	db := openDB(t)
	for i := 0; i < 7; i++ {
		color := "red"
		if i%2 == 0 {
			color = "blue"
		}
		require.NoError(t, db.Create(&swatch{Name: fmt.Sprintf("s%d", i), Color: color}).Error)
	}

	var page []swatch
	p, err := New(db).Model(&swatch{}).Where("color = ?", "blue").Paginate(2, 3, &page, func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	})
	require.NoError(t, err)

	assert.Equal(t, Pagination{Page: 2, Limit: 3, Total: 4, Pages: 2}, p)
	require.Len(t, page, 1)
	assert.Equal(t, "s6", page[0].Name)
}

func TestPageParams(t *testing.T) {
	page, limit := PageParams(0, 0, 12, 100)
	assert.Equal(t, 1, page)
	assert.Equal(t, 12, limit)

	_, limit = PageParams(3, 500, 12, 100)
	assert.Equal(t, 100, limit)
}

func TestNewPagination_RoundsUp(t *testing.T) {
	assert.Equal(t, 4, NewPagination(1, 3, 10).Pages)
	assert.Equal(t, 0, NewPagination(1, 3, 0).Pages)
}

func TestCache_WithoutStoreQueries(t *testing.T) {
	db := openDB(t)
	require.NoError(t, db.Create(&swatch{Name: "lawn", Color: "green"}).Error)

	var out []swatch
	require.NoError(t, New(db).Model(&swatch{}).Cache(context.Background(), "swatches", time.Minute, &out))
	assert.Len(t, out, 1)
}

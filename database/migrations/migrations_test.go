package migrations_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/pehnawa/database/migrations"
	"github.com/shashiranjanraj/pehnawa/pkg/migration"
	"github.com/shashiranjanraj/pehnawa/pkg/testkit"
)

func TestAllIsValid(t *testing.T) {
	require.NoError(t, migration.Validate(migrations.All()))
}

func TestUpAndReset(t *testing.T) {
	ctx := context.Background()
	db := testkit.OpenDB(t)
	r := migration.New(db, migrations.All())

	applied, err := r.Up(ctx)
	require.NoError(t, err)
	assert.Len(t, applied, len(migrations.All()))

	for _, table := range []string{"users", "categories", "products", "product_variants", "product_images",
		"collections", "product_collections", "carts", "cart_items", "orders", "order_items", "failed_jobs"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	again, err := r.Up(ctx)
	require.NoError(t, err)
	assert.Empty(t, again)

	require.NoError(t, r.Reset(ctx))
	assert.False(t, db.Migrator().HasTable("orders"))
	assert.False(t, db.Migrator().HasTable("product_collections"))
	assert.False(t, db.Migrator().HasTable("users"))

	status, err := r.Status(ctx)
	require.NoError(t, err)
	for _, s := range status {
		assert.False(t, s.Ran, s.Name)
	}
}

package seeders_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/pehnawa/app/models"
	"github.com/shashiranjanraj/pehnawa/database/seeders"
	"github.com/shashiranjanraj/pehnawa/pkg/auth"
	"github.com/shashiranjanraj/pehnawa/pkg/testkit"
)

func TestRunAllIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := testkit.OpenDB(t, models.All()...)

	assert.Equal(t, []string{"users", "categories", "collections", "products"}, seeders.Names())
	require.NoError(t, seeders.RunAll(ctx, db))
	require.NoError(t, seeders.RunAll(ctx, db))

	var admin models.User
	require.NoError(t, db.Where("role = ?", models.RoleAdmin).First(&admin).Error)
	assert.True(t, auth.CheckPassword(admin.Password, "Admin@123"))

	var users, products int64
	db.Model(&models.User{}).Count(&users)
	db.Model(&models.Product{}).Count(&products)
	assert.EqualValues(t, 1, users)
	assert.EqualValues(t, 4, products)

	var lawn models.Product
	require.NoError(t, db.Preload("Variants").Preload("Collections").
		Where("slug = ?", "elegant-summer-lawn-suit-two-piece").First(&lawn).Error)
	assert.Equal(t, 33, lawn.TotalStock)
	assert.Len(t, lawn.Collections, 2)

	var child models.Category
	require.NoError(t, db.Where("slug = ?", "two-piece").First(&child).Error)
	require.NotNil(t, child.ParentID)
}

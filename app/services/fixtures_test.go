package services

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/pehnawa/app/models"
	"github.com/shashiranjanraj/pehnawa/pkg/testkit"
)

var fixtureSeq atomic.Int64

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testkit.OpenDB(t, models.All()...)
}

func seedCategory(t *testing.T, db *gorm.DB) *models.Category {
	t.Helper()
	n := fixtureSeq.Add(1)
	c := &models.Category{Name: fmt.Sprintf("Lawn %d", n), Slug: fmt.Sprintf("lawn-%d", n), IsActive: true}
	require.NoError(t, db.Create(c).Error)
	return c
}

// seedProduct stores an active stitched product priced at price. With no
// variants the stock sits on the product.
func seedProduct(t *testing.T, db *gorm.DB, cat *models.Category, price int64, stock int, variants ...models.Variant) *models.Product {
	t.Helper()
	n := fixtureSeq.Add(1)
	p := &models.Product{
		Name:         fmt.Sprintf("Embroidered Kurta %d", n),
		Slug:         fmt.Sprintf("embroidered-kurta-%d", n),
		Description:  "Three piece lawn suit",
		CategoryID:   cat.ID,
		StitchType:   "stitched",
		PieceCount:   3,
		TargetGender: "women",
		Season:       "summer",
		Price:        price,
		Stock:        stock,
		Variants:     variants,
		Images:       []models.ProductImage{{URL: "https://cdn.test/kurta.jpg", Alt: "front"}},
		IsActive:     true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func seedUser(t *testing.T, db *gorm.DB, role string) *models.User {
	t.Helper()
	n := fixtureSeq.Add(1)
	u := &models.User{
		FirstName: "Ayesha",
		LastName:  "Khan",
		Email:     fmt.Sprintf("ayesha%d@example.com", n),
		Password:  "x",
		Role:      role,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func reloadProduct(t *testing.T, db *gorm.DB, id uint) *models.Product {
	t.Helper()
	var p models.Product
	require.NoError(t, db.Unscoped().Preload("Variants").First(&p, id).Error)
	return &p
}

func address() models.Address {
	return models.Address{
		FirstName: "Ayesha",
		LastName:  "Khan",
		Email:     "ayesha@example.com",
		Phone:     "+92 300 1234567",
		Street:    "12 Mall Road",
		City:      "Lahore",
		State:     "Punjab",
		ZipCode:   "54000",
	}
}

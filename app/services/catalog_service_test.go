package services

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/pehnawa/app/models"
	"github.com/shashiranjanraj/pehnawa/app/repositories"
	"github.com/shashiranjanraj/pehnawa/pkg/apperr"
	"github.com/shashiranjanraj/pehnawa/pkg/storage"
)

func productInput(cat uint, name string) ProductInput {
	return ProductInput{
		Name:         name,
		Description:  "Printed lawn with chiffon dupatta",
		CategoryID:   cat,
		StitchType:   "unstitched",
		PieceCount:   3,
		TargetGender: "women",
		Price:        4500,
		Variants: []VariantInput{
			{Size: "M", Color: "Red", Stock: 4},
			{Size: "L", Color: "Red", Stock: 6},
		},
	}
}

func TestCreateProductSlugsAndTotals(t *testing.T) {
	db := newDB(t)
	svc := NewCatalogService(db, nil, nil, nil)
	ctx := context.Background()
	cat := seedCategory(t, db)

	first, err := svc.CreateProduct(ctx, productInput(cat.ID, "Summer Lawn"))
	require.NoError(t, err)
	second, err := svc.CreateProduct(ctx, productInput(cat.ID, "Summer Lawn"))
	require.NoError(t, err)

	assert.Equal(t, "summer-lawn", first.Slug)
	assert.Equal(t, "summer-lawn-1", second.Slug)
	assert.Equal(t, 10, first.TotalStock)
	assert.Len(t, first.Variants, 2)
	require.NotNil(t, first.Category)
	assert.Equal(t, cat.ID, first.Category.ID)
}

func TestCreateProductValidation(t *testing.T) {
	db := newDB(t)
	svc := NewCatalogService(db, nil, nil, nil)
	cat := seedCategory(t, db)

	in := productInput(cat.ID, "Khaddar")
	in.DiscountedPrice = in.Price
	_, err := svc.CreateProduct(context.Background(), in)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, e.Kind)
	assert.Contains(t, e.Fields, "discountedPrice")

	in = productInput(cat.ID+100, "Khaddar")
	_, err = svc.CreateProduct(context.Background(), in)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCreateInactiveProductStaysInactive(t *testing.T) {
	db := newDB(t)
	svc := NewCatalogService(db, nil, nil, nil)
	ctx := context.Background()
	cat := seedCategory(t, db)

	off := false
	in := productInput(cat.ID, "Hidden Suit")
	in.IsActive = &off
	p, err := svc.CreateProduct(ctx, in)
	require.NoError(t, err)
	assert.False(t, p.IsActive)

	key := strconv.Itoa(int(p.ID))
	_, err = svc.FindProduct(ctx, key, false)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	_, err = svc.FindProduct(ctx, p.Slug, false)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	byID, err := svc.FindProduct(ctx, key, true)
	require.NoError(t, err)
	assert.Equal(t, p.ID, byID.ID)
	bySlug, err := svc.FindProduct(ctx, p.Slug, true)
	require.NoError(t, err)
	assert.False(t, bySlug.IsActive)
}

func TestFindProductRejectsPlaceholderKeys(t *testing.T) {
	svc := NewCatalogService(newDB(t), nil, nil, nil)
	for _, key := range []string{"", "undefined", "null"} {
		_, err := svc.FindProduct(context.Background(), key, false)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), key)
	}
}

func TestFindProductsFilters(t *testing.T) {
	db := newDB(t)
	svc := NewCatalogService(db, nil, nil, nil)
	ctx := context.Background()
	lawn := seedCategory(t, db)
	silk := seedCategory(t, db)

	cheap := seedProduct(t, db, lawn, 1500, 5)
	seedProduct(t, db, lawn, 9000, 5)
	seedProduct(t, db, silk, 3000, 5)

	items, page, err := svc.FindProducts(ctx, ProductQuery{Category: lawn.Slug, Sort: "price"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, cheap.ID, items[0].ID)
	assert.EqualValues(t, 2, page.Total)

	max := int64(2000)
	items, _, err = svc.FindProducts(ctx, ProductQuery{MaxPrice: &max})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, cheap.ID, items[0].ID)

	items, page, err = svc.FindProducts(ctx, ProductQuery{Category: "no-such-category"})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.EqualValues(t, 0, page.Total)
}

func TestUpdateProductReplacesVariants(t *testing.T) {
	db := newDB(t)
	svc := NewCatalogService(db, nil, nil, nil)
	ctx := context.Background()
	cat := seedCategory(t, db)

	p, err := svc.CreateProduct(ctx, productInput(cat.ID, "Festive Suit"))
	require.NoError(t, err)

	name := "Festive Suit Deluxe"
	p, err = svc.UpdateProduct(ctx, p.ID, ProductUpdate{
		Name:     &name,
		Variants: []VariantInput{{Size: "S", Color: "Green", Stock: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, "festive-suit-deluxe", p.Slug)
	require.Len(t, p.Variants, 1)
	assert.Equal(t, 2, p.TotalStock)
}

func assertStockConsistent(t *testing.T, db *gorm.DB, id uint, total, sold int) *models.Product {
	t.Helper()
	p := reloadProduct(t, db, id)
	assert.Equal(t, total, p.TotalStock)
	assert.Equal(t, p.ComputeTotalStock(), p.TotalStock)
	assert.Equal(t, sold, p.SoldCount)
	return p
}

func TestUpdateProductAfterOrderKeepsStock(t *testing.T) {
	db := newDB(t)
	catalog := NewCatalogService(db, nil, nil, nil)
	orders := newOrderService(t, db, nil, nil)
	ctx := context.Background()
	o, p := placeOne(t, db, orders, 5, 3)
	require.Len(t, o.Items, 1)

	brand := "Khaadi"
	updated, err := catalog.UpdateProduct(ctx, p.ID, ProductUpdate{Brand: &brand})
	require.NoError(t, err)
	assert.Equal(t, "Khaadi", updated.Brand)

	after := assertStockConsistent(t, db, p.ID, 2, 3)
	require.Len(t, after.Variants, 1)
	assert.Equal(t, 2, after.Variants[0].Stock)
	assert.Equal(t, "Khaadi", after.Brand)
}

func TestUpdateProductWithoutVariantsKeepsStock(t *testing.T) {
	db := newDB(t)
	catalog := NewCatalogService(db, nil, nil, nil)
	ctx := context.Background()
	p := seedProduct(t, db, seedCategory(t, db), 1000, 8)

	ok, err := repositories.NewProductRepository(db).DecrementStock(ctx, p.ID, nil, 2)
	require.NoError(t, err)
	require.True(t, ok)

	featured := true
	_, err = catalog.UpdateProduct(ctx, p.ID, ProductUpdate{IsFeatured: &featured})
	require.NoError(t, err)

	after := assertStockConsistent(t, db, p.ID, 6, 2)
	assert.Equal(t, 6, after.Stock)
	assert.True(t, after.IsFeatured)
}

// An order committing between the edit's read and its write must not be
// overwritten by the edit.
func TestUpdateProductInterleavedWithOrderKeepsStock(t *testing.T) {
	db := newDB(t)
	catalog := NewCatalogService(db, nil, nil, nil)
	ctx := context.Background()
	p := seedProduct(t, db, seedCategory(t, db), 1000, 0,
		models.Variant{Size: "M", Color: "Red", Stock: 5})
	variantID := p.Variants[0].ID

	fired := false
	err := db.Callback().Update().Before("gorm:update").Register("test:interleave_order", func(tx *gorm.DB) {
		if fired || tx.Statement.Table != "products" {
			return
		}
		fired = true
		same := tx.Session(&gorm.Session{NewDB: true})
		ok, err := repositories.NewProductRepository(same).DecrementStock(ctx, p.ID, &variantID, 3)
		if err != nil || !ok {
			tx.AddError(err)
		}
	})
	require.NoError(t, err)

	brand := "Sapphire"
	_, err = catalog.UpdateProduct(ctx, p.ID, ProductUpdate{Brand: &brand})
	require.NoError(t, err)
	require.True(t, fired)

	after := assertStockConsistent(t, db, p.ID, 2, 3)
	assert.Equal(t, 2, after.Variants[0].Stock)
	assert.Equal(t, "Sapphire", after.Brand)
}

func TestUpdateProductKeepsMatchingVariantIDs(t *testing.T) {
	db := newDB(t)
	catalog := NewCatalogService(db, nil, nil, nil)
	ctx := context.Background()
	p, err := catalog.CreateProduct(ctx, productInput(seedCategory(t, db).ID, "Lawn Three Piece"))
	require.NoError(t, err)
	ids := map[string]uint{}
	for _, v := range p.Variants {
		ids[v.Size] = v.ID
	}

	p, err = catalog.UpdateProduct(ctx, p.ID, ProductUpdate{Variants: []VariantInput{
		{Size: "m", Color: "red ", Stock: 9},
		{Size: "XL", Color: "Red", Stock: 1},
	}})
	require.NoError(t, err)
	require.Len(t, p.Variants, 2)

	m, ok := p.FindVariant("M", "Red")
	require.True(t, ok)
	assert.Equal(t, ids["M"], m.ID)
	assert.Equal(t, 9, m.Stock)
	_, ok = p.FindVariant("L", "Red")
	assert.False(t, ok)
	assertStockConsistent(t, db, p.ID, 10, 0)
}

func TestDeleteCategoryWithProductsConflicts(t *testing.T) {
	db := newDB(t)
	svc := NewCatalogService(db, nil, nil, nil)
	ctx := context.Background()
	cat := seedCategory(t, db)
	seedProduct(t, db, cat, 2000, 3)

	err := svc.DeleteCategory(ctx, cat.ID)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	empty := seedCategory(t, db)
	require.NoError(t, svc.DeleteCategory(ctx, empty.ID))
	_, err = svc.FindCategory(ctx, empty.Slug)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestListCategoriesCountsActiveProducts(t *testing.T) {
	db := newDB(t)
	svc := NewCatalogService(db, nil, nil, nil)
	cat := seedCategory(t, db)
	seedProduct(t, db, cat, 2000, 3)
	hidden := seedProduct(t, db, cat, 2000, 3)
	require.NoError(t, db.Model(hidden).Update("is_active", false).Error)

	cats, err := svc.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.EqualValues(t, 1, cats[0].ProductCount)
}

func TestCollectionMembership(t *testing.T) {
	db := newDB(t)
	svc := NewCatalogService(db, nil, nil, nil)
	ctx := context.Background()
	cat := seedCategory(t, db)

	eid, err := svc.CreateCollection(ctx, CollectionInput{Name: "Eid Edit"})
	require.NoError(t, err)
	assert.Equal(t, "eid-edit", eid.Slug)

	in := productInput(cat.ID, "Eid Suit")
	in.CollectionIDs = []uint{eid.ID}
	p, err := svc.CreateProduct(ctx, in)
	require.NoError(t, err)
	seedProduct(t, db, cat, 1000, 1)

	items, _, err := svc.FindProducts(ctx, ProductQuery{Collection: "eid-edit"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, p.ID, items[0].ID)

	require.NoError(t, svc.DeleteCollection(ctx, eid.ID))
	var links int64
	require.NoError(t, db.Table("product_collections").Count(&links).Error)
	assert.Zero(t, links)

	in.CollectionIDs = []uint{eid.ID}
	_, err = svc.CreateProduct(ctx, in)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestUploadProductImage(t *testing.T) {
	db := newDB(t)
	disk, err := storage.NewLocal(t.TempDir(), "/storage")
	require.NoError(t, err)
	svc := NewCatalogService(db, nil, disk, nil)
	ctx := context.Background()
	p := seedProduct(t, db, seedCategory(t, db), 2000, 3)

	img, err := svc.UploadProductImage(ctx, p.ID, "Front.JPG", strings.NewReader("jpeg-bytes"), "front view")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(img.URL, "/storage/products/"))
	assert.Equal(t, 1, img.Position)

	ok, err := disk.Exists(ctx, img.Path)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.UploadProductImage(ctx, p.ID, "notes.txt", strings.NewReader("x"), "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	require.NoError(t, svc.DeleteProductImage(ctx, p.ID, img.ID))
	ok, err = disk.Exists(ctx, img.Path)
	require.NoError(t, err)
	assert.False(t, ok)

	var count int64
	require.NoError(t, db.Model(&models.ProductImage{}).Where("product_id = ?", p.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

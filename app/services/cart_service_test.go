package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/pehnawa/app/models"
	"github.com/shashiranjanraj/pehnawa/pkg/apperr"
)

func addInput(productID uint, size, color string, qty int) AddItemInput {
	in := AddItemInput{ProductID: productID, Quantity: qty}
	in.Variant.Size, in.Variant.Color = size, color
	return in
}

func TestAddItemMergesLines(t *testing.T) {
	db := newDB(t)
	svc := NewCartService(db)
	ctx := context.Background()
	user := seedUser(t, db, models.RoleUser)
	p := seedProduct(t, db, seedCategory(t, db), 2500, 0,
		models.Variant{Size: "M", Color: "Blue", Stock: 5})

	_, err := svc.AddItem(ctx, user.ID, addInput(p.ID, "M", "Blue", 2))
	require.NoError(t, err)
	cart, err := svc.AddItem(ctx, user.ID, addInput(p.ID, "m", "blue", 1))
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.EqualValues(t, 2500, cart.Items[0].Price)
	assert.EqualValues(t, 7500, cart.Subtotal())
	require.NotNil(t, cart.Items[0].Product)
}

func TestAddItemChecksCombinedStock(t *testing.T) {
	db := newDB(t)
	svc := NewCartService(db)
	ctx := context.Background()
	user := seedUser(t, db, models.RoleUser)
	p := seedProduct(t, db, seedCategory(t, db), 2500, 0,
		models.Variant{Size: "M", Color: "Blue", Stock: 5})

	_, err := svc.AddItem(ctx, user.ID, addInput(p.ID, "M", "Blue", 4))
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, user.ID, addInput(p.ID, "M", "Blue", 2))
	assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))

	_, err = svc.AddItem(ctx, user.ID, addInput(p.ID, "XL", "Blue", 1))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = svc.AddItem(ctx, user.ID, addInput(p.ID, "M", "Blue", 0))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCartUpdateRemoveClear(t *testing.T) {
	db := newDB(t)
	svc := NewCartService(db)
	ctx := context.Background()
	user := seedUser(t, db, models.RoleUser)
	other := seedUser(t, db, models.RoleUser)
	cat := seedCategory(t, db)
	a := seedProduct(t, db, cat, 1000, 10)
	b := seedProduct(t, db, cat, 2000, 10)

	_, err := svc.AddItem(ctx, user.ID, addInput(a.ID, "", "", 1))
	require.NoError(t, err)
	cart, err := svc.AddItem(ctx, user.ID, addInput(b.ID, "", "", 1))
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	itemID := cart.Items[0].ID

	cart, err = svc.UpdateItemQuantity(ctx, user.ID, itemID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, cart.Items[0].Quantity)

	_, err = svc.UpdateItemQuantity(ctx, user.ID, itemID, 11)
	assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))
	_, err = svc.UpdateItemQuantity(ctx, user.ID, itemID, 101)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.UpdateItemQuantity(ctx, other.ID, itemID, 2)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err), "items of another cart are invisible")

	cart, err = svc.RemoveItem(ctx, user.ID, itemID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)

	cart, err = svc.Clear(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCartKeepsAddTimePrice(t *testing.T) {
	db := newDB(t)
	svc := NewCartService(db)
	ctx := context.Background()
	user := seedUser(t, db, models.RoleUser)
	p := seedProduct(t, db, seedCategory(t, db), 1000, 0,
		models.Variant{Size: "M", Color: "Red", Stock: 10})

	cart, err := svc.AddItem(ctx, user.ID, addInput(p.ID, "M", "Red", 1))
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", p.ID).Update("price", 1500).Error)

	cart, err = svc.UpdateItemQuantity(ctx, user.ID, itemID, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 1000, cart.Items[0].Price)

	cart, err = svc.AddItem(ctx, user.ID, addInput(p.ID, "M", "Red", 1))
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.EqualValues(t, 1000, cart.Items[0].Price)
	assert.EqualValues(t, 3000, cart.Subtotal())
}

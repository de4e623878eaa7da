package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/pehnawa/app/models"
	"github.com/shashiranjanraj/pehnawa/pkg/apperr"
)

type CartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{db: db}
}

func (r *CartRepository) WithTx(tx *gorm.DB) *CartRepository {
	return &CartRepository{db: tx}
}

// ForUser returns the user's cart with items and their products, creating
// an empty cart on first use.
func (r *CartRepository) ForUser(ctx context.Context, userID uint) (*models.Cart, error) {
	db := r.db.WithContext(ctx)
	var cart models.Cart
	err := db.Where(models.Cart{UserID: userID}).FirstOrCreate(&cart).Error
	if err != nil {
		// Lost a creation race: the other request's row is there now.
		if !errors.Is(translate(err, "Cart"), apperr.ErrConflict) {
			return nil, translate(err, "Cart")
		}
		if err := db.Where("user_id = ?", userID).First(&cart).Error; err != nil {
			return nil, translate(err, "Cart")
		}
	}
	if err := r.loadItems(ctx, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *CartRepository) loadItems(ctx context.Context, cart *models.Cart) error {
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Product.Variants").
		Preload("Product.Images", func(db *gorm.DB) *gorm.DB { return db.Order("position, id") }).
		Where("cart_id = ?", cart.ID).
		Order("id").
		Find(&cart.Items).Error
	return translate(err, "Cart")
}

func (r *CartRepository) AddItem(ctx context.Context, item *models.CartItem) error {
	return translate(r.db.WithContext(ctx).Omit("Product").Create(item).Error, "Cart item")
}

// SetQuantity changes only the quantity; the line keeps its add-time price.
func (r *CartRepository) SetQuantity(ctx context.Context, itemID uint, qty int) error {
	err := r.db.WithContext(ctx).Model(&models.CartItem{}).Where("id = ?", itemID).
		Update("quantity", qty).Error
	return translate(err, "Cart item")
}

func (r *CartRepository) FindItem(ctx context.Context, cartID, itemID uint) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Product.Variants").
		Where("id = ? AND cart_id = ?", itemID, cartID).
		First(&item).Error
	if err != nil {
		return nil, translate(err, "Cart item")
	}
	return &item, nil
}

func (r *CartRepository) DeleteItem(ctx context.Context, cartID, itemID uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND cart_id = ?", itemID, cartID).Delete(&models.CartItem{})
	if res.Error == nil && res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "Cart item")
	}
	return translate(res.Error, "Cart item")
}

// Clear empties the user's cart. A user without a cart is a no-op.
func (r *CartRepository) Clear(ctx context.Context, userID uint) error {
	err := r.db.WithContext(ctx).
		Where("cart_id IN (?)", r.db.Model(&models.Cart{}).Select("id").Where("user_id = ?", userID)).
		Delete(&models.CartItem{}).Error
	return translate(err, "Cart")
}

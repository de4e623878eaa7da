package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/pehnawa/app/models"
	"github.com/shashiranjanraj/pehnawa/pkg/orm"
)

// OrderFilter narrows the admin order listing.
type OrderFilter struct {
	Status string
	Guest  *bool
}

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) WithTx(tx *gorm.DB) *OrderRepository {
	return &OrderRepository{db: tx}
}

func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Preload("Items").Order("created_at DESC, id DESC")
}

// Create inserts the order and its items.
func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	return translate(r.db.WithContext(ctx).Omit("User").Create(o).Error, "Order")
}

func (r *OrderRepository) FindByID(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).Preload("Items").Preload("User").First(&o, id).Error
	if err != nil {
		return nil, translate(err, "Order")
	}
	return &o, nil
}

// FindForUser only finds orders the user placed.
func (r *OrderRepository) FindForUser(ctx context.Context, userID, id uint) (*models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).Preload("Items").
		Where("id = ? AND user_id = ?", id, userID).
		First(&o).Error
	if err != nil {
		return nil, translate(err, "Order")
	}
	return &o, nil
}

func (r *OrderRepository) ListForUser(ctx context.Context, userID uint, page, limit int) ([]models.Order, orm.Pagination, error) {
	var orders []models.Order
	q := r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)
	p, err := orm.New(q).Paginate(page, limit, &orders, newestFirst)
	return orders, p, translate(err, "Order")
}

func (r *OrderRepository) List(ctx context.Context, f OrderFilter, page, limit int) ([]models.Order, orm.Pagination, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Guest != nil {
		q = q.Where("is_guest = ?", *f.Guest)
	}

	var orders []models.Order
	p, err := orm.New(q).Paginate(page, limit, &orders, func(db *gorm.DB) *gorm.DB {
		return newestFirst(db).Preload("User")
	})
	return orders, p, translate(err, "Order")
}

// UpdateFrom applies changes only while the order is still in status from.
// It reports whether the row matched, so two admins racing on the same
// order cannot both apply a transition.
func (r *OrderRepository) UpdateFrom(ctx context.Context, id uint, from string, changes map[string]interface{}) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(changes)
	return res.RowsAffected == 1, translate(res.Error, "Order")
}

func (r *OrderRepository) SetPaymentReference(ctx context.Context, id uint, ref string) error {
	err := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).
		Update("payment_reference", ref).Error
	return translate(err, "Order")
}

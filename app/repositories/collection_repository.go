package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/pehnawa/app/models"
)

type CollectionRepository struct {
	db *gorm.DB
}

func NewCollectionRepository(db *gorm.DB) *CollectionRepository {
	return &CollectionRepository{db: db}
}

func (r *CollectionRepository) WithTx(tx *gorm.DB) *CollectionRepository {
	return &CollectionRepository{db: tx}
}

func (r *CollectionRepository) List(ctx context.Context, activeOnly bool) ([]models.Collection, error) {
	q := r.db.WithContext(ctx).Order("name ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var out []models.Collection
	return out, translate(q.Find(&out).Error, "Collection")
}

func (r *CollectionRepository) withProducts(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Products", func(db *gorm.DB) *gorm.DB {
		return db.Where("is_active = ?", true).Order("created_at DESC")
	}).Preload("Products.Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("position, id")
	})
}

// FindByID loads the collection with its active products.
func (r *CollectionRepository) FindByID(ctx context.Context, id uint) (*models.Collection, error) {
	var c models.Collection
	if err := r.withProducts(ctx).First(&c, id).Error; err != nil {
		return nil, translate(err, "Collection")
	}
	return &c, nil
}

func (r *CollectionRepository) FindBySlug(ctx context.Context, slug string) (*models.Collection, error) {
	var c models.Collection
	if err := r.withProducts(ctx).Where("slug = ?", slug).First(&c).Error; err != nil {
		return nil, translate(err, "Collection")
	}
	return &c, nil
}

// FindByIDs returns the collections that exist among ids.
func (r *CollectionRepository) FindByIDs(ctx context.Context, ids []uint) ([]models.Collection, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []models.Collection
	return out, translate(r.db.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error, "Collection")
}

func (r *CollectionRepository) SlugTaken(ctx context.Context, slug string, exceptID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Unscoped().Model(&models.Collection{}).
		Where("slug = ? AND id <> ?", slug, exceptID).Count(&n).Error
	return n > 0, err
}

func (r *CollectionRepository) Create(ctx context.Context, c *models.Collection) error {
	active := c.IsActive
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Products").Create(c).Error; err != nil {
			return err
		}
		return persistInactive(tx, c, active)
	})
	c.IsActive = active
	return translate(err, "Collection")
}

func (r *CollectionRepository) Save(ctx context.Context, c *models.Collection) error {
	return translate(r.db.WithContext(ctx).Omit("Products").Save(c).Error, "Collection")
}

// Delete unlinks the collection's products and removes it.
func (r *CollectionRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM product_collections WHERE collection_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Collection{}, id)
		if res.Error == nil && res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return res.Error
	})
	return translate(err, "Collection")
}

func (r *CollectionRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Collection{}).Count(&n).Error
	return n, err
}

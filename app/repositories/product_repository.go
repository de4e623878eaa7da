package repositories

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shashiranjanraj/pehnawa/app/models"
	"github.com/shashiranjanraj/pehnawa/pkg/apperr"
	"github.com/shashiranjanraj/pehnawa/pkg/orm"
)

// Product status filters for admin listings.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusAll      = "all"
)

// ProductFilter narrows a product listing. Nil and empty fields do not filter.
type ProductFilter struct {
	CategoryID   *uint
	CollectionID *uint
	Search       string
	MinPrice     *int64
	MaxPrice     *int64
	Gender       string
	StitchType   string
	PieceCount   *int
	Season       string
	Featured     *bool
	Status       string
}

var productSorts = map[string]string{
	"-createdAt": "created_at DESC",
	"createdAt":  "created_at ASC",
	"price":      "price ASC",
	"-price":     "price DESC",
	"name":       "name ASC",
	"-name":      "name DESC",
	"-rating":    "rating_average DESC",
	"-soldCount": "sold_count DESC",
}

// ProductSort resolves a sort key. Unknown keys fall back to newest first.
func ProductSort(key string) string {
	if s, ok := productSorts[key]; ok {
		return s
	}
	return productSorts["-createdAt"]
}

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) WithTx(tx *gorm.DB) *ProductRepository {
	return &ProductRepository{db: tx}
}

func (r *ProductRepository) detail(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Category").
		Preload("Collections").
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position, id") })
}

func (r *ProductRepository) Find(ctx context.Context, f ProductFilter, page, limit int, sort string) ([]models.Product, orm.Pagination, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{})

	switch f.Status {
	case StatusAll:
	case StatusInactive:
		q = q.Where("products.is_active = ?", false)
	default:
		q = q.Where("products.is_active = ?", true)
	}
	if f.CategoryID != nil {
		q = q.Where("products.category_id = ?", *f.CategoryID)
	}
	if f.CollectionID != nil {
		q = q.Where("products.id IN (?)",
			r.db.Table("product_collections").Select("product_id").Where("collection_id = ?", *f.CollectionID))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("(LOWER(products.name) LIKE ? OR LOWER(products.description) LIKE ? OR LOWER(products.brand) LIKE ?)", like, like, like)
	}
	if f.MinPrice != nil {
		q = q.Where("products.price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("products.price <= ?", *f.MaxPrice)
	}
	if f.Gender != "" {
		q = q.Where("products.target_gender = ?", f.Gender)
	}
	if f.StitchType != "" {
		q = q.Where("products.stitch_type = ?", f.StitchType)
	}
	if f.PieceCount != nil {
		q = q.Where("products.piece_count = ?", *f.PieceCount)
	}
	if f.Season != "" {
		q = q.Where("products.season = ?", f.Season)
	}
	if f.Featured != nil {
		q = q.Where("products.is_featured = ?", *f.Featured)
	}

	var products []models.Product
	p, err := orm.New(q).Paginate(page, limit, &products, func(db *gorm.DB) *gorm.DB {
		return db.Preload("Category").
			Preload("Variants").
			Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position, id") }).
			Order(ProductSort(sort)).Order("products.id DESC")
	})
	if err != nil {
		return nil, orm.Pagination{}, translate(err, "Product")
	}
	return products, p, nil
}

func (r *ProductRepository) Featured(ctx context.Context, limit int) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position, id") }).
		Where("is_active = ? AND is_featured = ?", true, true).
		Order("created_at DESC").Limit(limit).
		Find(&products).Error
	return products, translate(err, "Product")
}

// FindByID loads a product with its relations. activeOnly hides inactive
// products.
func (r *ProductRepository) FindByID(ctx context.Context, id uint, activeOnly bool) (*models.Product, error) {
	q := r.detail(ctx).Where("products.id = ?", id)
	if activeOnly {
		q = q.Where("products.is_active = ?", true)
	}
	var p models.Product
	if err := q.First(&p).Error; err != nil {
		return nil, translate(err, "Product")
	}
	return &p, nil
}

func (r *ProductRepository) FindBySlug(ctx context.Context, slug string, activeOnly bool) (*models.Product, error) {
	q := r.detail(ctx).Where("products.slug = ?", slug)
	if activeOnly {
		q = q.Where("products.is_active = ?", true)
	}
	var p models.Product
	if err := q.First(&p).Error; err != nil {
		return nil, translate(err, "Product")
	}
	return &p, nil
}

// SlugTaken includes soft-deleted rows: the unique index still holds them.
func (r *ProductRepository) SlugTaken(ctx context.Context, slug string, exceptID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Unscoped().Model(&models.Product{}).
		Where("slug = ? AND id <> ?", slug, exceptID).Count(&n).Error
	return n > 0, err
}

// Create inserts the product with its variants and images, then links the
// collections.
func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	collections, active := p.Collections, p.IsActive
	p.Collections = nil
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		if err := persistInactive(tx, p, active); err != nil {
			return err
		}
		if len(collections) > 0 {
			return tx.Model(p).Association("Collections").Replace(collections)
		}
		return nil
	})
	p.Collections, p.IsActive = collections, active
	return translate(err, "Product")
}

// ProductChanges says what Update writes: the scalar Columns (db names)
// and which relations to replace.
type ProductChanges struct {
	Columns     []string
	Variants    bool
	Images      bool
	Collections bool
}

// FindForUpdate loads a product for a read-modify-write. Postgres and MySQL
// lock the row until the surrounding transaction ends; SQLite serialises
// writers on its own.
func (r *ProductRepository) FindForUpdate(ctx context.Context, id uint) (*models.Product, error) {
	q := r.detail(ctx).Where("products.id = ?", id)
	switch r.db.Dialector.Name() {
	case "postgres", "mysql":
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var p models.Product
	if err := q.First(&p).Error; err != nil {
		return nil, translate(err, "Product")
	}
	return &p, nil
}

// totalStockExpr sums the variant rows, or falls back to the product's own
// stock when it has none.
var totalStockExpr = gorm.Expr(`CASE WHEN EXISTS (SELECT 1 FROM product_variants pv WHERE pv.product_id = products.id)
	THEN (SELECT COALESCE(SUM(pv.stock), 0) FROM product_variants pv WHERE pv.product_id = products.id)
	ELSE products.stock END`)

// Update writes ch.Columns of p, replaces the relations named in ch and
// recomputes total_stock from the stored rows. sold_count and total_stock
// are never taken from p.
func (r *ProductRepository) Update(ctx context.Context, p *models.Product, ch ProductChanges) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if ch.Variants {
			if err := syncVariants(tx, p); err != nil {
				return err
			}
		}
		if ch.Images {
			if err := tx.Where("product_id = ?", p.ID).Delete(&models.ProductImage{}).Error; err != nil {
				return err
			}
			for i := range p.Images {
				p.Images[i].ID = 0
				p.Images[i].ProductID = p.ID
			}
			if len(p.Images) > 0 {
				if err := tx.Create(&p.Images).Error; err != nil {
					return err
				}
			}
		}
		if ch.Collections {
			if err := tx.Model(p).Association("Collections").Replace(p.Collections); err != nil {
				return err
			}
		}
		if len(ch.Columns) > 0 {
			cols := append(append([]string(nil), ch.Columns...), "updated_at")
			err := tx.Model(p).Select(cols).
				Omit("Category", "Collections", "Variants", "Images").
				Updates(p).Error
			if err != nil {
				return err
			}
		}
		return tx.Model(&models.Product{}).Where("id = ?", p.ID).
			UpdateColumn("total_stock", totalStockExpr).Error
	})
	return translate(err, "Product")
}

// syncVariants updates stored variants in place, matched on size and
// colour, so the variant IDs held by order items stay valid. New
// combinations are inserted and unmatched rows removed.
func syncVariants(tx *gorm.DB, p *models.Product) error {
	var current []models.Variant
	if err := tx.Where("product_id = ?", p.ID).Order("id").Find(&current).Error; err != nil {
		return err
	}
	byKey := make(map[string]uint, len(current))
	for _, v := range current {
		k := variantKey(v.Size, v.Color)
		if _, dup := byKey[k]; !dup {
			byKey[k] = v.ID
		}
	}

	kept := make(map[uint]bool, len(p.Variants))
	for i := range p.Variants {
		v := &p.Variants[i]
		v.ProductID = p.ID
		if id, ok := byKey[variantKey(v.Size, v.Color)]; ok && !kept[id] {
			v.ID = id
			kept[id] = true
			err := tx.Model(&models.Variant{}).Where("id = ?", id).Updates(map[string]interface{}{
				"size":  v.Size,
				"color": v.Color,
				"stock": v.Stock,
				"price": v.Price,
				"sku":   v.SKU,
			}).Error
			if err != nil {
				return err
			}
			continue
		}
		v.ID = 0
		if err := tx.Create(v).Error; err != nil {
			return err
		}
	}

	var stale []uint
	for _, v := range current {
		if !kept[v.ID] {
			stale = append(stale, v.ID)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	return tx.Where("id IN ?", stale).Delete(&models.Variant{}).Error
}

func variantKey(size, color string) string {
	return strings.ToLower(strings.TrimSpace(size)) + "|" + strings.ToLower(strings.TrimSpace(color))
}

func (r *ProductRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return translate(res.Error, "Product")
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "Product")
	}
	return nil
}

func (r *ProductRepository) AddImage(ctx context.Context, img *models.ProductImage) error {
	return translate(r.db.WithContext(ctx).Create(img).Error, "Image")
}

func (r *ProductRepository) NextImagePosition(ctx context.Context, productID uint) (int, error) {
	var pos int
	err := r.db.WithContext(ctx).Model(&models.ProductImage{}).
		Select("COALESCE(MAX(position), -1) + 1").
		Where("product_id = ?", productID).
		Row().Scan(&pos)
	return pos, err
}

func (r *ProductRepository) FindImage(ctx context.Context, productID, imageID uint) (*models.ProductImage, error) {
	var img models.ProductImage
	err := r.db.WithContext(ctx).Where("id = ? AND product_id = ?", imageID, productID).First(&img).Error
	if err != nil {
		return nil, translate(err, "Image")
	}
	return &img, nil
}

func (r *ProductRepository) DeleteImage(ctx context.Context, imageID uint) error {
	return translate(r.db.WithContext(ctx).Delete(&models.ProductImage{}, imageID).Error, "Image")
}

// DecrementStock takes qty units from the variant (or from the product when
// variantID is nil) only if that many are on hand. It reports whether the
// row was updated. The product totals move with it.
func (r *ProductRepository) DecrementStock(ctx context.Context, productID uint, variantID *uint, qty int) (bool, error) {
	db := r.db.WithContext(ctx)
	totals := map[string]interface{}{
		"total_stock": gorm.Expr("total_stock - ?", qty),
		"sold_count":  gorm.Expr("sold_count + ?", qty),
	}

	if variantID == nil {
		totals["stock"] = gorm.Expr("stock - ?", qty)
		res := db.Model(&models.Product{}).
			Where("id = ? AND stock >= ?", productID, qty).
			UpdateColumns(totals)
		return res.RowsAffected == 1, res.Error
	}

	res := db.Model(&models.Variant{}).
		Where("id = ? AND product_id = ? AND stock >= ?", *variantID, productID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil || res.RowsAffected == 0 {
		return false, res.Error
	}
	err := db.Model(&models.Product{}).Where("id = ?", productID).UpdateColumns(totals).Error
	return err == nil, err
}

// Restock puts qty units back, undoing DecrementStock. When the variant
// row was replaced since the order, the unit is found again by size and
// colour; a combination that no longer exists is a Conflict.
func (r *ProductRepository) Restock(ctx context.Context, productID uint, variantID *uint, size, color string, qty int) error {
	db := r.db.WithContext(ctx)
	totals := map[string]interface{}{
		"total_stock": gorm.Expr("total_stock + ?", qty),
		"sold_count":  gorm.Expr("CASE WHEN sold_count >= ? THEN sold_count - ? ELSE 0 END", qty, qty),
	}

	if variantID == nil {
		totals["stock"] = gorm.Expr("stock + ?", qty)
	} else {
		res := db.Model(&models.Variant{}).
			Where("id = ? AND product_id = ?", *variantID, productID).
			UpdateColumn("stock", gorm.Expr("stock + ?", qty))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var v models.Variant
			err := db.Where("product_id = ? AND LOWER(size) = ? AND LOWER(color) = ?",
				productID, strings.ToLower(size), strings.ToLower(color)).
				Order("id").First(&v).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Conflict("Variant %s/%s of product %d no longer exists", size, color, productID)
			}
			if err != nil {
				return err
			}
			err = db.Model(&models.Variant{}).Where("id = ?", v.ID).
				UpdateColumn("stock", gorm.Expr("stock + ?", qty)).Error
			if err != nil {
				return err
			}
		}
	}
	return db.Unscoped().Model(&models.Product{}).Where("id = ?", productID).UpdateColumns(totals).Error
}

// LowStock lists active products with fewer than threshold units left.
func (r *ProductRepository) LowStock(ctx context.Context, threshold, limit int) ([]models.Product, error) {
	var products []models.Product
	q := r.db.WithContext(ctx).
		Where("is_active = ? AND total_stock < ?", true, threshold).
		Order("total_stock ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&products).Error
	return products, translate(err, "Product")
}

func (r *ProductRepository) CountLowStock(ctx context.Context, threshold int) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("is_active = ? AND total_stock < ?", true, threshold).
		Count(&n).Error
	return n, err
}

// TotalStocks reads the current total stock of each product in ids.
func (r *ProductRepository) TotalStocks(ctx context.Context, ids []uint) (map[uint]int, error) {
	var rows []struct {
		ID         uint
		TotalStock int
	}
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Select("id, total_stock").
		Where("id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err, "Product")
	}
	out := make(map[uint]int, len(rows))
	for _, row := range rows {
		out[row.ID] = row.TotalStock
	}
	return out, nil
}

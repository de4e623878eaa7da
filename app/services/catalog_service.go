package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/pehnawa/app/models"
	"github.com/shashiranjanraj/pehnawa/app/repositories"
	"github.com/shashiranjanraj/pehnawa/pkg/apperr"
	"github.com/shashiranjanraj/pehnawa/pkg/cache"
	"github.com/shashiranjanraj/pehnawa/pkg/collection"
	"github.com/shashiranjanraj/pehnawa/pkg/crypt"
	"github.com/shashiranjanraj/pehnawa/pkg/event"
	"github.com/shashiranjanraj/pehnawa/pkg/logger"
	"github.com/shashiranjanraj/pehnawa/pkg/orm"
	"github.com/shashiranjanraj/pehnawa/pkg/storage"
)

const (
	productCacheTTL  = 5 * time.Minute
	listingCacheTTL  = 10 * time.Minute
	catalogCachePref = "catalog:"
)

var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

type VariantInput struct {
	Size  string `json:"size"  validate:"nullable,in=XS|S|M|L|XL|XXL|0-6M|6-12M|1-2Y|2-3Y|3-4Y|4-5Y|5-6Y|6-7Y|7-8Y|8-9Y|9-10Y"`
	Color string `json:"color" validate:"max=50"`
	Stock int    `json:"stock" validate:"gte=0"`
	Price int64  `json:"price" validate:"gte=0"`
	SKU   string `json:"sku"   validate:"max=64"`
}

type ImageInput struct {
	URL string `json:"url" validate:"required,url"`
	Alt string `json:"alt" validate:"max=200"`
}

// ProductInput creates a product.
type ProductInput struct {
	Name             string         `json:"name"             validate:"required,max=200"`
	Description      string         `json:"description"      validate:"required,max=2000"`
	ShortDescription string         `json:"shortDescription" validate:"max=500"`
	CategoryID       uint           `json:"category"         validate:"required"`
	CollectionIDs    []uint         `json:"collections"`
	StitchType       string         `json:"stitchType"       validate:"required,in=stitched|unstitched"`
	PieceCount       int            `json:"pieceCount"       validate:"required,in=1|2|3"`
	TargetGender     string         `json:"targetGender"     validate:"required,in=women|men|boys|girls"`
	Season           string         `json:"season"           validate:"nullable,in=winter|summer|all-season"`
	Brand            string         `json:"brand"            validate:"max=50"`
	Images           []ImageInput   `json:"images"`
	Variants         []VariantInput `json:"variants"`
	Colors           []string       `json:"colors"`
	Tags             []string       `json:"tags"`
	Features         []string       `json:"features"`
	Materials        []string       `json:"materials"`
	CareInstructions string         `json:"careInstructions" validate:"max=1000"`
	Price            int64          `json:"price"            validate:"required,gt=0"`
	DiscountedPrice  int64          `json:"discountedPrice"  validate:"gte=0"`
	Stock            int            `json:"stock"            validate:"gte=0"`
	IsActive         *bool          `json:"isActive"`
	IsFeatured       bool           `json:"isFeatured"`
}

// ProductUpdate changes the fields that are set. A non-nil Variants,
// Images or CollectionIDs replaces the whole relation.
type ProductUpdate struct {
	Name             *string        `json:"name"             validate:"min=1,max=200"`
	Description      *string        `json:"description"      validate:"min=1,max=2000"`
	ShortDescription *string        `json:"shortDescription" validate:"max=500"`
	CategoryID       *uint          `json:"category"`
	CollectionIDs    []uint         `json:"collections"`
	StitchType       *string        `json:"stitchType"       validate:"in=stitched|unstitched"`
	PieceCount       *int           `json:"pieceCount"       validate:"in=1|2|3"`
	TargetGender     *string        `json:"targetGender"     validate:"in=women|men|boys|girls"`
	Season           *string        `json:"season"           validate:"in=winter|summer|all-season"`
	Brand            *string        `json:"brand"            validate:"max=50"`
	Images           []ImageInput   `json:"images"`
	Variants         []VariantInput `json:"variants"`
	Colors           []string       `json:"colors"`
	Tags             []string       `json:"tags"`
	Features         []string       `json:"features"`
	Materials        []string       `json:"materials"`
	CareInstructions *string        `json:"careInstructions" validate:"max=1000"`
	Price            *int64         `json:"price"            validate:"gt=0"`
	DiscountedPrice  *int64         `json:"discountedPrice"  validate:"gte=0"`
	Stock            *int           `json:"stock"            validate:"gte=0"`
	IsActive         *bool          `json:"isActive"`
	IsFeatured       *bool          `json:"isFeatured"`
}

// ProductQuery is a storefront listing request. Category and Collection
// take an ID or a slug.
type ProductQuery struct {
	Category   string
	Collection string
	Search     string
	MinPrice   *int64
	MaxPrice   *int64
	Gender     string
	StitchType string
	PieceCount *int
	Season     string
	Featured   *bool
	Status     string
	Sort       string
	Page       int
	Limit      int
}

type CategoryInput struct {
	Name        string `json:"name"        validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	Image       string `json:"image"       validate:"nullable,url"`
	ParentID    *uint  `json:"parentId"`
	IsActive    *bool  `json:"isActive"`
	SortOrder   int    `json:"sortOrder"`
}

type CollectionInput struct {
	Name        string `json:"name"        validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	Image       string `json:"image"       validate:"nullable,url"`
	IsActive    *bool  `json:"isActive"`
}

// CatalogService owns products, categories and collections.
type CatalogService struct {
	db          *gorm.DB
	products    *repositories.ProductRepository
	categories  *repositories.CategoryRepository
	collections *repositories.CollectionRepository
	cache       *cache.Store
	disk        storage.Disk
	events      *event.Dispatcher
}

// NewCatalogService wires the catalog. store, disk and events may be nil:
// reads then skip the cache, uploads fail, and no events fire.
func NewCatalogService(db *gorm.DB, store *cache.Store, disk storage.Disk, events *event.Dispatcher) *CatalogService {
	return &CatalogService{
		db:          db,
		products:    repositories.NewProductRepository(db),
		categories:  repositories.NewCategoryRepository(db),
		collections: repositories.NewCollectionRepository(db),
		cache:       store,
		disk:        disk,
		events:      events,
	}
}

// ─── Products ────────────────────────────────────────────────────────────────

func (s *CatalogService) FindProducts(ctx context.Context, q ProductQuery) ([]models.Product, orm.Pagination, error) {
	page, limit := orm.PageParams(q.Page, q.Limit, 12, 100)
	f := repositories.ProductFilter{
		Search:     q.Search,
		MinPrice:   q.MinPrice,
		MaxPrice:   q.MaxPrice,
		Gender:     q.Gender,
		StitchType: q.StitchType,
		PieceCount: q.PieceCount,
		Season:     q.Season,
		Featured:   q.Featured,
		Status:     q.Status,
	}

	if q.Category != "" {
		c, err := s.FindCategory(ctx, q.Category)
		if apperr.KindOf(err) == apperr.KindNotFound {
			return []models.Product{}, orm.NewPagination(page, limit, 0), nil
		}
		if err != nil {
			return nil, orm.Pagination{}, err
		}
		f.CategoryID = &c.ID
	}
	if q.Collection != "" {
		c, err := s.findCollection(ctx, q.Collection)
		if apperr.KindOf(err) == apperr.KindNotFound {
			return []models.Product{}, orm.NewPagination(page, limit, 0), nil
		}
		if err != nil {
			return nil, orm.Pagination{}, err
		}
		f.CollectionID = &c.ID
	}

	return s.products.Find(ctx, f, page, limit, q.Sort)
}

func (s *CatalogService) FeaturedProducts(ctx context.Context, limit int) ([]models.Product, error) {
	if limit < 1 || limit > 50 {
		limit = 8
	}
	var out []models.Product
	key := catalogCachePref + "featured:" + strconv.Itoa(limit)
	err := s.cache.Remember(ctx, key, listingCacheTTL, &out, func() error {
		var err error
		out, err = s.products.Featured(ctx, limit)
		return err
	})
	return out, err
}

// FindProduct resolves a numeric ID or a slug. Inactive products are only
// returned when includeInactive is set; those reads skip the cache.
func (s *CatalogService) FindProduct(ctx context.Context, key string, includeInactive bool) (*models.Product, error) {
	key = strings.TrimSpace(key)
	if key == "" || key == "undefined" || key == "null" {
		return nil, apperr.Validation("Product ID or slug is required")
	}
	if includeInactive {
		return s.lookupProduct(ctx, key, false)
	}

	var p models.Product
	err := s.cache.Remember(ctx, catalogCachePref+"product:"+key, productCacheTTL, &p, func() error {
		found, err := s.lookupProduct(ctx, key, true)
		if err != nil {
			return err
		}
		p = *found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *CatalogService) lookupProduct(ctx context.Context, key string, activeOnly bool) (*models.Product, error) {
	if id, err := strconv.ParseUint(key, 10, 64); err == nil && id > 0 {
		p, err := s.products.FindByID(ctx, uint(id), activeOnly)
		if apperr.KindOf(err) != apperr.KindNotFound {
			return p, err
		}
	}
	return s.products.FindBySlug(ctx, key, activeOnly)
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := check(&in); err != nil {
		return nil, err
	}
	if err := checkDiscount(in.Price, in.DiscountedPrice); err != nil {
		return nil, err
	}
	if err := s.requireCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}
	cols, err := s.collectionsFor(ctx, in.CollectionIDs)
	if err != nil {
		return nil, err
	}
	slug, err := uniqueSlug(ctx, Slugify(in.Name, "product"), func(ctx context.Context, slug string) (bool, error) {
		return s.products.SlugTaken(ctx, slug, 0)
	})
	if err != nil {
		return nil, err
	}

	season := in.Season
	if season == "" {
		season = "all-season"
	}
	p := &models.Product{
		Name:             strings.TrimSpace(in.Name),
		Slug:             slug,
		Description:      in.Description,
		ShortDescription: in.ShortDescription,
		CategoryID:       in.CategoryID,
		Collections:      cols,
		StitchType:       in.StitchType,
		PieceCount:       in.PieceCount,
		TargetGender:     in.TargetGender,
		Season:           season,
		Brand:            in.Brand,
		Images:           toImages(in.Images),
		Variants:         toVariants(in.Variants),
		Colors:           in.Colors,
		Tags:             in.Tags,
		Features:         in.Features,
		Materials:        in.Materials,
		CareInstructions: in.CareInstructions,
		Price:            in.Price,
		DiscountedPrice:  in.DiscountedPrice,
		Stock:            in.Stock,
		IsActive:         boolOr(in.IsActive, true),
		IsFeatured:       in.IsFeatured,
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	s.productsChanged(ctx, "created", p)
	return s.products.FindByID(ctx, p.ID, false)
}

// UpdateProduct applies the fields set in in while holding the product row.
// Only those columns are written, so stock moved by concurrent orders is
// never overwritten from the copy read here.
func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, in ProductUpdate) (*models.Product, error) {
	if err := check(&in); err != nil {
		return nil, err
	}
	if in.CategoryID != nil {
		if err := s.requireCategory(ctx, *in.CategoryID); err != nil {
			return nil, err
		}
	}
	var cols []models.Collection
	if in.CollectionIDs != nil {
		var err error
		if cols, err = s.collectionsFor(ctx, in.CollectionIDs); err != nil {
			return nil, err
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := s.products.WithTx(tx)
		p, err := products.FindForUpdate(ctx, id)
		if err != nil {
			return err
		}

		ch := repositories.ProductChanges{
			Variants:    in.Variants != nil,
			Images:      in.Images != nil,
			Collections: in.CollectionIDs != nil,
		}
		if in.Name != nil && strings.TrimSpace(*in.Name) != p.Name {
			p.Name = strings.TrimSpace(*in.Name)
			p.Slug, err = uniqueSlug(ctx, Slugify(p.Name, "product"), func(ctx context.Context, slug string) (bool, error) {
				return products.SlugTaken(ctx, slug, p.ID)
			})
			if err != nil {
				return err
			}
			ch.Columns = append(ch.Columns, "name", "slug")
		}
		setColumn(&ch, "category_id", &p.CategoryID, in.CategoryID)
		setColumn(&ch, "description", &p.Description, in.Description)
		setColumn(&ch, "short_description", &p.ShortDescription, in.ShortDescription)
		setColumn(&ch, "stitch_type", &p.StitchType, in.StitchType)
		setColumn(&ch, "piece_count", &p.PieceCount, in.PieceCount)
		setColumn(&ch, "target_gender", &p.TargetGender, in.TargetGender)
		setColumn(&ch, "season", &p.Season, in.Season)
		setColumn(&ch, "brand", &p.Brand, in.Brand)
		setColumn(&ch, "care_instructions", &p.CareInstructions, in.CareInstructions)
		setColumn(&ch, "price", &p.Price, in.Price)
		setColumn(&ch, "discounted_price", &p.DiscountedPrice, in.DiscountedPrice)
		setColumn(&ch, "stock", &p.Stock, in.Stock)
		setColumn(&ch, "is_active", &p.IsActive, in.IsActive)
		setColumn(&ch, "is_featured", &p.IsFeatured, in.IsFeatured)
		setList(&ch, "colors", &p.Colors, in.Colors)
		setList(&ch, "tags", &p.Tags, in.Tags)
		setList(&ch, "features", &p.Features, in.Features)
		setList(&ch, "materials", &p.Materials, in.Materials)
		if err := checkDiscount(p.Price, p.DiscountedPrice); err != nil {
			return err
		}

		if ch.Variants {
			p.Variants = toVariants(in.Variants)
		}
		if ch.Images {
			p.Images = toImages(in.Images)
		}
		if ch.Collections {
			p.Collections = cols
		}
		return products.Update(ctx, p, ch)
	})
	if err != nil {
		return nil, err
	}

	p, err := s.products.FindByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	s.productsChanged(ctx, "updated", p)
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	p, err := s.products.FindByID(ctx, id, false)
	if err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	p.TotalStock = 0
	s.productsChanged(ctx, "deleted", p)
	return nil
}

// UploadProductImage stores content on the disk and appends it to the
// product's gallery.
func (s *CatalogService) UploadProductImage(ctx context.Context, productID uint, filename string, content io.Reader, alt string) (*models.ProductImage, error) {
	if s.disk == nil {
		return nil, apperr.Internal(errors.New("no storage disk configured"), "Image storage is unavailable")
	}
	ext := strings.ToLower(path.Ext(filename))
	contentType, ok := imageTypes[ext]
	if !ok {
		return nil, apperr.ValidationFields(map[string]string{"image": "Only jpg, png, webp and gif images are allowed."})
	}
	if _, err := s.products.FindByID(ctx, productID, false); err != nil {
		return nil, err
	}

	name, err := crypt.RandomHex(12)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("products/%d/%s%s", productID, name, ext)
	if err := s.disk.Put(ctx, key, content, contentType); err != nil {
		return nil, fmt.Errorf("catalog: store image: %w", err)
	}

	pos, err := s.products.NextImagePosition(ctx, productID)
	if err != nil {
		s.removeObject(ctx, key)
		return nil, err
	}
	img := &models.ProductImage{ProductID: productID, URL: s.disk.URL(key), Alt: alt, Path: key, Position: pos}
	if err := s.products.AddImage(ctx, img); err != nil {
		s.removeObject(ctx, key)
		return nil, err
	}
	s.Invalidate(ctx)
	return img, nil
}

func (s *CatalogService) DeleteProductImage(ctx context.Context, productID, imageID uint) error {
	img, err := s.products.FindImage(ctx, productID, imageID)
	if err != nil {
		return err
	}
	if err := s.products.DeleteImage(ctx, img.ID); err != nil {
		return err
	}
	if img.Path != "" {
		s.removeObject(ctx, img.Path)
	}
	s.Invalidate(ctx)
	return nil
}

func (s *CatalogService) removeObject(ctx context.Context, key string) {
	if s.disk == nil {
		return
	}
	if err := s.disk.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		logger.WithCtx(ctx).Warn("catalog: delete image object", "key", key, "error", err)
	}
}

// LowStock lists active products under threshold units.
func (s *CatalogService) LowStock(ctx context.Context, threshold, limit int) ([]models.Product, error) {
	return s.products.LowStock(ctx, threshold, limit)
}

func (s *CatalogService) CountLowStock(ctx context.Context, threshold int) (int64, error) {
	return s.products.CountLowStock(ctx, threshold)
}

// ─── Categories ──────────────────────────────────────────────────────────────

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	err := s.cache.Remember(ctx, catalogCachePref+"categories", listingCacheTTL, &out, func() error {
		var err error
		out, err = s.categories.List(ctx, true)
		return err
	})
	return out, err
}

// FindCategory resolves a numeric ID or a slug.
func (s *CatalogService) FindCategory(ctx context.Context, key string) (*models.Category, error) {
	if id, err := strconv.ParseUint(key, 10, 64); err == nil && id > 0 {
		c, err := s.categories.FindByID(ctx, uint(id))
		if apperr.KindOf(err) != apperr.KindNotFound {
			return c, err
		}
	}
	return s.categories.FindBySlug(ctx, key)
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	if err := check(&in); err != nil {
		return nil, err
	}
	if in.ParentID != nil {
		if err := s.requireParent(ctx, *in.ParentID); err != nil {
			return nil, err
		}
	}
	slug, err := uniqueSlug(ctx, Slugify(in.Name, "category"), func(ctx context.Context, slug string) (bool, error) {
		return s.categories.SlugTaken(ctx, slug, 0)
	})
	if err != nil {
		return nil, err
	}
	c := &models.Category{
		Name:        strings.TrimSpace(in.Name),
		Slug:        slug,
		Description: in.Description,
		Image:       in.Image,
		ParentID:    in.ParentID,
		IsActive:    boolOr(in.IsActive, true),
		SortOrder:   in.SortOrder,
	}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, err
	}
	s.Invalidate(ctx)
	return c, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uint, in CategoryInput) (*models.Category, error) {
	if err := check(&in); err != nil {
		return nil, err
	}
	c, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.ParentID != nil {
		if *in.ParentID == id {
			return nil, apperr.ValidationFields(map[string]string{"parentId": "A category cannot be its own parent."})
		}
		if err := s.requireParent(ctx, *in.ParentID); err != nil {
			return nil, err
		}
	}

	if name := strings.TrimSpace(in.Name); name != c.Name {
		c.Name = name
		c.Slug, err = uniqueSlug(ctx, Slugify(name, "category"), func(ctx context.Context, slug string) (bool, error) {
			return s.categories.SlugTaken(ctx, slug, id)
		})
		if err != nil {
			return nil, err
		}
	}
	c.Description = in.Description
	c.Image = in.Image
	c.ParentID = in.ParentID
	c.IsActive = boolOr(in.IsActive, c.IsActive)
	c.SortOrder = in.SortOrder

	if err := s.categories.Save(ctx, c); err != nil {
		return nil, err
	}
	s.Invalidate(ctx)
	return c, nil
}

// DeleteCategory refuses while products still reference the category.
func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	if _, err := s.categories.FindByID(ctx, id); err != nil {
		return err
	}
	n, err := s.categories.ProductCount(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperr.Conflict("Cannot delete category with %d products", n)
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		return err
	}
	s.Invalidate(ctx)
	return nil
}

// ─── Collections ─────────────────────────────────────────────────────────────

func (s *CatalogService) ListCollections(ctx context.Context) ([]models.Collection, error) {
	return s.collections.List(ctx, true)
}

func (s *CatalogService) FindCollection(ctx context.Context, key string) (*models.Collection, error) {
	return s.findCollection(ctx, key)
}

func (s *CatalogService) findCollection(ctx context.Context, key string) (*models.Collection, error) {
	if id, err := strconv.ParseUint(key, 10, 64); err == nil && id > 0 {
		c, err := s.collections.FindByID(ctx, uint(id))
		if apperr.KindOf(err) != apperr.KindNotFound {
			return c, err
		}
	}
	return s.collections.FindBySlug(ctx, key)
}

func (s *CatalogService) CreateCollection(ctx context.Context, in CollectionInput) (*models.Collection, error) {
	if err := check(&in); err != nil {
		return nil, err
	}
	slug, err := uniqueSlug(ctx, Slugify(in.Name, "collection"), func(ctx context.Context, slug string) (bool, error) {
		return s.collections.SlugTaken(ctx, slug, 0)
	})
	if err != nil {
		return nil, err
	}
	c := &models.Collection{
		Name:        strings.TrimSpace(in.Name),
		Slug:        slug,
		Description: in.Description,
		Image:       in.Image,
		IsActive:    boolOr(in.IsActive, true),
	}
	if err := s.collections.Create(ctx, c); err != nil {
		return nil, err
	}
	s.Invalidate(ctx)
	return c, nil
}

func (s *CatalogService) UpdateCollection(ctx context.Context, id uint, in CollectionInput) (*models.Collection, error) {
	if err := check(&in); err != nil {
		return nil, err
	}
	c, err := s.collections.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(in.Name); name != c.Name {
		c.Name = name
		c.Slug, err = uniqueSlug(ctx, Slugify(name, "collection"), func(ctx context.Context, slug string) (bool, error) {
			return s.collections.SlugTaken(ctx, slug, id)
		})
		if err != nil {
			return nil, err
		}
	}
	c.Description = in.Description
	c.Image = in.Image
	c.IsActive = boolOr(in.IsActive, c.IsActive)

	if err := s.collections.Save(ctx, c); err != nil {
		return nil, err
	}
	s.Invalidate(ctx)
	return c, nil
}

func (s *CatalogService) DeleteCollection(ctx context.Context, id uint) error {
	if err := s.collections.Delete(ctx, id); err != nil {
		return err
	}
	s.Invalidate(ctx)
	return nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func (s *CatalogService) requireCategory(ctx context.Context, id uint) error {
	ok, err := s.categories.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ValidationFields(map[string]string{"category": "Category does not exist."})
	}
	return nil
}

func (s *CatalogService) requireParent(ctx context.Context, id uint) error {
	ok, err := s.categories.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ValidationFields(map[string]string{"parentId": "Parent category does not exist."})
	}
	return nil
}

func (s *CatalogService) collectionsFor(ctx context.Context, ids []uint) ([]models.Collection, error) {
	ids = collection.Unique(ids)
	cols, err := s.collections.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(cols) != len(ids) {
		return nil, apperr.ValidationFields(map[string]string{"collections": "One or more collections do not exist."})
	}
	return cols, nil
}

// productsChanged drops cached catalog reads and announces the new stock.
func (s *CatalogService) productsChanged(ctx context.Context, reason string, p *models.Product) {
	s.Invalidate(ctx)
	s.events.DispatchAsync(ctx, EventProductChanged, ProductChanged{ID: p.ID, Slug: p.Slug})
	s.events.DispatchAsync(ctx, EventStockChanged, StockChanged{
		Reason: reason,
		Levels: []StockLevel{{ProductID: p.ID, TotalStock: p.ComputeTotalStock()}},
	})
}

// Invalidate drops every cached catalog read.
func (s *CatalogService) Invalidate(ctx context.Context) {
	if err := s.cache.DelPrefix(ctx, catalogCachePref); err != nil {
		logger.WithCtx(ctx).Warn("catalog: cache invalidation failed", "error", err)
	}
}

func checkDiscount(price, discounted int64) error {
	if discounted > 0 && discounted >= price {
		return apperr.ValidationFields(map[string]string{"discountedPrice": "Discounted price must be lower than the price."})
	}
	return nil
}

// setColumn copies src into dst and marks column for writing when src is set.
func setColumn[T any](ch *repositories.ProductChanges, column string, dst *T, src *T) {
	if src != nil {
		*dst = *src
		ch.Columns = append(ch.Columns, column)
	}
}

func setList(ch *repositories.ProductChanges, column string, dst *[]string, src []string) {
	if src != nil {
		*dst = src
		ch.Columns = append(ch.Columns, column)
	}
}

func toVariants(in []VariantInput) []models.Variant {
	return collection.Map(in, func(v VariantInput) models.Variant {
		return models.Variant{Size: v.Size, Color: strings.TrimSpace(v.Color), Stock: v.Stock, Price: v.Price, SKU: v.SKU}
	})
}

func toImages(in []ImageInput) []models.ProductImage {
	out := make([]models.ProductImage, len(in))
	for i, img := range in {
		out[i] = models.ProductImage{URL: img.URL, Alt: img.Alt, Position: i}
	}
	return out
}

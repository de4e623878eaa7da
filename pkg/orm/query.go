// Package orm is a thin chainable layer over *gorm.DB that adds pagination
// and read-through caching.
package orm

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/pehnawa/pkg/cache"
)

// Pagination is the page metadata returned alongside list results.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// NewPagination computes the page count for total rows.
func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// PageParams clamps raw page/limit values: page ≥ 1, 1 ≤ limit ≤ max, with
// def used when limit is unset.
func PageParams(page, limit, def, max int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	return page, limit
}

type Query struct {
	db    *gorm.DB
	store *cache.Store
}

// New starts a query on db.
func New(db *gorm.DB) *Query {
	return &Query{db: db}
}

func (q *Query) with(db *gorm.DB) *Query {
	return &Query{db: db, store: q.store}
}

// DB returns the underlying builder for anything not covered here.
func (q *Query) DB() *gorm.DB { return q.db }

func (q *Query) WithContext(ctx context.Context) *Query { return q.with(q.db.WithContext(ctx)) }

// CacheStore attaches the store Cache reads through.
func (q *Query) CacheStore(s *cache.Store) *Query {
	return &Query{db: q.db, store: s}
}

func (q *Query) Model(v interface{}) *Query { return q.with(q.db.Model(v)) }

func (q *Query) Where(query interface{}, args ...interface{}) *Query {
	return q.with(q.db.Where(query, args...))
}

func (q *Query) Or(query interface{}, args ...interface{}) *Query {
	return q.with(q.db.Or(query, args...))
}

func (q *Query) Joins(query string, args ...interface{}) *Query {
	return q.with(q.db.Joins(query, args...))
}

func (q *Query) Preload(assoc string, args ...interface{}) *Query {
	return q.with(q.db.Preload(assoc, args...))
}

func (q *Query) Order(value interface{}) *Query { return q.with(q.db.Order(value)) }

func (q *Query) Limit(n int) *Query { return q.with(q.db.Limit(n)) }

func (q *Query) Get(dest interface{}) error { return q.db.Find(dest).Error }

func (q *Query) First(dest interface{}) error { return q.db.First(dest).Error }

func (q *Query) Count() (int64, error) {
	var n int64
	err := q.db.Count(&n).Error
	return n, err
}

func (q *Query) Create(v interface{}) error { return q.db.Create(v).Error }

func (q *Query) Save(v interface{}) error { return q.db.Save(v).Error }

// Paginate counts the matching rows then loads one page into dest. The
// scopes (ordering, preloads) apply to the page load only, so the count
// stays a plain COUNT(*).
func (q *Query) Paginate(page, limit int, dest interface{}, scopes ...func(*gorm.DB) *gorm.DB) (Pagination, error) {
	var total int64
	if err := q.db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Pagination{}, err
	}

	offset := (page - 1) * limit
	err := q.db.Session(&gorm.Session{}).Scopes(scopes...).Offset(offset).Limit(limit).Find(dest).Error
	if err != nil {
		return Pagination{}, err
	}
	return NewPagination(page, limit, total), nil
}

// Cache reads dest from the attached store or runs the query and caches the
// result for ttl.
func (q *Query) Cache(ctx context.Context, key string, ttl time.Duration, dest interface{}) error {
	return q.store.Remember(ctx, key, ttl, dest, func() error {
		return q.db.Find(dest).Error
	})
}

package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

func (r *Repo) ListActive(ctx context.Context) ([]Product, error) {
	var items []Product
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

func (r *Repo) GetActiveBySlug(ctx context.Context, slug string) (Product, error) {
	var p Product
	err := r.db.WithContext(ctx).
		First(&p, "slug = ? AND active = ?", slug, true).Error
	return p, err
}

func (r *Repo) Create(ctx context.Context, title, slug string, priceIRR int64, active bool) (Product, error) {
	now := time.Now()
	p := Product{
		ID:        uuid.NewString(),
		Title:     title,
		Slug:      slug,
		PriceIRR:  priceIRR,
		Active:    active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return Product{}, err
	}
	return p, nil
}

func (r *Repo) Update(ctx context.Context, id, title, slug string, priceIRR int64, active bool) error {
	return r.db.WithContext(ctx).Model(&Product{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"title":      title,
			"slug":       slug,
			"price_irr":  priceIRR,
			"active":     active,
			"updated_at": time.Now(),
		}).Error
}

func IsDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return false
}

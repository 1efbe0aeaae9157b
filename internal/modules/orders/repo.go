package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aliceh1389k-lgtm/shop-mvp/internal/modules/catalog"
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

// DB returns the underlying database connection for direct queries.
func (r *Repo) DB() *gorm.DB { return r.db }

// CreateFromProduct makes a one-click, single-line-item order for an active
// product. The unit price is snapshotted at creation; the payment flow never
// recomputes it.
func (r *Repo) CreateFromProduct(ctx context.Context, slug string) (Order, error) {
	var o Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p catalog.Product
		if err := tx.WithContext(ctx).First(&p, "slug = ? AND active = ?", slug, true).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotAvailable
			}
			return err
		}

		now := time.Now()
		o = Order{
			ID:        uuid.NewString(),
			Status:    StatusPendingPayment,
			Currency:  "IRR",
			TotalIRR:  p.PriceIRR,
			CreatedAt: now,
		}
		if err := tx.WithContext(ctx).Create(&o).Error; err != nil {
			return err
		}

		item := OrderItem{
			ID:           uuid.NewString(),
			OrderID:      o.ID,
			ProductID:    p.ID,
			Title:        p.Title,
			Quantity:     1,
			UnitPriceIRR: p.PriceIRR,
			CreatedAt:    now,
		}
		return tx.WithContext(ctx).Create(&item).Error
	})
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *Repo) Get(ctx context.Context, id string) (Order, error) {
	var o Order
	err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error
	return o, err
}

func (r *Repo) GetWithItems(ctx context.Context, id string) (Order, []OrderItem, error) {
	var o Order
	if err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		return Order{}, nil, err
	}
	var items []OrderItem
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&items, "order_id = ?", id).Error; err != nil {
		return Order{}, nil, err
	}
	return o, items, nil
}

type ListParams struct {
	Page     int
	PageSize int
	Status   string // optional filter
}

type ListResult struct {
	Items []Order
	Total int64
}

func (r *Repo) List(ctx context.Context, in ListParams) (ListResult, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	size := in.PageSize
	if size < 1 || size > 100 {
		size = 20
	}

	q := r.db.WithContext(ctx).Model(&Order{})
	if in.Status != "" {
		q = q.Where("status = ?", in.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return ListResult{}, err
	}

	var items []Order
	if err := q.
		Order("created_at DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&items).Error; err != nil {
		return ListResult{}, err
	}

	return ListResult{Items: items, Total: total}, nil
}

// SetStatus is the admin override (mark paid / mark pending). It does not
// touch the payment columns; those stay whatever the payment flow left.
func (r *Repo) SetStatus(ctx context.Context, id, status string) error {
	res := r.db.WithContext(ctx).Model(&Order{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

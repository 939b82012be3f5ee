package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/sweet_shop/internal/models"
	"github.com/Skotchmaster/sweet_shop/internal/transport"
)

func (r *GormRepo) GetSweet(ctx context.Context, id uint) (*models.Sweet, error) {
	var sweet models.Sweet
	if err := r.DB.WithContext(ctx).First(&sweet, id).Error; err != nil {
		return nil, err
	}
	return &sweet, nil
}

func (r *GormRepo) ListSweets(ctx context.Context, skip, limit int) ([]models.Sweet, error) {
	items := make([]models.Sweet, 0, limit)
	if err := r.DB.WithContext(ctx).Model(&models.Sweet{}).
		Order("id ASC").
		Offset(skip).
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

type SweetFilter struct {
	Name     string
	Category string
	MinPrice *float64
	MaxPrice *float64
}

// SearchSweets applies every supplied filter conjunctively; omitted filters
// are no-ops. Substring matches are case-insensitive, price bounds inclusive.
func (r *GormRepo) SearchSweets(ctx context.Context, f SweetFilter, skip, limit int) ([]models.Sweet, error) {
	q := r.DB.WithContext(ctx).Model(&models.Sweet{})

	if f.Name != "" {
		q = q.Where("lower(name) LIKE ?", "%"+strings.ToLower(f.Name)+"%")
	}
	if f.Category != "" {
		q = q.Where("lower(category) LIKE ?", "%"+strings.ToLower(f.Category)+"%")
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}

	items := make([]models.Sweet, 0, limit)
	if err := q.Order("id ASC").Offset(skip).Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) CreateSweet(ctx context.Context, sweet *models.Sweet) error {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Sweet{}).
		Where("name = ?", sweet.Name).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrSweetExists
	}

	return r.DB.WithContext(ctx).Create(sweet).Error
}

func (r *GormRepo) PatchSweet(ctx context.Context, id uint, req transport.UpdateSweetRequest) (*models.Sweet, error) {
	var sweet models.Sweet
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&sweet, id).Error; err != nil {
			return err
		}

		if req.Category != nil {
			sweet.Category = *req.Category
		}
		if req.Price != nil {
			sweet.Price = *req.Price
		}
		if req.Quantity != nil {
			sweet.Quantity = uint(*req.Quantity)
		}

		return tx.Save(&sweet).Error
	})
	if err != nil {
		return nil, err
	}
	return &sweet, nil
}

func (r *GormRepo) DeleteSweet(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Sweet{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// PurchaseSweet decrements quantity by one, but only while stock remains.
// The guard and the decrement run as a single conditional UPDATE, so two
// buyers racing for the last unit cannot both succeed and the quantity can
// never go below zero. A missing row and a sold-out row are indistinguishable
// on purpose.
func (r *GormRepo) PurchaseSweet(ctx context.Context, id uint) (*models.Sweet, error) {
	var sweet models.Sweet
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Sweet{}).
			Where("id = ? AND quantity > 0", id).
			UpdateColumn("quantity", gorm.Expr("quantity - 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUnavailable
		}

		return tx.First(&sweet, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &sweet, nil
}

// RestockSweet adds amount to quantity with a single UPDATE. The caller has
// already validated amount > 0.
func (r *GormRepo) RestockSweet(ctx context.Context, id uint, amount int) (*models.Sweet, error) {
	var sweet models.Sweet
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Sweet{}).
			Where("id = ?", id).
			UpdateColumn("quantity", gorm.Expr("quantity + ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.First(&sweet, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &sweet, nil
}

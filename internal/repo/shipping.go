package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) CreateShipping(ctx context.Context, s *models.Shipping) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

func (r *GormRepo) TrackingNumberExists(ctx context.Context, trackingNumber string) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.Shipping{}).
		Where("tracking_number = ?", trackingNumber).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GormRepo) GetShippingByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Shipping, error) {
	var s models.Shipping
	if err := r.DB.WithContext(ctx).Where("tracking_number = ?", trackingNumber).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormRepo) GetShippingByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Shipping, error) {
	var s models.Shipping
	if err := r.DB.WithContext(ctx).Where("order_id = ?", orderID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// FindShippingByOrderID is GetShippingByOrderID with a missing row reported
// as (nil, nil).
func (r *GormRepo) FindShippingByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Shipping, error) {
	s, err := r.GetShippingByOrderID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return s, err
}

func (r *GormRepo) ListShippingByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID]models.Shipping, error) {
	out := make(map[uuid.UUID]models.Shipping, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}
	var rows []models.Shipping
	if err := r.DB.WithContext(ctx).Where("order_id IN ?", orderIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, s := range rows {
		out[s.OrderID] = s
	}
	return out, nil
}

// UpdateShipping writes status and milestone timestamps of s guarded by the
// version it was read at.
func (r *GormRepo) UpdateShipping(ctx context.Context, s *models.Shipping, version int) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Shipping{}).
		Where("id = ? AND version = ?", s.ID, version).
		Updates(map[string]any{
			"status":       string(s.Status),
			"shipped_at":   s.ShippedAt,
			"delivered_at": s.DeliveredAt,
			"version":      gorm.Expr("version + 1"),
			"updated_at":   r.now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

func Migrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).AutoMigrate(models.All()...)
}

func (r *GormRepo) now() time.Time {
	if r.DB.Config != nil && r.DB.Config.NowFunc != nil {
		return r.DB.Config.NowFunc()
	}
	return time.Now().UTC()
}

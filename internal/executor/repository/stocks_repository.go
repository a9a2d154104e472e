package repository

import (
	"context"
	"time"

	"kabu-advisor/internal/entity"

	gocache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"
)

type StocksRepository interface {
	GetAll(ctx context.Context) ([]entity.Stock, error)
	GetByCode(ctx context.Context, code string) (*entity.Stock, error)
}

type stocksRepository struct {
	db    *gorm.DB
	cache *gocache.Cache
}

func NewStocksRepository(db *gorm.DB) StocksRepository {
	return &stocksRepository{
		db:    db,
		cache: gocache.New(15*time.Minute, 30*time.Minute),
	}
}

func (r *stocksRepository) GetAll(ctx context.Context) ([]entity.Stock, error) {
	var stocks []entity.Stock
	if err := r.db.WithContext(ctx).Order("code ASC").Find(&stocks).Error; err != nil {
		return nil, err
	}
	return stocks, nil
}

func (r *stocksRepository) GetByCode(ctx context.Context, code string) (*entity.Stock, error) {
	if cached, ok := r.cache.Get(code); ok {
		stock := cached.(entity.Stock)
		return &stock, nil
	}

	var stock entity.Stock
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&stock).Error; err != nil {
		return nil, err
	}
	r.cache.Set(code, stock, gocache.DefaultExpiration)
	return &stock, nil
}

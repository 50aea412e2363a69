package repository

import (
	"context"

	"adminapi/internal/model"
	"adminapi/pkg/geo"
	"adminapi/pkg/pagination"

	"gorm.io/gorm"
)

type StoreRepository interface {
	Create(ctx context.Context, store *model.CompetitorStore) error
	Update(ctx context.Context, store *model.CompetitorStore) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.CompetitorStore, error)
	List(ctx context.Context, p pagination.Params) ([]model.CompetitorStore, int64, error)
	// WithinBox returns stores inside the box, newest first.
	WithinBox(ctx context.Context, box geo.Box) ([]model.CompetitorStore, error)
	Exists(ctx context.Context, id uint) (bool, error)
	CountByCompetitor(ctx context.Context) ([]CompetitorCount, error)
}

type storeRepository struct {
	db *gorm.DB
}

func NewStoreRepository(db *gorm.DB) StoreRepository {
	return &storeRepository{db: db}
}

func (r *storeRepository) Create(ctx context.Context, store *model.CompetitorStore) error {
	return translate(GetDB(ctx, r.db).Create(store).Error)
}

func (r *storeRepository) Update(ctx context.Context, store *model.CompetitorStore) error {
	return translate(GetDB(ctx, r.db).Save(store).Error)
}

func (r *storeRepository) Delete(ctx context.Context, id uint) error {
	res := GetDB(ctx, r.db).Delete(&model.CompetitorStore{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *storeRepository) FindByID(ctx context.Context, id uint) (*model.CompetitorStore, error) {
	var store model.CompetitorStore
	if err := GetDB(ctx, r.db).First(&store, id).Error; err != nil {
		return nil, translate(err)
	}
	return &store, nil
}

func (r *storeRepository) List(ctx context.Context, p pagination.Params) ([]model.CompetitorStore, int64, error) {
	db := GetDB(ctx, r.db)

	var total int64
	if err := db.Model(&model.CompetitorStore{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var stores []model.CompetitorStore
	if err := db.Order("id desc").Offset(p.Offset).Limit(p.Limit).Find(&stores).Error; err != nil {
		return nil, 0, err
	}
	return stores, total, nil
}

func (r *storeRepository) WithinBox(ctx context.Context, box geo.Box) ([]model.CompetitorStore, error) {
	var stores []model.CompetitorStore
	err := GetDB(ctx, r.db).
		Where("latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat).
		Where("longitude BETWEEN ? AND ?", box.MinLng, box.MaxLng).
		Order("id desc").
		Find(&stores).Error
	if err != nil {
		return nil, err
	}
	return stores, nil
}

func (r *storeRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	if err := GetDB(ctx, r.db).Model(&model.CompetitorStore{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *storeRepository) CountByCompetitor(ctx context.Context) ([]CompetitorCount, error) {
	var rows []CompetitorCount
	err := GetDB(ctx, r.db).Model(&model.CompetitorStore{}).
		Select("competitor, count(*) as count").
		Group("competitor").
		Order("competitor asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

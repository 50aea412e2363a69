package repository

import (
	"context"
	"time"

	"adminapi/internal/model"
	"adminapi/pkg/pagination"

	"gorm.io/gorm"
)

type TourRepository interface {
	Create(ctx context.Context, tour *model.Tour) error
	Update(ctx context.Context, tour *model.Tour) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Tour, error)
	// List orders by start date, latest first.
	List(ctx context.Context, p pagination.Params) ([]model.Tour, int64, error)
	// DetachStore clears assigned_store_id on every tour at the store.
	DetachStore(ctx context.Context, storeID uint) (int64, error)
	CountByCollaborator(ctx context.Context, userID uint) (int64, error)
	CountByStatus(ctx context.Context, now time.Time) (TourCounts, error)
}

type tourRepository struct {
	db *gorm.DB
}

func NewTourRepository(db *gorm.DB) TourRepository {
	return &tourRepository{db: db}
}

func (r *tourRepository) Create(ctx context.Context, tour *model.Tour) error {
	return translate(GetDB(ctx, r.db).Create(tour).Error)
}

func (r *tourRepository) Update(ctx context.Context, tour *model.Tour) error {
	return translate(GetDB(ctx, r.db).Save(tour).Error)
}

func (r *tourRepository) Delete(ctx context.Context, id uint) error {
	res := GetDB(ctx, r.db).Delete(&model.Tour{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *tourRepository) FindByID(ctx context.Context, id uint) (*model.Tour, error) {
	var tour model.Tour
	if err := GetDB(ctx, r.db).First(&tour, id).Error; err != nil {
		return nil, translate(err)
	}
	return &tour, nil
}

func (r *tourRepository) List(ctx context.Context, p pagination.Params) ([]model.Tour, int64, error) {
	db := GetDB(ctx, r.db)

	var total int64
	if err := db.Model(&model.Tour{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tours []model.Tour
	if err := db.Order("start_date desc, id desc").Offset(p.Offset).Limit(p.Limit).Find(&tours).Error; err != nil {
		return nil, 0, err
	}
	return tours, total, nil
}

func (r *tourRepository) DetachStore(ctx context.Context, storeID uint) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.Tour{}).
		Where("assigned_store_id = ?", storeID).
		Update("assigned_store_id", nil)
	return res.RowsAffected, res.Error
}

func (r *tourRepository) CountByCollaborator(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := GetDB(ctx, r.db).Model(&model.Tour{}).Where("collaborator_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *tourRepository) CountByStatus(ctx context.Context, now time.Time) (TourCounts, error) {
	db := GetDB(ctx, r.db)

	var c TourCounts
	if err := db.Model(&model.Tour{}).Where("start_date > ?", now).Count(&c.Upcoming).Error; err != nil {
		return TourCounts{}, err
	}
	if err := db.Model(&model.Tour{}).Where("start_date <= ? AND end_date > ?", now, now).Count(&c.Ongoing).Error; err != nil {
		return TourCounts{}, err
	}
	if err := db.Model(&model.Tour{}).Where("end_date <= ?", now).Count(&c.Past).Error; err != nil {
		return TourCounts{}, err
	}
	return c, nil
}

package memory

import (
	"context"
	"sort"
	"time"

	"adminapi/internal/model"
	"adminapi/internal/repository"
	"adminapi/pkg/pagination"
)

type tourRepository struct {
	store *Store
}

func NewTourRepository(store *Store) repository.TourRepository {
	return &tourRepository{store: store}
}

func copyTour(t model.Tour) *model.Tour {
	if t.AssignedStoreID != nil {
		id := *t.AssignedStoreID
		t.AssignedStoreID = &id
	}
	return &t
}

func (r *tourRepository) Create(ctx context.Context, tour *model.Tour) error {
	return r.store.write(ctx, func(d *state) error {
		d.lastTourID++
		now := r.store.now()
		tour.ID = d.lastTourID
		tour.CreatedAt = now
		tour.UpdatedAt = now
		d.tours[tour.ID] = *copyTour(*tour)
		return nil
	})
}

func (r *tourRepository) Update(ctx context.Context, tour *model.Tour) error {
	return r.store.write(ctx, func(d *state) error {
		if _, ok := d.tours[tour.ID]; !ok {
			return repository.ErrNotFound
		}
		tour.UpdatedAt = r.store.now()
		d.tours[tour.ID] = *copyTour(*tour)
		return nil
	})
}

func (r *tourRepository) Delete(ctx context.Context, id uint) error {
	return r.store.write(ctx, func(d *state) error {
		if _, ok := d.tours[id]; !ok {
			return repository.ErrNotFound
		}
		delete(d.tours, id)
		return nil
	})
}

func (r *tourRepository) FindByID(ctx context.Context, id uint) (*model.Tour, error) {
	var out *model.Tour
	err := r.store.read(ctx, func(d *state) error {
		t, ok := d.tours[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = copyTour(t)
		return nil
	})
	return out, err
}

func (r *tourRepository) List(ctx context.Context, p pagination.Params) ([]model.Tour, int64, error) {
	var all []model.Tour
	err := r.store.read(ctx, func(d *state) error {
		all = make([]model.Tour, 0, len(d.tours))
		for _, t := range d.tours {
			all = append(all, *copyTour(t))
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.Slice(all, func(i, j int) bool {
		if !all[i].StartDate.Equal(all[j].StartDate) {
			return all[i].StartDate.After(all[j].StartDate)
		}
		return all[i].ID > all[j].ID
	})
	start, end := p.Window(len(all))
	return all[start:end], int64(len(all)), nil
}

func (r *tourRepository) DetachStore(ctx context.Context, storeID uint) (int64, error) {
	var n int64
	err := r.store.write(ctx, func(d *state) error {
		for id, t := range d.tours {
			if t.AssignedStoreID != nil && *t.AssignedStoreID == storeID {
				t.AssignedStoreID = nil
				t.UpdatedAt = r.store.now()
				d.tours[id] = t
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *tourRepository) CountByCollaborator(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.store.read(ctx, func(d *state) error {
		for _, t := range d.tours {
			if t.CollaboratorID == userID {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *tourRepository) CountByStatus(ctx context.Context, now time.Time) (repository.TourCounts, error) {
	var c repository.TourCounts
	err := r.store.read(ctx, func(d *state) error {
		for _, t := range d.tours {
			switch t.StatusAt(now) {
			case model.TourUpcoming:
				c.Upcoming++
			case model.TourOngoing:
				c.Ongoing++
			default:
				c.Past++
			}
		}
		return nil
	})
	return c, err
}

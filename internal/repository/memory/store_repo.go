package memory

import (
	"context"
	"sort"

	"adminapi/internal/model"
	"adminapi/internal/repository"
	"adminapi/pkg/geo"
	"adminapi/pkg/pagination"
)

type storeRepository struct {
	store *Store
}

func NewStoreRepository(store *Store) repository.StoreRepository {
	return &storeRepository{store: store}
}

func (r *storeRepository) Create(ctx context.Context, cs *model.CompetitorStore) error {
	return r.store.write(ctx, func(d *state) error {
		d.lastStoreID++
		now := r.store.now()
		cs.ID = d.lastStoreID
		cs.CreatedAt = now
		cs.UpdatedAt = now
		d.stores[cs.ID] = *cs
		return nil
	})
}

func (r *storeRepository) Update(ctx context.Context, cs *model.CompetitorStore) error {
	return r.store.write(ctx, func(d *state) error {
		if _, ok := d.stores[cs.ID]; !ok {
			return repository.ErrNotFound
		}
		cs.UpdatedAt = r.store.now()
		d.stores[cs.ID] = *cs
		return nil
	})
}

func (r *storeRepository) Delete(ctx context.Context, id uint) error {
	return r.store.write(ctx, func(d *state) error {
		if _, ok := d.stores[id]; !ok {
			return repository.ErrNotFound
		}
		delete(d.stores, id)
		return nil
	})
}

func (r *storeRepository) FindByID(ctx context.Context, id uint) (*model.CompetitorStore, error) {
	var out *model.CompetitorStore
	err := r.store.read(ctx, func(d *state) error {
		cs, ok := d.stores[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &cs
		return nil
	})
	return out, err
}

func (r *storeRepository) List(ctx context.Context, p pagination.Params) ([]model.CompetitorStore, int64, error) {
	all, err := r.filter(ctx, func(model.CompetitorStore) bool { return true })
	if err != nil {
		return nil, 0, err
	}
	start, end := p.Window(len(all))
	return all[start:end], int64(len(all)), nil
}

func (r *storeRepository) WithinBox(ctx context.Context, box geo.Box) ([]model.CompetitorStore, error) {
	return r.filter(ctx, func(cs model.CompetitorStore) bool {
		return box.Contains(cs.Latitude, cs.Longitude)
	})
}

// filter returns matching stores, newest first.
func (r *storeRepository) filter(ctx context.Context, keep func(model.CompetitorStore) bool) ([]model.CompetitorStore, error) {
	var out []model.CompetitorStore
	err := r.store.read(ctx, func(d *state) error {
		out = make([]model.CompetitorStore, 0, len(d.stores))
		for _, cs := range d.stores {
			if keep(cs) {
				out = append(out, cs)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, err
}

func (r *storeRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var ok bool
	err := r.store.read(ctx, func(d *state) error {
		_, ok = d.stores[id]
		return nil
	})
	return ok, err
}

func (r *storeRepository) CountByCompetitor(ctx context.Context) ([]repository.CompetitorCount, error) {
	counts := make(map[string]int64)
	err := r.store.read(ctx, func(d *state) error {
		for _, cs := range d.stores {
			counts[cs.Competitor]++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	rows := make([]repository.CompetitorCount, 0, len(counts))
	for name, n := range counts {
		rows = append(rows, repository.CompetitorCount{Competitor: name, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Competitor < rows[j].Competitor })
	return rows, nil
}

package service

import (
	"context"
	"fmt"
	"strings"

	"adminapi/internal/model"
	"adminapi/internal/repository"
	"adminapi/internal/validation"
	"adminapi/pkg/geo"
	"adminapi/pkg/logger"
	"adminapi/pkg/pagination"

	"github.com/shopspring/decimal"
)

// MaxNearbyRadiusKm caps the nearby search radius.
const MaxNearbyRadiusKm = 200

// --- DTOs ---

type CreateStoreRequest struct {
	Name       string   `json:"name" binding:"required,min=1,max=128" example:"Carrefour Market Bastille"`
	Competitor string   `json:"competitor" binding:"required,min=1,max=128" example:"Carrefour"`
	Address    *string  `json:"address" binding:"omitempty,max=128"`
	City       *string  `json:"city" binding:"omitempty,max=64"`
	Country    *string  `json:"country" binding:"omitempty,max=64"`
	Latitude   *float64 `json:"latitude" binding:"required,min=-90,max=90" example:"48.8532"`
	Longitude  *float64 `json:"longitude" binding:"required,min=-180,max=180" example:"2.3692"`
	Phone      *string  `json:"phone" binding:"omitempty,phone"`
	Website    *string  `json:"website" binding:"omitempty,url,max=255"`
}

type UpdateStoreRequest struct {
	Name       *string  `json:"name" binding:"omitempty,min=1,max=128"`
	Competitor *string  `json:"competitor" binding:"omitempty,min=1,max=128"`
	Address    *string  `json:"address" binding:"omitempty,max=128"`
	City       *string  `json:"city" binding:"omitempty,max=64"`
	Country    *string  `json:"country" binding:"omitempty,max=64"`
	Latitude   *float64 `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude  *float64 `json:"longitude" binding:"omitempty,min=-180,max=180"`
	Phone      *string  `json:"phone" binding:"omitempty,phone"`
	Website    *string  `json:"website" binding:"omitempty,url,max=255"`
}

// NearbyQuery is bound from the query string.
type NearbyQuery struct {
	Lat      *float64 `form:"lat" binding:"required,min=-90,max=90"`
	Lng      *float64 `form:"lng" binding:"required,min=-180,max=180"`
	RadiusKm *float64 `form:"radius_km" binding:"required,gt=0,max=200"`
}

// NearbyStore is a store inside the search box with its great-circle
// distance from the centre.
type NearbyStore struct {
	model.CompetitorStore
	DistanceKm decimal.Decimal `json:"distance_km" swaggertype:"string" example:"3.215"`
}

// --- Interface ---

type StoreService interface {
	CreateStore(ctx context.Context, req CreateStoreRequest) (*model.CompetitorStore, error)
	UpdateStore(ctx context.Context, id uint, req UpdateStoreRequest) (*model.CompetitorStore, error)
	// DeleteStore removes the store and clears it from every tour assigned to it.
	DeleteStore(ctx context.Context, id uint) error
	GetStore(ctx context.Context, id uint) (*model.CompetitorStore, error)
	ListStores(ctx context.Context, p pagination.Params) ([]model.CompetitorStore, int64, error)
	// Nearby returns the stores inside the bounding box of the circle. The box
	// is a superset of the circle; DistanceKm gives the exact distance.
	Nearby(ctx context.Context, q NearbyQuery) ([]NearbyStore, error)
}

type storeService struct {
	repos    repository.Repositories
	events   EventPublisher
	validate *validation.Validator
}

func NewStoreService(repos repository.Repositories, events EventPublisher) StoreService {
	if events == nil {
		events = NopPublisher()
	}
	return &storeService{repos: repos, events: events, validate: validation.Default()}
}

// --- Implementation ---

func (s *storeService) CreateStore(ctx context.Context, req CreateStoreRequest) (*model.CompetitorStore, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Competitor = strings.TrimSpace(req.Competitor)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	store := model.CompetitorStore{
		Name:       req.Name,
		Competitor: req.Competitor,
		Address:    optional(req.Address),
		City:       optional(req.City),
		Country:    optional(req.Country),
		Latitude:   *req.Latitude,
		Longitude:  *req.Longitude,
		Phone:      optional(req.Phone),
		Website:    optional(req.Website),
	}

	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repos.Stores.Create(txCtx, &store); err != nil {
			return fmt.Errorf("failed to create store: %w", err)
		}
		return writeAudit(txCtx, s.repos.Audit, model.ActionCreate, model.EntityStore, store.ID, store)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, changeEvent(model.EntityStore, model.ActionCreate, store.ID))
	return &store, nil
}

func (s *storeService) UpdateStore(ctx context.Context, id uint, req UpdateStoreRequest) (*model.CompetitorStore, error) {
	req.Name = trimmed(req.Name)
	req.Competitor = trimmed(req.Competitor)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	var store *model.CompetitorStore
	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		store, err = s.repos.Stores.FindByID(txCtx, id)
		if err != nil {
			return notFound(err, model.EntityStore, id)
		}

		applyStorePatch(store, req)

		if err := s.repos.Stores.Update(txCtx, store); err != nil {
			return fmt.Errorf("failed to update store: %w", err)
		}
		return writeAudit(txCtx, s.repos.Audit, model.ActionUpdate, model.EntityStore, id, req)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, changeEvent(model.EntityStore, model.ActionUpdate, id))
	return store, nil
}

func applyStorePatch(store *model.CompetitorStore, req UpdateStoreRequest) {
	if req.Name != nil {
		store.Name = *req.Name
	}
	if req.Competitor != nil {
		store.Competitor = *req.Competitor
	}
	if req.Address != nil {
		store.Address = optional(req.Address)
	}
	if req.City != nil {
		store.City = optional(req.City)
	}
	if req.Country != nil {
		store.Country = optional(req.Country)
	}
	if req.Latitude != nil {
		store.Latitude = *req.Latitude
	}
	if req.Longitude != nil {
		store.Longitude = *req.Longitude
	}
	if req.Phone != nil {
		store.Phone = optional(req.Phone)
	}
	if req.Website != nil {
		store.Website = optional(req.Website)
	}
}

func (s *storeService) DeleteStore(ctx context.Context, id uint) error {
	var detached int64
	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		store, err := s.repos.Stores.FindByID(txCtx, id)
		if err != nil {
			return notFound(err, model.EntityStore, id)
		}

		detached, err = s.repos.Tours.DetachStore(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to detach store from tours: %w", err)
		}
		if err := s.repos.Stores.Delete(txCtx, id); err != nil {
			return notFound(err, model.EntityStore, id)
		}
		return writeAudit(txCtx, s.repos.Audit, model.ActionDelete, model.EntityStore, id, map[string]any{
			"name":           store.Name,
			"detached_tours": detached,
		})
	})
	if err != nil {
		return err
	}

	if detached > 0 {
		logger.FromContext(ctx).WithField("store_id", id).Infof("store deleted, cleared from %d tour(s)", detached)
	}
	s.events.Publish(ctx, changeEvent(model.EntityStore, model.ActionDelete, id))
	return nil
}

func (s *storeService) GetStore(ctx context.Context, id uint) (*model.CompetitorStore, error) {
	store, err := s.repos.Stores.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, model.EntityStore, id)
	}
	return store, nil
}

func (s *storeService) ListStores(ctx context.Context, p pagination.Params) ([]model.CompetitorStore, int64, error) {
	stores, total, err := s.repos.Stores.List(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch stores: %w", err)
	}
	return stores, total, nil
}

func (s *storeService) Nearby(ctx context.Context, q NearbyQuery) ([]NearbyStore, error) {
	if err := s.validate.Struct(q); err != nil {
		return nil, err
	}

	lat, lng := *q.Lat, *q.Lng
	stores, err := s.repos.Stores.WithinBox(ctx, geo.BoundingBox(lat, lng, *q.RadiusKm))
	if err != nil {
		return nil, fmt.Errorf("failed to search stores: %w", err)
	}

	res := make([]NearbyStore, 0, len(stores))
	for _, st := range stores {
		d := geo.HaversineKm(lat, lng, st.Latitude, st.Longitude)
		res = append(res, NearbyStore{
			CompetitorStore: st,
			DistanceKm:      decimal.NewFromFloat(d).Round(3),
		})
	}
	return res, nil
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"adminapi/internal/model"
	"adminapi/internal/repository"
	"adminapi/internal/validation"
	"adminapi/pkg/apperror"
	"adminapi/pkg/pagination"
)

// --- DTOs ---

type CreateTourRequest struct {
	CollaboratorID  uint      `json:"collaborator_id" binding:"required" example:"2"`
	AssignedStoreID *uint     `json:"assigned_store_id" example:"5"`
	Name            string    `json:"name" binding:"required,min=1,max=128" example:"Q1 price check"`
	MissionType     string    `json:"mission_type" binding:"required,min=1,max=64" example:"price_survey"`
	Department      *string   `json:"department" binding:"omitempty,min=1,max=64"`
	StartDate       time.Time `json:"start_date" binding:"required" example:"2025-01-10T08:00:00Z"`
	EndDate         time.Time `json:"end_date" binding:"required" example:"2025-01-12T18:00:00Z"`
	Notes           *string   `json:"notes" binding:"omitempty,max=1024"`
}

// UpdateTourRequest merges over the stored tour. Set ClearAssignedStore to
// remove the store; a nil AssignedStoreID alone leaves it unchanged.
type UpdateTourRequest struct {
	CollaboratorID     *uint      `json:"collaborator_id" binding:"omitempty,gt=0"`
	AssignedStoreID    *uint      `json:"assigned_store_id" binding:"omitempty,gt=0"`
	ClearAssignedStore bool       `json:"clear_assigned_store"`
	Name               *string    `json:"name" binding:"omitempty,min=1,max=128"`
	MissionType        *string    `json:"mission_type" binding:"omitempty,min=1,max=64"`
	Department         *string    `json:"department" binding:"omitempty,min=1,max=64"`
	StartDate          *time.Time `json:"start_date"`
	EndDate            *time.Time `json:"end_date"`
	Notes              *string    `json:"notes" binding:"omitempty,max=1024"`
}

// TourDetail is a tour with its derived status and the names of what it points at.
type TourDetail struct {
	model.Tour
	Status           model.TourStatus `json:"status"`
	CollaboratorName string           `json:"collaborator_name,omitempty"`
	StoreName        string           `json:"store_name,omitempty"`
}

// --- Interface ---

type TourService interface {
	CreateTour(ctx context.Context, req CreateTourRequest) (*model.Tour, error)
	UpdateTour(ctx context.Context, id uint, req UpdateTourRequest) (*model.Tour, error)
	DeleteTour(ctx context.Context, id uint) error
	GetTour(ctx context.Context, id uint) (*TourDetail, error)
	ListTours(ctx context.Context, p pagination.Params) ([]TourDetail, int64, error)
}

type tourService struct {
	repos    repository.Repositories
	events   EventPublisher
	validate *validation.Validator
	now      func() time.Time
}

func NewTourService(repos repository.Repositories, events EventPublisher) TourService {
	if events == nil {
		events = NopPublisher()
	}
	return &tourService{repos: repos, events: events, validate: validation.Default(), now: time.Now}
}

// --- Implementation ---

func (s *tourService) CreateTour(ctx context.Context, req CreateTourRequest) (*model.Tour, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.MissionType = strings.TrimSpace(req.MissionType)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	tour := model.Tour{
		CollaboratorID:  req.CollaboratorID,
		AssignedStoreID: req.AssignedStoreID,
		Name:            req.Name,
		MissionType:     req.MissionType,
		Department:      optional(req.Department),
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Notes:           optional(req.Notes),
	}
	if err := checkTourDates(tour); err != nil {
		return nil, err
	}

	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.ensureReferences(txCtx, tour); err != nil {
			return err
		}
		if err := s.repos.Tours.Create(txCtx, &tour); err != nil {
			return fmt.Errorf("failed to create tour: %w", err)
		}
		return writeAudit(txCtx, s.repos.Audit, model.ActionCreate, model.EntityTour, tour.ID, tour)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, changeEvent(model.EntityTour, model.ActionCreate, tour.ID))
	return &tour, nil
}

func (s *tourService) UpdateTour(ctx context.Context, id uint, req UpdateTourRequest) (*model.Tour, error) {
	req.Name = trimmed(req.Name)
	req.MissionType = trimmed(req.MissionType)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	if req.ClearAssignedStore && req.AssignedStoreID != nil {
		return nil, apperror.InvalidField("assigned_store_id", "cannot be set together with clear_assigned_store")
	}

	var tour *model.Tour
	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		tour, err = s.repos.Tours.FindByID(txCtx, id)
		if err != nil {
			return notFound(err, model.EntityTour, id)
		}

		applyTourPatch(tour, req)
		if err := checkTourDates(*tour); err != nil {
			return err
		}
		if err := s.ensureReferences(txCtx, *tour); err != nil {
			return err
		}

		if err := s.repos.Tours.Update(txCtx, tour); err != nil {
			return fmt.Errorf("failed to update tour: %w", err)
		}
		return writeAudit(txCtx, s.repos.Audit, model.ActionUpdate, model.EntityTour, id, req)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, changeEvent(model.EntityTour, model.ActionUpdate, id))
	return tour, nil
}

func applyTourPatch(tour *model.Tour, req UpdateTourRequest) {
	if req.CollaboratorID != nil {
		tour.CollaboratorID = *req.CollaboratorID
	}
	switch {
	case req.ClearAssignedStore:
		tour.AssignedStoreID = nil
	case req.AssignedStoreID != nil:
		id := *req.AssignedStoreID
		tour.AssignedStoreID = &id
	}
	if req.Name != nil {
		tour.Name = *req.Name
	}
	if req.MissionType != nil {
		tour.MissionType = *req.MissionType
	}
	if req.Department != nil {
		tour.Department = optional(req.Department)
	}
	if req.StartDate != nil {
		tour.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		tour.EndDate = *req.EndDate
	}
	if req.Notes != nil {
		tour.Notes = optional(req.Notes)
	}
}

func checkTourDates(t model.Tour) error {
	if !t.EndDate.After(t.StartDate) {
		return apperror.InvalidField("end_date", "must be after start_date")
	}
	return nil
}

func (s *tourService) ensureReferences(ctx context.Context, t model.Tour) error {
	if _, err := s.repos.Users.FindByID(ctx, t.CollaboratorID); err != nil {
		if isNotFound(err) {
			return apperror.UnknownReference("collaborator_id", model.EntityUser, []uint{t.CollaboratorID})
		}
		return fmt.Errorf("failed to check collaborator: %w", err)
	}

	if t.AssignedStoreID == nil {
		return nil
	}
	ok, err := s.repos.Stores.Exists(ctx, *t.AssignedStoreID)
	if err != nil {
		return fmt.Errorf("failed to check store: %w", err)
	}
	if !ok {
		return apperror.UnknownReference("assigned_store_id", model.EntityStore, []uint{*t.AssignedStoreID})
	}
	return nil
}

func (s *tourService) DeleteTour(ctx context.Context, id uint) error {
	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		tour, err := s.repos.Tours.FindByID(txCtx, id)
		if err != nil {
			return notFound(err, model.EntityTour, id)
		}
		if err := s.repos.Tours.Delete(txCtx, id); err != nil {
			return notFound(err, model.EntityTour, id)
		}
		return writeAudit(txCtx, s.repos.Audit, model.ActionDelete, model.EntityTour, id, map[string]string{"name": tour.Name})
	})
	if err != nil {
		return err
	}

	s.events.Publish(ctx, changeEvent(model.EntityTour, model.ActionDelete, id))
	return nil
}

func (s *tourService) GetTour(ctx context.Context, id uint) (*TourDetail, error) {
	tour, err := s.repos.Tours.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, model.EntityTour, id)
	}

	details, err := s.describe(ctx, []model.Tour{*tour})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

func (s *tourService) ListTours(ctx context.Context, p pagination.Params) ([]TourDetail, int64, error) {
	tours, total, err := s.repos.Tours.List(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch tours: %w", err)
	}

	details, err := s.describe(ctx, tours)
	if err != nil {
		return nil, 0, err
	}
	return details, total, nil
}

// describe attaches status and display names. Lookups are memoized per call.
func (s *tourService) describe(ctx context.Context, tours []model.Tour) ([]TourDetail, error) {
	now := s.now()
	users := make(map[uint]string)
	stores := make(map[uint]string)

	res := make([]TourDetail, 0, len(tours))
	for _, t := range tours {
		d := TourDetail{Tour: t, Status: t.StatusAt(now)}

		name, ok := users[t.CollaboratorID]
		if !ok {
			u, err := s.repos.Users.FindByID(ctx, t.CollaboratorID)
			switch {
			case err == nil:
				name = u.FullName()
			case !isNotFound(err):
				return nil, fmt.Errorf("failed to load collaborator: %w", err)
			}
			users[t.CollaboratorID] = name
		}
		d.CollaboratorName = name

		if t.AssignedStoreID != nil {
			sid := *t.AssignedStoreID
			name, ok := stores[sid]
			if !ok {
				st, err := s.repos.Stores.FindByID(ctx, sid)
				switch {
				case err == nil:
					name = st.Name
				case !isNotFound(err):
					return nil, fmt.Errorf("failed to load store: %w", err)
				}
				stores[sid] = name
			}
			d.StoreName = name
		}

		res = append(res, d)
	}
	return res, nil
}

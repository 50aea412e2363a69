package service

import (
	"context"
	"fmt"
	"time"

	"adminapi/internal/repository"
)

type UserCounts struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Inactive int64 `json:"inactive"`
}

type DashboardSummary struct {
	Permissions        int64                        `json:"permissions"`
	Roles              int64                        `json:"roles"`
	Users              UserCounts                   `json:"users"`
	Stores             int64                        `json:"stores"`
	StoresByCompetitor []repository.CompetitorCount `json:"stores_by_competitor"`
	Tours              repository.TourCounts        `json:"tours"`
	GeneratedAt        time.Time                    `json:"generated_at"`
}

type DashboardService interface {
	GetSummary(ctx context.Context) (*DashboardSummary, error)
}

type dashboardService struct {
	repos repository.Repositories
	now   func() time.Time
}

func NewDashboardService(repos repository.Repositories) DashboardService {
	return &dashboardService{repos: repos, now: time.Now}
}

// GetSummary reads every counter inside one transaction so the numbers agree
// with each other.
func (s *dashboardService) GetSummary(ctx context.Context) (*DashboardSummary, error) {
	now := s.now()
	res := DashboardSummary{GeneratedAt: now.UTC()}

	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		if res.Permissions, err = s.repos.Permissions.Count(txCtx); err != nil {
			return fmt.Errorf("failed to count permissions: %w", err)
		}
		if res.Roles, err = s.repos.Roles.Count(txCtx); err != nil {
			return fmt.Errorf("failed to count roles: %w", err)
		}
		if res.Users.Active, res.Users.Inactive, err = s.repos.Users.CountByActive(txCtx); err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}
		res.Users.Total = res.Users.Active + res.Users.Inactive

		if res.StoresByCompetitor, err = s.repos.Stores.CountByCompetitor(txCtx); err != nil {
			return fmt.Errorf("failed to count stores: %w", err)
		}
		for _, c := range res.StoresByCompetitor {
			res.Stores += c.Count
		}

		if res.Tours, err = s.repos.Tours.CountByStatus(txCtx, now); err != nil {
			return fmt.Errorf("failed to count tours: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.StoresByCompetitor == nil {
		res.StoresByCompetitor = []repository.CompetitorCount{}
	}
	return &res, nil
}

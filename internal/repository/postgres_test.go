package repository_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"adminapi/internal/database"
	"adminapi/internal/model"
	"adminapi/internal/repository"
	"adminapi/pkg/geo"
	"adminapi/pkg/logger"
	"adminapi/pkg/pagination"
)

// PostgresSuite runs the gorm repositories against a real database. It needs
// TEST_POSTGRES_DSN pointing at a disposable database; every table is
// truncated before each test.
type PostgresSuite struct {
	suite.Suite
	db    *gorm.DB
	repos repository.Repositories
	ctx   context.Context
}

func TestPostgresSuite(t *testing.T) { //nolint:paralleltest
	if os.Getenv("TEST_POSTGRES_DSN") == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	suite.Run(t, new(PostgresSuite))
}

func (s *PostgresSuite) SetupSuite() {
	s.ctx = context.Background()

	db, err := database.NewConnection(s.ctx, os.Getenv("TEST_POSTGRES_DSN"), database.Options{MaxOpenConns: 4, MaxIdleConns: 2}, logger.Discard())
	s.Require().NoError(err)
	s.Require().NoError(database.Migrate(db))

	s.db = db
	s.repos = repository.NewRepositories(db)
}

func (s *PostgresSuite) TearDownSuite() {
	if sqlDB, err := s.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (s *PostgresSuite) SetupTest() {
	s.Require().NoError(s.db.Exec(`TRUNCATE audit_logs, tours, competitor_stores,
		user_permissions, user_roles, role_permissions, users, roles, permissions
		RESTART IDENTITY CASCADE`).Error)
}

func (s *PostgresSuite) permissions(keys ...string) []uint {
	ids := make([]uint, 0, len(keys))
	for _, k := range keys {
		p := &model.Permission{Key: k}
		s.Require().NoError(s.repos.Permissions.Create(s.ctx, p))
		ids = append(ids, p.ID)
	}
	return ids
}

func (s *PostgresSuite) user(email string, roleIDs ...uint) *model.User {
	u := &model.User{
		Email:        email,
		PasswordHash: "hash",
		FirstName:    "Field",
		LastName:     "Agent",
		IsActive:     true,
		RoleIDs:      roleIDs,
	}
	s.Require().NoError(s.repos.Users.Create(s.ctx, u))
	return u
}

func (s *PostgresSuite) TestPermissionDuplicateKey() {
	s.permissions("users.view")

	err := s.repos.Permissions.Create(s.ctx, &model.Permission{Key: "users.view"})
	s.Require().ErrorIs(err, repository.ErrDuplicate)
}

func (s *PostgresSuite) TestReplacePermissions() {
	ids := s.permissions("a.one", "b.two", "c.three")

	role := &model.Role{Name: "Manager", PermissionIDs: []uint{ids[0]}}
	s.Require().NoError(s.repos.Roles.Create(s.ctx, role))

	s.Require().NoError(s.repos.Roles.ReplacePermissions(s.ctx, role.ID, []uint{ids[2], ids[1], ids[2]}))
	got, err := s.repos.Roles.FindByID(s.ctx, role.ID)
	s.Require().NoError(err)
	s.Equal([]uint{ids[1], ids[2]}, got.PermissionIDs)

	boom := errors.New("boom")
	err = s.repos.Tx.RunInTx(s.ctx, func(txCtx context.Context) error {
		if err := s.repos.Roles.ReplacePermissions(txCtx, role.ID, []uint{ids[0]}); err != nil {
			return err
		}
		return boom
	})
	s.Require().ErrorIs(err, boom)

	got, err = s.repos.Roles.FindByID(s.ctx, role.ID)
	s.Require().NoError(err)
	s.Equal([]uint{ids[1], ids[2]}, got.PermissionIDs)
}

func (s *PostgresSuite) TestDetachRole() {
	admin := &model.Role{Name: "Admin"}
	viewer := &model.Role{Name: "Viewer"}
	s.Require().NoError(s.repos.Roles.Create(s.ctx, admin))
	s.Require().NoError(s.repos.Roles.Create(s.ctx, viewer))

	u := s.user("agent@example.com", viewer.ID, admin.ID)

	n, err := s.repos.Users.DetachRole(s.ctx, admin.ID)
	s.Require().NoError(err)
	s.EqualValues(1, n)
	s.Require().NoError(s.repos.Roles.Delete(s.ctx, admin.ID))

	got, err := s.repos.Users.FindByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal([]uint{viewer.ID}, got.RoleIDs)
}

func (s *PostgresSuite) TestInactiveUserStaysInactive() {
	u := &model.User{Email: "off@example.com", PasswordHash: "hash", FirstName: "Off", LastName: "Line"}
	s.Require().NoError(s.repos.Users.Create(s.ctx, u))

	active, inactive, err := s.repos.Users.CountByActive(s.ctx)
	s.Require().NoError(err)
	s.EqualValues(0, active)
	s.EqualValues(1, inactive)
}

func (s *PostgresSuite) TestDetachStoreAndWithinBox() {
	near := &model.CompetitorStore{Name: "Bastille", Competitor: "Carrefour", Latitude: 48.8532, Longitude: 2.3692}
	far := &model.CompetitorStore{Name: "Lyon", Competitor: "Carrefour", Latitude: 45.7640, Longitude: 4.8357}
	s.Require().NoError(s.repos.Stores.Create(s.ctx, near))
	s.Require().NoError(s.repos.Stores.Create(s.ctx, far))

	found, err := s.repos.Stores.WithinBox(s.ctx, geo.BoundingBox(48.8566, 2.3522, 10))
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.Equal(near.ID, found[0].ID)

	u := s.user("agent@example.com")
	start := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	tour := &model.Tour{
		CollaboratorID:  u.ID,
		AssignedStoreID: &near.ID,
		Name:            "Price check",
		MissionType:     "price_survey",
		StartDate:       start,
		EndDate:         start.Add(48 * time.Hour),
	}
	s.Require().NoError(s.repos.Tours.Create(s.ctx, tour))

	n, err := s.repos.Tours.DetachStore(s.ctx, near.ID)
	s.Require().NoError(err)
	s.EqualValues(1, n)

	got, err := s.repos.Tours.FindByID(s.ctx, tour.ID)
	s.Require().NoError(err)
	s.Nil(got.AssignedStoreID)
}

func (s *PostgresSuite) TestAuditFilter() {
	actor := uint(7)
	entries := []model.AuditLog{
		{Action: model.ActionCreate, Entity: model.EntityRole, EntityID: 1, Details: "{}"},
		{Action: model.ActionUpdate, Entity: model.EntityRole, EntityID: 2, Details: "{}", ActorID: &actor},
		{Action: model.ActionCreate, Entity: model.EntityStore, EntityID: 1, Details: "{}", ActorID: &actor},
	}
	for i := range entries {
		s.Require().NoError(s.repos.Audit.Log(s.ctx, &entries[i]))
	}

	got, total, err := s.repos.Audit.List(s.ctx, repository.AuditFilter{Entity: model.EntityRole}, pagination.New(1, 10))
	s.Require().NoError(err)
	s.EqualValues(2, total)
	s.Len(got, 2)

	got, total, err = s.repos.Audit.List(s.ctx, repository.AuditFilter{ActorID: actor, Entity: model.EntityStore}, pagination.New(1, 10))
	s.Require().NoError(err)
	s.EqualValues(1, total)
	s.Equal(entries[2].ID, got[0].ID)
}

package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"adminapi/internal/model"
	"adminapi/internal/repository"
	"adminapi/internal/service"
	"adminapi/pkg/apperror"
	"adminapi/pkg/pagination"
)

type RBACSuite struct {
	suite.Suite
	ctx context.Context
	e   *env
}

func TestRBACSuite(t *testing.T) {
	suite.Run(t, new(RBACSuite))
}

func (s *RBACSuite) SetupTest() {
	s.ctx = context.Background()
	s.e = newEnv(s.T())
}

func (s *RBACSuite) requireKind(err error, target *apperror.Error, field string) {
	s.Require().Error(err)
	s.Require().ErrorIs(err, target)
	if field != "" {
		var appErr *apperror.Error
		s.Require().True(errors.As(err, &appErr))
		s.Require().True(appErr.HasField(field), "expected field %q in %v", field, appErr.Fields)
	}
}

// --- permissions ---

func (s *RBACSuite) TestCreatePermission_UniqueKey() {
	p := s.e.permission(s.T(), "users.view")
	s.Equal("users.view", p.Key)
	s.NotZero(p.ID)

	_, err := s.e.rbac.CreatePermission(s.ctx, service.CreatePermissionRequest{Key: "users.view"})
	s.requireKind(err, apperror.ErrConflict, "key")

	perms, err := s.e.rbac.ListPermissions(s.ctx)
	s.Require().NoError(err)
	s.Len(perms, 1)
}

func (s *RBACSuite) TestCreatePermission_InvalidFormat() {
	for _, key := range []string{"Users.View", "1abc", "ab", "has space"} {
		_, err := s.e.rbac.CreatePermission(s.ctx, service.CreatePermissionRequest{Key: key})
		s.requireKind(err, apperror.ErrValidation, "key")
	}
}

func (s *RBACSuite) TestUpdatePermission() {
	a := s.e.permission(s.T(), "a.one")
	s.e.permission(s.T(), "b.two")

	got, err := s.e.rbac.UpdatePermission(s.ctx, a.ID, service.UpdatePermissionRequest{
		Key:         ptr("a.renamed"),
		Description: ptr("renamed"),
	})
	s.Require().NoError(err)
	s.Equal("a.renamed", got.Key)
	s.Equal("renamed", *got.Description)

	_, err = s.e.rbac.UpdatePermission(s.ctx, a.ID, service.UpdatePermissionRequest{Key: ptr("b.two")})
	s.requireKind(err, apperror.ErrConflict, "key")

	_, err = s.e.rbac.UpdatePermission(s.ctx, 999, service.UpdatePermissionRequest{})
	s.requireKind(err, apperror.ErrNotFound, "")
}

func (s *RBACSuite) TestDeletePermission_RefusedWhileReferenced() {
	byRole := s.e.permission(s.T(), "by.role")
	byUser := s.e.permission(s.T(), "by.user")
	free := s.e.permission(s.T(), "free.perm")

	r := s.e.role(s.T(), "Manager", byRole.ID)
	u := s.e.user(s.T(), "u@example.com")
	_, err := s.e.rbac.SetUserPermissions(s.ctx, u.ID, []uint{byUser.ID})
	s.Require().NoError(err)

	s.requireKind(s.e.rbac.DeletePermission(s.ctx, byRole.ID), apperror.ErrConflict, "id")
	s.requireKind(s.e.rbac.DeletePermission(s.ctx, byUser.ID), apperror.ErrConflict, "id")
	s.Require().NoError(s.e.rbac.DeletePermission(s.ctx, free.ID))
	s.requireKind(s.e.rbac.DeletePermission(s.ctx, free.ID), apperror.ErrNotFound, "")

	// once unreferenced the delete goes through
	_, err = s.e.rbac.SetRolePermissions(s.ctx, r.ID, []uint{})
	s.Require().NoError(err)
	s.Require().NoError(s.e.rbac.DeletePermission(s.ctx, byRole.ID))
}

// --- roles ---

func (s *RBACSuite) TestCreateRole_UnknownPermission() {
	p := s.e.permission(s.T(), "a.one")

	_, err := s.e.rbac.CreateRole(s.ctx, service.CreateRoleRequest{Name: "Manager", PermissionIDs: []uint{p.ID, 41, 42}})
	s.requireKind(err, apperror.ErrUnknownReference, "permission_ids")
	s.Contains(err.Error(), "41, 42")

	roles, err := s.e.rbac.ListRoles(s.ctx)
	s.Require().NoError(err)
	s.Empty(roles)
}

func (s *RBACSuite) TestCreateRole_CollapsesDuplicates() {
	a := s.e.permission(s.T(), "a.one")
	b := s.e.permission(s.T(), "b.two")

	r := s.e.role(s.T(), "Manager", b.ID, a.ID, b.ID)
	s.Equal([]uint{a.ID, b.ID}, r.PermissionIDs)
}

func (s *RBACSuite) TestSetRolePermissions_Idempotent() {
	a := s.e.permission(s.T(), "a.one")
	b := s.e.permission(s.T(), "b.two")
	r := s.e.role(s.T(), "Manager")

	for i := 0; i < 2; i++ {
		got, err := s.e.rbac.SetRolePermissions(s.ctx, r.ID, []uint{b.ID, a.ID})
		s.Require().NoError(err)
		s.Equal([]uint{a.ID, b.ID}, got.PermissionIDs)
	}

	stored, err := s.e.rbac.GetRole(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal([]uint{a.ID, b.ID}, stored.PermissionIDs)
}

func (s *RBACSuite) TestSetRolePermissions_FailureKeepsPreviousSet() {
	a := s.e.permission(s.T(), "a.one")
	r := s.e.role(s.T(), "Manager", a.ID)

	_, err := s.e.rbac.SetRolePermissions(s.ctx, r.ID, []uint{a.ID, 77})
	s.requireKind(err, apperror.ErrUnknownReference, "permission_ids")

	stored, err := s.e.rbac.GetRole(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal([]uint{a.ID}, stored.PermissionIDs)

	_, err = s.e.rbac.SetRolePermissions(s.ctx, 404, []uint{a.ID})
	s.requireKind(err, apperror.ErrNotFound, "")
}

func (s *RBACSuite) TestUpdateRole_Patch() {
	r, err := s.e.rbac.CreateRole(s.ctx, service.CreateRoleRequest{Name: "Visitor", Description: ptr("read only")})
	s.Require().NoError(err)

	got, err := s.e.rbac.UpdateRole(s.ctx, r.ID, service.UpdateRoleRequest{Name: ptr("Guest")})
	s.Require().NoError(err)
	s.Equal("Guest", got.Name)
	s.Equal("read only", *got.Description)

	_, err = s.e.rbac.UpdateRole(s.ctx, r.ID, service.UpdateRoleRequest{Name: ptr("ab")})
	s.requireKind(err, apperror.ErrValidation, "name")
}

func (s *RBACSuite) TestDeleteRole_DetachesUsers() {
	a := s.e.permission(s.T(), "a.one")
	b := s.e.permission(s.T(), "b.two")
	c := s.e.permission(s.T(), "c.three")
	r := s.e.role(s.T(), "Manager", a.ID, b.ID)
	u := s.e.user(s.T(), "u@example.com")

	_, err := s.e.rbac.SetUserRoles(s.ctx, u.ID, []uint{r.ID})
	s.Require().NoError(err)
	_, err = s.e.rbac.SetUserPermissions(s.ctx, u.ID, []uint{c.ID})
	s.Require().NoError(err)

	s.Require().NoError(s.e.rbac.DeleteRole(s.ctx, r.ID))

	_, err = s.e.rbac.GetRole(s.ctx, r.ID)
	s.requireKind(err, apperror.ErrNotFound, "")

	got, err := s.e.rbac.GetUser(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Empty(got.RoleIDs)

	perms, err := s.e.rbac.EffectivePermissions(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal([]string{"c.three"}, keysOf(perms))

	s.requireKind(s.e.rbac.DeleteRole(s.ctx, r.ID), apperror.ErrNotFound, "")
}

// --- users ---

func (s *RBACSuite) TestCreateUser() {
	r := s.e.role(s.T(), "Manager")

	u, err := s.e.rbac.CreateUser(s.ctx, service.CreateUserRequest{
		Email:     "  Jane.Doe@Example.com ",
		Password:  "correct-horse",
		FirstName: "Jane",
		LastName:  "Doe",
		RoleIDs:   []uint{r.ID, r.ID},
	})
	s.Require().NoError(err)
	s.Equal("jane.doe@example.com", u.Email)
	s.True(u.IsActive)
	s.Equal([]uint{r.ID}, u.RoleIDs)
	s.Equal([]uint{}, u.ExtraPermissionIDs)
	s.NoError(s.e.hasher.Compare(u.PasswordHash, "correct-horse"))

	_, err = s.e.rbac.CreateUser(s.ctx, service.CreateUserRequest{
		Email: "jane.doe@example.com", Password: "another-pass", FirstName: "J", LastName: "D",
	})
	s.requireKind(err, apperror.ErrConflict, "email")
}

func (s *RBACSuite) TestCreateUser_UnknownReferences() {
	_, err := s.e.rbac.CreateUser(s.ctx, service.CreateUserRequest{
		Email: "a@example.com", Password: "password1", FirstName: "A", LastName: "B", RoleIDs: []uint{5},
	})
	s.requireKind(err, apperror.ErrUnknownReference, "role_ids")

	_, err = s.e.rbac.CreateUser(s.ctx, service.CreateUserRequest{
		Email: "a@example.com", Password: "password1", FirstName: "A", LastName: "B", ExtraPermissionIDs: []uint{5},
	})
	s.requireKind(err, apperror.ErrUnknownReference, "extra_permission_ids")

	users, total, err := s.e.rbac.ListUsers(s.ctx, pagination.New(1, 20))
	s.Require().NoError(err)
	s.Zero(total)
	s.Empty(users)
}

func (s *RBACSuite) TestCreateUser_Validation() {
	_, err := s.e.rbac.CreateUser(s.ctx, service.CreateUserRequest{Email: "not-an-email", Password: "short"})
	s.Require().Error(err)

	var appErr *apperror.Error
	s.Require().True(errors.As(err, &appErr))
	s.Equal(apperror.KindValidation, appErr.Kind)
	for _, f := range []string{"email", "password", "first_name", "last_name"} {
		s.True(appErr.HasField(f), f)
	}
}

func (s *RBACSuite) TestUpdateUser_MergesPatch() {
	a := s.e.permission(s.T(), "a.one")
	r1 := s.e.role(s.T(), "First")
	r2 := s.e.role(s.T(), "Second")
	u := s.e.user(s.T(), "u@example.com")
	other := s.e.user(s.T(), "other@example.com")

	_, err := s.e.rbac.SetUserRoles(s.ctx, u.ID, []uint{r1.ID})
	s.Require().NoError(err)

	got, err := s.e.rbac.UpdateUser(s.ctx, u.ID, service.UpdateUserRequest{
		LastName:           ptr("Smith"),
		Password:           ptr("new-password"),
		IsActive:           ptr(false),
		RoleIDs:            []uint{r2.ID},
		ExtraPermissionIDs: []uint{a.ID},
	})
	s.Require().NoError(err)
	s.Equal("Jane", got.FirstName)
	s.Equal("Smith", got.LastName)
	s.False(got.IsActive)
	s.Equal([]uint{r2.ID}, got.RoleIDs)
	s.Equal([]uint{a.ID}, got.ExtraPermissionIDs)
	s.NoError(s.e.hasher.Compare(got.PasswordHash, "new-password"))

	// omitted sets stay as they are; an empty list clears
	got, err = s.e.rbac.UpdateUser(s.ctx, u.ID, service.UpdateUserRequest{RoleIDs: []uint{}})
	s.Require().NoError(err)
	s.Empty(got.RoleIDs)
	s.Equal([]uint{a.ID}, got.ExtraPermissionIDs)

	_, err = s.e.rbac.UpdateUser(s.ctx, u.ID, service.UpdateUserRequest{Email: ptr(other.Email)})
	s.requireKind(err, apperror.ErrConflict, "email")

	_, err = s.e.rbac.UpdateUser(s.ctx, u.ID, service.UpdateUserRequest{RoleIDs: []uint{999}})
	s.requireKind(err, apperror.ErrUnknownReference, "role_ids")

	_, err = s.e.rbac.UpdateUser(s.ctx, 999, service.UpdateUserRequest{})
	s.requireKind(err, apperror.ErrNotFound, "")
}

func (s *RBACSuite) TestSetUserRoles_UnknownRoleKeepsPrevious() {
	r := s.e.role(s.T(), "Manager")
	u := s.e.user(s.T(), "u@example.com")

	_, err := s.e.rbac.SetUserRoles(s.ctx, u.ID, []uint{r.ID})
	s.Require().NoError(err)

	_, err = s.e.rbac.SetUserRoles(s.ctx, u.ID, []uint{r.ID, 31})
	s.requireKind(err, apperror.ErrUnknownReference, "role_ids")

	got, err := s.e.rbac.GetUser(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal([]uint{r.ID}, got.RoleIDs)
}

func (s *RBACSuite) TestDeleteUser() {
	u := s.e.user(s.T(), "u@example.com")
	busy := s.e.user(s.T(), "busy@example.com")

	_, err := s.e.tours.CreateTour(s.ctx, service.CreateTourRequest{
		CollaboratorID: busy.ID,
		Name:           "Visit",
		MissionType:    "audit",
		StartDate:      time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)

	s.Require().NoError(s.e.rbac.DeleteUser(s.ctx, u.ID))
	_, err = s.e.rbac.GetUser(s.ctx, u.ID)
	s.requireKind(err, apperror.ErrNotFound, "")

	s.requireKind(s.e.rbac.DeleteUser(s.ctx, busy.ID), apperror.ErrConflict, "id")
	s.requireKind(s.e.rbac.DeleteUser(s.ctx, u.ID), apperror.ErrNotFound, "")
}

// --- effective permissions ---

func (s *RBACSuite) TestEffectivePermissions_UnionOfRolesAndExtras() {
	a := s.e.permission(s.T(), "a.one")
	b := s.e.permission(s.T(), "b.two")
	c := s.e.permission(s.T(), "c.three")
	r := s.e.role(s.T(), "Manager", a.ID, b.ID)
	u := s.e.user(s.T(), "u@example.com")

	_, err := s.e.rbac.SetUserRoles(s.ctx, u.ID, []uint{r.ID})
	s.Require().NoError(err)
	_, err = s.e.rbac.SetUserPermissions(s.ctx, u.ID, []uint{c.ID, a.ID})
	s.Require().NoError(err)

	perms, err := s.e.rbac.EffectivePermissions(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal([]string{"a.one", "b.two", "c.three"}, keysOf(perms))

	_, err = s.e.rbac.EffectivePermissions(s.ctx, 999)
	s.requireKind(err, apperror.ErrNotFound, "")
}

func (s *RBACSuite) TestEffectivePermissions_CacheFollowsMutations() {
	a := s.e.permission(s.T(), "a.one")
	b := s.e.permission(s.T(), "b.two")
	r := s.e.role(s.T(), "Manager", a.ID)
	u := s.e.user(s.T(), "u@example.com")
	_, err := s.e.rbac.SetUserRoles(s.ctx, u.ID, []uint{r.ID})
	s.Require().NoError(err)

	g, err := s.e.rbac.Grant(s.ctx, u.ID)
	s.Require().NoError(err)
	s.True(g.Has("a.one"))
	s.False(g.Has("b.two"))

	_, err = s.e.rbac.SetRolePermissions(s.ctx, r.ID, []uint{a.ID, b.ID})
	s.Require().NoError(err)

	g, err = s.e.rbac.Grant(s.ctx, u.ID)
	s.Require().NoError(err)
	s.True(g.Has("a.one", "b.two"))

	_, err = s.e.rbac.UpdatePermission(s.ctx, b.ID, service.UpdatePermissionRequest{Key: ptr("b.renamed")})
	s.Require().NoError(err)

	g, err = s.e.rbac.Grant(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal([]string{"a.one", "b.renamed"}, g.Keys())

	_, err = s.e.rbac.UpdateUser(s.ctx, u.ID, service.UpdateUserRequest{IsActive: ptr(false)})
	s.Require().NoError(err)
	g, err = s.e.rbac.Grant(s.ctx, u.ID)
	s.Require().NoError(err)
	s.False(g.Active)
}

func (s *RBACSuite) TestEffectivePermissions_ReturnedSliceIsACopy() {
	a := s.e.permission(s.T(), "a.one")
	u := s.e.user(s.T(), "u@example.com")
	_, err := s.e.rbac.SetUserPermissions(s.ctx, u.ID, []uint{a.ID})
	s.Require().NoError(err)

	perms, err := s.e.rbac.EffectivePermissions(s.ctx, u.ID)
	s.Require().NoError(err)
	perms[0].Key = "tampered"

	perms, err = s.e.rbac.EffectivePermissions(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal("a.one", perms[0].Key)
}

// --- side effects ---

func (s *RBACSuite) TestMutationsAreAuditedAndPublished() {
	ctx := model.WithActor(s.ctx, 42)

	p, err := s.e.rbac.CreatePermission(ctx, service.CreatePermissionRequest{Key: "a.one"})
	s.Require().NoError(err)

	last := s.e.events.last()
	s.Equal(model.EntityPermission, last.Entity)
	s.Equal(model.ActionCreate, last.Action)
	s.Equal(p.ID, last.ID)

	logs, total, err := s.e.repos.Audit.List(s.ctx, repository.AuditFilter{}, pagination.New(1, 10))
	s.Require().NoError(err)
	s.EqualValues(1, total)
	s.Equal(model.ActionCreate, logs[0].Action)
	s.Equal(model.EntityPermission, logs[0].Entity)
	s.Require().NotNil(logs[0].ActorID)
	s.EqualValues(42, *logs[0].ActorID)
	s.Contains(logs[0].Details, `"key":"a.one"`)

	// a rejected mutation leaves no trace
	before := s.e.events.count()
	_, err = s.e.rbac.CreatePermission(ctx, service.CreatePermissionRequest{Key: "a.one"})
	s.Require().Error(err)
	s.Equal(before, s.e.events.count())
	_, total, err = s.e.repos.Audit.List(s.ctx, repository.AuditFilter{}, pagination.New(1, 10))
	s.Require().NoError(err)
	s.EqualValues(1, total)
}

func (s *RBACSuite) TestUserAuditNeverContainsPassword() {
	s.e.user(s.T(), "u@example.com")

	logs, _, err := s.e.repos.Audit.List(s.ctx, repository.AuditFilter{}, pagination.New(1, 10))
	s.Require().NoError(err)
	s.Require().NotEmpty(logs)
	s.NotContains(logs[0].Details, "password")
	s.NotContains(logs[0].Details, "correct-horse")
}

package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"adminapi/internal/service"
	"adminapi/pkg/pagination"
)

func TestSeeder_Idempotent(t *testing.T) {
	t.Parallel()
	r := require.New(t)
	e := newEnv(t)
	ctx := context.Background()

	seeder := service.NewSeeder(e.repos, e.rbac)
	opts := service.SeedOptions{AdminEmail: "Admin@Example.com", AdminPassword: "change-me-now"}

	r.NoError(seeder.Seed(ctx, opts))
	events := e.events.count()
	r.NoError(seeder.Seed(ctx, opts))
	r.Equal(events, e.events.count(), "second run must not write anything")

	perms, err := e.rbac.ListPermissions(ctx)
	r.NoError(err)
	r.ElementsMatch(service.DefaultPermissionKeys(), keysOf(perms))

	roles, err := e.rbac.ListRoles(ctx)
	r.NoError(err)
	r.Len(roles, 3)

	users, total, err := e.rbac.ListUsers(ctx, pagination.New(1, 10))
	r.NoError(err)
	r.EqualValues(1, total)
	r.Equal("admin@example.com", users[0].Email)

	grant, err := e.rbac.Grant(ctx, users[0].ID)
	r.NoError(err)
	r.ElementsMatch(service.DefaultPermissionKeys(), grant.Keys())
}

func TestSeeder_RoleMatrix(t *testing.T) {
	t.Parallel()
	r := require.New(t)
	e := newEnv(t)
	ctx := context.Background()

	r.NoError(service.NewSeeder(e.repos, e.rbac).Seed(ctx, service.SeedOptions{}))

	users, _, err := e.rbac.ListUsers(ctx, pagination.New(1, 10))
	r.NoError(err)
	r.Empty(users, "no admin without an email")

	keysOfRole := func(name string) []string {
		role, err := e.repos.Roles.FindByName(ctx, name)
		r.NoError(err)
		perms, err := e.repos.Permissions.FindByIDs(ctx, role.PermissionIDs)
		r.NoError(err)
		return keysOf(perms)
	}

	r.ElementsMatch([]string{
		service.PermUsersView, service.PermRolesView,
		service.PermStoresView, service.PermStoresManage,
		service.PermToursView, service.PermToursManage,
	}, keysOfRole(service.RoleManager))
	r.ElementsMatch([]string{
		service.PermUsersView, service.PermRolesView, service.PermStoresView, service.PermToursView,
	}, keysOfRole(service.RoleVisitor))
}

func TestSeeder_KeepsExistingRecords(t *testing.T) {
	t.Parallel()
	r := require.New(t)
	e := newEnv(t)
	ctx := context.Background()

	// a pre-existing visitor role with nothing in it stays untouched
	existing := e.role(t, service.RoleVisitor)
	r.NoError(service.NewSeeder(e.repos, e.rbac).Seed(ctx, service.SeedOptions{}))

	got, err := e.rbac.GetRole(ctx, existing.ID)
	r.NoError(err)
	r.Empty(got.PermissionIDs)
}

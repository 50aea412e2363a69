package service

import (
	"context"
	"fmt"

	"adminapi/internal/repository"
	"adminapi/pkg/logger"

	"github.com/sirupsen/logrus"
)

// Permission keys the API guards its routes with.
const (
	PermUsersView    = "users.view"
	PermUsersAdd     = "users.add"
	PermUsersEdit    = "users.edit"
	PermUsersDelete  = "users.delete"
	PermRolesView    = "roles.view"
	PermRolesManage  = "roles.manage"
	PermStoresView   = "stores.view"
	PermStoresManage = "stores.manage"
	PermToursView    = "tours.view"
	PermToursManage  = "tours.manage"
)

const (
	RoleAdministrator = "Administrator"
	RoleManager       = "Manager"
	RoleVisitor       = "Visitor"
)

var defaultPermissions = []struct {
	Key         string
	Description string
}{
	{PermUsersView, "View users"},
	{PermUsersAdd, "Create users"},
	{PermUsersEdit, "Edit users and their role assignments"},
	{PermUsersDelete, "Delete users"},
	{PermRolesView, "View roles and permissions"},
	{PermRolesManage, "Manage roles and permissions"},
	{PermStoresView, "View competitor stores"},
	{PermStoresManage, "Manage competitor stores"},
	{PermToursView, "View tours"},
	{PermToursManage, "Plan and edit tours"},
}

var defaultRoles = []struct {
	Name        string
	Description string
	Keys        []string // nil means every default permission
}{
	{RoleAdministrator, "Full access", nil},
	{RoleManager, "Runs field operations", []string{
		PermUsersView, PermRolesView,
		PermStoresView, PermStoresManage,
		PermToursView, PermToursManage,
	}},
	{RoleVisitor, "Read-only access", []string{
		PermUsersView, PermRolesView, PermStoresView, PermToursView,
	}},
}

type SeedOptions struct {
	AdminEmail    string
	AdminPassword string
}

// Seeder creates the default permission catalog, roles and admin account.
// Existing records are left as they are, so it is safe to run on every start.
type Seeder struct {
	repos repository.Repositories
	rbac  RBACService
}

func NewSeeder(repos repository.Repositories, rbac RBACService) *Seeder {
	return &Seeder{repos: repos, rbac: rbac}
}

func (s *Seeder) Seed(ctx context.Context, opts SeedOptions) error {
	log := logger.FromContext(ctx)

	byKey := make(map[string]uint, len(defaultPermissions))
	all := make([]uint, 0, len(defaultPermissions))
	for _, def := range defaultPermissions {
		perm, err := s.repos.Permissions.FindByKey(ctx, def.Key)
		switch {
		case err == nil:
		case isNotFound(err):
			desc := def.Description
			perm, err = s.rbac.CreatePermission(ctx, CreatePermissionRequest{Key: def.Key, Description: &desc})
			if err != nil {
				return fmt.Errorf("failed to seed permission '%s': %w", def.Key, err)
			}
			log.WithField("key", def.Key).Info("seeded permission")
		default:
			return fmt.Errorf("failed to look up permission '%s': %w", def.Key, err)
		}
		byKey[def.Key] = perm.ID
		all = append(all, perm.ID)
	}

	roleIDs := make(map[string]uint, len(defaultRoles))
	for _, def := range defaultRoles {
		role, err := s.repos.Roles.FindByName(ctx, def.Name)
		switch {
		case err == nil:
		case isNotFound(err):
			ids := all
			if def.Keys != nil {
				ids = make([]uint, 0, len(def.Keys))
				for _, k := range def.Keys {
					ids = append(ids, byKey[k])
				}
			}
			desc := def.Description
			role, err = s.rbac.CreateRole(ctx, CreateRoleRequest{Name: def.Name, Description: &desc, PermissionIDs: ids})
			if err != nil {
				return fmt.Errorf("failed to seed role '%s': %w", def.Name, err)
			}
			log.WithField("role", def.Name).Info("seeded role")
		default:
			return fmt.Errorf("failed to look up role '%s': %w", def.Name, err)
		}
		roleIDs[def.Name] = role.ID
	}

	if opts.AdminEmail == "" {
		return nil
	}

	email := normalizeEmail(opts.AdminEmail)
	_, err := s.repos.Users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil
	case !isNotFound(err):
		return fmt.Errorf("failed to look up admin user: %w", err)
	}

	admin, err := s.rbac.CreateUser(ctx, CreateUserRequest{
		Email:     email,
		Password:  opts.AdminPassword,
		FirstName: "System",
		LastName:  "Administrator",
		RoleIDs:   []uint{roleIDs[RoleAdministrator]},
	})
	if err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	log.WithFields(logrus.Fields{"user_id": admin.ID, "email": email}).Info("seeded admin user")

	return nil
}

// DefaultPermissionKeys lists the seeded catalog in declaration order.
func DefaultPermissionKeys() []string {
	keys := make([]string, 0, len(defaultPermissions))
	for _, p := range defaultPermissions {
		keys = append(keys, p.Key)
	}
	return keys
}

package service

import (
	"context"
	"fmt"
	"strings"

	"adminapi/internal/model"
	"adminapi/internal/repository"
	"adminapi/internal/validation"
	"adminapi/pkg/apperror"
	"adminapi/pkg/logger"
	"adminapi/pkg/pagination"

	"github.com/sirupsen/logrus"
)

// RBACService owns users, roles and permissions and keeps the references
// between them consistent. Every mutation runs in one transaction together
// with its audit entry.
type RBACService interface {
	CreatePermission(ctx context.Context, req CreatePermissionRequest) (*model.Permission, error)
	UpdatePermission(ctx context.Context, id uint, req UpdatePermissionRequest) (*model.Permission, error)
	// DeletePermission refuses with Conflict while any role or user override references it.
	DeletePermission(ctx context.Context, id uint) error
	GetPermission(ctx context.Context, id uint) (*model.Permission, error)
	ListPermissions(ctx context.Context) ([]model.Permission, error)

	CreateRole(ctx context.Context, req CreateRoleRequest) (*model.Role, error)
	UpdateRole(ctx context.Context, id uint, req UpdateRoleRequest) (*model.Role, error)
	SetRolePermissions(ctx context.Context, roleID uint, permissionIDs []uint) (*model.Role, error)
	// DeleteRole detaches the role from every user, then removes it.
	DeleteRole(ctx context.Context, id uint) error
	GetRole(ctx context.Context, id uint) (*model.Role, error)
	ListRoles(ctx context.Context) ([]model.Role, error)

	CreateUser(ctx context.Context, req CreateUserRequest) (*model.User, error)
	UpdateUser(ctx context.Context, id uint, req UpdateUserRequest) (*model.User, error)
	SetUserRoles(ctx context.Context, userID uint, roleIDs []uint) (*model.User, error)
	SetUserPermissions(ctx context.Context, userID uint, permissionIDs []uint) (*model.User, error)
	// DeleteUser refuses with Conflict while tours name the user as collaborator.
	DeleteUser(ctx context.Context, id uint) error
	GetUser(ctx context.Context, id uint) (*model.User, error)
	ListUsers(ctx context.Context, p pagination.Params) ([]model.User, int64, error)

	// EffectivePermissions is the union of the user's role permissions and
	// extra permissions, sorted by key.
	EffectivePermissions(ctx context.Context, userID uint) ([]model.Permission, error)
	Grant(ctx context.Context, userID uint) (*Grant, error)
}

type rbacService struct {
	repos    repository.Repositories
	hasher   PasswordHasher
	events   EventPublisher
	validate *validation.Validator
	cache    *grantCache
}

func NewRBACService(repos repository.Repositories, hasher PasswordHasher, events EventPublisher) RBACService {
	if events == nil {
		events = NopPublisher()
	}
	return &rbacService{
		repos:    repos,
		hasher:   hasher,
		events:   events,
		validate: validation.Default(),
		cache:    newGrantCache(),
	}
}

// committed runs after a successful mutation.
func (s *rbacService) committed(ctx context.Context, entity, action string, id uint) {
	s.cache.invalidate()
	s.events.Publish(ctx, changeEvent(entity, action, id))
}

// --- Permissions ---

func (s *rbacService) CreatePermission(ctx context.Context, req CreatePermissionRequest) (*model.Permission, error) {
	req.Key = strings.TrimSpace(req.Key)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	perm := model.Permission{Key: req.Key, Description: optional(req.Description)}

	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.ensureKeyFree(txCtx, perm.Key, 0); err != nil {
			return err
		}
		if err := s.repos.Permissions.Create(txCtx, &perm); err != nil {
			return duplicate(err, "key", keyTakenMessage(perm.Key))
		}
		return writeAudit(txCtx, s.repos.Audit, model.ActionCreate, model.EntityPermission, perm.ID, perm)
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, model.EntityPermission, model.ActionCreate, perm.ID)
	return &perm, nil
}

func (s *rbacService) UpdatePermission(ctx context.Context, id uint, req UpdatePermissionRequest) (*model.Permission, error) {
	if req.Key != nil {
		key := strings.TrimSpace(*req.Key)
		req.Key = &key
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	var perm *model.Permission
	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		perm, err = s.repos.Permissions.FindByID(txCtx, id)
		if err != nil {
			return notFound(err, model.EntityPermission, id)
		}

		if req.Key != nil && *req.Key != perm.Key {
			if err := s.ensureKeyFree(txCtx, *req.Key, id); err != nil {
				return err
			}
			perm.Key = *req.Key
		}
		if req.Description != nil {
			perm.Description = optional(req.Description)
		}

		if err := s.repos.Permissions.Update(txCtx, perm); err != nil {
			return duplicate(err, "key", keyTakenMessage(perm.Key))
		}
		return writeAudit(txCtx, s.repos.Audit, model.ActionUpdate, model.EntityPermission, id, req)
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, model.EntityPermission, model.ActionUpdate, id)
	return perm, nil
}

func (s *rbacService) DeletePermission(ctx context.Context, id uint) error {
	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		perm, err := s.repos.Permissions.FindByID(txCtx, id)
		if err != nil {
			return notFound(err, model.EntityPermission, id)
		}

		refs, err := s.repos.Permissions.CountReferences(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to count permission references: %w", err)
		}
		if refs > 0 {
			return apperror.Conflict("id", fmt.Sprintf("permission %q is still granted by %d role(s) or user override(s)", perm.Key, refs))
		}

		if err := s.repos.Permissions.Delete(txCtx, id); err != nil {
			return notFound(err, model.EntityPermission, id)
		}
		return writeAudit(txCtx, s.repos.Audit, model.ActionDelete, model.EntityPermission, id, map[string]string{"key": perm.Key})
	})
	if err != nil {
		return err
	}

	s.committed(ctx, model.EntityPermission, model.ActionDelete, id)
	return nil
}

func (s *rbacService) GetPermission(ctx context.Context, id uint) (*model.Permission, error) {
	perm, err := s.repos.Permissions.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, model.EntityPermission, id)
	}
	return perm, nil
}

func (s *rbacService) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	perms, err := s.repos.Permissions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch permissions: %w", err)
	}
	return perms, nil
}

func (s *rbacService) ensureKeyFree(ctx context.Context, key string, exceptID uint) error {
	existing, err := s.repos.Permissions.FindByKey(ctx, key)
	switch {
	case err == nil && existing.ID != exceptID:
		return apperror.Conflict("key", keyTakenMessage(key))
	case err == nil, isNotFound(err):
		return nil
	default:
		return fmt.Errorf("failed to look up permission key: %w", err)
	}
}

func keyTakenMessage(key string) string {
	return fmt.Sprintf("permission key %q already exists", key)
}

// --- Roles ---

func (s *rbacService) CreateRole(ctx context.Context, req CreateRoleRequest) (*model.Role, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	role := model.Role{
		Name:          req.Name,
		Description:   optional(req.Description),
		PermissionIDs: repository.NormalizeIDs(req.PermissionIDs),
	}

	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.ensurePermissionsExist(txCtx, "permission_ids", role.PermissionIDs); err != nil {
			return err
		}
		if err := s.repos.Roles.Create(txCtx, &role); err != nil {
			return fmt.Errorf("failed to create role: %w", err)
		}
		return writeAudit(txCtx, s.repos.Audit, model.ActionCreate, model.EntityRole, role.ID, role)
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, model.EntityRole, model.ActionCreate, role.ID)
	return &role, nil
}

func (s *rbacService) UpdateRole(ctx context.Context, id uint, req UpdateRoleRequest) (*model.Role, error) {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		req.Name = &name
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	var role *model.Role
	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		role, err = s.repos.Roles.FindByID(txCtx, id)
		if err != nil {
			return notFound(err, model.EntityRole, id)
		}

		if req.Name != nil {
			role.Name = *req.Name
		}
		if req.Description != nil {
			role.Description = optional(req.Description)
		}

		if err := s.repos.Roles.Update(txCtx, role); err != nil {
			return fmt.Errorf("failed to update role: %w", err)
		}
		return writeAudit(txCtx, s.repos.Audit, model.ActionUpdate, model.EntityRole, id, req)
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, model.EntityRole, model.ActionUpdate, id)
	return role, nil
}

func (s *rbacService) SetRolePermissions(ctx context.Context, roleID uint, permissionIDs []uint) (*model.Role, error) {
	ids := repository.NormalizeIDs(permissionIDs)

	var role *model.Role
	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		role, err = s.repos.Roles.FindByID(txCtx, roleID)
		if err != nil {
			return notFound(err, model.EntityRole, roleID)
		}
		if err := s.ensurePermissionsExist(txCtx, "permission_ids", ids); err != nil {
			return err
		}
		if err := s.repos.Roles.ReplacePermissions(txCtx, roleID, ids); err != nil {
			return fmt.Errorf("failed to replace role permissions: %w", err)
		}
		role.PermissionIDs = ids
		return writeAudit(txCtx, s.repos.Audit, model.ActionSetPermissions, model.EntityRole, roleID,
			map[string][]uint{"permission_ids": ids})
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, model.EntityRole, model.ActionSetPermissions, roleID)
	return role, nil
}

func (s *rbacService) DeleteRole(ctx context.Context, id uint) error {
	var detached int64
	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		role, err := s.repos.Roles.FindByID(txCtx, id)
		if err != nil {
			return notFound(err, model.EntityRole, id)
		}

		detached, err = s.repos.Users.DetachRole(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to detach role from users: %w", err)
		}
		if err := s.repos.Roles.Delete(txCtx, id); err != nil {
			return notFound(err, model.EntityRole, id)
		}
		return writeAudit(txCtx, s.repos.Audit, model.ActionDelete, model.EntityRole, id, map[string]any{
			"name":           role.Name,
			"detached_users": detached,
		})
	})
	if err != nil {
		return err
	}

	logger.FromContext(ctx).WithFields(logrus.Fields{
		"role_id":        id,
		"detached_users": detached,
	}).Info("role deleted")

	s.committed(ctx, model.EntityRole, model.ActionDelete, id)
	return nil
}

func (s *rbacService) GetRole(ctx context.Context, id uint) (*model.Role, error) {
	role, err := s.repos.Roles.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, model.EntityRole, id)
	}
	return role, nil
}

func (s *rbacService) ListRoles(ctx context.Context) ([]model.Role, error) {
	roles, err := s.repos.Roles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}
	return roles, nil
}

// --- Reference checks ---

func (s *rbacService) ensurePermissionsExist(ctx context.Context, field string, ids []uint) error {
	missing, err := s.repos.Permissions.MissingIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to check permissions: %w", err)
	}
	if len(missing) > 0 {
		return apperror.UnknownReference(field, model.EntityPermission, missing)
	}
	return nil
}

func (s *rbacService) ensureRolesExist(ctx context.Context, field string, ids []uint) error {
	missing, err := s.repos.Roles.MissingIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to check roles: %w", err)
	}
	if len(missing) > 0 {
		return apperror.UnknownReference(field, model.EntityRole, missing)
	}
	return nil
}

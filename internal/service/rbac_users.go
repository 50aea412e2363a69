package service

import (
	"context"
	"fmt"
	"strings"

	"adminapi/internal/model"
	"adminapi/internal/repository"
	"adminapi/pkg/apperror"
	"adminapi/pkg/pagination"
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func emailTakenMessage(email string) string {
	return fmt.Sprintf("email %q is already registered", email)
}

// userAudit is what the audit log keeps of a user; never the password hash.
type userAudit struct {
	Email              string `json:"email"`
	FirstName          string `json:"first_name"`
	LastName           string `json:"last_name"`
	IsActive           bool   `json:"is_active"`
	RoleIDs            []uint `json:"role_ids"`
	ExtraPermissionIDs []uint `json:"extra_permission_ids"`
}

func auditOfUser(u *model.User) userAudit {
	return userAudit{
		Email:              u.Email,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		IsActive:           u.IsActive,
		RoleIDs:            u.RoleIDs,
		ExtraPermissionIDs: u.ExtraPermissionIDs,
	}
}

func (s *rbacService) CreateUser(ctx context.Context, req CreateUserRequest) (*model.User, error) {
	req.Email = normalizeEmail(req.Email)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := model.User{
		Email:              req.Email,
		PasswordHash:       hash,
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		IsActive:           true,
		RoleIDs:            repository.NormalizeIDs(req.RoleIDs),
		ExtraPermissionIDs: repository.NormalizeIDs(req.ExtraPermissionIDs),
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	err = s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.ensureEmailFree(txCtx, user.Email, 0); err != nil {
			return err
		}
		if err := s.ensureRolesExist(txCtx, "role_ids", user.RoleIDs); err != nil {
			return err
		}
		if err := s.ensurePermissionsExist(txCtx, "extra_permission_ids", user.ExtraPermissionIDs); err != nil {
			return err
		}
		if err := s.repos.Users.Create(txCtx, &user); err != nil {
			return duplicate(err, "email", emailTakenMessage(user.Email))
		}
		return writeAudit(txCtx, s.repos.Audit, model.ActionCreate, model.EntityUser, user.ID, auditOfUser(&user))
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, model.EntityUser, model.ActionCreate, user.ID)
	return &user, nil
}

func (s *rbacService) UpdateUser(ctx context.Context, id uint, req UpdateUserRequest) (*model.User, error) {
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		req.Email = &email
	}
	if req.FirstName != nil {
		v := strings.TrimSpace(*req.FirstName)
		req.FirstName = &v
	}
	if req.LastName != nil {
		v := strings.TrimSpace(*req.LastName)
		req.LastName = &v
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	var newHash string
	if req.Password != nil {
		h, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		newHash = h
	}

	var user *model.User
	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		user, err = s.repos.Users.FindByID(txCtx, id)
		if err != nil {
			return notFound(err, model.EntityUser, id)
		}

		if req.Email != nil && *req.Email != user.Email {
			if err := s.ensureEmailFree(txCtx, *req.Email, id); err != nil {
				return err
			}
			user.Email = *req.Email
		}
		if req.FirstName != nil {
			user.FirstName = *req.FirstName
		}
		if req.LastName != nil {
			user.LastName = *req.LastName
		}
		if req.IsActive != nil {
			user.IsActive = *req.IsActive
		}
		if newHash != "" {
			user.PasswordHash = newHash
		}

		if err := s.repos.Users.Update(txCtx, user); err != nil {
			return duplicate(err, "email", emailTakenMessage(user.Email))
		}

		if req.RoleIDs != nil {
			ids := repository.NormalizeIDs(req.RoleIDs)
			if err := s.ensureRolesExist(txCtx, "role_ids", ids); err != nil {
				return err
			}
			if err := s.repos.Users.ReplaceRoles(txCtx, id, ids); err != nil {
				return fmt.Errorf("failed to replace user roles: %w", err)
			}
			user.RoleIDs = ids
		}
		if req.ExtraPermissionIDs != nil {
			ids := repository.NormalizeIDs(req.ExtraPermissionIDs)
			if err := s.ensurePermissionsExist(txCtx, "extra_permission_ids", ids); err != nil {
				return err
			}
			if err := s.repos.Users.ReplacePermissions(txCtx, id, ids); err != nil {
				return fmt.Errorf("failed to replace user permissions: %w", err)
			}
			user.ExtraPermissionIDs = ids
		}

		return writeAudit(txCtx, s.repos.Audit, model.ActionUpdate, model.EntityUser, id, auditOfUser(user))
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, model.EntityUser, model.ActionUpdate, id)
	return user, nil
}

func (s *rbacService) SetUserRoles(ctx context.Context, userID uint, roleIDs []uint) (*model.User, error) {
	ids := repository.NormalizeIDs(roleIDs)

	var user *model.User
	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		user, err = s.repos.Users.FindByID(txCtx, userID)
		if err != nil {
			return notFound(err, model.EntityUser, userID)
		}
		if err := s.ensureRolesExist(txCtx, "role_ids", ids); err != nil {
			return err
		}
		if err := s.repos.Users.ReplaceRoles(txCtx, userID, ids); err != nil {
			return fmt.Errorf("failed to replace user roles: %w", err)
		}
		user.RoleIDs = ids
		return writeAudit(txCtx, s.repos.Audit, model.ActionSetRoles, model.EntityUser, userID,
			map[string][]uint{"role_ids": ids})
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, model.EntityUser, model.ActionSetRoles, userID)
	return user, nil
}

func (s *rbacService) SetUserPermissions(ctx context.Context, userID uint, permissionIDs []uint) (*model.User, error) {
	ids := repository.NormalizeIDs(permissionIDs)

	var user *model.User
	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		user, err = s.repos.Users.FindByID(txCtx, userID)
		if err != nil {
			return notFound(err, model.EntityUser, userID)
		}
		if err := s.ensurePermissionsExist(txCtx, "permission_ids", ids); err != nil {
			return err
		}
		if err := s.repos.Users.ReplacePermissions(txCtx, userID, ids); err != nil {
			return fmt.Errorf("failed to replace user permissions: %w", err)
		}
		user.ExtraPermissionIDs = ids
		return writeAudit(txCtx, s.repos.Audit, model.ActionSetPermissions, model.EntityUser, userID,
			map[string][]uint{"permission_ids": ids})
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, model.EntityUser, model.ActionSetPermissions, userID)
	return user, nil
}

func (s *rbacService) DeleteUser(ctx context.Context, id uint) error {
	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		user, err := s.repos.Users.FindByID(txCtx, id)
		if err != nil {
			return notFound(err, model.EntityUser, id)
		}

		tours, err := s.repos.Tours.CountByCollaborator(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to count user tours: %w", err)
		}
		if tours > 0 {
			return apperror.Conflict("id", fmt.Sprintf("user %d is the collaborator of %d tour(s)", id, tours))
		}

		if err := s.repos.Users.Delete(txCtx, id); err != nil {
			return notFound(err, model.EntityUser, id)
		}
		return writeAudit(txCtx, s.repos.Audit, model.ActionDelete, model.EntityUser, id, map[string]string{"email": user.Email})
	})
	if err != nil {
		return err
	}

	s.committed(ctx, model.EntityUser, model.ActionDelete, id)
	return nil
}

func (s *rbacService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.repos.Users.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, model.EntityUser, id)
	}
	return user, nil
}

func (s *rbacService) ListUsers(ctx context.Context, p pagination.Params) ([]model.User, int64, error) {
	users, total, err := s.repos.Users.List(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch users: %w", err)
	}
	return users, total, nil
}

func (s *rbacService) ensureEmailFree(ctx context.Context, email string, exceptID uint) error {
	existing, err := s.repos.Users.FindByEmail(ctx, email)
	switch {
	case err == nil && existing.ID != exceptID:
		return apperror.Conflict("email", emailTakenMessage(email))
	case err == nil, isNotFound(err):
		return nil
	default:
		return fmt.Errorf("failed to look up email: %w", err)
	}
}

// --- Effective permissions ---

func (s *rbacService) EffectivePermissions(ctx context.Context, userID uint) ([]model.Permission, error) {
	g, err := s.Grant(ctx, userID)
	if err != nil {
		return nil, err
	}
	return g.Permissions, nil
}

func (s *rbacService) Grant(ctx context.Context, userID uint) (*Grant, error) {
	if g, ok := s.cache.get(userID); ok {
		return &g, nil
	}

	gen := s.cache.generation()

	var g Grant
	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		user, err := s.repos.Users.FindByID(txCtx, userID)
		if err != nil {
			return notFound(err, model.EntityUser, userID)
		}

		fromRoles, err := s.repos.Roles.PermissionIDsOf(txCtx, user.RoleIDs)
		if err != nil {
			return fmt.Errorf("failed to resolve role permissions: %w", err)
		}
		ids := repository.NormalizeIDs(append(fromRoles, user.ExtraPermissionIDs...))

		perms, err := s.repos.Permissions.FindByIDs(txCtx, ids)
		if err != nil {
			return fmt.Errorf("failed to load permissions: %w", err)
		}

		g = Grant{UserID: user.ID, Active: user.IsActive, Permissions: perms}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.put(userID, gen, g)
	out := g
	out.Permissions = clonePermissions(g.Permissions)
	return &out, nil
}

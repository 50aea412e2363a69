package service

import (
	"context"
	"encoding/json"
	"fmt"

	"adminapi/internal/model"
	"adminapi/internal/repository"
	"adminapi/internal/validation"
	"adminapi/pkg/pagination"
)

// AuditQuery is bound from the query string; empty fields do not filter.
type AuditQuery struct {
	Entity   string `form:"entity" binding:"omitempty,oneof=permission role user store tour"`
	EntityID uint   `form:"entity_id"`
	ActorID  uint   `form:"actor_id"`
}

type AuditService interface {
	GetAuditLogs(ctx context.Context, q AuditQuery, p pagination.Params) ([]model.AuditLog, int64, error)
}

type auditService struct {
	repo     repository.AuditRepository
	validate *validation.Validator
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo, validate: validation.Default()}
}

func (s *auditService) GetAuditLogs(ctx context.Context, q AuditQuery, p pagination.Params) ([]model.AuditLog, int64, error) {
	if err := s.validate.Struct(q); err != nil {
		return nil, 0, err
	}

	filter := repository.AuditFilter{Entity: q.Entity, EntityID: q.EntityID, ActorID: q.ActorID}
	logs, total, err := s.repo.List(ctx, filter, p)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch audit logs: %w", err)
	}
	return logs, total, nil
}

// writeAudit records a mutation. Call it with the transaction context so the
// entry commits or rolls back together with the change.
func writeAudit(ctx context.Context, repo repository.AuditRepository, action, entity string, entityID uint, details any) error {
	payload := []byte("{}")
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("failed to encode audit details: %w", err)
		}
		payload = b
	}

	entry := model.AuditLog{
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Details:  string(payload),
	}
	if actorID, ok := model.ActorFromContext(ctx); ok {
		entry.ActorID = &actorID
	}

	if err := repo.Log(ctx, &entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

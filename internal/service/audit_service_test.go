package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adminapi/internal/model"
	"adminapi/internal/service"
	"adminapi/pkg/apperror"
	"adminapi/pkg/pagination"
)

func TestGetAuditLogs_Filters(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	audit := service.NewAuditService(e.repos.Audit)

	admin := model.WithActor(context.Background(), 7)
	perm, err := e.rbac.CreatePermission(admin, service.CreatePermissionRequest{Key: "reports.view"})
	require.NoError(t, err)
	_, err = e.rbac.UpdatePermission(admin, perm.ID, service.UpdatePermissionRequest{Description: ptr("Read reports")})
	require.NoError(t, err)
	e.role(t, "Auditor", perm.ID)
	e.store(t, "Bastille", 48.8532, 2.3692)

	tests := []struct {
		name    string
		query   service.AuditQuery
		total   int64
		actions []string
	}{
		{name: "everything", total: 4},
		{name: "by entity", query: service.AuditQuery{Entity: model.EntityPermission}, total: 2,
			actions: []string{model.ActionUpdate, model.ActionCreate}},
		{name: "by entity and id", query: service.AuditQuery{Entity: model.EntityRole, EntityID: 1}, total: 1,
			actions: []string{model.ActionCreate}},
		{name: "by actor", query: service.AuditQuery{ActorID: 7}, total: 2},
		{name: "unknown actor", query: service.AuditQuery{ActorID: 99}, total: 0, actions: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs, total, err := audit.GetAuditLogs(context.Background(), tt.query, pagination.New(1, 10))
			require.NoError(t, err)
			assert.Equal(t, tt.total, total)
			assert.Len(t, logs, int(tt.total))
			if tt.actions != nil {
				got := make([]string, 0, len(logs))
				for _, l := range logs {
					got = append(got, l.Action)
				}
				assert.Equal(t, tt.actions, got)
			}
		})
	}
}

func TestGetAuditLogs_Paging(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	audit := service.NewAuditService(e.repos.Audit)

	for _, key := range []string{"a.one", "a.two", "a.three"} {
		e.permission(t, key)
	}

	logs, total, err := audit.GetAuditLogs(context.Background(), service.AuditQuery{}, pagination.New(2, 2))
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Details, `"key":"a.one"`, "oldest entry lands on the last page")
}

func TestGetAuditLogs_RejectsUnknownEntity(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	_, _, err := service.NewAuditService(e.repos.Audit).
		GetAuditLogs(context.Background(), service.AuditQuery{Entity: "invoice"}, pagination.New(1, 10))
	require.ErrorIs(t, err, apperror.ErrValidation)

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.True(t, appErr.HasField("entity"))
}

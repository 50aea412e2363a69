package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"adminapi/internal/model"
)

func TestRunInTx_SnapshotsOnFirstWrite(t *testing.T) {
	t.Parallel()
	r := require.New(t)
	store := NewStore()
	repos := NewRepositories(store)
	ctx := context.Background()

	r.NoError(repos.Permissions.Create(ctx, &model.Permission{Key: "users.view"}))

	err := repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := repos.Permissions.List(txCtx); err != nil {
			return err
		}
		r.Nil(store.txFrom(txCtx).snapshot)

		if err := repos.Permissions.Create(txCtx, &model.Permission{Key: "users.add"}); err != nil {
			return err
		}
		r.NotNil(store.txFrom(txCtx).snapshot)
		return nil
	})
	r.NoError(err)

	n, err := repos.Permissions.Count(ctx)
	r.NoError(err)
	r.EqualValues(2, n)
}

func TestRunInTx_RollbackKeepsEarlierAuditEntries(t *testing.T) {
	t.Parallel()
	r := require.New(t)
	store := NewStore()
	repos := NewRepositories(store)
	ctx := context.Background()

	for _, action := range []string{model.ActionCreate, model.ActionUpdate} {
		r.NoError(repos.Audit.Log(ctx, &model.AuditLog{Action: action, Entity: model.EntityRole, EntityID: 1}))
	}

	boom := errors.New("boom")
	err := repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := repos.Audit.Log(txCtx, &model.AuditLog{Action: model.ActionDelete, Entity: model.EntityRole, EntityID: 1}); err != nil {
			return err
		}
		return boom
	})
	r.ErrorIs(err, boom)

	r.NoError(repos.Audit.Log(ctx, &model.AuditLog{Action: model.ActionCreate, Entity: model.EntityStore, EntityID: 5}))

	store.mu.RLock()
	defer store.mu.RUnlock()
	r.Len(store.data.audit, 3)
	r.Equal(model.ActionCreate, store.data.audit[0].Action)
	r.Equal(model.ActionUpdate, store.data.audit[1].Action)
	r.Equal(model.EntityStore, store.data.audit[2].Entity)
	r.EqualValues(3, store.data.audit[2].ID)
}

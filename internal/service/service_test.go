package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"adminapi/internal/model"
	"adminapi/internal/repository"
	"adminapi/internal/repository/memory"
	"adminapi/internal/service"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.ChangeEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e model.ChangeEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) last() model.ChangeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type env struct {
	repos  repository.Repositories
	events *recordingPublisher
	hasher service.PasswordHasher
	rbac   service.RBACService
	stores service.StoreService
	tours  service.TourService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	repos := memory.NewRepositories(memory.NewStore())
	events := &recordingPublisher{}
	hasher := service.BcryptHasher{Cost: bcrypt.MinCost}

	return &env{
		repos:  repos,
		events: events,
		hasher: hasher,
		rbac:   service.NewRBACService(repos, hasher, events),
		stores: service.NewStoreService(repos, events),
		tours:  service.NewTourService(repos, events),
	}
}

func (e *env) permission(t *testing.T, key string) *model.Permission {
	t.Helper()
	p, err := e.rbac.CreatePermission(context.Background(), service.CreatePermissionRequest{Key: key})
	require.NoError(t, err)
	return p
}

func (e *env) role(t *testing.T, name string, permIDs ...uint) *model.Role {
	t.Helper()
	r, err := e.rbac.CreateRole(context.Background(), service.CreateRoleRequest{Name: name, PermissionIDs: permIDs})
	require.NoError(t, err)
	return r
}

func (e *env) user(t *testing.T, email string) *model.User {
	t.Helper()
	u, err := e.rbac.CreateUser(context.Background(), service.CreateUserRequest{
		Email:     email,
		Password:  "correct-horse",
		FirstName: "Jane",
		LastName:  "Doe",
	})
	require.NoError(t, err)
	return u
}

func ptr[T any](v T) *T { return &v }

func keysOf(perms []model.Permission) []string {
	keys := make([]string, 0, len(perms))
	for _, p := range perms {
		keys = append(keys, p.Key)
	}
	return keys
}

package repository

import (
	"errors"
	"sort"

	"gorm.io/gorm"
)

// Storage-neutral errors. Both the gorm and in-memory implementations return these.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

// NormalizeIDs returns ids deduplicated and sorted ascending. Never nil.
func NormalizeIDs(ids []uint) []uint {
	out := make([]uint, 0, len(ids))
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Difference returns the ids of want that are not in have, sorted.
func Difference(want, have []uint) []uint {
	set := make(map[uint]struct{}, len(have))
	for _, id := range have {
		set[id] = struct{}{}
	}
	var missing []uint
	for _, id := range NormalizeIDs(want) {
		if _, ok := set[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// CompetitorCount is one row of the stores-per-competitor breakdown.
type CompetitorCount struct {
	Competitor string `json:"competitor"`
	Count      int64  `json:"count"`
}

// TourCounts splits tours by their status relative to a reference time.
type TourCounts struct {
	Upcoming int64 `json:"upcoming"`
	Ongoing  int64 `json:"ongoing"`
	Past     int64 `json:"past"`
}

// Repositories bundles one implementation of every repository plus the
// transaction manager they share.
type Repositories struct {
	Tx          TransactionManager
	Permissions PermissionRepository
	Roles       RoleRepository
	Users       UserRepository
	Stores      StoreRepository
	Tours       TourRepository
	Audit       AuditRepository
}

// NewRepositories wires the gorm implementations on db.
func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Tx:          NewTransactionManager(db),
		Permissions: NewPermissionRepository(db),
		Roles:       NewRoleRepository(db),
		Users:       NewUserRepository(db),
		Stores:      NewStoreRepository(db),
		Tours:       NewTourRepository(db),
		Audit:       NewAuditRepository(db),
	}
}

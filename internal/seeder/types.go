package seeder

import (
	"context"

	"github.com/Rana718/pbinit/internal/pocketbase"
)

const (
	GodRole             = "god"
	DefaultCollection   = "users"
	DefaultTempPassword = "TempPassword123!"
)

// Store is the slice of the records API the seeder needs.
type Store interface {
	FindFirstRecord(ctx context.Context, collection, filter string) (pocketbase.Record, error)
	CreateRecord(ctx context.Context, collection string, body map[string]any) (pocketbase.Record, error)
	UpdateRecord(ctx context.Context, collection, id string, body map[string]any) (pocketbase.Record, error)
}

type Options struct {
	Collection   string // auth collection holding the accounts
	TempPassword string // shared initial credential for newly created accounts
}

// Package supabase implements the cache store interfaces against a
// Postgres-backed Supabase project, reached through the same
// supabase-go client the teacher uses for authentication.
package supabase

import (
	supa "github.com/supabase-community/supabase-go"

	"interactions-backend/internal/apperr"
)

// ItemTable, PairTable, ExposureTable, and UsageLogTable are the
// Postgres tables backing the cache families and usage log, per spec §6's
// persisted-state section.
const (
	ItemTable     = "med_lookup_cache"
	PairTable     = "pair_cache"
	ExposureTable = "exposure_cache"
	UsageLogTable = "usage_log"
)

// Stores bundles the three cache stores and the usage log, all sharing one
// underlying supabase-go client.
type Stores struct {
	client *supa.Client
}

// New builds a Stores against a live Supabase project. url and
// serviceRoleKey are required; the service role key bypasses row-level
// security the way a backend process must.
func New(url, serviceRoleKey string) (*Stores, error) {
	client, err := supa.NewClient(url, serviceRoleKey, nil)
	if err != nil {
		return nil, apperr.Internal("SUPABASE_CLIENT_INIT", "failed to construct supabase client").
			WithCause(err).Build()
	}
	return &Stores{client: client}, nil
}

// Client exposes the shared supabase-go client for collaborators, such as
// internal/usagelog, that read/write a table outside the three cache
// families.
func (s *Stores) Client() *supa.Client {
	return s.client
}

// transportErr wraps a postgrest/transport failure as a CacheFailure, the
// error kind spec §7 assigns to item/pair store failures.
func transportErr(operation string, err error) error {
	return apperr.CacheFailure("SUPABASE_QUERY_FAILED", err.Error()).
		WithOperation(operation).WithCause(err).Build()
}

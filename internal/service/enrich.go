package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/uniformhub/api/internal/database"
)

// DefaultName is reported when a requester cannot be resolved to any account.
const DefaultName = "Customer"

// AccountLookup defines the DB method needed by the name resolver.
// Satisfied by *database.Queries.
type AccountLookup interface {
	GetAccountByUserID(ctx context.Context, userID string) (database.Account, error)
}

type cachedName struct {
	name      string
	expiresAt time.Time
}

// NameResolver resolves requester display names through a TTL-bounded
// read-through cache. The legacy screens each kept their own unbounded
// component-local cache; this is the one shared replacement.
type NameResolver struct {
	store AccountLookup
	ttl   time.Duration
	now   func() time.Time

	mu    sync.Mutex
	cache map[string]cachedName
}

// NewNameResolver creates a NameResolver with the given cache TTL.
func NewNameResolver(store AccountLookup, ttl time.Duration) *NameResolver {
	return &NameResolver{
		store: store,
		ttl:   ttl,
		now:   time.Now,
		cache: make(map[string]cachedName),
	}
}

// DisplayName resolves a requester identifier to a human-readable name.
// Misses (including accounts that do not exist) are cached for the TTL, so a
// burst of list renders does not hammer the accounts table.
func (r *NameResolver) DisplayName(ctx context.Context, userID string) string {
	if userID == "" {
		return DefaultName
	}

	r.mu.Lock()
	if entry, ok := r.cache[userID]; ok && r.now().Before(entry.expiresAt) {
		r.mu.Unlock()
		return entry.name
	}
	r.mu.Unlock()

	name := DefaultName
	account, err := r.store.GetAccountByUserID(ctx, userID)
	switch {
	case err == nil:
		name = displayNameFor(account)
	case errors.Is(err, pgx.ErrNoRows):
		// fall through to the default, cached like any other result
	default:
		// Backend failure: report the default but do not cache it, so the
		// next render retries the lookup.
		log.Printf("ERROR: resolve account %s: %v", userID, err)
		return DefaultName
	}

	r.mu.Lock()
	r.cache[userID] = cachedName{name: name, expiresAt: r.now().Add(r.ttl)}
	r.mu.Unlock()
	return name
}

// displayNameFor picks the first usable name field: first+last name, then
// parent_fullname, then the local part of the email, then "Customer".
func displayNameFor(a database.Account) string {
	first := strings.TrimSpace(a.FirstName.String)
	last := strings.TrimSpace(a.LastName.String)
	if a.FirstName.Valid && first != "" {
		if a.LastName.Valid && last != "" {
			return first + " " + last
		}
		return first
	}
	if a.ParentFullname.Valid {
		if full := strings.TrimSpace(a.ParentFullname.String); full != "" {
			return full
		}
	}
	if at := strings.Index(a.Email, "@"); at > 0 {
		return a.Email[:at]
	}
	return DefaultName
}

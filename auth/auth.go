// Package auth implements the Authenticator (C2): resolving an announce's
// passkey to a user identity, per the contract of §4.2 — a single lookup
// that must not block on the persistence sink when an in-memory cache
// covers it.
package auth

import (
	"context"

	"github.com/vaultseed/tracker/bittorrent"
	"github.com/vaultseed/tracker/pkg/log"
)

var logger = log.NewLogger("auth")

// ErrUnauthorized is returned by Authenticate when a passkey is required
// and absent, unresolvable, or denied. The HTTP frontend maps it to a
// bencoded failure with status 401.
var ErrUnauthorized = bittorrent.ClientError("unauthorized")

// Identity is the opaque user identity a passkey resolves to. The swarm and
// persistence layers carry it as an opaque string (UserID); nothing outside
// this package needs to know how it was derived.
type Identity struct {
	UserID string
}

// Resolver is the PasskeyResolver of spec.md §6: resolve(passkey) ->
// Option<UserIdentity>. Implementations must be safe for concurrent use.
type Resolver interface {
	// Resolve returns the identity for passkey, or ok == false if the
	// passkey does not resolve to an active user. err is reserved for
	// resolution failures distinct from "no such user" (e.g. a JWKS that
	// has never successfully refreshed).
	Resolve(ctx context.Context, passkey string) (id Identity, ok bool, err error)
}

// Authenticator implements §4.2 on top of a Resolver, a local/shared cache,
// and an optional deny-store for revoked users.
type Authenticator struct {
	resolver       Resolver
	cache          *Cache
	denyStore      *DenyStore
	requirePasskey bool
}

// New builds an Authenticator. denyStore may be nil to disable deny
// checking.
func New(resolver Resolver, cache *Cache, denyStore *DenyStore, requirePasskey bool) *Authenticator {
	return &Authenticator{
		resolver:       resolver,
		cache:          cache,
		denyStore:      denyStore,
		requirePasskey: requirePasskey,
	}
}

// Authenticate implements §4.2. A nil error with a zero Identity means the
// request proceeds anonymously (passkeys optional, none provided).
// ErrUnauthorized means the handler must emit a 401 failure and go no
// further.
func (a *Authenticator) Authenticate(ctx context.Context, passkey string) (Identity, error) {
	if passkey == "" {
		if a.requirePasskey {
			return Identity{}, ErrUnauthorized
		}
		return Identity{}, nil
	}

	if id, cached := a.cache.Get(passkey); cached {
		if a.denied(id.UserID) {
			return Identity{}, ErrUnauthorized
		}
		return id, nil
	}

	id, ok, err := a.resolver.Resolve(ctx, passkey)
	if err != nil {
		logger.Error().Err(err).Str("passkeyFp", Fingerprint(passkey)).Msg("passkey resolution failed")
		return Identity{}, ErrUnauthorized
	}
	if !ok {
		logger.Debug().Str("passkeyFp", Fingerprint(passkey)).Msg("passkey did not resolve")
		return Identity{}, ErrUnauthorized
	}
	if a.denied(id.UserID) {
		logger.Debug().Str("passkeyFp", Fingerprint(passkey)).Msg("passkey belongs to a denied user")
		return Identity{}, ErrUnauthorized
	}

	a.cache.Set(passkey, id)
	return id, nil
}

func (a *Authenticator) denied(userID string) bool {
	return a.denyStore != nil && a.denyStore.IsDenied(userID)
}

package auth

import "time"

// Config carries the tunables of the Authenticator (C2), sourced from the
// process configuration under the "auth" key.
type Config struct {
	// RequirePasskey rejects announces carrying no passkey at all.
	RequirePasskey bool `cfg:"require_passkey"`
	// JWKSURL is the user-account service's JSON Web Key Set endpoint,
	// used to verify passkey (JWT) signatures locally.
	JWKSURL string `cfg:"jwks_url"`
	// JWKSRefresh is decoded and defaulted but not passed to NewJWTResolver:
	// the key set is re-fetched on keyfunc's default schedule regardless.
	JWKSRefresh time.Duration `cfg:"jwks_refresh"`
	// IdentityClaim is the JWT claim holding the resolved user identity.
	IdentityClaim string `cfg:"identity_claim"`
	// CacheTTL bounds how long a resolved identity is memoized locally.
	CacheTTL time.Duration `cfg:"cache_ttl"`
	// RedisAddr, if set, enables the shared second-tier cache.
	RedisAddr     string        `cfg:"redis_addr"`
	RedisCacheTTL time.Duration `cfg:"redis_cache_ttl"`
	// DenyStorePath, if set, enables the on-disk revoked-user deny-store.
	DenyStorePath string `cfg:"deny_store_path"`
}

const (
	defaultJWKSRefresh   = time.Hour
	defaultIdentityClaim = "sub"
	defaultCacheTTL      = 5 * time.Minute
	defaultRedisCacheTTL = time.Hour
)

// WithDefaults returns cfg with zero-valued fields replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.JWKSRefresh <= 0 {
		c.JWKSRefresh = defaultJWKSRefresh
	}
	if c.IdentityClaim == "" {
		c.IdentityClaim = defaultIdentityClaim
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = defaultCacheTTL
	}
	if c.RedisCacheTTL <= 0 {
		c.RedisCacheTTL = defaultRedisCacheTTL
	}
	return c
}

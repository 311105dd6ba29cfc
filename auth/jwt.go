package auth

import (
	"context"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// JWTResolver resolves a passkey by verifying it as a JWT signed by the
// external user-account service, checking the signature locally against a
// JSON Web Key Set that refreshes itself in the background. This keeps
// resolution a pure CPU-bound signature check on the hot path: no database
// or network round trip per passkey, satisfying §4.2's ≤1ms P99 contract
// even on a cache miss.
type JWTResolver struct {
	keyfunc keyfunc.Keyfunc
	claim   string
}

// NewJWTResolver fetches the JWKS at jwksURL and keeps it refreshed in the
// background on keyfunc's default schedule; the refresh period is not
// configurable here.
func NewJWTResolver(ctx context.Context, jwksURL string, claim string) (*JWTResolver, error) {
	kf, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, err
	}
	return &JWTResolver{keyfunc: kf, claim: claim}, nil
}

// Resolve implements Resolver.
func (r *JWTResolver) Resolve(_ context.Context, passkey string) (Identity, bool, error) {
	token, err := jwt.Parse(passkey, r.keyfunc.Keyfunc, jwt.WithValidMethods([]string{"RS256", "ES256"}))
	if err != nil {
		return Identity{}, false, nil
	}
	if !token.Valid {
		return Identity{}, false, nil
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, false, nil
	}

	userID, _ := claims[r.claim].(string)
	if userID == "" {
		return Identity{}, false, nil
	}

	return Identity{UserID: userID}, true, nil
}

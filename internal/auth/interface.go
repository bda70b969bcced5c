package auth

// JWTVerifier validates bearer tokens issued by the identity provider.
// Middleware depends on this interface so tests can swap in a static verifier.
type JWTVerifier interface {
	// VerifyToken validates a JWT and returns its claims.
	// Returns domain.ErrUnauthorized for any invalid, expired or anonymous token.
	VerifyToken(tokenString string) (*SupabaseClaims, error)

	// Close releases any resources held by the verifier
	Close() error
}

package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	errMissingToken = errors.New("missing bearer token")
	errInvalidToken = errors.New("invalid or expired token")
)

// RequesterClaims is the JWT payload accepted on intake.
type RequesterClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Principal is the authenticated caller.
type Principal struct {
	// Email is empty for static-token callers.
	Email  string
	Static bool
}

type principalKey struct{}

// PrincipalFromContext returns the caller attached by the auth middleware.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// Authenticator validates bearer credentials. With neither a token nor a JWT
// secret configured every request passes as an anonymous static caller.
type Authenticator struct {
	token  string
	secret []byte
	issuer string
}

// NewAuthenticator builds an authenticator for the static token and the
// HS256 secret. Either may be empty.
func NewAuthenticator(token, jwtSecret, issuer string) *Authenticator {
	a := &Authenticator{token: strings.TrimSpace(token), issuer: strings.TrimSpace(issuer)}
	if s := strings.TrimSpace(jwtSecret); s != "" {
		a.secret = []byte(s)
	}
	return a
}

// Enabled reports whether any credential is required.
func (a *Authenticator) Enabled() bool {
	return a != nil && (a.token != "" || len(a.secret) > 0)
}

// Authenticate resolves the Authorization header into a principal.
func (a *Authenticator) Authenticate(header string) (Principal, error) {
	if !a.Enabled() {
		return Principal{Static: true}, nil
	}
	scheme, credential, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(credential) == "" {
		return Principal{}, errMissingToken
	}
	credential = strings.TrimSpace(credential)
	if a.token != "" && subtle.ConstantTimeCompare([]byte(credential), []byte(a.token)) == 1 {
		return Principal{Static: true}, nil
	}
	if len(a.secret) == 0 {
		return Principal{}, errInvalidToken
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	token, err := jwt.ParseWithClaims(credential, &RequesterClaims{}, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return Principal{}, errInvalidToken
	}
	claims, ok := token.Claims.(*RequesterClaims)
	if !ok || !token.Valid || strings.TrimSpace(claims.Email) == "" {
		return Principal{}, errInvalidToken
	}
	return Principal{Email: strings.TrimSpace(claims.Email)}, nil
}

// Middleware rejects unauthenticated requests with 401.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := a.Authenticate(r.Header.Get("Authorization"))
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
			return
		}
		ctx := context.WithValue(r.Context(), principalKey{}, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IssueToken signs a requester token. Operators use it to hand out intake
// credentials.
func (a *Authenticator) IssueToken(email string) (string, error) {
	if a == nil || len(a.secret) == 0 {
		return "", errors.New("jwt secret is not configured")
	}
	claims := RequesterClaims{
		Email:            strings.TrimSpace(email),
		RegisteredClaims: jwt.RegisteredClaims{Issuer: a.issuer},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

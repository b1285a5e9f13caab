// internal/auth/auth.go
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	appErrors "github.com/brightfund/email-backend/internal/errors"
)

// RoleAdmin gates the broadcast, analytics and sweep endpoints.
const RoleAdmin = "admin"

type Principal struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

func (p *Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Verifier resolves a bearer credential to a principal. Identity and
// role storage live in an external store; this is its boundary.
type Verifier interface {
	Verify(token string) (*Principal, error)
}

// HTTPVerifier asks the external authorization store to verify a token.
type HTTPVerifier struct {
	URL    string
	Client *http.Client
}

func NewHTTPVerifier(url string) *HTTPVerifier {
	return &HTTPVerifier{
		URL:    url,
		Client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (v *HTTPVerifier) Verify(token string) (*Principal, error) {
	req, err := http.NewRequest(http.MethodGet, v.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth store unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, appErrors.NewAuth("credential rejected")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth store returned %d", resp.StatusCode)
	}

	var p Principal
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

type contextKey struct{}

// FromContext returns the principal stored by RequireAdmin.
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(contextKey{}).(*Principal)
	return p
}

// Authorizer wraps handlers with the admin capability check. The check
// runs before any handler logic and short-circuits the request.
type Authorizer struct {
	Verifier Verifier
}

func (a *Authorizer) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeDenial(w, http.StatusUnauthorized, "missing bearer credential")
			return
		}

		principal, err := a.Verifier.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeDenial(w, appErrors.HTTPStatus(appErrors.NewAuth(err.Error())), "invalid credential")
			return
		}
		if !principal.HasRole(RoleAdmin) {
			writeDenial(w, http.StatusForbidden, "admin role required")
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, principal)))
	}
}

func writeDenial(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

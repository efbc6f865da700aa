// Package auth verifies access tokens against the family identity
// service and carries the verified identity through request contexts.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Identity is the verified caller of a request.
type Identity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

func (id *Identity) IsAdmin() bool {
	return strings.EqualFold(id.Role, "admin")
}

var ErrUnverified = errors.New("token failed verification")

// Verifier resolves a bearer token to an identity. An unrecognized
// token yields ErrUnverified.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// RemoteVerifier checks tokens against an HTTP identity endpoint.
type RemoteVerifier struct {
	VerifyUrl string
	Client    *http.Client
}

func NewRemoteVerifier(verifyUrl string) *RemoteVerifier {
	return &RemoteVerifier{
		VerifyUrl: verifyUrl,
		Client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (v *RemoteVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.VerifyUrl, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request for verify endpoint: %w", err)
	}

	req.Header.Add("Accept", "application/json")
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %v", token))

	res, err := v.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to contact verify endpoint: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, ErrUnverified
	}

	identity := &Identity{}
	if err := json.NewDecoder(res.Body).Decode(identity); err != nil {
		return nil, fmt.Errorf("verify endpoint provided bad data: %w", err)
	}

	if identity.ID == "" {
		return nil, ErrUnverified
	}

	return identity, nil
}

// ExtractBearerToken extracts a Bearer token from an Authorization
// header value. Returns an empty string if the header is not present,
// malformed, or not a Bearer token.
func ExtractBearerToken(auth string) string {
	if auth == "" {
		return ""
	}

	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}

	return token
}

type identityKeyType struct{}

var identityKey = identityKeyType{}

func AddIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func GetIdentity(ctx context.Context) *Identity {
	identity, ok := ctx.Value(identityKey).(*Identity)
	if !ok {
		return nil
	}

	return identity
}

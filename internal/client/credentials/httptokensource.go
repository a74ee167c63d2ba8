package credentials

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/example/fieldentry/internal/client/models"
)

// ErrNoRefreshMaterial is returned when a refresh is requested but no
// long-lived grant has ever been stored (the user never signed in).
var ErrNoRefreshMaterial = errors.New("no refresh material stored")

// HTTPTokenSource exchanges refresh material for a fresh token bundle against
// an identity endpoint. It deliberately uses a plain HTTP client: the token
// mint is the one call that must not route through the authenticated wrapper.
type HTTPTokenSource struct {
	endpoint string
	client   *http.Client
}

// NewHTTPTokenSource returns a TokenSource posting to the given endpoint.
// A nil client falls back to http.DefaultClient.
func NewHTTPTokenSource(endpoint string, client *http.Client) *HTTPTokenSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTokenSource{endpoint: endpoint, client: client}
}

type refreshRequest struct {
	RefreshMaterial string `json:"refreshMaterial"`
}

type refreshResponse struct {
	IDToken         string `json:"idToken"`
	AccessToken     string `json:"accessToken"`
	ServerAuthCode  string `json:"serverAuthCode"`
	RefreshMaterial string `json:"refreshMaterial"`
}

func (s *HTTPTokenSource) Tokens(ctx context.Context, refreshMaterial string) (models.StoredCredential, error) {
	if refreshMaterial == "" {
		return models.StoredCredential{}, ErrNoRefreshMaterial
	}

	body, err := json.Marshal(refreshRequest{RefreshMaterial: refreshMaterial})
	if err != nil {
		return models.StoredCredential{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return models.StoredCredential{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return models.StoredCredential{}, fmt.Errorf("identity provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return models.StoredCredential{}, fmt.Errorf("identity provider rejected refresh: %s; body: %s", resp.Status, string(b))
	}

	var bundle refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&bundle); err != nil {
		return models.StoredCredential{}, fmt.Errorf("failed to decode token bundle: %w", err)
	}

	cred := models.StoredCredential{
		IDToken:         bundle.IDToken,
		AccessToken:     bundle.AccessToken,
		RefreshMaterial: bundle.RefreshMaterial,
	}
	if cred.IsEmpty() {
		return models.StoredCredential{}, errors.New("identity provider returned an empty token bundle")
	}
	return cred, nil
}

package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/5-07/sweeten/internal"
)

// RemoteAuthProvider asks an identity service to verify the token.
type RemoteAuthProvider struct {
	AuthServiceURL string
	HTTPClient     *http.Client
	logger         internal.Logger
}

type remoteUser struct {
	ID    string `json:"id"`
	UID   string `json:"uid"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (a *RemoteAuthProvider) Authenticate(ctx context.Context, token string) (*internal.User, error) {
	body, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.AuthServiceURL, bytes.NewReader(body))
	if err != nil {
		a.logger.Errorf("failed to create request: %v", err)
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		a.logger.Errorf("failed to call auth service: %v", err)
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("auth: %w", internal.ErrUnauthorized)
	}
	if resp.StatusCode != http.StatusOK {
		a.logger.Errorf("auth service returned %d", resp.StatusCode)
		return nil, errors.New("auth service returned non-200")
	}
	var u remoteUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		a.logger.Errorf("failed to decode auth response: %v", err)
		return nil, err
	}
	id := u.ID
	if id == "" {
		id = u.UID
	}
	if id == "" {
		return nil, fmt.Errorf("auth: identity without id: %w", internal.ErrUnauthorized)
	}
	return &internal.User{ID: id, Name: u.Name, Email: u.Email}, nil
}

func NewRemoteAuthProvider(url string, logger internal.Logger) *RemoteAuthProvider {
	return &RemoteAuthProvider{
		AuthServiceURL: url,
		HTTPClient:     &http.Client{Timeout: 5 * time.Second},
		logger:         logger,
	}
}

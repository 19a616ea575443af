// Package token fetches the meeting join token the agent needs before it
// can enter a room. The issuing endpoint is an external collaborator; this
// client only consumes its {"token":"..."} response.
package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

var errEmptyToken = errors.New("token endpoint returned an empty token")

var httpClient = &http.Client{Timeout: 10 * time.Second}

type response struct {
	Token string `json:"token"`
}

// Fetch requests a join token for userName. It is called once at agent
// startup; any failure is terminal for the session — the caller logs and
// does not proceed to join.
func Fetch(ctx context.Context, endpoint, userName string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("token endpoint: %w", err)
	}
	if userName != "" {
		q := u.Query()
		q.Set("user_name", userName)
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("token response: %w", err)
	}
	if body.Token == "" {
		return "", errEmptyToken
	}
	return body.Token, nil
}

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jwebster45206/progression-engine/internal/session"
	"github.com/jwebster45206/progression-engine/pkg/progress"
)

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

func listStories(client *http.Client, baseURL string) ([]string, error) {
	resp, err := client.Get(baseURL + "/v1/stories")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var listing map[string][]string
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, err
	}
	return listing["stories"], nil
}

func decodeView(body []byte) (*progress.PlayerView, error) {
	var view progress.PlayerView
	if err := json.Unmarshal(body, &view); err != nil {
		return nil, fmt.Errorf("failed to parse session response: %w", err)
	}
	return &view, nil
}

func decodeAPIError(body []byte, status int, op string) error {
	var errorResp ErrorResponse
	if err := json.Unmarshal(body, &errorResp); err != nil {
		return fmt.Errorf("API returned status %d: %s", status, string(body))
	}
	return fmt.Errorf("failed to %s: %s", op, errorResp.Error)
}

func initializeSession(client *http.Client, baseURL, storyID, playerID string) (*progress.PlayerView, error) {
	resp, err := client.Post(
		fmt.Sprintf("%s/v1/progress/%s/%s", baseURL, storyID, playerID),
		"application/json",
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		return nil, decodeAPIError(body, resp.StatusCode, "initialize session")
	}
	return decodeView(body)
}

func loadSession(client *http.Client, baseURL, storyID, playerID string) (*progress.PlayerView, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/progress/%s/%s", baseURL, storyID, playerID))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(body, resp.StatusCode, "load session")
	}
	return decodeView(body)
}

func sendUpdate(client *http.Client, baseURL, storyID, playerID string, update *progress.Update) (*progress.PlayerView, error) {
	jsonData, err := json.Marshal(update)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal update: %w", err)
	}

	req, err := http.NewRequest(
		http.MethodPatch,
		fmt.Sprintf("%s/v1/progress/%s/%s", baseURL, storyID, playerID),
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(body, resp.StatusCode, "apply update")
	}
	return decodeView(body)
}

func getMechanics(client *http.Client, baseURL, storyID, playerID string) (*session.MechanicsState, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/progress/%s/%s/mechanics", baseURL, storyID, playerID))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(body, resp.StatusCode, "get mechanics")
	}

	var state session.MechanicsState
	if err := json.Unmarshal(body, &state); err != nil {
		return nil, fmt.Errorf("failed to parse mechanics response: %w", err)
	}
	return &state, nil
}

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/jwebster45206/saga-engine/pkg/chat"
	"github.com/jwebster45206/saga-engine/pkg/genre"
	"github.com/jwebster45206/saga-engine/pkg/state"
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

func listSaves(client *http.Client, baseURL string) ([]uuid.UUID, error) {
	resp, err := client.Get(baseURL + "/v1/saves")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var listResp struct {
		Saves []uuid.UUID `json:"saves"`
	}
	if err := json.Unmarshal(body, &listResp); err != nil {
		return nil, err
	}
	return listResp.Saves, nil
}

func getSave(client *http.Client, baseURL string, id uuid.UUID) (*state.SaveFile, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/saves/%s", baseURL, id))
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
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("failed to get save: %s", errorResp.Error)
	}

	var save state.SaveFile
	if err := json.Unmarshal(body, &save); err != nil {
		return nil, fmt.Errorf("failed to parse save response: %w", err)
	}
	return &save, nil
}

// CreateSaveRequest matches the API request structure
type CreateSaveRequest struct {
	Name       string               `json:"name,omitempty"`
	PlayerName string               `json:"player_name"`
	Settings   *state.WorldSettings `json:"settings"`
}

func createSave(client *http.Client, baseURL string, playerName string, g genre.Genre) (*state.SaveFile, error) {
	req := CreateSaveRequest{
		PlayerName: playerName,
		Settings:   &state.WorldSettings{Genre: g},
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		baseURL+"/v1/saves",
		"application/json",
		bytes.NewBuffer(jsonData),
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
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("failed to create save: %s", errorResp.Error)
	}

	var save state.SaveFile
	if err := json.Unmarshal(body, &save); err != nil {
		return nil, fmt.Errorf("failed to parse save response: %w", err)
	}
	return &save, nil
}

func sendTurn(client *http.Client, baseURL string, saveID uuid.UUID, action string) (*chat.TurnResponse, error) {
	turnReq := chat.TurnRequest{
		SaveID: saveID,
		Action: action,
	}

	jsonData, err := json.Marshal(turnReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		baseURL+"/v1/turns",
		"application/json",
		bytes.NewBuffer(jsonData),
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

	if resp.StatusCode != http.StatusOK {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("turn request failed: %s", errorResp.Error)
	}

	var turnResp chat.TurnResponse
	if err := json.Unmarshal(body, &turnResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &turnResp, nil
}

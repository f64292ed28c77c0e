//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-user-auth/internal/model"
)

func adminToken(t *testing.T, f *fixture) string {
	t.Helper()

	resp := login(t, f, "a@x.com", adminPassword)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decodeAccessToken(t, resp)
}

func doAuthed(t *testing.T, f *fixture, method, path, accessToken string, body []byte) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(t, err)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestUserRoutesRequireAdmin(t *testing.T) {
	f := newServer(t)

	// No token at all.
	resp := doAuthed(t, f, http.MethodGet, "/api/users/all", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Valid session, but not an admin.
	userLogin := login(t, f, "b@x.com", userPassword)
	require.Equal(t, http.StatusOK, userLogin.StatusCode)
	userToken := decodeAccessToken(t, userLogin)

	resp = doAuthed(t, f, http.MethodGet, "/api/users/all", userToken, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Unauthorized", decodeError(t, resp))

	// Garbage bearer token.
	resp = doAuthed(t, f, http.MethodGet, "/api/users/all", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminListsUsers(t *testing.T) {
	f := newServer(t)
	tok := adminToken(t, f)

	resp := doAuthed(t, f, http.MethodGet, "/api/users/all", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Users []model.User `json:"users"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Users, 2)
}

func TestAdminUserCRUD(t *testing.T) {
	f := newServer(t)
	tok := adminToken(t, f)

	// Add
	payload, err := json.Marshal(model.AddUserRequest{User: model.UserInput{
		Email:    "c@x.com",
		Name:     "Carol",
		Password: "pw-carol",
		Role:     model.RoleUser,
	}})
	require.NoError(t, err)

	addResp := doAuthed(t, f, http.MethodPost, "/api/users/add", tok, payload)
	require.Equal(t, http.StatusCreated, addResp.StatusCode)

	var created model.User
	require.NoError(t, json.NewDecoder(addResp.Body).Decode(&created))
	require.Positive(t, created.ID)

	// Get
	getResp := doAuthed(t, f, http.MethodGet, fmt.Sprintf("/api/users/%d", created.ID), tok, nil)
	require.Equal(t, http.StatusOK, getResp.StatusCode)

	// Update
	payload, err = json.Marshal(model.UpdateUserRequest{User: model.UserInput{
		ID:    created.ID,
		Email: "c@x.com",
		Name:  "Caroline",
		Role:  model.RoleUser,
	}})
	require.NoError(t, err)

	updateResp := doAuthed(t, f, http.MethodPut, "/api/users/update", tok, payload)
	require.Equal(t, http.StatusOK, updateResp.StatusCode)

	// Delete
	deleteResp := doAuthed(t, f, http.MethodDelete, fmt.Sprintf("/api/users/delete/%d", created.ID), tok, nil)
	require.Equal(t, http.StatusOK, deleteResp.StatusCode)

	// Gone now.
	getResp = doAuthed(t, f, http.MethodGet, fmt.Sprintf("/api/users/%d", created.ID), tok, nil)
	assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
	assert.Equal(t, "User not found", decodeError(t, getResp))
}

func TestAdminAddValidation(t *testing.T) {
	f := newServer(t)
	tok := adminToken(t, f)

	payload, err := json.Marshal(model.AddUserRequest{User: model.UserInput{Email: "c@x.com"}})
	require.NoError(t, err)

	resp := doAuthed(t, f, http.MethodPost, "/api/users/add", tok, payload)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	f := newServer(t)

	resp, err := http.Get(f.server.URL + "/health")
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body model.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
}

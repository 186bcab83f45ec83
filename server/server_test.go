package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"), []byte("test-secret"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

// call issues a JSON request and decodes the response body into out when it
// is non-nil.
func call(t *testing.T, ts *httptest.Server, method, path, token string, payload, out interface{}) int {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func login(t *testing.T, ts *httptest.Server, username, password string) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	status := call(t, ts, http.MethodPost, "/api/auth/login/", "",
		map[string]string{"username": username, "password": password}, &body)
	require.Equal(t, http.StatusOK, status, "login response: %v", body)
	return body
}

// addUser inserts a user directly, bypassing the API, for scoping tests.
func addUser(t *testing.T, s *Server, username, role string, managerID interface{}) int {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("pass"), bcrypt.MinCost)
	require.NoError(t, err)
	res, err := s.db.Exec(
		s.bind("INSERT INTO users (username, password_hash, role, manager_id) VALUES (?, ?, ?, ?)"),
		username, string(hash), role, managerID)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return int(id)
}

func TestLoginIssuesTokenPair(t *testing.T) {
	_, ts := newTestServer(t)

	body := login(t, ts, "admin", "admin")
	assert.NotEmpty(t, body["access"])
	assert.NotEmpty(t, body["refresh"])
	assert.Equal(t, "admin", body["username"])
	assert.Equal(t, "admin", body["role"])
	assert.Equal(t, true, body["is_superuser"])
}

func TestLoginWrongPassword(t *testing.T) {
	_, ts := newTestServer(t)

	var body map[string]interface{}
	status := call(t, ts, http.MethodPost, "/api/auth/login/", "",
		map[string]string{"username": "admin", "password": "nope"}, &body)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, body["detail"], "No active account")
}

func TestRefreshIssuesNewAccessToken(t *testing.T) {
	_, ts := newTestServer(t)
	tokens := login(t, ts, "admin", "admin")

	var body map[string]interface{}
	status := call(t, ts, http.MethodPost, "/api/auth/refresh/", "",
		map[string]string{"refresh": tokens["refresh"].(string)}, &body)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["access"])

	// An access token is not accepted as a refresh token.
	status = call(t, ts, http.MethodPost, "/api/auth/refresh/", "",
		map[string]string{"refresh": tokens["access"].(string)}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	_, ts := newTestServer(t)

	var body map[string]interface{}
	status := call(t, ts, http.MethodGet, "/api/projets/", "", nil, &body)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, body["detail"], "not provided")

	status = call(t, ts, http.MethodGet, "/api/projets/", "garbage", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestEntryLifecycle(t *testing.T) {
	_, ts := newTestServer(t)
	token := login(t, ts, "admin", "admin")["access"].(string)

	var created entryRow
	status := call(t, ts, http.MethodPost, "/api/saisie-temps/", token,
		map[string]interface{}{"date": "2024-03-04", "projet": 1, "temps": 0.5}, &created)
	require.Equal(t, http.StatusCreated, status)
	assert.NotZero(t, created.ID)
	assert.Equal(t, 1, created.UserID) // defaults to the caller
	assert.InDelta(t, 0.5, created.Amount, 1e-9)

	var updated entryRow
	status = call(t, ts, http.MethodPatch, fmt.Sprintf("/api/saisie-temps/%d/", created.ID), token,
		map[string]interface{}{"temps": 1}, &updated)
	require.Equal(t, http.StatusOK, status)
	assert.InDelta(t, 1.0, updated.Amount, 1e-9)

	var entries []entryRow
	status = call(t, ts, http.MethodGet, "/api/saisie-temps/1/monthly/2024-03/", token, nil, &entries)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, entries, 1)
	assert.Equal(t, "2024-03-04", entries[0].Date)

	status = call(t, ts, http.MethodDelete, fmt.Sprintf("/api/saisie-temps/%d/", created.ID), token, nil, nil)
	assert.Equal(t, http.StatusNoContent, status)

	entries = nil
	call(t, ts, http.MethodGet, "/api/saisie-temps/1/monthly/2024-03/", token, nil, &entries)
	assert.Empty(t, entries)
}

func TestCreateEntryRejectsBadAmount(t *testing.T) {
	_, ts := newTestServer(t)
	token := login(t, ts, "admin", "admin")["access"].(string)

	var body map[string]interface{}
	status := call(t, ts, http.MethodPost, "/api/saisie-temps/", token,
		map[string]interface{}{"date": "2024-03-04", "projet": 1, "temps": 0.3}, &body)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "temps")
}

func TestDayCapacityEnforced(t *testing.T) {
	_, ts := newTestServer(t)
	token := login(t, ts, "admin", "admin")["access"].(string)

	status := call(t, ts, http.MethodPost, "/api/saisie-temps/", token,
		map[string]interface{}{"date": "2024-03-04", "projet": 1, "temps": 1}, nil)
	require.Equal(t, http.StatusCreated, status)

	var body map[string]interface{}
	status = call(t, ts, http.MethodPost, "/api/saisie-temps/", token,
		map[string]interface{}{"date": "2024-03-04", "projet": 2, "temps": 0.5}, &body)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "non_field_errors")
}

func TestUpdateExcludesOwnEntryFromCapacity(t *testing.T) {
	_, ts := newTestServer(t)
	token := login(t, ts, "admin", "admin")["access"].(string)

	var created entryRow
	status := call(t, ts, http.MethodPost, "/api/saisie-temps/", token,
		map[string]interface{}{"date": "2024-03-04", "projet": 1, "temps": 0.5}, &created)
	require.Equal(t, http.StatusCreated, status)

	// Raising 0.5 to 1 on the same entry stays within capacity.
	status = call(t, ts, http.MethodPatch, fmt.Sprintf("/api/saisie-temps/%d/", created.ID), token,
		map[string]interface{}{"temps": 1}, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestUserCannotTouchOthersEntries(t *testing.T) {
	s, ts := newTestServer(t)
	addUser(t, s, "alice", "user", nil)
	addUser(t, s, "bob", "user", nil)

	aliceTok := login(t, ts, "alice", "pass")["access"].(string)
	bobTok := login(t, ts, "bob", "pass")["access"].(string)

	var created entryRow
	status := call(t, ts, http.MethodPost, "/api/saisie-temps/", aliceTok,
		map[string]interface{}{"date": "2024-03-04", "projet": 1, "temps": 1}, &created)
	require.Equal(t, http.StatusCreated, status)

	status = call(t, ts, http.MethodPatch, fmt.Sprintf("/api/saisie-temps/%d/", created.ID), bobTok,
		map[string]interface{}{"temps": 0.5}, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status = call(t, ts, http.MethodGet, fmt.Sprintf("/api/saisie-temps/%d/monthly/2024-03/", created.UserID), bobTok, nil, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestManagerActsForManagedUsers(t *testing.T) {
	s, ts := newTestServer(t)
	managerID := addUser(t, s, "carol", "manager", nil)
	managedID := addUser(t, s, "dave", "user", managerID)
	eveID := addUser(t, s, "eve", "user", nil)

	carolTok := login(t, ts, "carol", "pass")["access"].(string)

	var created entryRow
	status := call(t, ts, http.MethodPost, "/api/saisie-temps/", carolTok,
		map[string]interface{}{"date": "2024-03-04", "projet": 1, "temps": 1, "user": managedID}, &created)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, managedID, created.UserID)

	// eve is not managed by carol.
	status = call(t, ts, http.MethodPost, "/api/saisie-temps/", carolTok,
		map[string]interface{}{"date": "2024-03-04", "projet": 1, "temps": 1, "user": eveID}, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestProjectVisibilityByRole(t *testing.T) {
	s, ts := newTestServer(t)
	managerID := addUser(t, s, "carol", "manager", nil)
	memberID := addUser(t, s, "dave", "user", managerID)
	addUser(t, s, "eve", "user", nil)

	adminTok := login(t, ts, "admin", "admin")["access"].(string)

	var proj projectRow
	status := call(t, ts, http.MethodPost, "/api/projets/", adminTok,
		map[string]interface{}{"nom": "Atlas", "manager": managerID, "users": []int{memberID}}, &proj)
	require.Equal(t, http.StatusCreated, status)

	status = call(t, ts, http.MethodPost, "/api/projets/", adminTok,
		map[string]interface{}{"nom": "Hidden"}, nil)
	require.Equal(t, http.StatusCreated, status)

	var projects []projectRow
	call(t, ts, http.MethodGet, "/api/projets/", adminTok, nil, &projects)
	assert.Len(t, projects, 2)

	daveTok := login(t, ts, "dave", "pass")["access"].(string)
	projects = nil
	call(t, ts, http.MethodGet, "/api/projets/", daveTok, nil, &projects)
	require.Len(t, projects, 1)
	assert.Equal(t, "Atlas", projects[0].Name)
	assert.Equal(t, []int{memberID}, projects[0].Users)

	eveTok := login(t, ts, "eve", "pass")["access"].(string)
	projects = nil
	call(t, ts, http.MethodGet, "/api/projets/", eveTok, nil, &projects)
	assert.Empty(t, projects)

	carolTok := login(t, ts, "carol", "pass")["access"].(string)
	projects = nil
	call(t, ts, http.MethodGet, "/api/projets/", carolTok, nil, &projects)
	require.Len(t, projects, 1)
	assert.Equal(t, "Atlas", projects[0].Name)
}

func TestUsersScopedByRole(t *testing.T) {
	s, ts := newTestServer(t)
	managerID := addUser(t, s, "carol", "manager", nil)
	addUser(t, s, "dave", "user", managerID)
	addUser(t, s, "eve", "user", nil)

	adminTok := login(t, ts, "admin", "admin")["access"].(string)
	var users []userRow
	call(t, ts, http.MethodGet, "/api/users/", adminTok, nil, &users)
	assert.Len(t, users, 4)

	carolTok := login(t, ts, "carol", "pass")["access"].(string)
	users = nil
	call(t, ts, http.MethodGet, "/api/users/", carolTok, nil, &users)
	assert.Len(t, users, 2) // carol and dave

	eveTok := login(t, ts, "eve", "pass")["access"].(string)
	users = nil
	call(t, ts, http.MethodGet, "/api/users/", eveTok, nil, &users)
	require.Len(t, users, 1)
	assert.Equal(t, "eve", users[0].Username)

	var me userRow
	status := call(t, ts, http.MethodGet, "/api/users/me/", eveTok, nil, &me)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "eve", me.Username)
	assert.False(t, me.IsStaff)
}

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/existflow/timegrid/internal/model"
)

// newTestClient points the client at srv and isolates the session file in a
// temp home.
func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	return c
}

func loggedInClient(t *testing.T, srv *httptest.Server) *Client {
	c := newTestClient(t, srv)
	*c.session = model.Session{
		Access:   "access-token",
		Refresh:  "refresh-token",
		UserID:   3,
		Username: "alice",
		Role:     model.RoleUser,
	}
	return c
}

func TestLoginStoresAndPersistsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/auth/login/", r.URL.Path)

		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "alice", creds["username"])
		assert.Equal(t, "s3cret", creds["password"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"access":   "acc",
			"refresh":  "ref",
			"id":       3,
			"username": "alice",
			"role":     "user",
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	require.NoError(t, c.Login(context.Background(), "alice", "s3cret"))

	assert.True(t, c.IsLoggedIn())
	assert.Equal(t, 3, c.Session().UserID)
	assert.Equal(t, model.RoleUser, c.Session().Role)

	// The session file survives a fresh client.
	c2, err := NewClient(srv.URL)
	require.NoError(t, err)
	assert.True(t, c2.IsLoggedIn())
	assert.Equal(t, "alice", c2.Session().Username)

	info, err := os.Stat(filepath.Join(os.Getenv("HOME"), ".timegrid", "session.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLoginRejectedSurfacesDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{
			"detail": "No active account found with the given credentials",
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	err := c.Login(context.Background(), "alice", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No active account found")
	assert.False(t, c.IsLoggedIn())
}

func TestRequestsRequireSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Projects(context.Background())
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestExpiredAccessTokenRefreshedAndReplayed(t *testing.T) {
	var refreshed bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/refresh/":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "refresh-token", body["refresh"])
			refreshed = true
			json.NewEncoder(w).Encode(map[string]string{"access": "fresh-access"})
		case "/api/users/me/":
			if r.Header.Get("Authorization") != "Bearer fresh-access" {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"detail": "token expired"})
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"id": 3, "username": "alice", "role": "user"})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := loggedInClient(t, srv)
	u, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.True(t, refreshed)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "fresh-access", c.Session().Access)
}

func TestRejectedRefreshTearsSessionDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "token invalid"})
	}))
	defer srv.Close()

	c := loggedInClient(t, srv)
	var torndown bool
	c.OnLogout(func() { torndown = true })

	_, err := c.Me(context.Background())
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	assert.True(t, torndown)
	assert.False(t, c.IsLoggedIn())
}

func TestCreateEntrySendsWireFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/saisie-temps/", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2024-03-04", body["date"])
		assert.EqualValues(t, 7, body["projet"])
		assert.EqualValues(t, 1, body["temps"])
		assert.Equal(t, "", body["description"])

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": 99, "user": 3, "projet": 7, "date": "2024-03-04", "temps": 1,
		})
	}))
	defer srv.Close()

	c := loggedInClient(t, srv)
	created, err := c.CreateEntry(context.Background(), model.TimeEntry{
		ProjectID: 7,
		Date:      "2024-03-04",
		Amount:    1,
	})
	require.NoError(t, err)
	assert.Equal(t, 99, created.ID)
}

func TestUpdateEntryPatchesAmount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/api/saisie-temps/99/", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 0.5, body["temps"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": 99, "user": 3, "projet": 7, "date": "2024-03-04", "temps": 0.5,
		})
	}))
	defer srv.Close()

	c := loggedInClient(t, srv)
	updated, err := c.UpdateEntry(context.Background(), 99, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, updated.Amount, 1e-9)
}

func TestDeleteEntry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/api/saisie-temps/99/", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := loggedInClient(t, srv)
	require.NoError(t, c.DeleteEntry(context.Background(), 99))
}

func TestCapacityConflictCarriesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string][]string{
			"non_field_errors": {"Le total des temps pour cette journée dépasse 1 jour."},
		})
	}))
	defer srv.Close()

	c := loggedInClient(t, srv)
	_, err := c.CreateEntry(context.Background(), model.TimeEntry{ProjectID: 7, Date: "2024-03-04", Amount: 1})
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Le total des temps pour cette journée dépasse 1 jour.", apiErr.ServerMessage())
}

func TestMonthlyEntriesRetriesTransientFailures(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/saisie-temps/3/monthly/2024-03/", r.URL.Path)
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"id": 1, "user": 3, "projet": 7, "date": "2024-03-04", "temps": 1},
		})
	}))
	defer srv.Close()

	c := loggedInClient(t, srv)
	entries, err := c.MonthlyEntries(context.Background(), 3, "2024-03")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	require.Len(t, entries, 1)
	assert.Equal(t, "2024-03-04", entries[0].Date)
}

func TestMonthlyEntriesDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"detail": "not allowed"})
	}))
	defer srv.Close()

	c := loggedInClient(t, srv)
	_, err := c.MonthlyEntries(context.Background(), 4, "2024-03")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

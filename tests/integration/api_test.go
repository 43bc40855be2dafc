package integration

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navayuwa/nes-core/internal/api"
)

// entityPath turns an entity identifier into its API path segment. The
// route carries the id without the scheme prefix.
func entityPath(id string) string {
	return strings.TrimPrefix(id, "entity:")
}

func newAPIServer(t *testing.T, s *stack) *httptest.Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := api.NewServer(":0", s.search, log, prometheus.NewRegistry())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, ts *httptest.Server, path string, out any) int {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if out != nil {
		require.NoError(t, json.Unmarshal(body, out), "body: %s", body)
	}
	return resp.StatusCode
}

func TestAPIEntityRoundTrip(t *testing.T) {
	s := newStack(t)
	ts := newAPIServer(t, s)

	created, err := s.publication.CreateEntity(t.Context(),
		district("kaski", "Kaski", "कास्की"), testActor, "seed")
	require.NoError(t, err)

	var got struct {
		ID   string `json:"id"`
		Slug string `json:"slug"`
	}
	code := getJSON(t, ts, "/api/entities/"+entityPath(created.ID()), &got)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, created.ID(), got.ID)
	assert.Equal(t, "kaski", got.Slug)
}

func TestAPIEntitySearch(t *testing.T) {
	s := newStack(t)
	ts := newAPIServer(t, s)
	ctx := t.Context()

	_, err := s.publication.CreateEntity(ctx,
		district("kaski", "Kaski", "कास्की"), testActor, "seed")
	require.NoError(t, err)
	_, err = s.publication.CreateEntity(ctx,
		district("mustang", "Mustang", "मुस्ताङ"), testActor, "seed")
	require.NoError(t, err)

	var got struct {
		Entities []json.RawMessage `json:"entities"`
		Total    int               `json:"total"`
	}
	code := getJSON(t, ts, "/api/entities?query=kaski", &got)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, got.Total)
	require.Len(t, got.Entities, 1)
}

func TestAPIVersionHistory(t *testing.T) {
	s := newStack(t)
	ts := newAPIServer(t, s)
	ctx := t.Context()

	created, err := s.publication.CreateEntity(ctx,
		district("kaski", "Kaski", "कास्की"), testActor, "seed")
	require.NoError(t, err)
	_, err = s.publication.UpdateEntity(ctx,
		district("kaski", "Kaski District", "कास्की"), testActor, "qualify name")
	require.NoError(t, err)

	var got struct {
		Versions []struct {
			VersionNumber int `json:"version_number"`
		} `json:"versions"`
	}
	code := getJSON(t, ts, "/api/entities/"+entityPath(created.ID())+"/versions", &got)
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, got.Versions, 2)
	assert.Equal(t, 1, got.Versions[0].VersionNumber)
	assert.Equal(t, 2, got.Versions[1].VersionNumber)
}

func TestAPINotFoundEnvelope(t *testing.T) {
	s := newStack(t)
	ts := newAPIServer(t, s)

	var got struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	code := getJSON(t, ts, "/api/entities/location/district/nowhere", &got)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", got.Error.Code)
	assert.NotEmpty(t, got.Error.Message)
}

func TestAPIHealth(t *testing.T) {
	s := newStack(t)
	ts := newAPIServer(t, s)

	code := getJSON(t, ts, "/healthz", nil)
	assert.Equal(t, http.StatusOK, code)
}

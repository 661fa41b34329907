// Copyright (c) 2026 Crate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api_test

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/crate/internal/api"
	"github.com/taibuivan/crate/internal/core/lookup"
	"github.com/taibuivan/crate/internal/core/release"
	"github.com/taibuivan/crate/internal/memstore"
	"github.com/taibuivan/crate/internal/platform/apperr"
	"github.com/taibuivan/crate/internal/platform/config"
	"github.com/taibuivan/crate/internal/platform/constants"
	"github.com/taibuivan/crate/internal/platform/sec"
)

type testServer struct {
	handler http.Handler
	tokens  *sec.TokenService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tokens := sec.NewTokenServiceFromKeys(key, constants.AuthIssuer)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memstore.New()
	lookups, releases := store.LookupRepository(), store.ReleaseRepository()

	detector := release.NewDetector(releases, lookups, logger)
	writer := release.NewWriter(releases, lookups, detector, store, release.WriterConfig{DuplicateCheckOnUpdate: true}, logger)
	mapper := release.NewMapper(lookup.NewNameSource(lookups, nil, logger), logger)

	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{}, logger)
	server := api.NewServer(t.Context(), &config.Config{ServerPort: "0", Environment: "test"}, logger, tokens, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Lookups:   lookup.NewHandler(lookup.NewService(lookups, store, nil, logger)),
		Releases:  release.NewHandler(release.NewService(releases, writer, detector, mapper, logger)),
	})

	return &testServer{handler: server.Handler(), tokens: tokens}
}

func (s *testServer) do(t *testing.T, role sec.UserRole, tenantID int64, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewReader(raw)
	}

	request := httptest.NewRequest(method, path, payload)
	if role != "" {
		token, err := s.tokens.GenerateAccessToken("u-1", "collector", role, tenantID, time.Minute)
		require.NoError(t, err)
		request.Header.Set(constants.HeaderAuthorization, "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	s.handler.ServeHTTP(recorder, request)
	return recorder
}

type errorBody struct {
	Code      string               `json:"code"`
	Conflicts []apperr.DuplicateOf `json:"conflicts"`
}

func decode[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var value T
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&value))
	return value
}

var submission = map[string]any{
	"title":          "Blood Fire Death",
	"catalog_number": "BMLP 666-1",
	"artist_names":   []string{"Bathory"},
	"genre_names":    []string{"Black Metal"},
	"label_name":     "Black Mark",
}

/*
TestReleases_CreateThenDuplicate drives the ingestion flow over HTTP.
*/
func TestReleases_CreateThenDuplicate(t *testing.T) {
	s := newTestServer(t)

	created := s.do(t, sec.RoleEditor, 7, http.MethodPost, "/api/v1/releases", submission)
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())

	body := decode[struct {
		Data struct {
			Release release.DetailView `json:"release"`
			Created lookup.Created     `json:"created"`
		} `json:"data"`
	}](t, created)
	assert.Equal(t, "Blood Fire Death", body.Data.Release.Title)
	assert.Equal(t, "Black Mark", body.Data.Release.Label.Name)
	assert.Len(t, body.Data.Created.Artists, 1)

	again := s.do(t, sec.RoleEditor, 7, http.MethodPost, "/api/v1/releases", submission)
	require.Equal(t, http.StatusConflict, again.Code)
	errBody := decode[errorBody](t, again)
	assert.Equal(t, apperr.CodeDuplicate, errBody.Code)
	require.Len(t, errBody.Conflicts, 1)
	assert.Equal(t, body.Data.Release.ID, errBody.Conflicts[0].ID)

	list := s.do(t, sec.RoleViewer, 7, http.MethodGet, "/api/v1/releases", nil)
	require.Equal(t, http.StatusOK, list.Code)
	listBody := decode[struct {
		Data  []release.SummaryView `json:"data"`
		Total int                   `json:"total"`
	}](t, list)
	assert.Equal(t, 1, listBody.Total)

	// Another tenant sees an empty catalogue.
	other := s.do(t, sec.RoleViewer, 8, http.MethodGet, "/api/v1/releases", nil)
	assert.Equal(t, 0, decode[struct {
		Total int `json:"total"`
	}](t, other).Total)
}

/*
TestReleases_Authorization covers anonymous and under-privileged callers.
*/
func TestReleases_Authorization(t *testing.T) {
	s := newTestServer(t)

	anonymous := s.do(t, "", 0, http.MethodGet, "/api/v1/releases", nil)
	assert.Equal(t, http.StatusUnauthorized, anonymous.Code)

	viewer := s.do(t, sec.RoleViewer, 7, http.MethodPost, "/api/v1/releases", submission)
	assert.Equal(t, http.StatusForbidden, viewer.Code)

	noTenant := s.do(t, sec.RoleEditor, 0, http.MethodGet, "/api/v1/releases", nil)
	assert.Equal(t, http.StatusUnauthorized, noTenant.Code)
}

/*
TestReleases_UnknownField verifies strict body decoding.
*/
func TestReleases_UnknownField(t *testing.T) {
	s := newTestServer(t)

	recorder := s.do(t, sec.RoleEditor, 7, http.MethodPost, "/api/v1/releases", map[string]any{
		"title":   "Hammerheart",
		"artists": []string{"Bathory"},
	})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

/*
TestLookups_Routes covers the lookup collections and unknown kinds.
*/
func TestLookups_Routes(t *testing.T) {
	s := newTestServer(t)

	created := s.do(t, sec.RoleEditor, 7, http.MethodPost, "/api/v1/lookups/countries", map[string]string{"name": "Sweden"})
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())

	clash := s.do(t, sec.RoleEditor, 7, http.MethodPost, "/api/v1/lookups/country", map[string]string{"name": "sweden"})
	assert.Equal(t, http.StatusConflict, clash.Code)

	unknown := s.do(t, sec.RoleViewer, 7, http.MethodGet, "/api/v1/lookups/instruments", nil)
	assert.Equal(t, http.StatusNotFound, unknown.Code)
}

/*
TestHealth verifies the unauthenticated probes.
*/
func TestHealth(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusOK, s.do(t, "", 0, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, "", 0, http.MethodGet, "/ready", nil).Code)
}

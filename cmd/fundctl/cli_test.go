package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-fundboard/pkg/api"
	"github.com/goliatone/go-fundboard/pkg/api/apitest"
)

type cliHarness struct {
	t       *testing.T
	backend *api.MockClient
	server  *httptest.Server
	config  string
}

func newCLIHarness(t *testing.T) *cliHarness {
	t.Helper()
	clearFundboardEnv(t)

	backend := api.NewMockClient(api.DemoData(time.Now()))
	handler, err := apitest.New(apitest.Options{Client: backend, SigningKey: backend.SigningKey()})
	require.NoError(t, err)
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	dir := t.TempDir()
	config := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf("api:\n  url: %s\nsession:\n  db_path: %s\n", server.URL, filepath.Join(dir, "session.db"))
	require.NoError(t, os.WriteFile(config, []byte(body), 0o600))

	return &cliHarness{t: t, backend: backend, server: server, config: config}
}

// run parses args like main does and executes the command in a fresh runtime.
func (h *cliHarness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	var root cli
	parser, err := kong.New(&root, kong.Name("fundctl"), kong.Exit(func(int) {}))
	require.NoError(h.t, err)
	kctx, err := parser.Parse(append([]string{"--config", h.config}, args...))
	if err != nil {
		return "", err
	}
	var out bytes.Buffer
	rt, err := newRuntime(context.Background(), root, strings.NewReader(stdin), &out)
	require.NoError(h.t, err)
	defer rt.Close()
	err = kctx.Run(rt)
	return out.String(), err
}

func (h *cliHarness) login() {
	h.t.Helper()
	_, err := h.run("", "login", "--email", "admin@example.com", "--password", api.DemoPassword)
	require.NoError(h.t, err)
}

func TestLoginPersistsSessionAcrossRuns(t *testing.T) {
	h := newCLIHarness(t)

	_, err := h.run("", "whoami")
	require.Error(t, err)

	h.login()

	out, err := h.run("", "-o", "json", "whoami")
	require.NoError(t, err)
	var view struct {
		Email string `json:"email"`
		Admin bool   `json:"admin"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "admin@example.com", view.Email)
	assert.True(t, view.Admin)

	out, err = h.run("", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "signed out")

	_, err = h.run("", "whoami")
	require.Error(t, err)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	h := newCLIHarness(t)
	_, err := h.run("", "login", "--email", "admin@example.com", "--password", "nope")
	require.Error(t, err)
}

func TestAdminRoutesNeedSession(t *testing.T) {
	h := newCLIHarness(t)
	_, err := h.run("", "projects")
	require.Error(t, err)
}

func TestProjectsListAndSearch(t *testing.T) {
	h := newCLIHarness(t)
	h.login()

	out, err := h.run("", "-o", "json", "projects")
	require.NoError(t, err)
	var result struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 6, result.Count)

	out, err = h.run("", "projects", "list", "--search", "coffee")
	require.NoError(t, err)
	assert.Contains(t, out, "Local Coffee Roastery")
	assert.NotContains(t, out, "Retro Game Remaster")
}

func TestContactsHideAdministrators(t *testing.T) {
	h := newCLIHarness(t)
	h.login()

	out, err := h.run("", "contacts")
	require.NoError(t, err)
	assert.NotContains(t, out, "u-admin")
}

func TestProjectsPublishAndStatus(t *testing.T) {
	h := newCLIHarness(t)
	h.login()

	out, err := h.run("", "projects", "publish", "p-3")
	require.NoError(t, err)
	assert.Contains(t, out, "published p-3")

	_, err = h.run("", "projects", "status", "p-1", "COMPLETED")
	require.NoError(t, err)

	statuses := map[string]string{}
	for _, p := range h.backend.Snapshot().Projects {
		statuses[p.ID] = string(p.Status)
	}
	assert.Equal(t, "ACTIVE", statuses["p-3"])
	assert.Equal(t, "COMPLETED", statuses["p-1"])
}

func TestVideosVisibility(t *testing.T) {
	h := newCLIHarness(t)
	h.login()

	_, err := h.run("", "videos", "visibility", "v-2", "visible")
	require.NoError(t, err)
	for _, v := range h.backend.Snapshot().Videos {
		if v.ID == "v-2" {
			assert.True(t, v.IsVisible)
		}
	}
}

func TestDeletePromptsForConfirmation(t *testing.T) {
	h := newCLIHarness(t)
	h.login()

	out, err := h.run("n\n", "delete", "projects", "p-2")
	require.NoError(t, err)
	assert.Contains(t, out, "cancelled")
	assert.True(t, hasProject(h.backend, "p-2"))

	out, err = h.run("y\n", "delete", "projects", "p-2")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted p-2")
	assert.False(t, hasProject(h.backend, "p-2"))

	_, err = h.run("", "delete", "projects", "p-5", "--yes")
	require.NoError(t, err)
	assert.False(t, hasProject(h.backend, "p-5"))
}

func hasProject(c *api.MockClient, id string) bool {
	for _, p := range c.Snapshot().Projects {
		if p.ID == id {
			return true
		}
	}
	return false
}

func TestBannerToggleKeepsClickOrder(t *testing.T) {
	h := newCLIHarness(t)
	h.login()

	out, err := h.run("", "banner", "toggle", "p-1", "p-6", "p-1")
	require.NoError(t, err)
	assert.Contains(t, out, "p-6")
	assert.Equal(t, []string{"p-4", "p-6", "p-1"}, h.backend.Snapshot().BannerIDs)

	_, err = h.run("", "banner", "toggle", "--dry-run", "p-4")
	require.NoError(t, err)
	assert.Equal(t, []string{"p-4", "p-6", "p-1"}, h.backend.Snapshot().BannerIDs)
}

func TestBannerSaveReplacesSelection(t *testing.T) {
	h := newCLIHarness(t)
	h.login()

	_, err := h.run("", "banner", "save", "p-6", "p-1", "p-6")
	require.NoError(t, err)
	assert.Equal(t, []string{"p-6", "p-1"}, h.backend.Snapshot().BannerIDs)

	_, err = h.run("", "banner", "save")
	require.NoError(t, err)
	assert.Empty(t, h.backend.Snapshot().BannerIDs)
}

func TestStatsWritesChart(t *testing.T) {
	h := newCLIHarness(t)
	h.login()

	chart := filepath.Join(t.TempDir(), "chart.html")
	out, err := h.run("", "stats", "--chart", chart)
	require.NoError(t, err)
	assert.Contains(t, out, "支援者数")

	raw, err := os.ReadFile(chart)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "echarts")
}

func TestCheckoutVerify(t *testing.T) {
	h := newCLIHarness(t)

	out, err := h.run("", "-o", "json", "checkout", "verify", "cs_demo_1")
	require.NoError(t, err)
	assert.Contains(t, out, `"paymentStatus": "paid"`)
}

func TestUploadFiles(t *testing.T) {
	h := newCLIHarness(t)
	h.login()

	path := filepath.Join(t.TempDir(), "cover.png")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o600))

	out, err := h.run("", "upload", path)
	require.NoError(t, err)
	assert.Contains(t, out, "cover.png")
	assert.Contains(t, out, "image/png")
}

func TestOAuthURL(t *testing.T) {
	h := newCLIHarness(t)
	out, err := h.run("", "oauth-url", "Google")
	require.NoError(t, err)
	assert.Equal(t, h.server.URL+"/auth/google\n", out)
}

func TestServerHandlerServesAdminAPI(t *testing.T) {
	h := newCLIHarness(t)
	h.login()

	var root cli
	root.Config = h.config
	root.Output = "table"
	rt, err := newRuntime(context.Background(), root, strings.NewReader(""), io.Discard)
	require.NoError(t, err)
	defer rt.Close()

	handler, cleanup, err := newServerHandler(rt, true)
	require.NoError(t, err)
	defer cleanup()
	srv := httptest.NewServer(handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/admin/projects?search=retro")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result struct {
		Kind  string `json:"kind"`
		Count int    `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "projects", result.Kind)
	assert.Equal(t, 1, result.Count)
}

func TestServerHandlerGuardsAdminRoutes(t *testing.T) {
	h := newCLIHarness(t)

	var root cli
	root.Config = h.config
	root.Output = "table"
	rt, err := newRuntime(context.Background(), root, strings.NewReader(""), io.Discard)
	require.NoError(t, err)
	defer rt.Close()

	handler, cleanup, err := newServerHandler(rt, true)
	require.NoError(t, err)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/admin/projects", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServerHandlerGuardsNotificationStreams(t *testing.T) {
	h := newCLIHarness(t)

	var root cli
	root.Config = h.config
	root.Output = "table"
	rt, err := newRuntime(context.Background(), root, strings.NewReader(""), io.Discard)
	require.NoError(t, err)
	defer rt.Close()

	handler, cleanup, err := newServerHandler(rt, true)
	require.NoError(t, err)
	defer cleanup()

	for _, path := range []string{"/admin/notifications/stream", "/admin/notifications/ws"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)

		var body struct {
			Kind string `json:"kind"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "client", body.Kind)
	}
}

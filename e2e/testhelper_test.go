package e2e

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/homepanel/api/internal/auth"
	"github.com/homepanel/api/internal/client"
	"github.com/homepanel/api/internal/config"
	"github.com/homepanel/api/internal/jobstore"
	"github.com/homepanel/api/internal/server"
	"github.com/homepanel/api/internal/service"
	ws "github.com/homepanel/api/internal/websocket"
	"github.com/homepanel/api/internal/workspace"
)

const testJWTSecret = "test-secret-for-e2e"

const testJobDoc = `{
  "version": 1,
  "jobs": [
    {"id": "1", "payload": {"kind": "chat"}},
    {"id": "2", "payload": {"kind": "systemEvent"}},
    {"id": "3", "payload": {"kind": "chat", "model": "gpt-4o"}, "schedule": "0 * * * *"}
  ]
}`

// testApp holds all components needed for testing
type testApp struct {
	app       *fiber.App
	storePath string
	root      string
	launcher  *fakeLauncher
	objects   *fakeObjectStore
}

// fakeLauncher records reboot launches instead of running a command
type fakeLauncher struct {
	mu       sync.Mutex
	calls    int
	disabled bool
}

func (l *fakeLauncher) Launch(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	return nil
}

func (l *fakeLauncher) IsConfigured() bool { return !l.disabled }

func (l *fakeLauncher) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

// fakeObjectStore keeps uploaded objects in memory
type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (s *fakeObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.objects == nil {
		s.objects = make(map[string][]byte)
	}
	s.objects[key] = append([]byte(nil), data...)
	return "https://objects.test/" + key, nil
}

func (s *fakeObjectStore) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "https://objects.test/" + key + "?signed=1", nil
}

func (s *fakeObjectStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

type appOptions struct {
	withBackups    bool
	gateway        bool
	rebootDisabled bool
}

// setupApp builds the same app as cmd/server against a temp workspace and
// job store. Redis is left out, so rate limits are off and reboots run in-process.
func setupApp(t *testing.T) *testApp {
	return setupAppWith(t, appOptions{})
}

func setupAppWith(t *testing.T, opts appOptions) *testApp {
	t.Helper()

	dir := t.TempDir()
	root := filepath.Join(dir, "workspace")
	storePath := filepath.Join(dir, "cron", "jobs.json")

	mustWrite(t, filepath.Join(root, "notes.txt"), "hello from the workspace\n")
	mustWrite(t, filepath.Join(root, "docs", "readme.md"), "# readme\n")
	mustWrite(t, filepath.Join(dir, "workspace-other", "secret.txt"), "nope\n")
	mustWrite(t, storePath, testJobDoc)

	cfg := &config.Config{
		Server:    config.ServerConfig{Port: "0", Env: "test", LogLevel: "info"},
		JWT:       config.JWTConfig{Secret: testJWTSecret},
		Gateway:   config.GatewayConfig{Enabled: opts.gateway},
		Workspace: config.WorkspaceConfig{Root: root, ResolveSymlinks: true},
		JobStore:  config.JobStoreConfig{Path: storePath},
		// Limits are ignored without Redis
		RateLimit: config.RateLimitConfig{MutatePerMin: 1, RebootPerHour: 1, BackupPerHour: 1},
	}

	log, _ := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	guard, err := workspace.NewGuard(root, true)
	if err != nil {
		t.Fatalf("failed to create guard: %v", err)
	}

	hub := ws.NewHub(log)
	go hub.Run()

	store := jobstore.NewStore(jobstore.NewFileRepository(storePath))

	launcher := &fakeLauncher{disabled: opts.rebootDisabled}
	var objects *fakeObjectStore
	var objectStore client.ObjectStore
	if opts.withBackups {
		objects = &fakeObjectStore{}
		objectStore = objects
	}

	app := server.NewApp(server.Deps{
		Config:    cfg,
		Log:       log,
		Hub:       hub,
		Cron:      service.NewCronService(store, hub, log),
		Backup:    service.NewBackupService(store, objectStore, log),
		Workspace: service.NewWorkspaceService(guard, log),
		System:    service.NewSystemService(nil, launcher, 0, log),
		Models:    service.NewModelService(nil, log),
		Services:  map[string]bool{"redis": false, "r2": opts.withBackups, "auth": true},
		Quiet:     true,
	})

	return &testApp{
		app:       app,
		storePath: storePath,
		root:      root,
		launcher:  launcher,
		objects:   objects,
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// generateToken creates a legacy HMAC JWT token for test requests.
func generateToken(t *testing.T) string {
	t.Helper()
	signed, err := auth.NewLegacyToken(testJWTSecret, "test-user-123", "test@example.com", time.Hour)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return signed
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// doAuthRequest performs an authenticated request.
func doAuthRequest(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, error) {
	t.Helper()
	token := generateToken(t)
	return doRequest(app, method, path, body, map[string]string{
		"Authorization": "Bearer " + token,
	})
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// errorCode returns error.code of an error envelope.
func errorCode(t *testing.T, body map[string]interface{}) string {
	t.Helper()
	e, ok := body["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error envelope, got %v", body)
	}
	code, _ := e["code"].(string)
	return code
}

// readStore returns the job store file as decoded JSON.
func readStore(t *testing.T, path string) map[string]interface{} {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read job store: %v", err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("failed to parse job store: %v", err)
	}
	return doc
}

// storeJob returns the job with id from a decoded store document.
func storeJob(t *testing.T, doc map[string]interface{}, id string) map[string]interface{} {
	t.Helper()
	for _, j := range doc["jobs"].([]interface{}) {
		job := j.(map[string]interface{})
		if job["id"] == id {
			return job
		}
	}
	t.Fatalf("job %s not in store", id)
	return nil
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

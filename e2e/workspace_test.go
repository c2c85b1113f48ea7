package e2e

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"
)

func workspaceGet(t *testing.T, ta *testApp, endpoint, path string) *http.Response {
	t.Helper()
	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/workspace/"+endpoint+"?path="+url.QueryEscape(path), "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func TestWorkspaceFile(t *testing.T) {
	ta := setupApp(t)

	resp := workspaceGet(t, ta, "file", filepath.Join(ta.root, "notes.txt"))
	assertStatus(t, resp, http.StatusOK)

	body := parseJSON(t, resp)
	if body["content"] != "hello from the workspace\n" {
		t.Errorf("unexpected content %q", body["content"])
	}
}

func TestWorkspaceFile_Relative(t *testing.T) {
	ta := setupApp(t)

	resp := workspaceGet(t, ta, "file", "docs/readme.md")
	assertStatus(t, resp, http.StatusOK)

	body := parseJSON(t, resp)
	if body["content"] != "# readme\n" {
		t.Errorf("unexpected content %q", body["content"])
	}
}

func TestWorkspaceFile_Rejections(t *testing.T) {
	ta := setupApp(t)
	parent := filepath.Dir(ta.root)

	if err := os.Symlink(filepath.Join(parent, "workspace-other", "secret.txt"), filepath.Join(ta.root, "link.txt")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	tests := []struct {
		name   string
		path   string
		status int
		code   string
	}{
		{"empty path", "", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"sibling prefix", filepath.Join(parent, "workspace-other", "secret.txt"), http.StatusForbidden, "FORBIDDEN"},
		{"dot dot escape", filepath.Join(ta.root, "..", "workspace-other", "secret.txt"), http.StatusForbidden, "FORBIDDEN"},
		{"symlink escape", "link.txt", http.StatusForbidden, "FORBIDDEN"},
		{"missing file", "missing.txt", http.StatusInternalServerError, "SERVICE_ERROR"},
		{"directory", "docs", http.StatusInternalServerError, "SERVICE_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := workspaceGet(t, ta, "file", tt.path)
			assertStatus(t, resp, tt.status)
			if code := errorCode(t, parseJSON(t, resp)); code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, code)
			}
		})
	}
}

func TestWorkspaceList(t *testing.T) {
	ta := setupApp(t)

	resp := workspaceGet(t, ta, "list", "")
	assertStatus(t, resp, http.StatusOK)

	body := parseJSON(t, resp)
	entries := body["entries"].([]interface{})
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	first := entries[0].(map[string]interface{})
	if first["name"] != "docs" || first["isDir"] != true {
		t.Errorf("unexpected first entry %v", first)
	}
}

func TestWorkspaceList_Forbidden(t *testing.T) {
	ta := setupApp(t)

	resp := workspaceGet(t, ta, "list", filepath.Dir(ta.root))
	assertStatus(t, resp, http.StatusForbidden)
}

package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homepanel/api/internal/config"
)

func TestLLMClientListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		assert.Equal(t, "Bearer key-123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[
			{"id":"zeta-large","object":"model","created":2,"owned_by":"z"},
			{"id":"alpha-mini","object":"model","created":1,"owned_by":"a"}
		]}`))
	}))
	defer srv.Close()

	c := NewLLMClient(&config.LLMConfig{BaseURL: srv.URL + "/v1", APIKey: "key-123"})
	require.True(t, c.IsConfigured())

	models, err := c.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "alpha-mini", models[0].ID)
	assert.Equal(t, "z", models[1].OwnedBy)
}

func TestLLMClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewLLMClient(&config.LLMConfig{BaseURL: srv.URL, APIKey: "nope"})
	_, err := c.ListModels(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestLLMClientNotConfigured(t *testing.T) {
	assert.False(t, NewLLMClient(&config.LLMConfig{BaseURL: "http://x"}).IsConfigured())
}

func TestCommandLauncher(t *testing.T) {
	l := NewCommandLauncher("true")
	assert.Equal(t, "true", l.String())
	require.NoError(t, l.Launch(context.Background()))

	missing := NewCommandLauncher("definitely-not-a-real-binary-xyz")
	assert.Error(t, missing.Launch(context.Background()))

	assert.Error(t, NewCommandLauncher("").Launch(context.Background()))
	assert.False(t, NewCommandLauncher("").IsConfigured())
	assert.True(t, NewCommandLauncher("systemctl", "reboot").IsConfigured())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewCommandLauncher("true").Launch(ctx), context.Canceled)
}

package jobstore

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocumentKeepsUnknownFields(t *testing.T) {
	data := []byte(`{
		"version": 3,
		"scheduler": {"tz": "UTC"},
		"jobs": [
			{"id": "a", "schedule": "*/5 * * * *", "payload": {"kind": "chat", "prompt": "hi"}},
			{"id": "b", "enabled": false}
		]
	}`)

	doc, err := ParseDocument(data)
	require.NoError(t, err)
	require.Len(t, doc.Jobs, 2)

	out, err := doc.Marshal()
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(out))

	version, ok := doc.Field("version")
	require.True(t, ok)
	assert.Equal(t, "3", string(version))
}

func TestParseDocumentMissingJobs(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"meta": true}`))
	require.NoError(t, err)
	assert.Empty(t, doc.Jobs)

	out, err := doc.Marshal()
	require.NoError(t, err)
	assert.JSONEq(t, `{"meta": true, "jobs": []}`, string(out))
}

func TestParseDocumentRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{"jobs": [`},
		{"array root", `[]`},
		{"null root", `null`},
		{"jobs not array", `{"jobs": {"id": "a"}}`},
		{"job not object", `{"jobs": ["a"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestJobAccessors(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"jobs": [
		{"id": "a", "payload": {"kind": "chat", "model": "gpt-x"}, "updatedAtMs": 1700000000000},
		{"id": "b"},
		{"id": 7, "payload": {"kind": 1}}
	]}`))
	require.NoError(t, err)

	a, ok := doc.Find("a")
	require.True(t, ok)
	assert.Equal(t, "chat", a.Kind())
	assert.Equal(t, "gpt-x", a.Model())
	assert.Equal(t, int64(1700000000000), a.UpdatedAtMs())

	b, ok := doc.Find("b")
	require.True(t, ok)
	assert.Empty(t, b.Kind())
	assert.Zero(t, b.UpdatedAtMs())

	assert.Equal(t, "", doc.Jobs[2].ID)
	assert.Empty(t, doc.Jobs[2].Kind())

	_, ok = doc.Find("7")
	assert.False(t, ok)
}

func TestSetModelCreatesPayload(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"jobs": [{"id": "a", "name": "nightly"}]}`))
	require.NoError(t, err)

	job := doc.Jobs[0]
	require.NoError(t, job.setModel("gpt-x", 42))

	raw, err := job.Raw()
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "nightly", got["name"])
	assert.Equal(t, map[string]any{"model": "gpt-x"}, got["payload"])
	assert.Equal(t, float64(42), got["updatedAtMs"])
}

func TestMarshalKeepsOriginalBytes(t *testing.T) {
	jobB := `{"id":"b","payload":{"prompt":"x < y && z"},   "tags":["a",  "b"]}`
	data := []byte(`{"note":"a<b&c","jobs":[{"id":"a","payload":{}},` + jobB + `],"meta":{"n": [1,2]}}`)

	doc, err := ParseDocument(data)
	require.NoError(t, err)

	out, err := doc.Marshal()
	require.NoError(t, err)

	assert.Contains(t, string(out), jobB)
	assert.Contains(t, string(out), `"note": "a<b&c"`)
	assert.Contains(t, string(out), `"meta": {"n": [1,2]}`)
	assert.NotContains(t, string(out), `\u003c`)
	assert.JSONEq(t, string(data), string(out))
}

func TestMarshalModifiedJobIsNotHTMLEscaped(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"jobs":[{"id":"a","payload":{"prompt":"<b> & co"}}]}`))
	require.NoError(t, err)
	require.NoError(t, doc.Jobs[0].setModel("m<1>", 7))

	out, err := doc.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(out), `"prompt":"<b> & co"`)
	assert.Contains(t, string(out), `"model":"m<1>"`)
	assert.NotContains(t, string(out), `\u0026`)
}

func TestMarshalLayout(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"version":1,"jobs":[{"id":"a"},{"id":"b"}]}`))
	require.NoError(t, err)

	out, err := doc.Marshal()
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"jobs\": [\n    {\"id\":\"a\"},\n    {\"id\":\"b\"}\n  ],\n  \"version\": 1\n}\n", string(out))

	empty, err := ParseDocument([]byte(`{}`))
	require.NoError(t, err)
	out, err = empty.Marshal()
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"jobs\": []\n}\n", string(out))
}

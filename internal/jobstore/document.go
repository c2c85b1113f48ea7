package jobstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Recognised JSON keys. Everything else in the document is carried through
// untouched as raw JSON.
const (
	keyJobs        = "jobs"
	keyID          = "id"
	keyPayload     = "payload"
	keyUpdatedAtMs = "updatedAtMs"
	keyKind        = "kind"
	keyModel       = "model"
)

// Document is the whole persisted job store: the ordered job list plus any
// sibling fields written by the scheduler.
type Document struct {
	fields map[string]json.RawMessage
	Jobs   []*Job
}

// Job is one record of the job list. Only id, payload.kind, payload.model and
// updatedAtMs are interpreted. An unmodified job is written back with its
// original bytes.
type Job struct {
	ID string

	raw    json.RawMessage
	fields map[string]json.RawMessage
	dirty  bool
}

// ParseDocument decodes a job document. A missing "jobs" key or a null value
// is read as an empty list.
func ParseDocument(data []byte) (*Document, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode job document: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("job document is not an object")
	}

	doc := &Document{fields: fields}

	rawJobs, ok := fields[keyJobs]
	delete(fields, keyJobs)
	if !ok || isNull(rawJobs) {
		return doc, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(rawJobs, &items); err != nil {
		return nil, fmt.Errorf("failed to decode jobs list: %w", err)
	}

	doc.Jobs = make([]*Job, 0, len(items))
	for i, item := range items {
		job, err := parseJob(item)
		if err != nil {
			return nil, fmt.Errorf("failed to decode job %d: %w", i, err)
		}
		doc.Jobs = append(doc.Jobs, job)
	}

	return doc, nil
}

func parseJob(item json.RawMessage) (*Job, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, fmt.Errorf("job is not an object")
	}

	job := &Job{raw: item, fields: fields}
	if rawID, ok := fields[keyID]; ok {
		// Non-string ids are kept but can never match a lookup.
		_ = json.Unmarshal(rawID, &job.ID)
	}
	return job, nil
}

// Find returns the first job whose id equals id.
func (d *Document) Find(id string) (*Job, bool) {
	for _, job := range d.Jobs {
		if job.ID == id {
			return job, true
		}
	}
	return nil, false
}

// Field returns a sibling field of the job list.
func (d *Document) Field(key string) (json.RawMessage, bool) {
	v, ok := d.fields[key]
	return v, ok
}

// Marshal encodes the document with two-space indentation and sorted
// top-level keys. Sibling field values and unmodified jobs are written with
// their original bytes.
func (d *Document) Marshal() ([]byte, error) {
	keys := make([]string, 0, len(d.fields)+1)
	for k := range d.fields {
		keys = append(keys, k)
	}
	keys = append(keys, keyJobs)
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := encodeJSON(k)
		if err != nil {
			return nil, err
		}
		buf.WriteString("\n  ")
		buf.Write(name)
		buf.WriteString(": ")

		if k == keyJobs {
			if err := d.writeJobs(&buf); err != nil {
				return nil, err
			}
			continue
		}
		buf.Write(bytes.TrimSpace(d.fields[k]))
	}
	buf.WriteString("\n}\n")
	return buf.Bytes(), nil
}

func (d *Document) writeJobs(buf *bytes.Buffer) error {
	if len(d.Jobs) == 0 {
		buf.WriteString("[]")
		return nil
	}

	buf.WriteByte('[')
	for i, job := range d.Jobs {
		raw, err := job.MarshalJSON()
		if err != nil {
			return fmt.Errorf("failed to encode job %q: %w", job.ID, err)
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString("\n    ")
		buf.Write(bytes.TrimSpace(raw))
	}
	buf.WriteString("\n  ]")
	return nil
}

// MarshalJSON returns the original bytes for an unmodified job.
func (j *Job) MarshalJSON() ([]byte, error) {
	if !j.dirty {
		return j.raw, nil
	}
	return encodeJSON(j.fields)
}

// Raw returns the job's JSON encoding.
func (j *Job) Raw() (json.RawMessage, error) {
	return j.MarshalJSON()
}

// Payload decodes the payload mapping. A missing or null payload is empty.
func (j *Job) Payload() (map[string]json.RawMessage, error) {
	raw, ok := j.fields[keyPayload]
	if !ok || isNull(raw) {
		return map[string]json.RawMessage{}, nil
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("payload is not an object: %w", err)
	}
	return payload, nil
}

// Kind returns payload.kind, or "" when absent or not a string.
func (j *Job) Kind() string {
	return j.payloadString(keyKind)
}

// Model returns payload.model, or "" when absent or not a string.
func (j *Job) Model() string {
	return j.payloadString(keyModel)
}

// UpdatedAtMs returns the last stamp written by the mutator, or 0.
func (j *Job) UpdatedAtMs() int64 {
	raw, ok := j.fields[keyUpdatedAtMs]
	if !ok {
		return 0
	}
	var ms float64
	if err := json.Unmarshal(raw, &ms); err != nil {
		return 0
	}
	return int64(ms)
}

func (j *Job) payloadString(key string) string {
	payload, err := j.Payload()
	if err != nil {
		return ""
	}
	raw, ok := payload[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// setModel writes payload.model and updatedAtMs together. Nothing is changed
// if either value fails to encode.
func (j *Job) setModel(model string, stampMs int64) error {
	payload, err := j.Payload()
	if err != nil {
		return err
	}

	rawModel, err := encodeJSON(model)
	if err != nil {
		return err
	}
	payload[keyModel] = rawModel

	rawPayload, err := encodeJSON(payload)
	if err != nil {
		return err
	}
	rawStamp, err := encodeJSON(stampMs)
	if err != nil {
		return err
	}

	j.fields[keyPayload] = rawPayload
	j.fields[keyUpdatedAtMs] = rawStamp
	j.dirty = true
	return nil
}

// encodeJSON is json.Marshal without HTML escaping, so "<", ">" and "&"
// stay as written by the scheduler.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

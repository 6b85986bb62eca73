package artifact

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapStore struct {
	files map[string][]byte
	gets  []string
}

func (m *mapStore) Put(_ context.Context, prefix, name string, content []byte) error {
	if err := validate(prefix, name); err != nil {
		return err
	}
	m.files[objectKey(prefix, name)] = content
	return nil
}

func (m *mapStore) Get(_ context.Context, prefix, name string) ([]byte, error) {
	m.gets = append(m.gets, name)
	b, ok := m.files[objectKey(prefix, name)]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

func (m *mapStore) List(_ context.Context, prefix string) ([]string, error) {
	p := strings.Trim(prefix, "/") + "/"
	var names []string
	for k := range m.files {
		if strings.HasPrefix(k, p) {
			names = append(names, strings.TrimPrefix(k, p))
		}
	}
	sort.Strings(names)
	return names, nil
}

func TestLoadObjects(t *testing.T) {
	ctx := context.Background()
	s := &mapStore{files: map[string][]byte{}}
	require.NoError(t, s.Put(ctx, "analyzer-runs", "b_model_output.json", []byte(`{"timestamp": "2025-09-02 10:00:00"}`)))
	require.NoError(t, s.Put(ctx, "analyzer-runs", "a_model_output.json", []byte(`{"timestamp": "2025-09-01 10:00:00"}`)))
	require.NoError(t, s.Put(ctx, "analyzer-runs", "notes.txt", []byte("skip me")))
	require.NoError(t, s.Put(ctx, "other", "c.json", []byte(`{}`)))

	runs, err := LoadObjects(ctx, s, "analyzer-runs")
	require.NoError(t, err)
	assert.Equal(t, []any{
		map[string]any{"timestamp": "2025-09-01 10:00:00"},
		map[string]any{"timestamp": "2025-09-02 10:00:00"},
	}, runs)
	assert.Equal(t, []string{"a_model_output.json", "b_model_output.json"}, s.gets)
}

func TestLoadObjects_BadFile(t *testing.T) {
	s := &mapStore{files: map[string][]byte{"analyzer-runs/x.json": []byte(`[1, 2]`)}}
	_, err := LoadObjects(context.Background(), s, "analyzer-runs")
	assert.ErrorContains(t, err, "decode x.json")
}

func TestValidate(t *testing.T) {
	assert.Error(t, validate("", "x"))
	assert.Error(t, validate("p", " "))
	assert.NoError(t, validate("p", "x.json"))
}

func TestNewS3Store_RequiresConfig(t *testing.T) {
	_, err := NewS3Store(S3Config{})
	assert.Error(t, err)
	_, err = NewS3Store(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"})
	assert.ErrorContains(t, err, "bucket")
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "analyzer-runs/a.json", objectKey(" analyzer-runs/ ", "/a.json"))
	assert.Equal(t, "application/json", contentType("A.JSON"))
	assert.Equal(t, "application/octet-stream", contentType("a.txt"))
}

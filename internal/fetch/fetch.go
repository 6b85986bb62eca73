// Package fetch retrieves documents from object storage, HTTP(S) or the local
// filesystem and extracts plain text from them. Failures are returned as data
// on the Result, never as Go errors.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
)

const (
	SourceS3      = "s3"
	SourceURL     = "url"
	SourceFile    = "file"
	SourceUnknown = "unknown"

	// DefaultHTTPTimeout bounds a single HTTP(S) fetch.
	DefaultHTTPTimeout = 60 * time.Second
	// DefaultLogPath is where formatted S3/URL text is appended.
	DefaultLogPath = "/tmp/fetch_data_log.txt"
	// DefaultMaxBytes caps the body read from one HTTP(S) source.
	DefaultMaxBytes int64 = 64 << 20
)

// Meta identifies where a Result came from.
type Meta struct {
	SourceType string `json:"source_type"`
	DataSource string `json:"data_source"`
}

// Result is the outcome of one fetch. Error is non-empty on failure, in which
// case both text fields are empty.
type Result struct {
	RawText       string `json:"raw_text"`
	FormattedText string `json:"formatted_text"`
	Meta          Meta   `json:"meta"`
	Error         string `json:"error,omitempty"`
}

// OK reports whether the fetch succeeded.
func (r Result) OK() bool { return r.Error == "" }

// Map renders the result as the JSON-like object handed to the model.
func (r Result) Map() map[string]any {
	m := map[string]any{
		"raw_text":       r.RawText,
		"formatted_text": r.FormattedText,
		"meta": map[string]any{
			"source_type": r.Meta.SourceType,
			"data_source": r.Meta.DataSource,
		},
	}
	if r.Error != "" {
		m["error"] = r.Error
	}
	return m
}

// Options configure a Fetcher. A nil Objects store makes every s3:// source
// fail with an "S3 error". An empty LogPath disables the fetch log and a
// CacheSize <= 0 disables caching. MaxBytes <= 0 means DefaultMaxBytes.
type Options struct {
	Objects    ObjectStore
	HTTPClient *http.Client
	Timeout    time.Duration
	LogPath    string
	CacheSize  int
	MaxBytes   int64
}

// Fetcher is safe for concurrent use.
type Fetcher struct {
	objects ObjectStore
	http     *http.Client
	logPath  string
	maxBytes int64
	cache    *lru.Cache[string, Result]
}

func New(opts Options) (*Fetcher, error) {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultHTTPTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	f := &Fetcher{objects: opts.Objects, http: hc, logPath: opts.LogPath, maxBytes: opts.MaxBytes}
	if f.maxBytes <= 0 {
		f.maxBytes = DefaultMaxBytes
	}
	if opts.CacheSize > 0 {
		c, err := lru.New[string, Result](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("init fetch cache: %w", err)
		}
		f.cache = c
	}
	return f, nil
}

// Fetch classifies source by prefix and returns its text.
func (f *Fetcher) Fetch(ctx context.Context, source string) Result {
	ds := strings.TrimSpace(source)
	if ds == "" {
		return failure(SourceUnknown, ds, "No data_source provided.")
	}
	lower := strings.ToLower(ds)
	switch {
	case strings.HasPrefix(lower, "s3://"):
		return f.remote(ctx, SourceS3, ds, f.fetchS3)
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return f.remote(ctx, SourceURL, ds, f.fetchHTTP)
	}
	if _, err := os.Stat(ds); err == nil {
		return f.fetchFile(ds)
	}
	return failure(SourceUnknown, ds, "Unsupported data_source: "+ds)
}

type remoteFunc func(ctx context.Context, ds string) (string, error)

func (f *Fetcher) remote(ctx context.Context, kind, ds string, get remoteFunc) Result {
	if f.cache != nil {
		if r, ok := f.cache.Get(ds); ok {
			f.appendLog(r.FormattedText)
			return r
		}
	}
	raw, err := get(ctx, ds)
	if err != nil {
		prefix := "S3 error: "
		if kind == SourceURL {
			prefix = "HTTP error: "
		}
		log.Warn().Err(err).Str("data_source", ds).Str("source_type", kind).Msg("fetch failed")
		return failure(kind, ds, prefix+err.Error())
	}
	r := success(kind, ds, raw)
	f.appendLog(r.FormattedText)
	if f.cache != nil {
		f.cache.Add(ds, r)
	}
	return r
}

func (f *Fetcher) fetchS3(ctx context.Context, ds string) (string, error) {
	if f.objects == nil {
		return "", fmt.Errorf("object storage is not configured")
	}
	bucket, key := ParseS3URI(ds)
	if bucket == "" || key == "" {
		return "", fmt.Errorf("invalid s3 uri %q", ds)
	}
	data, err := f.objects.Get(ctx, bucket, key)
	if err != nil {
		return "", fmt.Errorf("S3 read failed for %s: %w", ds, err)
	}
	return Extract(key, "", data)
}

func (f *Fetcher) fetchHTTP(ctx context.Context, ds string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ds, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%s for url: %s", resp.Status, ds)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > f.maxBytes {
		return "", fmt.Errorf("response body exceeds %d bytes for url: %s", f.maxBytes, ds)
	}
	return Extract(strings.SplitN(ds, "?", 2)[0], resp.Header.Get("Content-Type"), data)
}

func (f *Fetcher) fetchFile(ds string) Result {
	data, err := os.ReadFile(ds)
	if err != nil {
		return failure(SourceFile, ds, "File read error: "+err.Error())
	}
	raw, err := Extract(ds, "", data)
	if err != nil {
		return failure(SourceFile, ds, "File read error: "+err.Error())
	}
	return success(SourceFile, ds, raw)
}

// FormatRows splits '@'-delimited rows onto separate lines. Text without the
// delimiter is only trimmed.
func FormatRows(text string) string {
	text = strings.TrimSpace(text)
	if !strings.Contains(text, "@") {
		return text
	}
	chunks := strings.Split(text, "@")
	out := chunks[:0]
	for _, c := range chunks {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return strings.Join(out, "\n")
}

func success(kind, ds, raw string) Result {
	return Result{
		RawText:       raw,
		FormattedText: FormatRows(raw),
		Meta:          Meta{SourceType: kind, DataSource: ds},
	}
}

func failure(kind, ds, msg string) Result {
	return Result{Meta: Meta{SourceType: kind, DataSource: ds}, Error: msg}
}

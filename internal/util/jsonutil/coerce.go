package jsonutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// ErrNoJSONObject is matched by every *ExtractionError.
var ErrNoJSONObject = errors.New("no JSON object found in agent output")

// contextRadius is half of the diagnostic window attached to a ParseError.
const contextRadius = 40

var (
	reObject        = regexp.MustCompile(`(?s)\{.*\}`)
	reTrailingComma = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractionError reports model output that contains no brace-delimited span.
type ExtractionError struct {
	Output string
}

func (e *ExtractionError) Error() string { return ErrNoJSONObject.Error() }

func (e *ExtractionError) Is(target error) bool { return target == ErrNoJSONObject }

// ParseError reports a candidate that still fails to parse after repair.
// Context holds the text surrounding Offset.
type ParseError struct {
	Offset  int64
	Context string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("json parse error at offset %d: %v (context: ...%s...)", e.Offset, e.Err, e.Context)
}

func (e *ParseError) Unwrap() error { return e.Err }

type outputter interface{ Output() string }
type contenter interface{ Content() string }
type texter interface{ Text() string }

// Coerce extracts a single JSON object from model output. Strings are used as
// they are; other values are read through Output, Content or Text (methods
// first, then map keys of the same lowercase names) and stringified otherwise.
func Coerce(output any) (map[string]any, error) {
	s := strings.TrimSpace(asText(output))

	var candidate string
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		candidate = s
	} else {
		candidate = reObject.FindString(s)
		if candidate == "" {
			return nil, &ExtractionError{Output: s}
		}
	}

	candidate = Clean(candidate)

	obj, err := decodeObject(candidate)
	if err != nil {
		off := errorOffset(err)
		return nil, &ParseError{Offset: off, Context: window(candidate, off), Err: err}
	}
	return obj, nil
}

// decodeObject parses exactly one JSON object. Numbers stay json.Number so
// integers beyond float64 precision survive.
func decodeObject(s string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	off := dec.InputOffset()
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &trailingDataError{Offset: off}
	}
	return obj, nil
}

type trailingDataError struct{ Offset int64 }

func (e *trailingDataError) Error() string { return "invalid character after top-level value" }

// Clean drops trailing commas before a closing bracket and anything after
// the last closing brace or bracket.
func Clean(s string) string {
	s = reTrailingComma.ReplaceAllString(s, "$1")
	if last := strings.LastIndexAny(s, "}]"); last != -1 {
		s = s[:last+1]
	}
	return s
}

func asText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case json.RawMessage:
		return string(x)
	case outputter:
		return x.Output()
	case contenter:
		return x.Content()
	case texter:
		return x.Text()
	case map[string]any:
		for _, key := range []string{"output", "content", "text"} {
			if val, ok := x[key]; ok {
				return stringify(val)
			}
		}
	}
	return stringify(v)
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	}
	if b, err := MarshalNoEscape(v); err == nil {
		return string(b)
	}
	return fmt.Sprint(v)
}

func errorOffset(err error) int64 {
	var syn *json.SyntaxError
	if errors.As(err, &syn) {
		return syn.Offset
	}
	var trail *trailingDataError
	if errors.As(err, &trail) {
		return trail.Offset
	}
	var typ *json.UnmarshalTypeError
	if errors.As(err, &typ) {
		return typ.Offset
	}
	return 0
}

func window(s string, off int64) string {
	start := int(off) - contextRadius
	if start < 0 {
		start = 0
	}
	end := int(off) + contextRadius
	if end > len(s) {
		end = len(s)
	}
	if start > end {
		start = end
	}
	return strings.ToValidUTF8(s[start:end], "")
}

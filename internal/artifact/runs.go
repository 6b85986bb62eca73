package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// LoadObjects reads every .json file under prefix, in name order, as a JSON
// object. Other files are skipped.
func LoadObjects(ctx context.Context, s Store, prefix string) ([]any, error) {
	names, err := s.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	out := make([]any, 0, len(names))
	for _, name := range names {
		if !strings.HasSuffix(strings.ToLower(name), ".json") {
			continue
		}
		b, err := s.Get(ctx, prefix, name)
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", name, err)
		}
		var obj map[string]any
		if err := json.Unmarshal(b, &obj); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		out = append(out, obj)
	}
	return out, nil
}

package analyzer

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// maxBaseRunes keeps per-run filenames under common filesystem limits.
const maxBaseRunes = 100

// baseName derives the per-run file stem from a data source:
// "s3://b/path/patient1.docx" -> "patient1", "https://h/f.txt?x=y" -> "f".
func baseName(source string) string {
	s, _, _ := strings.Cut(source, "?")
	if len(s) >= 5 && strings.EqualFold(s[:5], "s3://") {
		if _, key, ok := strings.Cut(s[5:], "/"); ok {
			s = key
		} else {
			s = s[5:]
		}
	}
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	name := stripExt(s)
	if r := []rune(name); len(r) > maxBaseRunes {
		name = string(r[:maxBaseRunes])
	}
	if name == "" {
		return "unknown_source"
	}
	return name
}

// stripExt drops the final extension. Leading dots do not start one, so
// ".env" keeps its name.
func stripExt(base string) string {
	i := strings.LastIndex(base, ".")
	if i <= 0 || strings.Trim(base[:i], ".") == "" {
		return base
	}
	return base[:i]
}

// safeFragment replaces everything but letters, digits, '-' and '_' with '_'.
func safeFragment(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, s)
}

func runFileName(dataSource, modelID string) string {
	return baseName(dataSource) + "_" + safeFragment(modelID) + "_output.json"
}

func writeFile(dir, name string, content []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	p := filepath.Join(dir, name)
	return p, os.WriteFile(p, content, 0o644)
}

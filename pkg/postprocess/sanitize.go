package postprocess

import (
	"regexp"
	"sort"
	"strings"
)

var (
	forbiddenChars = regexp.MustCompile(`[|!@#$%^&*(){}\\\[\];:'",<.>/?+=]+`)
	repeatedScore  = regexp.MustCompile(`_{2,}`)
)

// SanitizeKey replaces characters that downstream stores reject with "_",
// squeezes repeated underscores and trims trailing underscores and
// whitespace. It is idempotent.
func SanitizeKey(key string) string {
	s := forbiddenChars.ReplaceAllString(key, "_")
	s = repeatedScore.ReplaceAllString(s, "_")
	return strings.TrimRight(s, "_ \t\r\n")
}

// RenameHashKeys sanitizes every map key in v, recursively through maps and
// slices. When two keys collide after sanitizing, the lexically last
// original key wins.
func RenameHashKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(map[string]any, len(t))
		for _, k := range keys {
			out[SanitizeKey(k)] = RenameHashKeys(t[k])
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = RenameHashKeys(e)
		}
		return out
	default:
		return v
	}
}

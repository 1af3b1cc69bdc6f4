package service

import (
	"sort"
	"strings"
)

// RenderTemplate substitutes every $key in template. Longer keys go first so
// a short key never eats the prefix of a longer one.
func RenderTemplate(template string, data map[string]string) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })

	result := template
	for _, k := range keys {
		result = strings.ReplaceAll(result, "$"+k, data[k])
	}
	return result
}

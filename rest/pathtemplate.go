package rest

import "strings"

// toMuxPattern rewrites a ":name" path template into the "{name}" wildcard
// syntax *http.ServeMux understands, collapsing any doubled slashes left
// over from concatenating a prefix with an empty relative path.
func toMuxPattern(joined string) string {
	for strings.Contains(joined, "//") {
		joined = strings.ReplaceAll(joined, "//", "/")
	}

	var b strings.Builder
	i := 0
	for i < len(joined) {
		if joined[i] == ':' {
			j := i + 1
			for j < len(joined) && joined[j] != '/' {
				j++
			}
			b.WriteByte('{')
			b.WriteString(joined[i+1 : j])
			b.WriteByte('}')
			i = j
			continue
		}
		b.WriteByte(joined[i])
		i++
	}
	return b.String()
}

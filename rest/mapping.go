package rest

import (
	"strings"
)

// HttpMethod is one of the HTTP verbs the mapping rules can derive.
type HttpMethod string

const (
	GET    HttpMethod = "GET"
	PUT    HttpMethod = "PUT"
	PATCH  HttpMethod = "PATCH"
	POST   HttpMethod = "POST"
	DELETE HttpMethod = "DELETE"
	HEAD   HttpMethod = "HEAD"
)

type verbPrefix struct {
	prefix string
	verb   HttpMethod
}

// prefixTable is checked in order: earlier entries take priority over
// later ones when an identifier could match more than one (it never does
// for the prefixes below, but order is part of the contract).
var prefixTable = []verbPrefix{
	{"get", GET}, {"query", GET},
	{"put", PUT}, {"set", PUT},
	{"update", PATCH}, {"patch", PATCH},
	{"add", POST}, {"create", POST}, {"post", POST},
	{"remove", DELETE}, {"erase", DELETE}, {"delete", DELETE},
}

// matchPrefix reports whether id begins with prefix at a word boundary:
// case-insensitively on the prefix itself, and either prefix consumes all
// of id or the next rune starts a new capitalized word. This lets exported
// Go-style identifiers ("GetHTMLEntity") and lowerCamel identifiers
// ("getHTMLEntity") carry the same recognized prefixes.
func matchPrefix(id, prefix string) (remainder string, ok bool) {
	if len(id) < len(prefix) {
		return "", false
	}
	if !strings.EqualFold(id[:len(prefix)], prefix) {
		return "", false
	}
	rest := id[len(prefix):]
	if rest == "" {
		return rest, true
	}
	if r := []rune(rest)[0]; r >= 'A' && r <= 'Z' {
		return rest, true
	}
	return "", false
}

// DeriveRoute computes (pathOverridden, verb, relativePath) for op, per the
// priority rules: explicit method+path override, getter/setter default,
// verb-prefix table, the "index" special case, and finally a bare POST of
// the identifier unchanged.
func DeriveRoute(op *Operation) (pathOverridden bool, verb HttpMethod, relativePath string) {
	if op.MethodOverride != "" && op.PathOverride != "" {
		return true, op.MethodOverride, op.PathOverride
	}

	verb, remainder := deriveVerbAndRemainder(op)
	relativePath = Apply(op.contract.style(), remainder)

	if op.MethodOverride != "" {
		verb = op.MethodOverride
	}
	if op.PathOverride != "" {
		return true, verb, op.PathOverride
	}
	return false, verb, relativePath
}

func deriveVerbAndRemainder(op *Operation) (HttpMethod, string) {
	id := op.ID

	if op.IsGetter {
		return GET, id
	}
	if op.IsSetter {
		return PUT, id
	}

	for _, p := range prefixTable {
		if remainder, ok := matchPrefix(id, p.prefix); ok {
			return p.verb, remainder
		}
	}

	if strings.EqualFold(id, "index") {
		return GET, ""
	}

	return POST, id
}

// NormalizeRootPath applies the root-path rule: absent override mounts
// at "/"; present-but-empty mounts at "/<stylised-contract-name>/";
// otherwise the given string, normalized to begin and end with "/".
func NormalizeRootPath(c *Contract) string {
	if !c.rootPathSet {
		return "/"
	}
	if c.RootPath == "" {
		return "/" + Apply(c.style(), c.Name) + "/"
	}
	p := c.RootPath
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if !strings.HasSuffix(p, "/") {
		p = p + "/"
	}
	return p
}

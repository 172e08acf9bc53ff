package db

import "strings"

// MatchAll is the FT.SEARCH query matching every indexed document.
const MatchAll = "*"

// SearchQuery is the input for a paged FT.SEARCH.
type SearchQuery struct {
	Index  string
	Query  string
	Offset int
	Limit  int
	// SortBy is an index field alias; empty keeps the engine's order.
	SortBy     string
	Descending bool
	// ReturnFields limits the returned fields; "$" returns the whole JSON document.
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Fields map[string]string
}

// FieldAlias returns the index alias for a stored field path. Dots are not
// valid in FT field names, so nested paths are flattened.
func FieldAlias(path string) string {
	return strings.ReplaceAll(path, ".", "__")
}

// JSONPath returns the JSONPath expression of a stored field path.
func JSONPath(path string) string {
	return "$." + path
}

// EscapeTag escapes a value for use inside a TAG query {...}.
func EscapeTag(s string) string {
	return tagEscaper.Replace(s)
}

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"[", "\\[",
	"]", "\\]",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	"/", "\\/",
	" ", "\\ ",
)

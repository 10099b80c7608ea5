package oauth2

import (
	"net/url"
	"strings"
)

// QueryParam is a single key/value pair of a redirect query.
type QueryParam struct {
	Key   string
	Value string
}

// Query is an ordered list of query parameters. Unlike url.Values it keeps
// insertion order, which the redirect wire format depends on.
type Query []QueryParam

// Add appends a parameter and returns the extended query.
func (q Query) Add(key, value string) Query {
	return append(q, QueryParam{Key: key, Value: value})
}

// AddIfSet appends a parameter only when value is not empty.
func (q Query) AddIfSet(key, value string) Query {
	if value == "" {
		return q
	}
	return q.Add(key, value)
}

// Get returns the first value for key.
func (q Query) Get(key string) string {
	for _, p := range q {
		if p.Key == key {
			return p.Value
		}
	}
	return ""
}

// Encode percent-encodes the query in order. Spaces become %20 and the
// characters !*'() are left as they are.
func (q Query) Encode() string {
	var sb strings.Builder
	for i, p := range q {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(escape(p.Key))
		sb.WriteByte('=')
		sb.WriteString(escape(p.Value))
	}
	return sb.String()
}

// AppendTo returns a copy of u with the query appended after any query the
// URI already carries.
func (q Query) AppendTo(u *url.URL) *url.URL {
	c := *u
	encoded := q.Encode()
	switch {
	case encoded == "":
	case c.RawQuery == "":
		c.RawQuery = encoded
	default:
		c.RawQuery = c.RawQuery + "&" + encoded
	}
	c.ForceQuery = false
	return &c
}

var unescapeMarks = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

func escape(s string) string {
	return unescapeMarks.Replace(url.QueryEscape(s))
}

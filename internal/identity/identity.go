// Package identity turns raw note identifiers, which may carry access-token
// query parameters, into a canonical note identity.
package identity

import "strings"

// DefaultSource is the xsec_source value assumed when none is present.
const DefaultSource = "pc_feed"

// Params are the key/value pairs parsed from the query part of a raw identifier.
type Params map[string]string

// Token is the access token pair required by the remote detail endpoint.
type Token struct {
	Token  string
	Source string
}

// Token returns the xsec token pair carried by p, defaulting the source.
func (p Params) Token() Token {
	t := Token{Token: p["xsec_token"], Source: p["xsec_source"]}
	if t.Source == "" {
		t.Source = DefaultSource
	}
	return t
}

// Resolve splits raw at the first '?' and returns the identity and the parsed
// query parameters. Pairs without '=' are skipped. Resolve never fails.
func Resolve(raw string) (string, Params) {
	id, query, found := strings.Cut(raw, "?")
	params := Params{}
	if !found {
		return id, params
	}
	for _, pair := range strings.Split(query, "&") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		params[key] = value
	}
	return id, params
}

// Of returns only the identity part of raw.
func Of(raw string) string {
	id, _, _ := strings.Cut(raw, "?")
	return id
}

// FromRecord resolves an export record. When the id carries no query, token
// parameters are taken from the query of link instead.
func FromRecord(rawID, link string) (string, Params) {
	id, params := Resolve(rawID)
	if strings.Contains(rawID, "?") {
		return id, params
	}
	if _, query, ok := strings.Cut(link, "?"); ok {
		_, params = Resolve("?" + query)
	}
	return id, params
}

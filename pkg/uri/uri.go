// Package uri parses and compares signal identifiers of the form
// scheme://entity-path?query used by the introspection catalog.
package uri

import (
	"fmt"
	"strings"

	"github.com/c360/plotstream/errors"
)

// URI is a parsed signal identifier. An identifier addresses one field in an
// entity's structured state, for example:
//
//	data://world/default?p=sim_time
//	data://world/default/model/box?p=pose/world_pose/vector3/position/double/x
//
// The entity path ("world/default/model/box") names the entity; the query
// ("p=pose/world_pose/...") addresses a field path inside its state.
//
// The zero value is invalid.
type URI struct {
	scheme string
	path   string
	query  string
}

// Parse parses a signal identifier string. The scheme and entity path are
// required; the query may be empty.
func Parse(s string) (URI, error) {
	scheme, rest, ok := strings.Cut(s, "://")
	if !ok || scheme == "" {
		return URI{}, errors.WrapInvalid(
			fmt.Errorf("%w: missing scheme in %q", errors.ErrInvalidIdentifier, s),
			"uri", "Parse", "scheme check")
	}

	pathPart, query, _ := strings.Cut(rest, "?")
	path := strings.Trim(pathPart, "/")
	if path == "" {
		return URI{}, errors.WrapInvalid(
			fmt.Errorf("%w: missing entity path in %q", errors.ErrInvalidIdentifier, s),
			"uri", "Parse", "path check")
	}

	return URI{scheme: scheme, path: path, query: query}, nil
}

// MustParse parses a signal identifier and panics on failure. For use in
// tests and package-level defaults only.
func MustParse(s string) URI {
	u, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

// Scheme returns the identifier scheme (e.g. "data").
func (u URI) Scheme() string { return u.scheme }

// Path returns the entity path with leading and trailing slashes trimmed.
func (u URI) Path() string { return u.path }

// Query returns the raw query string (without the leading '?').
func (u URI) Query() string { return u.query }

// Valid reports whether the URI carries a scheme and an entity path.
func (u URI) Valid() bool { return u.scheme != "" && u.path != "" }

// String reassembles the canonical identifier string.
func (u URI) String() string {
	if !u.Valid() {
		return ""
	}
	if u.query == "" {
		return u.scheme + "://" + u.path
	}
	return u.scheme + "://" + u.path + "?" + u.query
}

// SamePath reports whether two identifiers address the same entity.
// Schemes and entity paths must both match exactly.
func (u URI) SamePath(other URI) bool {
	return u.scheme == other.scheme && u.path == other.path
}

// QueryIsPrefixOf reports whether this identifier's query string is a literal
// prefix of the other identifier's query string. A catalog item registered as
// "p=world_pose" is a prefix of a request for "p=world_pose/position/x", so
// subscribing the coarser item covers the finer request.
func (u URI) QueryIsPrefixOf(other URI) bool {
	return strings.HasPrefix(other.query, u.query)
}

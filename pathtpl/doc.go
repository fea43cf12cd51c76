// Package pathtpl parses, matches and renders URL path patterns.
//
// A Pattern is built either from a pattern string with Parse or from an
// already compiled regular expression with FromRegexp. Both forms match
// request paths and report captured values. Patterns that could be
// decompiled also expose their tokens, which Join and Render turn into
// OpenAPI path templates such as "/users/{id}/files/{0}".
//
// Named parameters render as {name}. Unnamed captures (wildcards and
// anonymous groups) render as their ordinal, {0}, {1}, and so on, with the
// numbering continuing across joined prefixes. Contiguous unnamed captures
// collapse into a single capture.
//
// Macros constrain a parameter with a well-known pattern and carry the
// OpenAPI schema type used when documenting it:
//
//	/users/{id:uuid}     string, format uuid
//	/items/{n:int}       integer
//	/days/{d:date}       string, format date
//	/zones/{z:domain}    string, format hostname
package pathtpl

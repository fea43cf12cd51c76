package pathtpl

import (
	"fmt"
	"regexp"
)

// varMatcher validates a single captured value.
// *regexp.Regexp satisfies this interface.
type varMatcher interface {
	MatchString(string) bool
	String() string
}

// lengthMatcher wraps a regexp with an additional maximum length constraint.
type lengthMatcher struct {
	re     *regexp.Regexp
	maxLen int
}

func (m *lengthMatcher) MatchString(s string) bool {
	return len(s) <= m.maxLen && m.re.MatchString(s)
}

func (m *lengthMatcher) String() string {
	return m.re.String()
}

// macro holds a pattern, its anchored matcher and the OpenAPI schema
// type and format a parameter using it is documented with.
type macro struct {
	pattern string
	matcher varMatcher
	typ     string
	format  string
}

// patternMacros maps macro names usable as {name:macro} to their definitions.
var patternMacros = func() map[string]macro {
	raw := map[string]struct {
		pattern string
		typ     string
		format  string
	}{
		"uuid":     {`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`, "string", "uuid"},
		"int":      {`[0-9]+`, "integer", ""},
		"float":    {`[0-9]*\.?[0-9]+`, "number", ""},
		"slug":     {`[a-zA-Z0-9]+(?:-[a-zA-Z0-9]+)*`, "string", ""},
		"alpha":    {`[a-zA-Z]+`, "string", ""},
		"alphanum": {`[a-zA-Z0-9]+`, "string", ""},
		"date":     {`[0-9]{4}-[0-9]{2}-[0-9]{2}`, "string", "date"},
		"hex":      {`[0-9a-fA-F]+`, "string", ""},
		// RFC 1035/1123: labels 1-63 chars, total up to 253 chars.
		"domain": {`(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)*[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?`, "string", "hostname"},
	}

	maxLengths := map[string]int{
		"domain": 253,
	}

	m := make(map[string]macro, len(raw))
	for name, def := range raw {
		re := regexp.MustCompile(fmt.Sprintf("^%s$", def.pattern))

		var matcher varMatcher
		if maxLen, ok := maxLengths[name]; ok {
			matcher = &lengthMatcher{re: re, maxLen: maxLen}
		} else {
			matcher = re
		}

		m[name] = macro{
			pattern: def.pattern,
			matcher: matcher,
			typ:     def.typ,
			format:  def.format,
		}
	}

	return m
}()

// expandMacro returns the regexp for a macro name and true, or the input
// unchanged and false when name is not a known macro.
func expandMacro(name string) (string, bool) {
	if m, ok := patternMacros[name]; ok {
		return m.pattern, true
	}
	return name, false
}

// MacroSchema returns the OpenAPI schema type and format documented for a
// parameter constrained by the named macro. Unknown macros and plain
// patterns document as a string.
func MacroSchema(name string) (typ, format string) {
	if m, ok := patternMacros[name]; ok {
		return m.typ, m.format
	}
	return "string", ""
}

// ValidateMacro reports whether value satisfies the named macro, including
// any length limit beyond the regexp. Unknown macros accept every value.
func ValidateMacro(name, value string) bool {
	m, ok := patternMacros[name]
	if !ok {
		return true
	}
	return m.matcher.MatchString(value)
}

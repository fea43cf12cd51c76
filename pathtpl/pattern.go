package pathtpl

import (
	"strconv"
	"strings"
)

// Kind classifies a path token.
type Kind int

const (
	// Literal is a fixed run of path text.
	Literal Kind = iota
	// Param is a named capture.
	Param
	// Wildcard is an unnamed capture, addressed by its ordinal.
	Wildcard
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Literal:
		return "literal"
	case Param:
		return "param"
	case Wildcard:
		return "wildcard"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Token is one element of a parsed path pattern.
type Token struct {
	Kind Kind
	// Text is the literal text of a Literal token.
	Text string
	// Name is the name of a Param token.
	Name string
	// Index is the ordinal of a Wildcard token.
	Index int
	// Pattern is the capture regexp. Empty means the default for the kind.
	Pattern string
	// Macro is the macro name the pattern was expanded from, if any.
	Macro string
	// Optional marks a capture that may be absent together with its
	// leading slash.
	Optional bool
}

// Capture describes a captured value of a matched path.
type Capture struct {
	// Name is the param name, or the decimal ordinal for unnamed captures.
	Name string
	// Unnamed is true for wildcard captures.
	Unnamed bool
	// Index is the ordinal of an unnamed capture.
	Index    int
	Pattern  string
	Macro    string
	Optional bool

	group int
	// last is the final group of a capture collapsed from adjacent
	// regexp groups. Zero when the capture spans one group.
	last int
}

func (t Token) capture() Capture {
	c := Capture{
		Name:     t.Name,
		Pattern:  t.Pattern,
		Macro:    t.Macro,
		Optional: t.Optional,
	}
	if t.Kind == Wildcard {
		c.Name = strconv.Itoa(t.Index)
		c.Unnamed = true
		c.Index = t.Index
	}
	return c
}

// Parse tokenizes a path pattern. Two syntaxes are accepted and may be
// mixed:
//
//	/users/{id}             named parameter
//	/users/{id:[0-9]+}      named parameter with a regexp
//	/users/{id:uuid}        named parameter with a macro
//	/users/:id              named parameter
//	/users/:id?             optional named parameter
//	/users/:id(\d+)         named parameter with a regexp
//	/files/*                unnamed wildcard
//	/files/(.*)             unnamed capture with a regexp
//	/route/:param*          named parameter followed by a wildcard
//
// Contiguous unnamed captures collapse into one.
func Parse(src string) (*Pattern, error) {
	tokens, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	tokens = collapse(tokens)

	if err := checkDuplicateNames(src, tokens); err != nil {
		return nil, err
	}

	p := &Pattern{source: src, tokens: tokens}
	if err := p.compile(); err != nil {
		return nil, err
	}

	return p, nil
}

// MustParse is like Parse but panics on error.
func MustParse(src string) *Pattern {
	p, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return p
}

func tokenize(src string) ([]Token, error) {
	var (
		tokens []Token
		lit    strings.Builder
	)

	flush := func() {
		if lit.Len() > 0 {
			tokens = append(tokens, Token{Kind: Literal, Text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '\\' && i+1 < len(src):
			lit.WriteByte(src[i+1])
			i += 2

		case c == '{':
			end, err := closing(src, i, '{', '}')
			if err != nil {
				return nil, err
			}
			tok, err := braceToken(src, src[i+1:end])
			if err != nil {
				return nil, err
			}
			flush()
			tokens = append(tokens, tok)
			i = end + 1

		case c == ':' && i+1 < len(src) && isNameByte(src[i+1]):
			j := i + 1
			for j < len(src) && isNameByte(src[j]) {
				j++
			}
			tok := Token{Kind: Param, Name: src[i+1 : j]}
			if j < len(src) && src[j] == '(' {
				end, err := closing(src, j, '(', ')')
				if err != nil {
					return nil, err
				}
				if tok.Pattern, err = groupPattern(src, src[j+1:end]); err != nil {
					return nil, err
				}
				j = end + 1
			}
			flush()
			tokens = append(tokens, tok)
			if j < len(src) {
				switch src[j] {
				case '?':
					tokens[len(tokens)-1].Optional = true
					j++
				case '*':
					tokens = append(tokens, Token{Kind: Wildcard})
					j++
				}
			}
			i = j

		case c == '(':
			end, err := closing(src, i, '(', ')')
			if err != nil {
				return nil, err
			}
			tok := Token{Kind: Wildcard}
			if tok.Pattern, err = groupPattern(src, src[i+1:end]); err != nil {
				return nil, err
			}
			j := end + 1
			if j < len(src) && src[j] == '?' {
				tok.Optional = true
				j++
			}
			flush()
			tokens = append(tokens, tok)
			i = j

		case c == '*':
			flush()
			tokens = append(tokens, Token{Kind: Wildcard})
			i++

		case c == '}' || c == ')':
			return nil, invalidPattern(src, "unbalanced "+string(c), nil)

		default:
			lit.WriteByte(c)
			i++
		}
	}
	flush()

	return tokens, nil
}

// braceToken builds a Param from the inside of {name[:pattern]}.
func braceToken(src, inner string) (Token, error) {
	name, patt, hasPattern := strings.Cut(inner, ":")
	if name == "" {
		return Token{}, invalidPattern(src, "missing name in {"+inner+"}", nil)
	}

	tok := Token{Kind: Param, Name: name}
	if hasPattern {
		if patt == "" {
			return Token{}, invalidPattern(src, "empty pattern for "+name, nil)
		}
		if expanded, ok := expandMacro(patt); ok {
			tok.Macro = patt
			tok.Pattern = expanded
		} else {
			tok.Pattern = patt
		}
	}

	return tok, nil
}

func groupPattern(src, inner string) (string, error) {
	switch inner {
	case "":
		return "", invalidPattern(src, "empty group", nil)
	case "*":
		return ".*", nil
	}
	return inner, nil
}

// closing returns the index of the delimiter closing the one at start,
// honouring nesting and backslash escapes.
func closing(src string, start int, open, close byte) (int, error) {
	level := 0
	for i := start; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case open:
			level++
		case close:
			if level--; level == 0 {
				return i, nil
			}
		}
	}
	return 0, invalidPattern(src, "unbalanced "+string(open), nil)
}

func isNameByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// collapse merges contiguous unnamed captures and numbers the survivors.
func collapse(tokens []Token) []Token {
	out := tokens[:0]
	for _, tok := range tokens {
		if tok.Kind == Wildcard && len(out) > 0 && out[len(out)-1].Kind == Wildcard {
			prev := &out[len(out)-1]
			prev.Pattern = "(?:" + wildcardPattern(prev.Pattern) + ")(?:" + wildcardPattern(tok.Pattern) + ")"
			prev.Optional = prev.Optional && tok.Optional
			continue
		}
		out = append(out, tok)
	}

	n := 0
	for i := range out {
		if out[i].Kind == Wildcard {
			out[i].Index = n
			n++
		}
	}

	return out
}

func checkDuplicateNames(src string, tokens []Token) error {
	seen := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		if tok.Kind != Param {
			continue
		}
		if seen[tok.Name] {
			return invalidPattern(src, "duplicated variable "+strconv.Quote(tok.Name), nil)
		}
		seen[tok.Name] = true
	}
	return nil
}

func wildcardPattern(p string) string {
	if p == "" {
		return ".*"
	}
	return p
}

func paramPattern(p string) string {
	if p == "" {
		return "[^/]+"
	}
	return p
}

package pathtpl

import (
	"fmt"
	"strconv"
	"strings"
)

// Adjacency controls how an unnamed capture directly following a named
// parameter, with no literal in between, is rendered.
type Adjacency int

const (
	// AdjacencyMerge renders the pair as the named placeholder only while
	// still reporting the unnamed capture as a parameter.
	AdjacencyMerge Adjacency = iota
	// AdjacencySeparate renders both placeholders back to back.
	AdjacencySeparate
	// AdjacencyAbsorb renders the named placeholder and drops the unnamed
	// capture entirely.
	AdjacencyAbsorb
)

var adjacencyNames = map[Adjacency]string{
	AdjacencyMerge:    "merge",
	AdjacencySeparate: "separate",
	AdjacencyAbsorb:   "absorb",
}

// String returns the configuration name of the policy.
func (a Adjacency) String() string {
	if name, ok := adjacencyNames[a]; ok {
		return name
	}
	return "adjacency(" + strconv.Itoa(int(a)) + ")"
}

// ParseAdjacency parses a policy name. The empty string selects
// AdjacencyMerge.
func ParseAdjacency(s string) (Adjacency, error) {
	if s == "" {
		return AdjacencyMerge, nil
	}
	for a, name := range adjacencyNames {
		if strings.EqualFold(name, s) {
			return a, nil
		}
	}
	return 0, fmt.Errorf("pathtpl: unknown adjacency policy %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (a Adjacency) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Adjacency) UnmarshalText(text []byte) error {
	v, err := ParseAdjacency(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Join appends the tokens of p to prefix, continuing the numbering of
// unnamed captures and folding the slash shared by a prefix ending in "/"
// and a pattern starting with "/".
func Join(prefix []Token, p *Pattern) []Token {
	out := make([]Token, len(prefix), len(prefix)+len(p.tokens))
	copy(out, prefix)

	offset := 0
	for _, tok := range prefix {
		if tok.Kind == Wildcard {
			offset++
		}
	}

	for i, tok := range p.tokens {
		if tok.Kind == Wildcard {
			tok.Index += offset
		}

		if tok.Kind == Literal && len(out) > 0 && out[len(out)-1].Kind == Literal {
			last := &out[len(out)-1]
			text := tok.Text
			if i == 0 && strings.HasSuffix(last.Text, "/") && strings.HasPrefix(text, "/") {
				text = text[1:]
			}
			last.Text += text
			continue
		}

		out = append(out, tok)
	}

	return out
}

// Render writes tokens as an OpenAPI path template and returns the
// captures that become path parameters, in order.
func Render(tokens []Token, policy Adjacency) (string, []Capture) {
	var (
		b        strings.Builder
		captures []Capture
	)

	for i, tok := range tokens {
		switch tok.Kind {
		case Literal:
			b.WriteString(tok.Text)

		case Param:
			b.WriteString("{" + tok.Name + "}")
			captures = append(captures, tok.capture())

		case Wildcard:
			adjacent := i > 0 && tokens[i-1].Kind == Param
			if !adjacent {
				b.WriteString("{" + strconv.Itoa(tok.Index) + "}")
				captures = append(captures, tok.capture())
				continue
			}

			switch policy {
			case AdjacencySeparate:
				b.WriteString("{" + strconv.Itoa(tok.Index) + "}")
				captures = append(captures, tok.capture())
			case AdjacencyAbsorb:
			default:
				captures = append(captures, tok.capture())
			}
		}
	}

	path := b.String()
	if path == "" {
		path = "/"
	}

	return path, captures
}

// Template renders a single pattern. Opaque patterns return their error.
func Template(p *Pattern, policy Adjacency) (string, []Capture, error) {
	if p.err != nil {
		return "", nil, p.err
	}
	path, captures := Render(p.tokens, policy)
	return path, captures, nil
}

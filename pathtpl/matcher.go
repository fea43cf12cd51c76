package pathtpl

import (
	"regexp"
	"regexp/syntax"
	"strconv"
	"strings"
)

// Pattern is a parsed path pattern together with its compiled matchers.
type Pattern struct {
	source   string
	tokens   []Token
	captures []Capture
	full     *regexp.Regexp
	prefix   *regexp.Regexp
	err      error
}

// String returns the source the pattern was built from.
func (p *Pattern) String() string {
	return p.source
}

// Tokens returns a copy of the pattern tokens. Opaque patterns have none.
func (p *Pattern) Tokens() []Token {
	return append([]Token(nil), p.tokens...)
}

// Captures returns the captures in match order.
func (p *Pattern) Captures() []Capture {
	return append([]Capture(nil), p.captures...)
}

// Err returns a non-nil error wrapping ErrNotInvertible when the pattern
// matches requests but cannot be rendered as a template.
func (p *Pattern) Err() error {
	return p.err
}

// Match matches the whole path, allowing one trailing slash, and returns
// the captured values in capture order.
func (p *Pattern) Match(path string) ([]string, bool) {
	loc := p.full.FindStringSubmatchIndex(path)
	if loc == nil {
		return nil, false
	}
	return p.values(path, loc), true
}

// MatchPrefix matches a leading part of path that ends on a segment
// boundary. The unmatched remainder always starts with a slash.
func (p *Pattern) MatchPrefix(path string) (values []string, rest string, ok bool) {
	loc := p.prefix.FindStringSubmatchIndex(path)
	if loc == nil {
		return nil, "", false
	}

	end := loc[1]
	if end > 0 && path[end-1] == '/' {
		end--
	}
	rest = path[end:]
	if rest != "" && rest[0] != '/' {
		return nil, "", false
	}
	if rest == "" {
		rest = "/"
	}

	return p.values(path, loc), rest, true
}

func (p *Pattern) values(path string, loc []int) []string {
	values := make([]string, len(p.captures))
	for i, c := range p.captures {
		if 2*c.group+1 >= len(loc) || loc[2*c.group] < 0 {
			continue
		}
		end := loc[2*c.group+1]
		if c.last > 0 && 2*c.last+1 < len(loc) && loc[2*c.last+1] >= 0 {
			end = loc[2*c.last+1]
		}
		values[i] = path[loc[2*c.group]:end]
	}
	return values
}

// compile builds the full and prefix matchers from the tokens.
func (p *Pattern) compile() error {
	var b strings.Builder
	b.WriteByte('^')

	groups := make([]string, 0, len(p.tokens))
	for i, tok := range p.tokens {
		switch tok.Kind {
		case Literal:
			text := tok.Text
			if optionalAfter(p.tokens, i) && strings.HasSuffix(text, "/") {
				text = strings.TrimSuffix(text, "/")
			}
			b.WriteString(regexp.QuoteMeta(text))

		case Param, Wildcard:
			patt := paramPattern(tok.Pattern)
			if tok.Kind == Wildcard {
				patt = wildcardPattern(tok.Pattern)
			}
			if _, err := syntax.Parse(patt, syntax.Perl); err != nil {
				return invalidPattern(p.source, "bad regexp for capture", err)
			}

			group := "c" + strconv.Itoa(len(groups))
			groups = append(groups, group)
			capture := "(?P<" + group + ">" + patt + ")"

			switch {
			case tok.Optional && i > 0 && p.tokens[i-1].Kind == Literal && strings.HasSuffix(p.tokens[i-1].Text, "/"):
				b.WriteString("(?:/" + capture + ")?")
			case tok.Optional:
				b.WriteString(capture + "?")
			default:
				b.WriteString(capture)
			}
			p.captures = append(p.captures, tok.capture())
		}
	}

	body := b.String()
	tail := "/?$"
	if strings.HasSuffix(p.source, "/") {
		tail = "$"
	}

	full, err := compileRegexp(body + tail)
	if err != nil {
		return invalidPattern(p.source, "", err)
	}
	prefix, err := compileRegexp(body)
	if err != nil {
		return invalidPattern(p.source, "", err)
	}

	for i, group := range groups {
		p.captures[i].group = full.SubexpIndex(group)
	}
	p.full = full
	p.prefix = prefix

	return nil
}

func optionalAfter(tokens []Token, i int) bool {
	return i+1 < len(tokens) && tokens[i+1].Kind != Literal && tokens[i+1].Optional
}

// FromRegexp builds a pattern from an already compiled regexp. Capture
// groups are named by their group name, else by names in order, else they
// become unnamed captures.
//
// The returned pattern is always usable for matching. When the regexp
// cannot be decompiled into a template the error wraps ErrNotInvertible
// and the pattern has no tokens.
func FromRegexp(re *regexp.Regexp, names ...string) (*Pattern, error) {
	src := re.String()
	p := &Pattern{source: src}

	full, err := compileRegexp(`^(?:` + src + `)/?$`)
	if err != nil {
		return nil, invalidPattern(src, "", err)
	}
	prefix, err := compileRegexp(`^(?:` + src + `)`)
	if err != nil {
		return nil, invalidPattern(src, "", err)
	}
	p.full = full
	p.prefix = prefix

	tree, err := syntax.Parse(src, syntax.Perl)
	if err != nil {
		return nil, invalidPattern(src, "", err)
	}

	tokens, captures, err := invert(src, tree.Simplify(), names)
	if err != nil {
		p.err = err
		p.captures = subexpCaptures(re, names)
		return p, err
	}

	p.tokens = tokens
	p.captures = captures
	return p, nil
}

// invert turns a concatenation of literals and captures back into tokens.
func invert(src string, re *syntax.Regexp, names []string) ([]Token, []Capture, error) {
	subs := []*syntax.Regexp{re}
	if re.Op == syntax.OpConcat {
		subs = re.Sub
	}

	var (
		tokens   []Token
		captures []Capture
		lit      strings.Builder
		ordinal int
		capIdx  int
	)

	flush := func() {
		if lit.Len() > 0 {
			tokens = append(tokens, Token{Kind: Literal, Text: lit.String()})
			lit.Reset()
		}
	}

	last := len(subs) - 1
	for i, sub := range subs {
		switch sub.Op {
		case syntax.OpBeginText, syntax.OpBeginLine:
			if i != 0 {
				return nil, nil, notInvertible(src, "anchor inside pattern")
			}
		case syntax.OpEndText, syntax.OpEndLine:
			if i != last {
				return nil, nil, notInvertible(src, "anchor inside pattern")
			}
		case syntax.OpEmptyMatch:
		case syntax.OpLiteral:
			lit.WriteString(string(sub.Rune))
		case syntax.OpQuest:
			trailing := i == last || i == last-1 && isEndAnchor(subs[last])
			if !trailing || !isLiteral(sub.Sub[0], "/") {
				return nil, nil, notInvertible(src, "optional segment "+sub.String())
			}
		case syntax.OpCapture:
			adjacent := lit.Len() == 0 && len(tokens) > 0 && tokens[len(tokens)-1].Kind == Wildcard
			flush()
			name := sub.Name
			if name == "" && capIdx < len(names) {
				name = names[capIdx]
			}
			capIdx++

			if name == "" && adjacent {
				prev := &tokens[len(tokens)-1]
				prev.Pattern = "(?:" + prev.Pattern + ")(?:" + sub.Sub[0].String() + ")"
				c := &captures[len(captures)-1]
				c.Pattern = prev.Pattern
				c.last = sub.Cap
				continue
			}

			tok := Token{Kind: Param, Name: name, Pattern: sub.Sub[0].String()}
			if name == "" {
				tok.Kind = Wildcard
				tok.Name = ""
				tok.Index = ordinal
				ordinal++
			}
			tokens = append(tokens, tok)

			c := tok.capture()
			c.group = sub.Cap
			captures = append(captures, c)
		default:
			return nil, nil, notInvertible(src, "cannot render "+sub.String())
		}
	}
	flush()

	return tokens, captures, nil
}

func isEndAnchor(re *syntax.Regexp) bool {
	return re.Op == syntax.OpEndText || re.Op == syntax.OpEndLine
}

func isLiteral(re *syntax.Regexp, s string) bool {
	return re.Op == syntax.OpLiteral && string(re.Rune) == s
}

// subexpCaptures names every capture group of an opaque regexp.
func subexpCaptures(re *regexp.Regexp, names []string) []Capture {
	subexps := re.SubexpNames()
	captures := make([]Capture, 0, len(subexps))

	ordinal := 0
	for i := 1; i < len(subexps); i++ {
		c := Capture{Name: subexps[i], group: i}
		if c.Name == "" && i-1 < len(names) {
			c.Name = names[i-1]
		}
		if c.Name == "" {
			c.Name = strconv.Itoa(ordinal)
			c.Unnamed = true
			c.Index = ordinal
			ordinal++
		}
		captures = append(captures, c)
	}

	return captures
}

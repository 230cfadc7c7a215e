//go:build unix

package client

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// ParseLine splits a command line such as
//
//	setSelection 10 20
//	jumpToLine 5
//
// into a Call, using shell quoting rules so string arguments may contain
// spaces ("a b", 'a b', a\ b). Words that parse as numbers become JSON
// numbers; everything else is a string. Expansions, pipes and redirections
// are rejected.
func ParseLine(line string) (Call, error) {
	parser := syntax.NewParser(syntax.Variant(syntax.LangPOSIX))
	file, err := parser.Parse(strings.NewReader(line), "")
	if err != nil {
		return Call{}, fmt.Errorf("parse command line: %w", err)
	}
	if len(file.Stmts) != 1 {
		return Call{}, fmt.Errorf("expected one command, got %d", len(file.Stmts))
	}
	stmt := file.Stmts[0]
	if len(stmt.Redirs) > 0 || stmt.Negated || stmt.Background {
		return Call{}, errors.New("redirections and job control are not supported")
	}
	call, ok := stmt.Cmd.(*syntax.CallExpr)
	if !ok || len(call.Assigns) > 0 || len(call.Args) == 0 {
		return Call{}, errors.New("expected a command id followed by arguments")
	}

	words := make([]string, len(call.Args))
	for i, w := range call.Args {
		s, err := literal(w)
		if err != nil {
			return Call{}, err
		}
		words[i] = s
	}

	c := Call{CommandID: words[0], Args: make([]any, 0, len(words)-1)}
	for _, w := range words[1:] {
		c.Args = append(c.Args, ParseArg(w))
	}
	return c, nil
}

// literal returns the value of a word made only of literal and quoted parts.
func literal(w *syntax.Word) (string, error) {
	var sb strings.Builder
	for _, part := range w.Parts {
		switch p := part.(type) {
		case *syntax.Lit:
			sb.WriteString(unescape(p.Value, ""))
		case *syntax.SglQuoted:
			sb.WriteString(p.Value)
		case *syntax.DblQuoted:
			for _, inner := range p.Parts {
				lit, ok := inner.(*syntax.Lit)
				if !ok {
					return "", fmt.Errorf("unsupported expansion in %q", wordSource(w))
				}
				sb.WriteString(unescape(lit.Value, "\"\\$`\n"))
			}
		default:
			return "", fmt.Errorf("unsupported expansion in %q", wordSource(w))
		}
	}
	return sb.String(), nil
}

// unescape drops backslashes. With an empty only set every escaped
// character is kept; otherwise only the listed ones are unescaped.
func unescape(s, only string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && (only == "" || strings.IndexByte(only, s[i+1]) >= 0) {
			i++
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

func wordSource(w *syntax.Word) string {
	var sb strings.Builder
	syntax.NewPrinter().Print(&sb, w)
	return sb.String()
}

// ParseArg converts one command line word into a request argument: an
// integer, a float, or the word itself.
func ParseArg(word string) any {
	if n, err := strconv.ParseInt(word, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(word, 64); err == nil && !strings.ContainsAny(word, "xXnN") {
		return f
	}
	return word
}

package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// patterns matches paths against globs with find -path semantics:
// * and ? also match the path separator, [...] is a character class
// ([!...] negates it) and \ escapes the next character.
type patterns []*regexp.Regexp

func compilePatterns(globs []string) (patterns, error) {
	compiled := make(patterns, 0, len(globs))

	for _, glob := range globs {
		glob = strings.TrimPrefix(glob, "./")

		expr, err := globToRegexp(glob)
		if err != nil {
			return nil, err
		}

		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compiling pattern %q: %w", glob, err)
		}

		compiled = append(compiled, re)
	}

	return compiled, nil
}

// match reports whether any pattern matches the slash-separated path or its base name.
func (p patterns) match(path string) bool {
	base := path[strings.LastIndex(path, "/")+1:]

	for _, re := range p {
		if re.MatchString(path) || re.MatchString(base) {
			return true
		}
	}

	return false
}

func globToRegexp(glob string) (string, error) {
	var expr strings.Builder

	expr.WriteString("^")

	for i := 0; i < len(glob); i++ {
		switch c := glob[i]; c {
		case '*':
			expr.WriteString(".*")
		case '?':
			expr.WriteString(".")
		case '[':
			end := classEnd(glob, i)
			if end < 0 {
				return "", fmt.Errorf("unclosed character class in pattern %q", glob)
			}

			class := glob[i+1 : end]
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}

			expr.WriteString("[" + class + "]")

			i = end
		case '\\':
			if i+1 == len(glob) {
				return "", fmt.Errorf("trailing backslash in pattern %q", glob)
			}

			i++

			expr.WriteString(regexp.QuoteMeta(glob[i : i+1]))
		default:
			expr.WriteString(regexp.QuoteMeta(string(c)))
		}
	}

	expr.WriteString("$")

	return expr.String(), nil
}

// classEnd returns the index of the ] closing the class opened at start, or -1.
// A ] right after [ or [! is a literal member of the class.
func classEnd(glob string, start int) int {
	i := start + 1

	if i < len(glob) && glob[i] == '!' {
		i++
	}

	if i < len(glob) && glob[i] == ']' {
		i++
	}

	for ; i < len(glob); i++ {
		if glob[i] == ']' {
			return i
		}
	}

	return -1
}

// Package params implements deciding whether a SQL payload is acceptable,
// splitting it into single statements, and translating caller-supplied
// parameter values into engine bindings. It is a pure, connection-independent
// package — the underlying engine exposes no public split API of its own —
// so its decisions can be made before a query is ever put on the
// inter-context bus.
package params

import "strings"

// segment is one top-level fragment produced by tokenizing around unquoted,
// uncommented, depth-0 semicolons.
func tokenizeSegments(sql string) []string {
	var segs []string
	var cur strings.Builder

	depth := 0 // BEGIN...END nesting depth
	runes := []rune(sql)
	i := 0
	n := len(runes)

	for i < n {
		c := runes[i]

		switch {
		case c == '\'' || c == '"':
			quote := c
			cur.WriteRune(c)
			i++
			for i < n {
				cur.WriteRune(runes[i])
				if runes[i] == quote {
					if i+1 < n && runes[i+1] == quote {
						cur.WriteRune(runes[i+1])
						i += 2
						continue
					}
					i++
					break
				}
				i++
			}
			continue

		case c == '-' && i+1 < n && runes[i+1] == '-':
			for i < n && runes[i] != '\n' {
				cur.WriteRune(runes[i])
				i++
			}
			continue

		case c == '/' && i+1 < n && runes[i+1] == '*':
			cur.WriteRune(runes[i])
			cur.WriteRune(runes[i+1])
			i += 2
			for i < n {
				if runes[i] == '*' && i+1 < n && runes[i+1] == '/' {
					cur.WriteRune(runes[i])
					cur.WriteRune(runes[i+1])
					i += 2
					break
				}
				cur.WriteRune(runes[i])
				i++
			}
			continue

		case c == ';' && depth == 0:
			cur.WriteRune(c)
			segs = append(segs, cur.String())
			cur.Reset()
			i++
			continue

		default:
			if isWordStart(runes, i) {
				word, end := readWord(runes, i)
				cur.WriteString(word)
				switch strings.ToUpper(word) {
				case "BEGIN":
					depth++
				case "END":
					if depth > 0 {
						depth--
					}
				}
				i = end
				continue
			}
			cur.WriteRune(c)
			i++
		}
	}
	segs = append(segs, cur.String())
	return segs
}

func isWordStart(runes []rune, i int) bool {
	c := runes[i]
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || c == '_'
}

func readWord(runes []rune, i int) (string, int) {
	start := i
	for i < len(runes) {
		c := runes[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' {
			i++
			continue
		}
		break
	}
	return string(runes[start:i]), i
}

// Split divides sql into individual statements, honoring string/identifier
// quoting, line/block comments, and BEGIN...END compound blocks. Per the
// trailing-semicolon gate: if the payload has no terminating ';' after its
// last non-empty statement, the whole payload is returned as one statement
// (no splitting), even if it contains internal semicolons.
func Split(sql string) []string {
	segs := tokenizeSegments(sql)

	// segs has len == 1 + (number of top-level semicolons seen). The final
	// element is whatever trailed the last semicolon (empty if the payload
	// ended with one).
	last := strings.TrimSpace(segs[len(segs)-1])
	if len(segs) == 1 || last != "" {
		trimmed := strings.TrimSpace(sql)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}

	var out []string
	for _, s := range segs[:len(segs)-1] {
		s = strings.TrimSpace(s)
		if strings.TrimSpace(strings.TrimSuffix(s, ";")) == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

// IsMultiStatement reports whether sql would split into more than one
// statement under Split's trailing-semicolon gate.
func IsMultiStatement(sql string) bool {
	return len(Split(sql)) > 1
}

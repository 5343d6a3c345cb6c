package params

import (
	"strconv"

	"github.com/rainlanguage/sqlite-web/internal/coordberr"
)

// PlaceholderInfo is the result of scanning one statement for bind markers.
type PlaceholderInfo struct {
	Count    int  // number of distinct positional slots
	Explicit bool // true if any ?N form was used
}

// ScanPlaceholders walks stmt outside string/identifier literals and
// comments, classifying every bind marker against the placeholder policy.
// Named forms (:name, @name, $name) are rejected only by the
// caller (Validate) when parameters are actually supplied — an unparameterized
// statement using named markers as literal text is not this package's concern.
func ScanPlaceholders(stmt string) (PlaceholderInfo, *coordberr.Error) {
	var (
		sawPositional bool
		sawExplicit   bool
		maxIndex      int
		seen          = map[int]bool{}
		positionalN   int
	)

	runes := []rune(stmt)
	i := 0
	n := len(runes)

	for i < n {
		c := runes[i]
		switch {
		case c == '\'' || c == '"':
			quote := c
			i++
			for i < n {
				if runes[i] == quote {
					if i+1 < n && runes[i+1] == quote {
						i += 2
						continue
					}
					i++
					break
				}
				i++
			}
		case c == '-' && i+1 < n && runes[i+1] == '-':
			for i < n && runes[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < n && runes[i+1] == '*':
			i += 2
			for i < n {
				if runes[i] == '*' && i+1 < n && runes[i+1] == '/' {
					i += 2
					break
				}
				i++
			}
		case c == '?':
			i++
			start := i
			for i < n && runes[i] >= '0' && runes[i] <= '9' {
				i++
			}
			if i > start {
				idx, _ := strconv.Atoi(string(runes[start:i]))
				sawExplicit = true
				if idx == 0 {
					return PlaceholderInfo{}, coordberr.New(coordberr.KindInvalidParameterIndex,
						"?0 is not a valid parameter index")
				}
				seen[idx] = true
				if idx > maxIndex {
					maxIndex = idx
				}
			} else {
				sawPositional = true
				positionalN++
			}
		default:
			i++
		}
	}

	if sawPositional && sawExplicit {
		return PlaceholderInfo{}, coordberr.New(coordberr.KindMixedPlaceholderForms,
			"cannot mix ? and ?N placeholder forms in the same statement")
	}

	if sawExplicit {
		for idx := 1; idx <= maxIndex; idx++ {
			if !seen[idx] {
				return PlaceholderInfo{}, coordberr.New(coordberr.KindMissingParameterIndex,
					"explicit parameter indices must not skip a value")
			}
		}
		return PlaceholderInfo{Count: maxIndex, Explicit: true}, nil
	}

	return PlaceholderInfo{Count: positionalN}, nil
}

// containsNamedPlaceholder reports whether stmt has a named placeholder
// form outside quotes: ':', '@' or '$' followed by an identifier character.
func containsNamedPlaceholder(stmt string) bool {
	runes := []rune(stmt)
	i := 0
	n := len(runes)
	for i < n {
		c := runes[i]
		switch {
		case c == '\'' || c == '"':
			quote := c
			i++
			for i < n {
				if runes[i] == quote {
					if i+1 < n && runes[i+1] == quote {
						i += 2
						continue
					}
					i++
					break
				}
				i++
			}
		case c == ':' || c == '@' || c == '$':
			if i+1 < n && isIdentRune(runes[i+1]) {
				return true
			}
			i++
		default:
			i++
		}
	}
	return false
}

func isIdentRune(c rune) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_'
}

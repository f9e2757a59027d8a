package extract

import (
	"regexp"
	"strings"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n`)
	reManyBreaks = regexp.MustCompile(`\n{3,}`)
	reMultiSpace = regexp.MustCompile(`[\s\v\p{Z}\x{FEFF}]{2,}`)
)

// Clean normalizes extracted text before it is analyzed: CRLF becomes LF,
// three or more newlines collapse to two, any run of two or more whitespace
// characters collapses to a single space, and the result is trimmed.
//
// The passes run in that order, so the paragraph breaks left by the second
// pass are themselves collapsed by the third.
func Clean(s string) string {
	if s == "" {
		return s
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reManyBreaks.ReplaceAllString(s, "\n\n")
	s = reMultiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

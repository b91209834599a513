package crawler

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrMalformedToken is returned when a continuation token contains an
// escape sequence that cannot be decoded.
var ErrMalformedToken = errors.New("malformed continuation token")

// TokenExtractor pulls the continuation token out of a raw listing body.
// ("", nil) means the body carries no token, so there are no further pages.
type TokenExtractor interface {
	Extract(body []byte) (string, error)
}

const (
	// quoteEscape is the octal escape for '"' used inside the streamed
	// JavaScript string literal.
	quoteEscape = `\42`

	// tokenMarker appears in every continuation token.
	tokenMarker = ":S:"
)

// streamLiteral matches a single-line JavaScript string literal holding an
// array, terminated by the two characters '\' and 'n': '[ ... ]\n'.
var streamLiteral = regexp.MustCompile(`'\[(.*)\]\\n'`)

// PatternTokenExtractor is the default TokenExtractor.
type PatternTokenExtractor struct{}

// NewTokenExtractor returns the default TokenExtractor.
func NewTokenExtractor() *PatternTokenExtractor {
	return &PatternTokenExtractor{}
}

// Extract finds the streamed array literal, takes the last \42-quoted
// segment containing ":S:", and decodes its escapes.
func (e *PatternTokenExtractor) Extract(body []byte) (string, error) {
	for _, m := range streamLiteral.FindAllSubmatch(body, -1) {
		raw, ok := lastQuotedSegment(string(m[1]))
		if !ok {
			continue
		}
		token, err := decodeToken(raw)
		if err != nil {
			return "", err
		}
		return token, nil
	}
	return "", nil
}

// lastQuotedSegment returns the last segment enclosed by two quote escapes
// that contains the token marker.
func lastQuotedSegment(s string) (string, bool) {
	parts := strings.Split(s, quoteEscape)
	for i := len(parts) - 2; i >= 1; i-- {
		if strings.Contains(parts[i], tokenMarker) {
			return parts[i], true
		}
	}
	return "", false
}

// decodeToken collapses doubled backslashes and then decodes the
// remaining backslash escapes.
func decodeToken(raw string) (string, error) {
	return decodeEscapes(strings.ReplaceAll(raw, `\\`, `\`))
}

// decodeEscapes decodes \uXXXX, \UXXXXXXXX, \xXX, octal \NNN, the single
// character escapes and backslash-newline. Unknown escapes are kept
// verbatim.
func decodeEscapes(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(s) {
			return "", fmt.Errorf("%w: trailing backslash", ErrMalformedToken)
		}
		i++
		e := s[i]
		switch e {
		case '\n':
			// line continuation
		case '\\':
			b.WriteByte('\\')
		case '\'':
			b.WriteByte('\'')
		case '"':
			b.WriteByte('"')
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'v':
			b.WriteByte('\v')
		case 'x', 'u', 'U':
			width := escapeWidth(e)
			if i+1+width > len(s) {
				return "", fmt.Errorf("%w: truncated \\%c escape", ErrMalformedToken, e)
			}
			digits := s[i+1 : i+1+width]
			v, err := strconv.ParseUint(digits, 16, 32)
			if err != nil || v > utf8.MaxRune {
				return "", fmt.Errorf("%w: invalid \\%c%s escape", ErrMalformedToken, e, digits)
			}
			b.WriteRune(rune(v))
			i += width
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			v, _ := strconv.ParseUint(s[i:j], 8, 32)
			b.WriteRune(rune(v))
			i = j - 1
		default:
			b.WriteByte('\\')
			b.WriteByte(e)
		}
	}
	return b.String(), nil
}

// escapeWidth is the number of hex digits following \x, \u and \U.
func escapeWidth(e byte) int {
	switch e {
	case 'x':
		return 2
	case 'u':
		return 4
	default:
		return 8
	}
}

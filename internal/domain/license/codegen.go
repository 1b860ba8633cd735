package license

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// MaskRune is the pattern placeholder replaced by generated characters.
const MaskRune = '#'

// PlaceholderContext carries the batch-invariant values substituted into a
// pattern once per batch, not once per key.
type PlaceholderContext struct {
	ProductID  uint
	ProductSKU string
	Now        time.Time
}

// ExpandPlaceholders substitutes the named placeholders in a pattern:
// {product_id}, {product_sku} and the date/time components {y} {m} {d}
// {h} {i} {s}. Unknown placeholders are left untouched.
func ExpandPlaceholders(pattern string, pc PlaceholderContext) string {
	replacer := strings.NewReplacer(
		"{product_id}", strconv.FormatUint(uint64(pc.ProductID), 10),
		"{product_sku}", pc.ProductSKU,
		"{y}", pc.Now.Format("2006"),
		"{m}", pc.Now.Format("01"),
		"{d}", pc.Now.Format("02"),
		"{h}", pc.Now.Format("15"),
		"{i}", pc.Now.Format("04"),
		"{s}", pc.Now.Format("05"),
	)
	return replacer.Replace(pattern)
}

// MaskCount returns the number of '#' placeholders in a pattern.
func MaskCount(pattern string) int {
	return strings.Count(pattern, string(MaskRune))
}

// FillMask replaces each '#' left to right with one character from chars.
// Characters beyond the mask count are appended at the end; that should not
// happen when chars was sized from MaskCount, but a longer input must not
// be silently dropped.
func FillMask(pattern, chars string) string {
	var b strings.Builder
	b.Grow(len(pattern) + len(chars))

	runes := []rune(chars)
	next := 0
	for _, r := range pattern {
		if r == MaskRune && next < len(runes) {
			b.WriteRune(runes[next])
			next++
			continue
		}
		b.WriteRune(r)
	}
	for ; next < len(runes); next++ {
		b.WriteRune(runes[next])
	}
	return b.String()
}

// RandomChars draws n characters independently and uniformly from charset
// using crypto/rand.
func RandomChars(charset string, n int) (string, error) {
	runes := []rune(charset)
	if len(runes) == 0 {
		return "", ErrEmptyCharset
	}

	max := big.NewInt(int64(len(runes)))
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to draw random character: %w", err)
		}
		b.WriteRune(runes[idx.Int64()])
	}
	return b.String(), nil
}

// SequentialChars renders a counter position as a zero-padded base-10
// string of exactly width characters. Positions that outgrow the width are
// rendered unpadded rather than truncated.
func SequentialChars(position uint64, width int) string {
	s := strconv.FormatUint(position, 10)
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

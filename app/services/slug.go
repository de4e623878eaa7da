package services

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	hyphenRun     = regexp.MustCompile(`-+`)
)

// Slugify lowercases name, drops everything but letters, digits, spaces and
// hyphens, turns whitespace runs into single hyphens and trims hyphens at
// the ends. An empty result becomes fallback.
func Slugify(name, fallback string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '-' {
			b.WriteRune(r)
		}
	}
	s := whitespaceRun.ReplaceAllString(strings.TrimSpace(b.String()), "-")
	s = strings.Trim(hyphenRun.ReplaceAllString(s, "-"), "-")
	if s == "" {
		return fallback
	}
	return s
}

// uniqueSlug appends -1, -2, … to base until taken reports it free.
func uniqueSlug(ctx context.Context, base string, taken func(context.Context, string) (bool, error)) (string, error) {
	slug := base
	for i := 1; ; i++ {
		used, err := taken(ctx, slug)
		if err != nil {
			return "", err
		}
		if !used {
			return slug, nil
		}
		slug = base + "-" + strconv.Itoa(i)
	}
}

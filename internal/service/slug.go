package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const maxSlugAttempts = 1000

// SlugChecker проверяет занятость slug.
type SlugChecker interface {
	SlugExists(ctx context.Context, slug string, exclude uuid.UUID) (bool, error)
}

// Slugify переводит название в slug: строчные a-z, 0-9 и дефисы.
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "provider"
	}
	return slug
}

// uniqueSlug подбирает свободный slug: name, name-1, name-2...
func uniqueSlug(ctx context.Context, checker SlugChecker, name string, exclude uuid.UUID) (string, error) {
	base := Slugify(name)
	candidate := base
	for i := 1; i <= maxSlugAttempts; i++ {
		taken, err := checker.SlugExists(ctx, candidate, exclude)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return fmt.Sprintf("%s-%s", base, uuid.NewString()[:8]), nil
}

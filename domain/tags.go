package domain

import (
	"regexp"
	"strings"
)

// MaxTags is the maximum number of tags on a whisper.
const MaxTags = 5

var hashtagRe = regexp.MustCompile(`(?i)#[a-z0-9_-]+`)

// NormalizeTags lowercases, trims and de-duplicates tags, keeping first-seen order.
// More than MaxTags distinct tags is an error.
func NormalizeTags(in []string) ([]string, error) {
	out := uniqueLower(in)
	if len(out) > MaxTags {
		return nil, ErrTooManyTags
	}
	return out, nil
}

// CoerceTags is the lenient form of NormalizeTags used for server data:
// extra tags are dropped instead of rejected.
func CoerceTags(in []string) []string {
	out := uniqueLower(in)
	if len(out) > MaxTags {
		out = out[:MaxTags]
	}
	return out
}

// SplitContentAndTags pulls #hashtags out of composed text.
func SplitContentAndTags(content string) (string, []string) {
	found := hashtagRe.FindAllString(content, -1)
	tags := uniqueLower(found)
	lines := strings.Split(content, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, ln := range lines {
		line := hashtagRe.ReplaceAllString(ln, "")
		line = strings.Join(strings.Fields(line), " ")
		cleaned = append(cleaned, strings.TrimSpace(line))
	}
	return strings.TrimSpace(strings.Join(cleaned, "\n")), tags
}

func uniqueLower(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		low := strings.ToLower(strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(t), "#")))
		if low == "" {
			continue
		}
		if _, ok := seen[low]; ok {
			continue
		}
		seen[low] = struct{}{}
		out = append(out, low)
	}
	return out
}

package common

import (
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
)

func TestTimeAgo(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cases := map[time.Duration]string{
		10 * time.Second: "just now",
		5 * time.Minute:  "5m ago",
		3 * time.Hour:    "3h ago",
		50 * time.Hour:   "2d ago",
	}
	for d, want := range cases {
		if got := TimeAgo(now.Add(-d), now); got != want {
			t.Fatalf("TimeAgo(-%s) = %q, want %q", d, got, want)
		}
	}
	if got := TimeAgo(time.Time{}, now); got != "" {
		t.Fatalf("zero time should render empty, got %q", got)
	}
}

func TestTruncate_RespectsDisplayWidth(t *testing.T) {
	got := Truncate("hello world", 6)
	if ansi.StringWidth(got) > 6 {
		t.Fatalf("truncated width %d exceeds 6: %q", ansi.StringWidth(got), got)
	}
	if got := Truncate("hi", 6); got != "hi" {
		t.Fatalf("short strings must be untouched, got %q", got)
	}
	if got := Truncate("hi", 0); got != "" {
		t.Fatalf("zero width should render empty, got %q", got)
	}
}

func TestPlural(t *testing.T) {
	if got := Plural(1, "comment"); got != "1 comment" {
		t.Fatalf("unexpected %q", got)
	}
	if got := Plural(3, "like"); got != "3 likes" {
		t.Fatalf("unexpected %q", got)
	}
}

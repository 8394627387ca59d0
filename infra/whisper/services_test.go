package whisper

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/CrestNiraj12/whispernet/domain"
)

func TestCommentService_CreateReply_SendsParentAndMapsResponse(t *testing.T) {
	var gotBody map[string]any
	var gotPath string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"comment":{"_id":"srv42","body":"hello","username":"KindPanda"}}`))
	})
	svc := NewCommentService(newTestClient(h))

	c, err := svc.CreateComment(context.Background(), domain.CommentDraft{MessageID: "m1", ParentID: "c1", Content: "  hello "})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if gotPath != "/comments" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if gotBody["content"] != "hello" || gotBody["post_id"] != "m1" || gotBody["parent_id"] != "c1" {
		t.Fatalf("unexpected body %v", gotBody)
	}
	if c.ID != "srv42" || c.ParentID != "c1" || c.MessageID != "m1" || c.Author != "KindPanda" {
		t.Fatalf("unexpected comment %+v", c)
	}
}

func TestCommentService_CreateWithoutIDIsParseError(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	_, err := NewCommentService(newTestClient(h)).CreateComment(context.Background(), domain.CommentDraft{MessageID: "m1", Content: "x"})
	if !errors.Is(err, domain.ErrParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestCommentService_CreateValidatesBeforeSending(t *testing.T) {
	var calls int
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ })
	_, err := NewCommentService(newTestClient(h)).CreateComment(context.Background(), domain.CommentDraft{MessageID: "m1", Content: "   "})
	if !errors.Is(err, domain.ErrEmptyContent) || calls != 0 {
		t.Fatalf("expected local validation failure without request, err=%v calls=%d", err, calls)
	}
}

func TestCommentService_ListFillsMessageID(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"c1","content":"a","replies":[{"id":"r1","content":"b"}]}]`))
	})
	got, err := NewCommentService(newTestClient(h)).ListComments(context.Background(), "m9")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got) != 1 || got[0].MessageID != "m9" || len(got[0].Replies) != 1 {
		t.Fatalf("unexpected comments %+v", got)
	}
}

func TestMessageService_CreateFillsDraftDefaults(t *testing.T) {
	var gotBody map[string]any
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"id":"m7","user_id":"u1","username":"KindPanda"}`))
	})
	msg, err := NewMessageService(newTestClient(h)).CreateMessage(context.Background(), domain.MessageDraft{
		Content: "hot take",
		Tags:    []string{"Food"},
		Mode:    domain.ModeUnhinged,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if gotBody["is_approved"] != string(domain.ModerationApproved) || gotBody["mode"] != string(domain.ModeUnhinged) {
		t.Fatalf("unexpected body %v", gotBody)
	}
	if msg.ID != "m7" || msg.Content != "hot take" || msg.Mode != domain.ModeUnhinged || msg.Status != domain.ModerationApproved {
		t.Fatalf("unexpected message %+v", msg)
	}
	if len(msg.Tags) != 1 || msg.Tags[0] != "food" {
		t.Fatalf("tags must come from the draft: %v", msg.Tags)
	}
}

func TestMessageService_ReportFallsBackToPatch(t *testing.T) {
	var seen hits
	var patchBody map[string]any
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.add(r)
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&patchBody)
		w.WriteHeader(http.StatusNoContent)
	})
	if err := NewMessageService(newTestClient(h)).ReportMessage(context.Background(), "m1", ""); err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if got := strings.Join(seen.list(), "|"); got != "POST /posts/m1/report|PATCH /posts/m1" {
		t.Fatalf("unexpected requests %s", got)
	}
	if patchBody["reported"] != true || patchBody["report_reason"] != "user_report" {
		t.Fatalf("unexpected patch body %v", patchBody)
	}
}

func TestMessageService_LikeWithoutCountIsNotAuthoritative(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	res, err := NewMessageService(newTestClient(h)).LikeMessage(context.Background(), "m1", false)
	if err != nil {
		t.Fatalf("like failed: %v", err)
	}
	if res.Authoritative {
		t.Fatalf("empty response must not be authoritative: %+v", res)
	}
}

func TestAccountService_ProfilesFallsBackToPerID(t *testing.T) {
	var seen hits
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.add(r)
		switch r.URL.Path {
		case "/profiles/u1":
			_, _ = w.Write([]byte(`{"user_id":"u1","display_name":"KindPanda"}`))
		case "/profiles/u2":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	got, err := NewAccountService(newTestClient(h)).Profiles(context.Background(), []string{"u1", "u2", "u1", ""})
	if err != nil {
		t.Fatalf("profiles failed: %v", err)
	}
	if len(got) != 1 || got["u1"].DisplayName != "KindPanda" {
		t.Fatalf("unexpected profiles %+v", got)
	}
	want := "GET /profiles?ids=u1%2Cu2|GET /users/profiles?ids=u1%2Cu2|GET /profiles/u1|GET /profiles/u2"
	if joined := strings.Join(seen.list(), "|"); joined != want {
		t.Fatalf("unexpected requests\ngot:  %s\nwant: %s", joined, want)
	}
}

func TestAccountService_LeaderboardSortedByScore(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"user_id":"a","display_name":"A","messages_posted":1,"total_likes_received":0},
			{"user_id":"b","display_name":"B","messages_posted":30,"total_likes_received":10}
		]`))
	})
	got, err := NewAccountService(newTestClient(h)).Leaderboard(context.Background())
	if err != nil {
		t.Fatalf("leaderboard failed: %v", err)
	}
	if len(got) != 2 || got[0].UserID != "b" || got[0].Score != 320 || got[0].Badge != domain.BadgeGold {
		t.Fatalf("unexpected rankings %+v", got)
	}
}

func TestAccountService_CurrentProfileRequiresID(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"user":{"display_name":"Ghost"}}`))
	})
	_, err := NewAccountService(newTestClient(h)).CurrentProfile(context.Background())
	if !errors.Is(err, domain.ErrParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestFallback_RankingsDerivedFromMessages(t *testing.T) {
	f := NewFallback()
	r := f.Rankings()
	if len(r) != 3 || r[0].DisplayName != "GentleOwl" {
		t.Fatalf("unexpected fallback rankings %+v", r)
	}
	if c := f.Comments("1"); len(c) != 2 || c[0].MessageID != "1" {
		t.Fatalf("unexpected fallback comments %+v", c)
	}
}

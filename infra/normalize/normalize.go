// Package normalize turns loosely shaped backend responses into domain entities.
//
// The backend is not consistent about field names or envelopes: the same
// comment may arrive with "id" or "_id", "content" or "body", "likes_count" or
// "likes". Every entity function applies a fixed precedence per field and
// never fails; only Decode and Items report ErrParse.
package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/x/ansi"
	"github.com/google/uuid"
	"github.com/kaptinlin/jsonrepair"

	"github.com/CrestNiraj12/whispernet/domain"
)

// envelopeKeys are the object keys a list response may be wrapped in.
var envelopeKeys = []string{
	"comments", "messages", "posts", "data", "items", "results",
	"users", "profiles", "leaderboard",
}

// now is replaced in tests.
var now = time.Now

// Decode parses a response body. Malformed JSON objects and arrays are passed
// through jsonrepair once before giving up. An empty body decodes to nil.
func Decode(data []byte) (any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	v, err := decodeStrict(trimmed)
	if err == nil {
		return v, nil
	}
	if trimmed[0] != '{' && trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	repaired, rerr := jsonrepair.JSONRepair(string(trimmed))
	if rerr != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	v, err = decodeStrict([]byte(repaired))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	return v, nil
}

func decodeStrict(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after JSON value")
	}
	return v, nil
}

// Items extracts a list of objects from a bare array or an envelope object.
// keys are tried before the default envelope names. Non-object array
// elements are skipped.
func Items(v any, keys ...string) ([]map[string]any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []any:
		return objects(t), nil
	case map[string]any:
		for _, k := range slices.Concat(keys, envelopeKeys) {
			if inner, ok := t[k]; ok {
				if arr, ok := inner.([]any); ok {
					return objects(arr), nil
				}
				if obj, ok := inner.(map[string]any); ok {
					// {"data": {"comments": [...]}}
					return Items(obj, keys...)
				}
			}
		}
		return nil, fmt.Errorf("%w: no list in response object", domain.ErrParse)
	default:
		return nil, fmt.Errorf("%w: expected list, got %T", domain.ErrParse, v)
	}
}

// Object returns v as a single entity object, unwrapping a one-level
// envelope such as {"data": {...}} or {"comment": {...}}.
func Object(v any, keys ...string) (map[string]any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected object, got %T", domain.ErrParse, v)
	}
	for _, k := range slices.Concat(keys, []string{"data"}) {
		if inner, ok := obj[k].(map[string]any); ok {
			return inner, nil
		}
	}
	return obj, nil
}

func objects(arr []any) []map[string]any {
	out := make([]map[string]any, 0, len(arr))
	for _, el := range arr {
		if m, ok := el.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// Message normalizes a whisper object.
func Message(raw map[string]any) domain.Message {
	m := domain.Message{
		ID:            firstString(raw, "id", "_id"),
		UserID:        firstString(raw, "user_id", "userId", "author_id"),
		Author:        Text(firstString(raw, "username", "display_name", "author_name")),
		WhisperID:     Text(firstString(raw, "whisper_id")),
		Content:       Text(firstString(raw, "content", "body", "text")),
		Mode:          domain.Mode(strings.ToLower(firstString(raw, "mode"))),
		Status:        moderation(raw),
		Tags:          domain.CoerceTags(stringList(raw["tags"])),
		LikesCount:    firstCount(raw, "likes_count", "likes"),
		CommentsCount: firstCount(raw, "comments_count", "comment_count", "replies_count"),
		CreatedAt:     firstTime(raw, "created_date", "created_at", "timestamp"),
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Author == "" {
		m.Author = domain.AnonymousAuthor
	}
	if m.Mode != domain.ModeUnhinged {
		m.Mode = domain.ModePositive
	}
	if liked, ok := raw["liked"].(bool); ok {
		m.Liked = liked
	}
	return m
}

// Messages normalizes every object of a list response.
func Messages(v any) ([]domain.Message, error) {
	items, err := Items(v, "messages", "posts")
	if err != nil {
		return nil, err
	}
	out := make([]domain.Message, 0, len(items))
	for _, it := range items {
		out = append(out, Message(it))
	}
	return out, nil
}

// Comment normalizes a comment object and its replies, recursively.
func Comment(raw map[string]any) domain.Comment {
	c := domain.Comment{
		ID:         firstString(raw, "id", "_id"),
		MessageID:  firstString(raw, "post_id", "message_id", "postId"),
		ParentID:   firstString(raw, "parent_id", "parentId"),
		Author:     Text(firstString(raw, "username", "display_name", "author_name")),
		Content:    Text(firstString(raw, "content", "body", "text")),
		LikesCount: firstCount(raw, "likes_count", "likes"),
		CreatedAt:  firstTime(raw, "created_date", "created_at", "timestamp"),
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Author == "" {
		c.Author = domain.AnonymousAuthor
	}
	if liked, ok := raw["liked"].(bool); ok {
		c.Liked = liked
	}
	replies, ok := raw["replies"].([]any)
	if !ok {
		replies, _ = raw["children"].([]any)
	}
	for _, r := range objects(replies) {
		child := Comment(r)
		if child.ParentID == "" {
			child.ParentID = c.ID
		}
		if child.MessageID == "" {
			child.MessageID = c.MessageID
		}
		c.Replies = append(c.Replies, child)
	}
	return c
}

// Comments normalizes a comment list response.
func Comments(v any) ([]domain.Comment, error) {
	items, err := Items(v, "comments")
	if err != nil {
		return nil, err
	}
	out := make([]domain.Comment, 0, len(items))
	for _, it := range items {
		out = append(out, Comment(it))
	}
	return out, nil
}

// Ranking normalizes a leaderboard row. Score and badge are always derived
// from the counts when the counts are present.
func Ranking(raw map[string]any) domain.RankingEntry {
	r := domain.RankingEntry{
		UserID:         firstString(raw, "id", "user_id", "_id", "userId"),
		DisplayName:    Text(firstString(raw, "display_name", "name", "username")),
		MessagesPosted: firstCount(raw, "messages_posted", "messagesCount", "messages"),
		TotalLikes:     firstCount(raw, "total_likes_received", "likes"),
	}
	if r.DisplayName == "" {
		r.DisplayName = strings.TrimSpace("User " + lastN(r.UserID, 4))
	}
	if r.UserID == "" {
		r.UserID = uuid.NewString()
	}
	if r.MessagesPosted > 0 || r.TotalLikes > 0 {
		r.Score = domain.PopularityScore(r.MessagesPosted, r.TotalLikes)
	} else {
		r.Score = firstCount(raw, "popularity_score", "popularity", "score")
	}
	r.Badge = domain.BadgeForScore(r.Score)
	return r
}

// Rankings normalizes a leaderboard response.
func Rankings(v any) ([]domain.RankingEntry, error) {
	items, err := Items(v, "leaderboard", "users", "profiles")
	if err != nil {
		return nil, err
	}
	out := make([]domain.RankingEntry, 0, len(items))
	for _, it := range items {
		out = append(out, Ranking(it))
	}
	return out, nil
}

// Profile normalizes a user object.
func Profile(raw map[string]any) domain.Profile {
	return domain.Profile{
		UserID:      firstString(raw, "user_id", "id", "_id", "userId"),
		Username:    Text(firstString(raw, "username", "handle")),
		DisplayName: Text(firstString(raw, "display_name", "name", "full_name")),
	}
}

// Profiles normalizes a bulk profile response into a map keyed by user id.
// Besides lists and envelopes it accepts an object keyed by user id, e.g.
// {"user1": {"display_name": "KindPanda"}}.
func Profiles(v any) (map[string]domain.Profile, error) {
	items, err := Items(v, "profiles", "users")
	if err != nil {
		keyed, ok := byUserID(v)
		if !ok {
			return nil, err
		}
		return keyed, nil
	}
	out := make(map[string]domain.Profile, len(items))
	for _, it := range items {
		p := Profile(it)
		if p.UserID != "" {
			out[p.UserID] = p
		}
	}
	return out, nil
}

func byUserID(v any) (map[string]domain.Profile, bool) {
	obj, ok := v.(map[string]any)
	if !ok || len(obj) == 0 {
		return nil, false
	}
	out := make(map[string]domain.Profile, len(obj))
	for id, el := range obj {
		raw, ok := el.(map[string]any)
		if !ok {
			return nil, false
		}
		p := Profile(raw)
		if p.UserID == "" {
			p.UserID = id
		}
		out[id] = p
	}
	return out, true
}

// LikeCount returns the authoritative likes_count of a like response.
func LikeCount(v any) (int, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return 0, false
	}
	if inner, ok := obj["data"].(map[string]any); ok {
		obj = inner
	}
	raw, ok := obj["likes_count"]
	if !ok {
		return 0, false
	}
	return count(raw)
}

// HasID reports whether raw carries a server identifier.
func HasID(raw map[string]any) bool {
	return firstString(raw, "id", "_id") != ""
}

// Text makes user-supplied text safe to print in a terminal: escape
// sequences and control characters other than newline and tab are removed.
func Text(s string) string {
	s = ansi.Strip(s)
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

func firstString(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := raw[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func firstCount(raw map[string]any, keys ...string) int {
	for _, k := range keys {
		if n, ok := count(raw[k]); ok {
			return n
		}
	}
	return 0
}

// count accepts numbers, json.Number and numeric strings. Negatives clamp to 0.
func count(v any) (int, bool) {
	var f float64
	switch t := v.(type) {
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = t
	case int:
		f = float64(t)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	switch {
	case math.IsNaN(f), math.IsInf(f, 0), f < 0:
		return 0, true
	case f >= float64(math.MaxInt):
		return math.MaxInt, true
	}
	return int(f), true
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func firstTime(raw map[string]any, keys ...string) time.Time {
	for _, k := range keys {
		switch v := raw[k].(type) {
		case string:
			for _, layout := range timeLayouts {
				if ts, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
					return ts
				}
			}
		case json.Number, float64:
			n, ok := count(v)
			if !ok || n == 0 {
				continue
			}
			// Epoch milliseconds or seconds.
			if n > 1e12 {
				return time.UnixMilli(int64(n))
			}
			return time.Unix(int64(n), 0)
		}
	}
	return now()
}

func moderation(raw map[string]any) domain.Moderation {
	for _, k := range []string{"is_approved", "status"} {
		switch v := raw[k].(type) {
		case string:
			switch st := domain.Moderation(strings.ToLower(strings.TrimSpace(v))); st {
			case domain.ModerationApproved, domain.ModerationRejected, domain.ModerationPending:
				return st
			}
		case bool:
			if v {
				return domain.ModerationApproved
			}
			return domain.ModerationPending
		}
	}
	return domain.ModerationApproved
}

func stringList(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, el := range t {
			if s, ok := el.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return strings.FieldsFunc(t, func(r rune) bool { return r == ',' || r == ' ' })
	}
	return nil
}

func lastN(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

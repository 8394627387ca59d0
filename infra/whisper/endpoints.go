package whisper

import (
	"net/http"
	"net/url"
	"strings"
)

// Intent names one logical backend operation.
type Intent string

const (
	IntentListMessages   Intent = "messages.list"
	IntentSearchMessages Intent = "messages.search"
	IntentCreateMessage  Intent = "messages.create"
	IntentLikeMessage    Intent = "messages.like"
	IntentReportMessage  Intent = "messages.report"
	IntentListComments   Intent = "comments.list"
	IntentCreateComment  Intent = "comments.create"
	IntentLikeComment    Intent = "comments.like"
	IntentCurrentUser    Intent = "users.me"
	IntentBulkProfiles   Intent = "profiles.bulk"
	IntentProfile        Intent = "profiles.one"
	IntentRankings       Intent = "rankings.list"
)

// Params fills the {name} placeholders of a strategy path.
type Params map[string]string

// Strategy is one way of serving an intent.
//
// Path is a template such as "/posts/{id}/comments?limit={limit}".
// Placeholders before '?' are path-escaped, those after it query-escaped.
// Payload, when set, rewrites the request body for this endpoint.
type Strategy struct {
	Method  string
	Path    string
	Payload func(p Params, body any) any
}

func (s Strategy) expand(p Params) string {
	path, query, hasQuery := strings.Cut(s.Path, "?")
	out := fill(path, p, url.PathEscape)
	if hasQuery {
		out += "?" + fill(query, p, url.QueryEscape)
	}
	return out
}

func fill(tmpl string, p Params, escape func(string) string) string {
	var b strings.Builder
	for {
		start := strings.IndexByte(tmpl, '{')
		if start < 0 {
			b.WriteString(tmpl)
			return b.String()
		}
		end := strings.IndexByte(tmpl[start:], '}')
		if end < 0 {
			b.WriteString(tmpl)
			return b.String()
		}
		b.WriteString(tmpl[:start])
		b.WriteString(escape(p[tmpl[start+1:start+end]]))
		tmpl = tmpl[start+end+1:]
	}
}

// DefaultStrategies returns the ordered endpoint list of every intent.
func DefaultStrategies() map[Intent][]Strategy {
	return map[Intent][]Strategy{
		IntentListMessages: {
			{Method: http.MethodGet, Path: "/posts?limit={limit}&sort={sort}"},
			{Method: http.MethodGet, Path: "/messages?limit={limit}&sort={sort}"},
		},
		IntentSearchMessages: {
			{Method: http.MethodGet, Path: "/posts?search={q}&limit={limit}"},
			{Method: http.MethodGet, Path: "/search?q={q}&limit={limit}"},
		},
		IntentCreateMessage: {
			{Method: http.MethodPost, Path: "/posts"},
			{Method: http.MethodPost, Path: "/messages"},
		},
		IntentLikeMessage: {
			{Method: http.MethodPost, Path: "/posts/{id}/like"},
			{Method: http.MethodPost, Path: "/messages/{id}/like"},
		},
		IntentReportMessage: {
			{Method: http.MethodPost, Path: "/posts/{id}/report"},
			{Method: http.MethodPatch, Path: "/posts/{id}", Payload: func(_ Params, body any) any {
				reason := ""
				if m, ok := body.(map[string]any); ok {
					reason, _ = m["reason"].(string)
				}
				return map[string]any{"reported": true, "report_reason": reason}
			}},
		},
		IntentListComments: {
			{Method: http.MethodGet, Path: "/posts/{post}/comments?limit=200"},
			{Method: http.MethodGet, Path: "/comments?post_id={post}&limit=200"},
		},
		IntentCreateComment: {
			{Method: http.MethodPost, Path: "/comments"},
			{Method: http.MethodPost, Path: "/posts/{post}/comments"},
		},
		IntentLikeComment: {
			{Method: http.MethodPost, Path: "/comments/{id}/like"},
		},
		IntentCurrentUser: {
			{Method: http.MethodGet, Path: "/me"},
			{Method: http.MethodGet, Path: "/users/me"},
		},
		IntentBulkProfiles: {
			{Method: http.MethodGet, Path: "/profiles?ids={ids}"},
			{Method: http.MethodGet, Path: "/users/profiles?ids={ids}"},
		},
		IntentProfile: {
			{Method: http.MethodGet, Path: "/profiles/{id}"},
		},
		IntentRankings: {
			{Method: http.MethodGet, Path: "/users/profiles?sort=-popularity_score"},
			{Method: http.MethodGet, Path: "/leaderboard"},
		},
	}
}

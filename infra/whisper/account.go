package whisper

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/CrestNiraj12/whispernet/domain"
	"github.com/CrestNiraj12/whispernet/infra/normalize"
)

// accountService implements app.AccountService using the WhisperNet API.
type accountService struct {
	client *Client
}

// NewAccountService creates an AccountService backed by the REST API.
func NewAccountService(client *Client) *accountService {
	return &accountService{client: client}
}

func (s *accountService) CurrentProfile(ctx context.Context) (domain.Profile, error) {
	v, err := s.client.Resolve(ctx, IntentCurrentUser, nil, nil)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("fetching account: %w", err)
	}
	raw, err := normalize.Object(v, "user", "profile")
	if err != nil {
		return domain.Profile{}, fmt.Errorf("fetching account: %w", err)
	}
	p := normalize.Profile(raw)
	if p.UserID == "" {
		return domain.Profile{}, fmt.Errorf("fetching account: %w: response has no user id", domain.ErrParse)
	}
	return p, nil
}

// Profiles tries the bulk endpoints first. When every bulk endpoint rejects
// the request, each id is fetched on its own; ids the server rejects are
// left out of the result.
func (s *accountService) Profiles(ctx context.Context, userIDs []string) (map[string]domain.Profile, error) {
	ids := uniqueIDs(userIDs)
	if len(ids) == 0 {
		return map[string]domain.Profile{}, nil
	}

	v, err := s.client.Resolve(ctx, IntentBulkProfiles, Params{"ids": strings.Join(ids, ",")}, nil)
	if err == nil {
		profiles, perr := normalize.Profiles(v)
		if perr != nil {
			return nil, fmt.Errorf("resolving profiles: %w", perr)
		}
		return profiles, nil
	}
	if !errors.Is(err, domain.ErrServerRejected) {
		return nil, fmt.Errorf("resolving profiles: %w", err)
	}

	out := make(map[string]domain.Profile, len(ids))
	for _, id := range ids {
		v, err := s.client.Resolve(ctx, IntentProfile, Params{"id": id}, nil)
		if errors.Is(err, domain.ErrServerRejected) {
			continue
		}
		if err != nil {
			return out, fmt.Errorf("resolving profile %s: %w", id, err)
		}
		raw, err := normalize.Object(v, "profile", "user")
		if err != nil {
			continue
		}
		p := normalize.Profile(raw)
		if p.UserID == "" {
			p.UserID = id
		}
		out[p.UserID] = p
	}
	return out, nil
}

func (s *accountService) Leaderboard(ctx context.Context) ([]domain.RankingEntry, error) {
	v, err := s.client.Resolve(ctx, IntentRankings, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("loading rankings: %w", err)
	}
	entries, err := normalize.Rankings(v)
	if err != nil {
		return nil, fmt.Errorf("loading rankings: %w", err)
	}
	domain.SortRankings(entries)
	return entries, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

package domain

import "sort"

// Badge is the contributor tier derived from a popularity score.
type Badge string

const (
	BadgeNone     Badge = ""
	BadgeBronze   Badge = "bronze"
	BadgeSilver   Badge = "silver"
	BadgeGold     Badge = "gold"
	BadgePlatinum Badge = "platinum"
)

// RankingEntry is one row of the leaderboard.
type RankingEntry struct {
	UserID         string `json:"user_id"`
	DisplayName    string `json:"display_name"`
	MessagesPosted int    `json:"messages_posted"`
	TotalLikes     int    `json:"total_likes_received"`
	Score          int    `json:"popularity_score"`
	Badge          Badge  `json:"kindness_badge"`
}

// EntityID implements the cache key contract.
func (r RankingEntry) EntityID() string { return r.UserID }

// PopularityScore weighs posted whispers and received likes.
func PopularityScore(messagesPosted, totalLikes int) int {
	return messagesPosted*10 + totalLikes*2
}

// BadgeForScore maps a score onto its tier.
func BadgeForScore(score int) Badge {
	switch {
	case score >= 500:
		return BadgePlatinum
	case score >= 200:
		return BadgeGold
	case score >= 50:
		return BadgeSilver
	case score >= 10:
		return BadgeBronze
	default:
		return BadgeNone
	}
}

// SortRankings orders entries by score, highest first. Ties keep their order.
func SortRankings(entries []RankingEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
}

// DeriveRankings builds a leaderboard from approved whispers, highest score first.
func DeriveRankings(msgs []Message) []RankingEntry {
	byUser := map[string]int{}
	var out []RankingEntry
	for _, m := range msgs {
		if m.Status != ModerationApproved {
			continue
		}
		key := m.UserID
		if key == "" {
			key = m.Author
		}
		i, ok := byUser[key]
		if !ok {
			i = len(out)
			byUser[key] = i
			out = append(out, RankingEntry{UserID: key, DisplayName: m.Author})
		}
		out[i].MessagesPosted++
		out[i].TotalLikes += m.LikesCount
	}
	for i := range out {
		out[i].Score = PopularityScore(out[i].MessagesPosted, out[i].TotalLikes)
		out[i].Badge = BadgeForScore(out[i].Score)
	}
	SortRankings(out)
	return out
}

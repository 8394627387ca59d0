package domain

import "math/rand/v2"

// Profile is the identity of a user as shown next to their content.
type Profile struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// Name returns the best label for the profile.
func (p Profile) Name() string {
	switch {
	case p.DisplayName != "":
		return p.DisplayName
	case p.Username != "":
		return p.Username
	default:
		return "You"
	}
}

var (
	nameAdjectives = []string{"Kind", "Brave", "Gentle", "Bright", "Happy", "Calm", "Sweet", "Clever", "Wise", "Cool"}
	nameAnimals    = []string{"Panda", "Dolphin", "Butterfly", "Owl", "Rabbit", "Fox", "Bird", "Cat", "Lion", "Tiger"}
)

// AnonymousName picks a pseudonym such as "GentleOwl".
// A nil rng uses the global source.
func AnonymousName(rng *rand.Rand) string {
	pick := rand.IntN
	if rng != nil {
		pick = rng.IntN
	}
	return nameAdjectives[pick(len(nameAdjectives))] + nameAnimals[pick(len(nameAnimals))]
}

package domain

import "strings"

// Profile bounds.
const (
	MinAge    = 13
	MinSkills = 1
	MaxSkills = 10
)

// Social link keys.
const (
	SocialInstagram = "instagram"
	SocialLinkedIn  = "linkedin"
)

// User is the backend's user record as seen by the onboarding service.
// ProfileCompleted is computed by the backend and never derived locally.
type User struct {
	ID               string            `json:"id"`
	Phone            string            `json:"phone"`
	Name             string            `json:"name,omitempty"`
	Age              *int              `json:"age,omitempty"`
	Location         string            `json:"location,omitempty"`
	Bio              string            `json:"bio,omitempty"`
	Skills           []string          `json:"skills,omitempty"`
	SocialLinks      map[string]string `json:"social_links,omitempty"`
	PhotoURL         string            `json:"photo_url,omitempty"`
	LinkedInVerified bool              `json:"linkedin_verified"`
	ProfileCompleted bool              `json:"profile_completed"`
}

// Instagram returns the trimmed Instagram handle, if any.
func (u *User) Instagram() string {
	if u == nil || u.SocialLinks == nil {
		return ""
	}
	return strings.TrimSpace(u.SocialLinks[SocialInstagram])
}

// ProfileSeed carries the first-pass profile fields sent atomically with
// the OTP exchange for a brand-new user.
type ProfileSeed struct {
	Name      string `json:"name,omitempty"`
	Age       *int   `json:"age,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
}

// Empty reports whether the seed carries no field at all.
func (s *ProfileSeed) Empty() bool {
	return s == nil || (s.Name == "" && s.Age == nil && s.Instagram == "" && s.LinkedIn == "")
}

// ProfileUpdate is the body of a profile save.
type ProfileUpdate struct {
	Name        string            `json:"name"`
	Age         int               `json:"age"`
	Location    string            `json:"location"`
	Bio         string            `json:"bio"`
	Skills      []string          `json:"skills"`
	SocialLinks map[string]string `json:"social_links,omitempty"`
	PhotoURL    string            `json:"photo_url,omitempty"`
}

// ExchangeResult is the outcome of a successful OTP exchange.
type ExchangeResult struct {
	Token     string `json:"token"`
	User      *User  `json:"user"`
	IsNewUser bool   `json:"is_new_user"`
}

// ExternalProof is a LinkedIn verification carried back by the OAuth redirect.
type ExternalProof struct {
	VerificationID string `json:"verification_id"`
	DisplayName    string `json:"display_name,omitempty"`
	Consumed       bool   `json:"consumed"`
}

// Theme is the persisted colour scheme preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

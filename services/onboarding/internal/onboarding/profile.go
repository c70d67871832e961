package onboarding

import (
	"strings"

	apperrors "github.com/linkwise/linkwise/pkg/errors"
	"github.com/linkwise/linkwise/pkg/validator"
	"github.com/linkwise/linkwise/services/onboarding/internal/domain"
)

// ProfileDraft holds the profile fields typed so far. It survives the
// LinkedIn redirect because it lives with the flow, not in the browser.
type ProfileDraft struct {
	Name      string   `json:"name"`
	Age       *int     `json:"age,omitempty"`
	Location  string   `json:"location"`
	Bio       string   `json:"bio"`
	Skills    []string `json:"skills"`
	Instagram string   `json:"instagram"`
	PhotoURL  string   `json:"photo_url,omitempty"`
}

// normalizedSkills trims, drops empties and removes case-insensitive duplicates.
func normalizedSkills(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		k := strings.ToLower(s)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}

type profileCheck struct {
	field   string
	value   any
	tag     string
	message string
}

// Validate runs the ordered profile checks and returns the first failure as
// a single FormatError. linkedInVerified counts as a trust proof.
func (d ProfileDraft) Validate(linkedInVerified bool) error {
	age := -1
	if d.Age != nil {
		age = *d.Age
	}
	trust := ""
	if linkedInVerified {
		trust = "linkedin"
	} else {
		trust = strings.TrimSpace(d.Instagram)
	}
	skills := normalizedSkills(d.Skills)

	checks := []profileCheck{
		{"name", strings.TrimSpace(d.Name), "required", "please enter your name"},
		{"age", age, "gte=0", "please enter your age"},
		{"age", age, "gte=13", "you must be at least 13 years old"},
		{"location", strings.TrimSpace(d.Location), "required", "please enter your location"},
		{"trust", trust, "required", "verify with LinkedIn or add your Instagram handle"},
		{"bio", strings.TrimSpace(d.Bio), "required", "please write a short bio"},
		{"skills", skills, "min=1", "add at least one skill"},
		{"skills", skills, "max=10", "you can add up to 10 skills"},
	}
	for _, c := range checks {
		if err := validator.Var(c.field, c.value, c.tag); err != nil {
			return apperrors.Format(c.message)
		}
	}
	return nil
}

// Update converts a validated draft to the backend update body.
func (d ProfileDraft) Update() domain.ProfileUpdate {
	u := domain.ProfileUpdate{
		Name:     strings.TrimSpace(d.Name),
		Location: strings.TrimSpace(d.Location),
		Bio:      strings.TrimSpace(d.Bio),
		Skills:   normalizedSkills(d.Skills),
		PhotoURL: d.PhotoURL,
	}
	if d.Age != nil {
		u.Age = *d.Age
	}
	if ig := strings.TrimSpace(d.Instagram); ig != "" {
		u.SocialLinks = map[string]string{domain.SocialInstagram: ig}
	}
	return u
}

// merge overlays non-empty fields of in onto d.
func (d ProfileDraft) merge(in ProfileDraft) ProfileDraft {
	if in.Name != "" {
		d.Name = in.Name
	}
	if in.Age != nil {
		age := *in.Age
		d.Age = &age
	}
	if in.Location != "" {
		d.Location = in.Location
	}
	if in.Bio != "" {
		d.Bio = in.Bio
	}
	if in.Skills != nil {
		d.Skills = append([]string(nil), in.Skills...)
	}
	if in.Instagram != "" {
		d.Instagram = in.Instagram
	}
	if in.PhotoURL != "" {
		d.PhotoURL = in.PhotoURL
	}
	return d
}

// prefill seeds empty draft fields from the server record.
func (d ProfileDraft) prefill(u *domain.User) ProfileDraft {
	if u == nil {
		return d
	}
	if d.Name == "" {
		d.Name = u.Name
	}
	if d.Age == nil && u.Age != nil {
		age := *u.Age
		d.Age = &age
	}
	if d.Location == "" {
		d.Location = u.Location
	}
	if d.Bio == "" {
		d.Bio = u.Bio
	}
	if len(d.Skills) == 0 && len(u.Skills) > 0 {
		d.Skills = append([]string(nil), u.Skills...)
	}
	if d.Instagram == "" {
		d.Instagram = u.Instagram()
	}
	if d.PhotoURL == "" {
		d.PhotoURL = u.PhotoURL
	}
	return d
}

func (d ProfileDraft) seed() *domain.ProfileSeed {
	s := &domain.ProfileSeed{
		Name:      strings.TrimSpace(d.Name),
		Instagram: strings.TrimSpace(d.Instagram),
	}
	if d.Age != nil {
		age := *d.Age
		s.Age = &age
	}
	if s.Empty() {
		return nil
	}
	return s
}

package domain

import "fmt"

// Step is the onboarding wizard position. The zero value is not a valid step.
type Step int

const (
	StepPhone Step = iota + 1
	StepOtp
	StepProfile
	StepSuccess
)

var stepNames = map[Step]string{
	StepPhone:   "phone",
	StepOtp:     "otp",
	StepProfile: "profile",
	StepSuccess: "success",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Valid reports whether s is one of the four wizard steps.
func (s Step) Valid() bool {
	_, ok := stepNames[s]
	return ok
}

// Terminal reports whether no further transition leaves s.
func (s Step) Terminal() bool {
	return s == StepSuccess
}

// MarshalText renders the step name for JSON snapshots.
func (s Step) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid step %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText parses a step name.
func (s *Step) UnmarshalText(b []byte) error {
	for step, name := range stepNames {
		if name == string(b) {
			*s = step
			return nil
		}
	}
	return fmt.Errorf("unknown step %q", string(b))
}

// CanGoBack reports whether the wizard allows a backward move from s, and to where.
func (s Step) CanGoBack() (Step, bool) {
	switch s {
	case StepOtp:
		return StepPhone, true
	case StepProfile:
		return StepOtp, true
	default:
		return 0, false
	}
}

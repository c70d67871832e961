// Package resume reads the one-shot LinkedIn OAuth redirect parameters.
// Parse is pure; Strip is the separate side effect of cleaning the address.
package resume

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/linkwise/linkwise/services/onboarding/internal/domain"
)

// Redirect query parameters.
const (
	ParamVerified       = "linkedin_verified"
	ParamVerificationID = "verification_id"
	ParamName           = "linkedin_name"
	ParamError          = "linkedin_error"
)

var oneShotParams = []string{ParamVerified, ParamVerificationID, ParamName, ParamError}

// Kind classifies a redirect.
type Kind int

const (
	KindNone Kind = iota
	KindLinkedInVerified
	KindLinkedInError
)

func (k Kind) String() string {
	switch k {
	case KindLinkedInVerified:
		return "linkedin_verified"
	case KindLinkedInError:
		return "linkedin_error"
	default:
		return "none"
	}
}

// Descriptor is the immutable result of parsing a mount URL.
type Descriptor struct {
	kind           Kind
	verificationID string
	displayName    string
	errorCode      string
	dirty          bool
}

// Kind returns the redirect classification.
func (d Descriptor) Kind() Kind { return d.kind }

// VerificationID returns the LinkedIn verification id, if verified.
func (d Descriptor) VerificationID() string { return d.verificationID }

// DisplayName returns the LinkedIn display name, if provided.
func (d Descriptor) DisplayName() string { return d.displayName }

// ErrorCode returns the LinkedIn error code, if the redirect failed.
func (d Descriptor) ErrorCode() string { return d.errorCode }

// NeedsStrip reports whether the URL carried any one-shot parameter.
func (d Descriptor) NeedsStrip() bool { return d.dirty }

// InitialStep returns the wizard step to start at. A verified redirect
// forces Profile; anything else keeps current.
func (d Descriptor) InitialStep(current domain.Step) domain.Step {
	if d.kind == KindLinkedInVerified {
		return domain.StepProfile
	}
	return current
}

// Proof returns the external identity proof carried by a verified redirect.
func (d Descriptor) Proof() *domain.ExternalProof {
	if d.kind != KindLinkedInVerified {
		return nil
	}
	return &domain.ExternalProof{
		VerificationID: d.verificationID,
		DisplayName:    d.displayName,
	}
}

// Parse classifies rawURL. A linkedin_error wins over a success marker in
// the same URL; linkedin_verified without a verification id is ignored.
func Parse(rawURL string) (Descriptor, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Descriptor{}, fmt.Errorf("parse mount url: %w", err)
	}
	q := u.Query()

	var d Descriptor
	for _, p := range oneShotParams {
		if q.Has(p) {
			d.dirty = true
			break
		}
	}

	if q.Has(ParamError) {
		d.kind = KindLinkedInError
		d.errorCode = strings.TrimSpace(q.Get(ParamError))
		return d, nil
	}

	id := strings.TrimSpace(q.Get(ParamVerificationID))
	if strings.EqualFold(q.Get(ParamVerified), "true") && id != "" {
		d.kind = KindLinkedInVerified
		d.verificationID = id
		d.displayName = strings.TrimSpace(q.Get(ParamName))
	}
	return d, nil
}

// Strip removes the one-shot parameters from rawURL, keeping everything else.
func Strip(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse mount url: %w", err)
	}
	q := u.Query()
	for _, p := range oneShotParams {
		q.Del(p)
	}
	u.RawQuery = q.Encode()
	u.ForceQuery = false
	return u.String(), nil
}

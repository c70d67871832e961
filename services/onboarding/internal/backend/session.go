package backend

import (
	"context"
	"fmt"
	"net/http"

	apperrors "github.com/linkwise/linkwise/pkg/errors"
	"github.com/linkwise/linkwise/services/onboarding/internal/domain"
)

// ExchangeRequest is the OTP exchange input. Seed, when present, is sent in
// the same call so a new user record is never created without it.
type ExchangeRequest struct {
	Phone      string
	Code       string
	ProofToken string
	Seed       *domain.ProfileSeed
}

type verifyOTPBody struct {
	Phone             string `json:"phone"`
	OTP               string `json:"otp"`
	VerificationToken string `json:"verification_token,omitempty"`
	Name              string `json:"name,omitempty"`
	Age               *int   `json:"age,omitempty"`
	Instagram         string `json:"instagram,omitempty"`
	LinkedIn          string `json:"linkedin,omitempty"`
}

// ExchangeOTP trades a confirmed phone challenge for a session token.
func (c *Client) ExchangeOTP(ctx context.Context, in ExchangeRequest) (*domain.ExchangeResult, error) {
	body := verifyOTPBody{
		Phone:             in.Phone,
		OTP:               in.Code,
		VerificationToken: in.ProofToken,
	}
	if !in.Seed.Empty() {
		body.Name = in.Seed.Name
		body.Age = in.Seed.Age
		body.Instagram = in.Seed.Instagram
		body.LinkedIn = in.Seed.LinkedIn
	}

	var out domain.ExchangeResult
	if err := c.call(ctx, http.MethodPost, "/auth/verify-otp", "", body, &out); err != nil {
		return nil, err
	}
	if out.Token == "" || out.User == nil {
		return nil, apperrors.Network(fmt.Errorf("verify-otp: response missing token or user"))
	}
	return &out, nil
}

// LinkedInAuthURL returns the browser redirect target for LinkedIn OAuth.
func (c *Client) LinkedInAuthURL(ctx context.Context) (string, error) {
	var out struct {
		AuthURL string `json:"auth_url"`
	}
	if err := c.call(ctx, http.MethodGet, "/auth/linkedin", "", nil, &out); err != nil {
		return "", err
	}
	if out.AuthURL == "" {
		return "", apperrors.Network(fmt.Errorf("linkedin: response missing auth_url"))
	}
	return out.AuthURL, nil
}

// LinkExternalVerification attaches a LinkedIn verification to the user
// behind token. The id is single-use server-side.
func (c *Client) LinkExternalVerification(ctx context.Context, token, verificationID string) error {
	return c.call(ctx, http.MethodPost, "/auth/linkedin/use/"+escape(verificationID), token, nil, nil)
}

// UpdateProfile saves profile fields and returns the updated user, whose
// profile_completed flag is recomputed by the backend.
func (c *Client) UpdateProfile(ctx context.Context, token string, fields domain.ProfileUpdate) (*domain.User, error) {
	var out domain.User
	if err := c.call(ctx, http.MethodPut, "/users/me", token, fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchSelf returns the user behind token.
func (c *Client) FetchSelf(ctx context.Context, token string) (*domain.User, error) {
	var out domain.User
	if err := c.call(ctx, http.MethodGet, "/users/me", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

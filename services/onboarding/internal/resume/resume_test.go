package resume

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkwise/linkwise/services/onboarding/internal/domain"
)

func TestParse_Verified(t *testing.T) {
	d, err := Parse("https://app.linkwise.test/?linkedin_verified=true&verification_id=abc123&linkedin_name=Ana%20Silva")

	require.NoError(t, err)
	assert.Equal(t, KindLinkedInVerified, d.Kind())
	assert.Equal(t, "abc123", d.VerificationID())
	assert.Equal(t, "Ana Silva", d.DisplayName())
	assert.True(t, d.NeedsStrip())
	assert.Equal(t, domain.StepProfile, d.InitialStep(domain.StepPhone))

	proof := d.Proof()
	require.NotNil(t, proof)
	assert.Equal(t, "abc123", proof.VerificationID)
	assert.False(t, proof.Consumed)
}

func TestParse_Error(t *testing.T) {
	d, err := Parse("/?linkedin_error=access_denied")

	require.NoError(t, err)
	assert.Equal(t, KindLinkedInError, d.Kind())
	assert.Equal(t, "access_denied", d.ErrorCode())
	assert.Equal(t, domain.StepOtp, d.InitialStep(domain.StepOtp), "no forced navigation")
	assert.Nil(t, d.Proof())
	assert.True(t, d.NeedsStrip())
}

func TestParse_ErrorWinsOverSuccess(t *testing.T) {
	d, err := Parse("/?linkedin_verified=true&verification_id=x&linkedin_error=state_mismatch")

	require.NoError(t, err)
	assert.Equal(t, KindLinkedInError, d.Kind())
}

func TestParse_NoParams(t *testing.T) {
	d, err := Parse("https://app.linkwise.test/dashboard?tab=requests")

	require.NoError(t, err)
	assert.Equal(t, KindNone, d.Kind())
	assert.False(t, d.NeedsStrip())
	assert.Equal(t, domain.StepPhone, d.InitialStep(domain.StepPhone))
}

func TestParse_VerifiedWithoutIDIsIgnored(t *testing.T) {
	d, err := Parse("/?linkedin_verified=true")

	require.NoError(t, err)
	assert.Equal(t, KindNone, d.Kind())
	assert.True(t, d.NeedsStrip())
}

func TestParse_VerifiedFalse(t *testing.T) {
	d, err := Parse("/?linkedin_verified=false&verification_id=x")

	require.NoError(t, err)
	assert.Equal(t, KindNone, d.Kind())
}

func TestParse_InvalidURL(t *testing.T) {
	_, err := Parse("http://[::1")
	assert.Error(t, err)
}

func TestStrip_KeepsUnrelatedParams(t *testing.T) {
	out, err := Strip("https://app.linkwise.test/?ref=mail&linkedin_verified=true&verification_id=abc&linkedin_name=Ana#top")

	require.NoError(t, err)
	assert.Equal(t, "https://app.linkwise.test/?ref=mail#top", out)
}

func TestStrip_RemovesQuestionMarkWhenEmpty(t *testing.T) {
	out, err := Strip("/?linkedin_error=access_denied")

	require.NoError(t, err)
	assert.Equal(t, "/", out)
}

func TestStrip_IsReentrantSafe(t *testing.T) {
	first, err := Strip("/?linkedin_verified=true&verification_id=abc")
	require.NoError(t, err)

	d, err := Parse(first)
	require.NoError(t, err)
	assert.Equal(t, KindNone, d.Kind(), "a second mount after stripping does nothing")
	assert.False(t, d.NeedsStrip())
}

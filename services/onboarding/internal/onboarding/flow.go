// Package onboarding drives the phone → code → profile → success wizard for
// one browser session.
package onboarding

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	apperrors "github.com/linkwise/linkwise/pkg/errors"
	"github.com/linkwise/linkwise/pkg/validator"
	"github.com/linkwise/linkwise/services/onboarding/internal/backend"
	"github.com/linkwise/linkwise/services/onboarding/internal/domain"
	"github.com/linkwise/linkwise/services/onboarding/internal/resume"
	"github.com/linkwise/linkwise/services/onboarding/internal/verification"
)

// Verifier is the verification adapter owned by one flow.
type Verifier interface {
	RequestCode(ctx context.Context, fullPhone string) (*verification.Handle, error)
	Confirm(ctx context.Context, h *verification.Handle, code string) (*verification.IdentityProof, error)
	// Detach forgets the widget at once and returns the provider-side
	// cleanup, which the flow runs after releasing its lock.
	Detach() func(context.Context)
}

// SessionExchanger is the backend side of the flow.
type SessionExchanger interface {
	ExchangeOTP(ctx context.Context, in backend.ExchangeRequest) (*domain.ExchangeResult, error)
	LinkExternalVerification(ctx context.Context, token, verificationID string) error
	UpdateProfile(ctx context.Context, token string, fields domain.ProfileUpdate) (*domain.User, error)
}

// TokenKeeper owns the session bearer token.
type TokenKeeper interface {
	Token(ctx context.Context, sid string) (string, error)
	SetToken(ctx context.Context, sid, token string) error
	// Purge removes token only if it is still the one stored for sid.
	Purge(ctx context.Context, sid, token string) (bool, error)
}

// Deps are the collaborators of a Flow.
type Deps struct {
	Verifier    Verifier
	Exchanger   SessionExchanger
	Keeper      TokenKeeper
	Observer    Observer
	Logger      *slog.Logger
	CountryCode string
	Now         func() time.Time
}

// Notice kinds.
const (
	NoticeSuccess = "success"
	NoticeError   = "error"
)

// Notice is a one-shot notification returned by Mount.
type Notice struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Snapshot is what the browser renders.
type Snapshot struct {
	Step             domain.Step  `json:"step"`
	Phone            string       `json:"phone"`
	CodeSent         bool         `json:"code_sent"`
	Profile          ProfileDraft `json:"profile"`
	LinkedInVerified bool         `json:"linkedin_verified"`
	LinkedInName     string       `json:"linkedin_name,omitempty"`
	IsNewUser        bool         `json:"is_new_user"`
	User             *domain.User `json:"user,omitempty"`
	Uploading        bool         `json:"uploading"`
	Busy             bool         `json:"busy"`
	Notice           *Notice      `json:"notice,omitempty"`
}

// UploadTicket ties a photo upload to the flow epoch it started in.
type UploadTicket struct {
	epoch uint64
}

// Flow is the onboarding state machine of one session. All methods are
// safe for concurrent use; network calls run without holding the lock and
// their results are discarded if the flow was reset meanwhile.
type Flow struct {
	sid         string
	verifier    Verifier
	exchanger   SessionExchanger
	keeper      TokenKeeper
	observer    Observer
	logger      *slog.Logger
	countryCode string
	now         func() time.Time

	mu         sync.Mutex
	epoch      uint64
	busy       bool
	step       domain.Step
	phoneRaw   string
	phone      string
	handle     *verification.Handle
	proof      *verification.IdentityProof
	code       string
	user       *domain.User
	isNewUser  bool
	external   *domain.ExternalProof
	draft      ProfileDraft
	uploading  int
	lastActive time.Time
	queue      []domain.FunnelEvent
	releases   []func(context.Context)
}

// NewFlow creates a flow at the phone step.
func NewFlow(sessionID string, deps Deps) *Flow {
	f := &Flow{
		sid:         sessionID,
		verifier:    deps.Verifier,
		exchanger:   deps.Exchanger,
		keeper:      deps.Keeper,
		observer:    deps.Observer,
		logger:      deps.Logger,
		countryCode: deps.CountryCode,
		now:         deps.Now,
		step:        domain.StepPhone,
	}
	if f.observer == nil {
		f.observer = nopObserver{}
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	if f.now == nil {
		f.now = time.Now
	}
	f.lastActive = f.now()
	return f
}

// SessionID returns the owning browser session.
func (f *Flow) SessionID() string { return f.sid }

// Step returns the current step.
func (f *Flow) Step() domain.Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// Snapshot returns the current view of the flow.
func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *Flow) snapshotLocked() Snapshot {
	s := Snapshot{
		Step:      f.step,
		Phone:     f.phoneRaw,
		CodeSent:  f.step == domain.StepOtp && f.handle.Usable(),
		Profile:   f.draft,
		IsNewUser: f.isNewUser,
		Uploading: f.uploading > 0,
		Busy:      f.busy,
	}
	if f.draft.Skills != nil {
		s.Profile.Skills = append([]string(nil), f.draft.Skills...)
	}
	if f.external != nil {
		s.LinkedInVerified = true
		s.LinkedInName = f.external.DisplayName
	} else if f.user != nil && f.user.LinkedInVerified {
		s.LinkedInVerified = true
	}
	if f.user != nil {
		u := *f.user
		s.User = &u
	}
	return s
}

// Mount applies a parsed redirect descriptor. A verified LinkedIn redirect
// records the pending proof and forces the profile step; a failed one only
// produces a notice.
func (f *Flow) Mount(ctx context.Context, d resume.Descriptor) Snapshot {
	defer f.flush(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	var notice *Notice
	switch d.Kind() {
	case resume.KindLinkedInVerified:
		f.external = d.Proof()
		if f.draft.Name == "" && d.DisplayName() != "" {
			f.draft.Name = d.DisplayName()
		}
		f.moveLocked(d.InitialStep(f.step))
		notice = &Notice{Kind: NoticeSuccess, Message: "LinkedIn verified"}
		f.record(domain.FunnelLinkedInResumed, domain.OutcomeOK, "")
	case resume.KindLinkedInError:
		notice = &Notice{Kind: NoticeError, Message: "LinkedIn verification failed, please try again"}
		f.record(domain.FunnelLinkedInFailed, domain.OutcomeFailed, d.ErrorCode())
	}

	s := f.snapshotLocked()
	s.Notice = notice
	return s
}

// SubmitPhone normalizes raw and requests a code. Input with fewer than
// seven digits is rejected before the provider is contacted.
func (f *Flow) SubmitPhone(ctx context.Context, raw, countryCode string) (Snapshot, error) {
	defer f.flush(ctx)

	if countryCode == "" {
		countryCode = f.countryCode
	}
	phone, err := domain.NormalizePhone(raw, countryCode)
	if err != nil {
		return f.Snapshot(), err
	}

	epoch, err := f.begin(domain.StepPhone)
	if err != nil {
		return f.Snapshot(), err
	}

	h, err := f.verifier.RequestCode(ctx, phone)

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.finish(epoch) {
		h.Discard()
		return f.snapshotLocked(), ErrStaleFlow
	}
	if err != nil {
		f.record(domain.FunnelCodeRequested, domain.OutcomeFailed, err.Error())
		return f.snapshotLocked(), verification.UserError(err)
	}

	f.phoneRaw = raw
	f.phone = phone
	f.handle = h
	f.proof = nil
	f.code = ""
	f.moveLocked(domain.StepOtp)
	f.record(domain.FunnelCodeRequested, domain.OutcomeOK, "")
	return f.snapshotLocked(), nil
}

// SubmitCode confirms code and exchanges the proof for a session. The
// confirmed proof is kept until the exchange succeeds so a failed exchange
// can be retried without re-confirming a single-use code.
func (f *Flow) SubmitCode(ctx context.Context, code string, seed *domain.ProfileSeed) (Snapshot, error) {
	defer f.flush(ctx)

	code = strings.TrimSpace(code)
	if err := validator.Var("code", code, "len=6,numeric"); err != nil {
		return f.Snapshot(), apperrors.Format("enter the 6-digit code from the SMS")
	}

	epoch, err := f.begin(domain.StepOtp)
	if err != nil {
		return f.Snapshot(), err
	}

	f.mu.Lock()
	h, proof, phone, ext := f.handle, f.proof, f.phone, f.external
	if ext != nil && ext.Consumed {
		ext = nil
	}
	if proof != nil && f.code != code {
		proof = nil
	}
	if seed.Empty() {
		seed = f.draft.seed()
	}
	f.mu.Unlock()

	if proof == nil {
		if !h.Usable() {
			return f.hardReset(ctx, epoch, "missing challenge handle")
		}

		p, err := f.verifier.Confirm(ctx, h, code)
		if err != nil {
			return f.confirmFailed(ctx, epoch, err)
		}

		f.mu.Lock()
		if f.epoch != epoch {
			f.mu.Unlock()
			staleResults.Inc()
			return f.Snapshot(), ErrStaleFlow
		}
		f.proof = p
		f.code = code
		f.mu.Unlock()
		proof = p
	}

	res, err := f.exchanger.ExchangeOTP(ctx, backend.ExchangeRequest{
		Phone:      phone,
		Code:       code,
		ProofToken: proof.Token,
		Seed:       seed,
	})
	if err == nil && f.stale(epoch) {
		staleResults.Inc()
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.snapshotLocked(), ErrStaleFlow
	}
	if err == nil {
		err = f.keeper.SetToken(ctx, f.sid, res.Token)
	}
	silent := err == nil && !res.IsNewUser && res.User.ProfileCompleted
	consumed := false
	if silent && ext != nil {
		// A returning user never reaches the profile step, so the pending
		// LinkedIn proof is attached here or not at all.
		consumed = f.linkExternal(ctx, res.Token, ext.VerificationID)
	}

	f.mu.Lock()
	if !f.finish(epoch) {
		snap := f.snapshotLocked()
		f.mu.Unlock()
		if err == nil {
			f.purgeToken(ctx, res.Token)
		}
		return snap, ErrStaleFlow
	}
	defer f.mu.Unlock()
	if err != nil {
		f.record(domain.FunnelPhoneVerified, domain.OutcomeFailed, err.Error())
		return f.snapshotLocked(), err
	}
	if consumed && f.external == ext {
		f.external.Consumed = true
	}

	f.user = res.User
	f.isNewUser = res.IsNewUser
	f.handle = nil
	f.proof = nil
	f.code = ""
	f.record(domain.FunnelPhoneVerified, domain.OutcomeOK, "")

	if silent {
		f.completeLocked()
		return f.snapshotLocked(), nil
	}

	f.draft = f.draft.prefill(res.User)
	f.moveLocked(domain.StepProfile)
	return f.snapshotLocked(), nil
}

func (f *Flow) confirmFailed(ctx context.Context, epoch uint64, err error) (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.finish(epoch) {
		return f.snapshotLocked(), ErrStaleFlow
	}

	f.record(domain.FunnelPhoneVerified, domain.OutcomeFailed, err.Error())
	switch {
	case errors.Is(err, verification.ErrCodeExpired):
		f.handle.Discard()
		f.handle = nil
		f.moveLocked(domain.StepPhone)
	case errors.Is(err, verification.ErrChallengeConsumed), errors.Is(err, verification.ErrInvalidHandle):
		f.resetLocked()
	}
	return f.snapshotLocked(), verification.UserError(err)
}

func (f *Flow) hardReset(ctx context.Context, epoch uint64, reason string) (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.finish(epoch) {
		return f.snapshotLocked(), ErrStaleFlow
	}
	f.logger.WarnContext(ctx, "onboarding hard reset", slog.String("reason", reason))
	f.resetLocked()
	return f.snapshotLocked(), ErrHandleLost
}

// Back performs one of the two permitted backward moves.
func (f *Flow) Back(ctx context.Context) (Snapshot, error) {
	defer f.flush(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	if f.busy {
		return f.snapshotLocked(), ErrBusy
	}
	to, ok := f.step.CanGoBack()
	if !ok {
		return f.snapshotLocked(), apperrors.Conflict("cannot go back from the " + f.step.String() + " step")
	}
	if f.step == domain.StepOtp {
		f.handle.Discard()
		f.handle = nil
		f.proof = nil
		f.code = ""
	}
	f.moveLocked(to)
	return f.snapshotLocked(), nil
}

// SaveDraft merges typed profile fields without validating them, so that
// they survive a LinkedIn round trip.
func (f *Flow) SaveDraft(_ context.Context, d ProfileDraft) (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	if f.busy {
		return f.snapshotLocked(), ErrBusy
	}
	if f.step.Terminal() {
		return f.snapshotLocked(), wrongStep(domain.StepProfile, f.step)
	}
	f.draft = f.draft.merge(d)
	return f.snapshotLocked(), nil
}

// SaveProfile validates the draft, attaches a pending LinkedIn proof on a
// best-effort basis and saves the profile.
func (f *Flow) SaveProfile(ctx context.Context, d ProfileDraft) (Snapshot, error) {
	defer f.flush(ctx)

	f.mu.Lock()
	f.touch()
	if f.busy {
		defer f.mu.Unlock()
		return f.snapshotLocked(), ErrBusy
	}
	if f.step != domain.StepProfile {
		defer f.mu.Unlock()
		return f.snapshotLocked(), wrongStep(domain.StepProfile, f.step)
	}
	if f.uploading > 0 {
		defer f.mu.Unlock()
		return f.snapshotLocked(), ErrUploadInFlight
	}

	f.draft = f.draft.merge(d)
	verified := f.external != nil || (f.user != nil && f.user.LinkedInVerified)
	if err := f.draft.Validate(verified); err != nil {
		defer f.mu.Unlock()
		return f.snapshotLocked(), err
	}

	update := f.draft.Update()
	var ext *domain.ExternalProof
	if f.external != nil && !f.external.Consumed {
		ext = f.external
	}
	f.busy = true
	epoch := f.epoch
	f.mu.Unlock()

	token, err := f.keeper.Token(ctx, f.sid)
	if err == nil && token == "" {
		err = ErrPhoneSessionRequired
	}

	consumed := false
	if err == nil && ext != nil {
		consumed = f.linkExternal(ctx, token, ext.VerificationID)
	}

	var user *domain.User
	if err == nil {
		user, err = f.exchanger.UpdateProfile(ctx, token, update)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.finish(epoch) {
		return f.snapshotLocked(), ErrStaleFlow
	}
	if consumed && f.external == ext {
		f.external.Consumed = true
	}
	if err != nil {
		if errors.Is(err, ErrPhoneSessionRequired) {
			f.moveLocked(domain.StepPhone)
		}
		f.record(domain.FunnelProfileSaved, domain.OutcomeFailed, err.Error())
		return f.snapshotLocked(), err
	}

	f.user = user
	f.record(domain.FunnelProfileSaved, domain.OutcomeOK, "")
	f.completeLocked()
	return f.snapshotLocked(), nil
}

// purgeToken drops a token stored by an exchange that lost to a reset.
func (f *Flow) purgeToken(ctx context.Context, token string) {
	if _, err := f.keeper.Purge(ctx, f.sid, token); err != nil {
		f.logger.WarnContext(ctx, "failed to purge stale session token",
			slog.String("error", err.Error()),
		)
	}
}

// linkExternal attaches the LinkedIn proof. Failure is logged and never
// blocks the save. It reports whether the id should no longer be retried.
func (f *Flow) linkExternal(ctx context.Context, token, id string) bool {
	err := f.exchanger.LinkExternalVerification(ctx, token, id)
	if err == nil {
		return true
	}
	f.logger.WarnContext(ctx, "failed to link LinkedIn verification",
		slog.String("error", err.Error()),
	)
	// A 4xx means the id is spent or unknown; retrying cannot help.
	return errors.Is(err, apperrors.ErrValidation)
}

// StartUpload marks a photo upload as in flight; SaveProfile is refused
// until FinishUpload is called with the returned ticket.
func (f *Flow) StartUpload() (UploadTicket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	if f.step != domain.StepProfile {
		return UploadTicket{}, wrongStep(domain.StepProfile, f.step)
	}
	f.uploading++
	return UploadTicket{epoch: f.epoch}, nil
}

// FinishUpload records the upload result. A ticket from before a reset is
// discarded.
func (f *Flow) FinishUpload(t UploadTicket, secureURL string, uploadErr error) (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.epoch != f.epoch {
		staleResults.Inc()
		return f.snapshotLocked(), ErrStaleFlow
	}
	if f.uploading > 0 {
		f.uploading--
	}
	if uploadErr != nil {
		return f.snapshotLocked(), uploadErr
	}
	f.draft.PhotoURL = secureURL
	return f.snapshotLocked(), nil
}

// Reset clears the flow back to an empty phone step, discarding the
// challenge handle, tearing the widget down and forgetting any pending
// LinkedIn proof locally.
func (f *Flow) Reset(ctx context.Context) Snapshot {
	defer f.flush(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	f.resetLocked()
	return f.snapshotLocked()
}

// Close tears the flow down for eviction.
func (f *Flow) Close(ctx context.Context) {
	f.mu.Lock()
	f.epoch++
	f.busy = false
	f.handle.Discard()
	f.handle = nil
	f.proof = nil
	f.queue = nil
	releases := append(f.releases, f.verifier.Detach())
	f.releases = nil
	f.mu.Unlock()

	for _, release := range releases {
		release(ctx)
	}
}

// IdleSince reports when the flow was last used, and whether a call is in flight.
func (f *Flow) IdleSince() (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastActive, f.busy
}

func (f *Flow) resetLocked() {
	from := f.step
	f.epoch++
	f.busy = false
	f.handle.Discard()
	f.handle = nil
	f.proof = nil
	f.code = ""
	f.phoneRaw = ""
	f.phone = ""
	f.user = nil
	f.isNewUser = false
	f.external = nil
	f.draft = ProfileDraft{}
	f.uploading = 0
	f.releases = append(f.releases, f.verifier.Detach())
	f.moveLocked(domain.StepPhone)
	if from != domain.StepPhone {
		f.record(domain.FunnelReset, domain.OutcomeOK, from.String())
	}
}

// completeLocked enters the terminal step: the widget is detached and all
// transient fields are discarded.
func (f *Flow) completeLocked() {
	f.handle.Discard()
	f.handle = nil
	f.proof = nil
	f.code = ""
	f.phoneRaw = ""
	f.phone = ""
	f.external = nil
	f.draft = ProfileDraft{}
	f.uploading = 0
	f.releases = append(f.releases, f.verifier.Detach())
	f.moveLocked(domain.StepSuccess)
	f.record(domain.FunnelCompleted, domain.OutcomeOK, "")
}

func (f *Flow) begin(want domain.Step) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	if f.busy {
		return 0, ErrBusy
	}
	if f.step != want {
		return 0, wrongStep(want, f.step)
	}
	f.busy = true
	return f.epoch, nil
}

// finish releases the busy flag if epoch is still current. It must be
// called with mu held.
func (f *Flow) finish(epoch uint64) bool {
	if f.epoch != epoch {
		staleResults.Inc()
		return false
	}
	f.busy = false
	return true
}

func (f *Flow) stale(epoch uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.epoch != epoch
}

func (f *Flow) moveLocked(to domain.Step) {
	if f.step != to {
		stepTransitions.WithLabelValues(f.step.String(), to.String()).Inc()
	}
	f.step = to
}

func (f *Flow) touch() {
	f.lastActive = f.now()
}

// record queues a funnel event; flush delivers it after the lock is released.
func (f *Flow) record(stage domain.FunnelStage, outcome, detail string) {
	ev := domain.FunnelEvent{
		SessionID: f.sid,
		Stage:     stage,
		Outcome:   outcome,
		Detail:    detail,
		CreatedAt: f.now().UTC(),
	}
	if f.user != nil {
		ev.UserID = f.user.ID
	}
	f.queue = append(f.queue, ev)
}

// flush runs widget releases and delivers queued events outside the lock.
func (f *Flow) flush(ctx context.Context) {
	f.mu.Lock()
	evs := f.queue
	f.queue = nil
	releases := f.releases
	f.releases = nil
	f.mu.Unlock()

	for _, release := range releases {
		release(ctx)
	}
	for _, ev := range evs {
		f.observer.Observe(ctx, ev)
	}
}

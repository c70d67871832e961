package verification

import "sync"

// Handle is the in-memory confirmation handle returned by RequestCode.
// It is never persisted and can be confirmed at most once.
type Handle struct {
	phone     string
	challenge Challenge

	mu        sync.Mutex
	consumed  bool
	discarded bool
}

// Phone returns the E.164 number the code was sent to.
func (h *Handle) Phone() string {
	if h == nil {
		return ""
	}
	return h.phone
}

// ID returns the provider challenge id.
func (h *Handle) ID() string {
	if h == nil || h.challenge == nil {
		return ""
	}
	return h.challenge.ID()
}

// Usable reports whether Confirm may still be attempted.
func (h *Handle) Usable() bool {
	if h == nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.challenge != nil && !h.consumed && !h.discarded
}

// Discard invalidates the handle.
func (h *Handle) Discard() {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.discarded = true
	h.mu.Unlock()
}

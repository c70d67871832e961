// Package lifecycle holds the request, match, outreach and opportunity state
// rules the dashboards enforce. The backend drives every transition; these
// functions only decide what a client is offered.
package lifecycle

import (
	"slices"
	"strings"

	"github.com/linkwise/linkwise/services/onboarding/internal/domain"
)

// RequestTransitions defines the forward path of a request.
func RequestTransitions() map[domain.RequestStatus][]domain.RequestStatus {
	return map[domain.RequestStatus][]domain.RequestStatus{
		domain.RequestMatching:         {domain.RequestAwaitingApproval},
		domain.RequestAwaitingApproval: {domain.RequestInProgress},
		domain.RequestInProgress:       {domain.RequestCompleted},
		domain.RequestCompleted:        {},
	}
}

// MatchTransitions defines which match states may follow which.
func MatchTransitions() map[domain.MatchStatus][]domain.MatchStatus {
	return map[domain.MatchStatus][]domain.MatchStatus{
		domain.MatchSuggested:    {domain.MatchOutreachSent, domain.MatchRejected},
		domain.MatchOutreachSent: {domain.MatchAccepted, domain.MatchDeclined},
		domain.MatchAccepted:     {},
		domain.MatchRejected:     {},
		domain.MatchDeclined:     {},
	}
}

// OutreachTransitions defines the operator's outreach table.
func OutreachTransitions() map[domain.OutreachStatus][]domain.OutreachStatus {
	return map[domain.OutreachStatus][]domain.OutreachStatus{
		domain.OutreachPending:   {domain.OutreachContacted, domain.OutreachJoined, domain.OutreachDeclined},
		domain.OutreachContacted: {domain.OutreachJoined, domain.OutreachDeclined},
		domain.OutreachJoined:    {},
		domain.OutreachDeclined:  {},
	}
}

// CanRequestTransition reports whether a request may move from → to.
func CanRequestTransition(from, to domain.RequestStatus) bool {
	return slices.Contains(RequestTransitions()[from], to)
}

// CanMatchTransition reports whether a match may move from → to.
func CanMatchTransition(from, to domain.MatchStatus) bool {
	return slices.Contains(MatchTransitions()[from], to)
}

// CanOutreachTransition reports whether an outreach record may move from → to.
func CanOutreachTransition(from, to domain.OutreachStatus) bool {
	return slices.Contains(OutreachTransitions()[from], to)
}

// IsValidOutreachStatus reports whether s is a known outreach state.
func IsValidOutreachStatus(s domain.OutreachStatus) bool {
	_, ok := OutreachTransitions()[s]
	return ok
}

// RequestLabel is the text a requester sees for a request state.
func RequestLabel(s domain.RequestStatus) string {
	switch s {
	case domain.RequestInProgress:
		return "Unfilled"
	case domain.RequestAwaitingApproval:
		return "Has Matches"
	}
	return titleCase(string(s))
}

func titleCase(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// MatchActions returns the requester actions offered for a match state.
func MatchActions(s domain.MatchStatus) []string {
	if s == domain.MatchSuggested {
		return []string{domain.ActionApprove, domain.ActionSkip}
	}
	return []string{}
}

// MatchActionAllowed reports whether action may be taken on a match in state s.
func MatchActionAllowed(s domain.MatchStatus, action string) bool {
	return slices.Contains(MatchActions(s), action)
}

// OpportunityActions returns the invitee actions; both are terminal.
func OpportunityActions() []string {
	return []string{domain.ActionAccept, domain.ActionDecline}
}

// IsOpportunityAction reports whether action is an invitee action.
func IsOpportunityAction(action string) bool {
	return slices.Contains(OpportunityActions(), action)
}

// RequestView is a request decorated with its display label.
type RequestView struct {
	domain.Request
	Label string `json:"label"`
}

// MatchView is a match decorated with the actions the requester may take.
type MatchView struct {
	domain.Match
	Actions []string `json:"actions"`
}

// OpportunityView is an opportunity decorated with its actions.
type OpportunityView struct {
	domain.Opportunity
	Actions []string `json:"actions"`
}

// OutreachView is an outreach record with the states it may move to next.
type OutreachView struct {
	domain.Outreach
	Next []domain.OutreachStatus `json:"next"`
}

// DecorateRequests adds labels to requests.
func DecorateRequests(in []domain.Request) []RequestView {
	out := make([]RequestView, len(in))
	for i, r := range in {
		out[i] = RequestView{Request: r, Label: RequestLabel(r.Status)}
	}
	return out
}

// DecorateMatches adds the exposed actions to matches.
func DecorateMatches(in []domain.Match) []MatchView {
	out := make([]MatchView, len(in))
	for i, m := range in {
		out[i] = MatchView{Match: m, Actions: MatchActions(m.Status)}
	}
	return out
}

// DecorateOpportunities adds the invitee actions to opportunities.
func DecorateOpportunities(in []domain.Opportunity) []OpportunityView {
	out := make([]OpportunityView, len(in))
	for i, o := range in {
		out[i] = OpportunityView{Opportunity: o, Actions: OpportunityActions()}
	}
	return out
}

// DecorateOutreach adds the allowed next states to outreach records.
func DecorateOutreach(o domain.Outreach) OutreachView {
	next := OutreachTransitions()[o.Status]
	if next == nil {
		next = []domain.OutreachStatus{}
	}
	return OutreachView{Outreach: o, Next: next}
}

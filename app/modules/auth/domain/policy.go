package authdomain

import "github.com/google/uuid"

// Action names an operation subject to authorization.
type Action string

const (
	ActionSetOwnAcceptance Action = "acceptance.set.own"
	ActionSetAcceptance    Action = "acceptance.set.other"
	ActionAssignSelf       Action = "slot.assign.self"
	ActionAssignUser       Action = "slot.assign.user"
	ActionUnassign         Action = "slot.unassign"
	ActionManageSlots      Action = "slot.manage"
	ActionCreateEvent      Action = "event.create"
	ActionEditEvent        Action = "event.edit"
	ActionRepairEvent      Action = "event.repair"
	ActionViewHidden       Action = "event.view_hidden"
	ActionManageContent    Action = "content.manage"
)

// Mutating reports whether the action changes state.
func (a Action) Mutating() bool {
	return a != ActionViewHidden
}

// Decision is the verdict of a single policy.
type Decision int

const (
	NotApplicable Decision = iota
	Allow
	Deny
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	default:
		return "not_applicable"
	}
}

// Resource describes what the action touches. Zero values mean "not relevant".
type Resource struct {
	OwnerID            uuid.UUID
	HostID             uuid.UUID
	TargetUserID       uuid.UUID
	SlotSelfAssignable bool
	SlotVisible        bool
}

// Request is one authorization question.
type Request struct {
	Claims   *Claims
	Action   Action
	Resource Resource
}

// Policy answers authorization requests.
type Policy interface {
	Evaluate(req Request) Decision
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(req Request) Decision

func (f PolicyFunc) Evaluate(req Request) Decision { return f(req) }

// Policies combines policies: any Deny wins, then any Allow. With no opinion
// at all the result is NotApplicable, which callers treat as forbidden.
type Policies []Policy

func (ps Policies) Evaluate(req Request) Decision {
	allowed := false
	for _, p := range ps {
		switch p.Evaluate(req) {
		case Deny:
			return Deny
		case Allow:
			allowed = true
		}
	}
	if allowed {
		return Allow
	}
	return NotApplicable
}

// Allowed reports whether the combined decision is Allow.
func (ps Policies) Allowed(req Request) bool {
	return ps.Evaluate(req) == Allow
}

// DefaultPolicies is the policy set the service runs with.
func DefaultPolicies() Policies {
	return Policies{
		ReadOnlyPolicy{},
		CapabilityPolicy{Grants: DefaultGrants()},
		HostPolicy{},
		SelfServicePolicy{},
	}
}

// ReadOnlyPolicy denies every mutating action to viewers and unknown roles.
type ReadOnlyPolicy struct{}

func (ReadOnlyPolicy) Evaluate(req Request) Decision {
	if req.Claims == nil || !req.Action.Mutating() {
		return NotApplicable
	}
	if req.Claims.Role == RoleViewer || !req.Claims.Role.IsValid() {
		return Deny
	}
	return NotApplicable
}

// DefaultGrants maps roles to the actions they may perform on any event.
// Admins are granted everything by CapabilityPolicy itself.
func DefaultGrants() map[Role][]Action {
	return map[Role][]Action{
		RoleEditor: {
			ActionSetAcceptance,
			ActionAssignSelf,
			ActionAssignUser,
			ActionUnassign,
			ActionManageSlots,
			ActionCreateEvent,
			ActionEditEvent,
			ActionViewHidden,
			ActionManageContent,
		},
		RolePlayer: {
			ActionCreateEvent,
		},
	}
}

// CapabilityPolicy allows actions granted to the caller's role.
type CapabilityPolicy struct {
	Grants map[Role][]Action
}

func (p CapabilityPolicy) Evaluate(req Request) Decision {
	if req.Claims == nil {
		return NotApplicable
	}
	if req.Claims.Role == RoleAdmin {
		return Allow
	}
	for _, a := range p.Grants[req.Claims.Role] {
		if a == req.Action {
			return Allow
		}
	}
	return NotApplicable
}

// HostPolicy lets an event's owner and host run it.
type HostPolicy struct{}

func (HostPolicy) Evaluate(req Request) Decision {
	if req.Claims == nil || req.Claims.UserUUID == uuid.Nil {
		return NotApplicable
	}
	caller := req.Claims.UserUUID
	if caller != req.Resource.OwnerID && caller != req.Resource.HostID {
		return NotApplicable
	}
	switch req.Action {
	case ActionSetAcceptance, ActionAssignSelf, ActionAssignUser, ActionUnassign,
		ActionManageSlots, ActionEditEvent, ActionRepairEvent, ActionViewHidden:
		return Allow
	}
	return NotApplicable
}

// SelfServicePolicy covers a user acting on their own participation.
type SelfServicePolicy struct{}

func (SelfServicePolicy) Evaluate(req Request) Decision {
	if req.Claims == nil || req.Claims.UserUUID == uuid.Nil || req.Claims.UserUUID != req.Resource.TargetUserID {
		return NotApplicable
	}
	switch req.Action {
	case ActionSetOwnAcceptance, ActionUnassign:
		return Allow
	case ActionAssignSelf:
		if req.Resource.SlotSelfAssignable && req.Resource.SlotVisible {
			return Allow
		}
	}
	return NotApplicable
}

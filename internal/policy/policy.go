// Package policy is the access control evaluator.
//
// Every rule deciding who may perform which action lives in the rules
// table below. Services call Allow before resolving a target and
// Authorize once the target is loaded; nothing else checks roles.
package policy

import (
	"errors"

	"github.com/apihub/apihub/internal/model"
)

// Action names an operation on a resource.
type Action string

// User actions.
const (
	ActionUserList           Action = "user:list"
	ActionUserRead           Action = "user:read"
	ActionUserUpdate         Action = "user:update"
	ActionUserSetRole        Action = "user:set-role"
	ActionUserDelete         Action = "user:delete"
	ActionUserToggleActive   Action = "user:toggle-active"
	ActionUserChangePassword Action = "user:change-password"
)

// API catalog actions.
const (
	ActionAPIRead   Action = "api:read"
	ActionAPIStats  Action = "api:stats"
	ActionAPICreate Action = "api:create"
	ActionAPIUpdate Action = "api:update"
	ActionAPIDelete Action = "api:delete"
)

// Category actions.
const (
	ActionCategoryRead   Action = "category:read"
	ActionCategoryCreate Action = "category:create"
	ActionCategoryUpdate Action = "category:update"
	ActionCategoryDelete Action = "category:delete"
)

// Notification and admin actions.
const (
	ActionNotificationRead   Action = "notification:read"
	ActionNotificationManage Action = "notification:manage"
	ActionNotificationSend   Action = "notification:send"
	ActionAdminStats         Action = "admin:stats"
)

// Tier is the minimum role required for an action.
type Tier int

// Tier constants, ordered from least to most privileged.
const (
	TierAnyAuthenticated Tier = iota
	TierDeveloperOrAdmin
	TierAdminOnly
)

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case TierAnyAuthenticated:
		return "any-authenticated"
	case TierDeveloperOrAdmin:
		return "developer-or-admin"
	case TierAdminOnly:
		return "admin-only"
	default:
		return "unknown"
	}
}

// Allows reports whether a role satisfies the tier.
func (t Tier) Allows(role model.Role) bool {
	switch t {
	case TierAnyAuthenticated:
		return role.IsValid()
	case TierDeveloperOrAdmin:
		return role == model.RoleDeveloper || role == model.RoleAdmin
	case TierAdminOnly:
		return role == model.RoleAdmin
	default:
		return false
	}
}

// Ownership selects the ownership guard applied to a resolved target.
type Ownership int

// Ownership constants.
const (
	// OwnershipNone applies no ownership check.
	OwnershipNone Ownership = iota
	// OwnershipOwnerOrAdmin requires the actor to own the target unless the actor is an admin.
	OwnershipOwnerOrAdmin
)

// Rule is one row of the policy table.
type Rule struct {
	Tier      Tier
	Ownership Ownership
	// DenySelf rejects the action when the target is the actor's own user record.
	DenySelf bool
}

var rules = map[Action]Rule{
	ActionUserList:           {Tier: TierAdminOnly},
	ActionUserRead:           {Tier: TierAnyAuthenticated, Ownership: OwnershipOwnerOrAdmin},
	ActionUserUpdate:         {Tier: TierAnyAuthenticated, Ownership: OwnershipOwnerOrAdmin},
	ActionUserSetRole:        {Tier: TierAdminOnly},
	ActionUserDelete:         {Tier: TierAdminOnly},
	ActionUserToggleActive:   {Tier: TierAdminOnly, DenySelf: true},
	ActionUserChangePassword: {Tier: TierAdminOnly},

	ActionAPIRead:   {Tier: TierAnyAuthenticated},
	ActionAPIStats:  {Tier: TierAnyAuthenticated},
	ActionAPICreate: {Tier: TierDeveloperOrAdmin},
	ActionAPIUpdate: {Tier: TierDeveloperOrAdmin, Ownership: OwnershipOwnerOrAdmin},
	ActionAPIDelete: {Tier: TierDeveloperOrAdmin, Ownership: OwnershipOwnerOrAdmin},

	ActionCategoryRead:   {Tier: TierAnyAuthenticated},
	ActionCategoryCreate: {Tier: TierDeveloperOrAdmin},
	ActionCategoryUpdate: {Tier: TierDeveloperOrAdmin, Ownership: OwnershipOwnerOrAdmin},
	ActionCategoryDelete: {Tier: TierDeveloperOrAdmin, Ownership: OwnershipOwnerOrAdmin},

	// Notification reads and writes are scoped to the recipient by the store query.
	ActionNotificationRead:   {Tier: TierAnyAuthenticated},
	ActionNotificationManage: {Tier: TierAnyAuthenticated},
	ActionNotificationSend:   {Tier: TierAdminOnly},
	ActionAdminStats:         {Tier: TierAdminOnly},
}

// RuleFor returns the rule registered for an action.
func RuleFor(action Action) (Rule, bool) {
	rule, ok := rules[action]
	return rule, ok
}

// Denial reasons.
const (
	ReasonUnauthenticated  = "unauthenticated"
	ReasonUnknownAction    = "unknown action"
	ReasonInsufficientRole = "insufficient role"
	ReasonSelfAction       = "cannot act on self"
	ReasonNotOwner         = "not authorized"
)

// ErrForbidden matches every Denial via errors.Is.
var ErrForbidden = errors.New("forbidden")

// Denial is returned when the evaluator rejects an action.
type Denial struct {
	Action Action
	Reason string
}

func (d *Denial) Error() string {
	return string(d.Action) + ": " + d.Reason
}

// Is makes errors.Is(err, ErrForbidden) true for any Denial.
func (d *Denial) Is(target error) bool {
	return target == ErrForbidden
}

// Target identifies the resolved resource an action applies to.
// For user actions OwnerID is the user's own ID.
type Target struct {
	ID      string
	OwnerID string
}

// Allow evaluates only the role gate for an action.
// It does not need a target and runs before the target is resolved.
func Allow(actor *model.Actor, action Action) error {
	_, err := gate(actor, action)
	return err
}

// Authorize evaluates the full rule for an action on a resolved target.
func Authorize(actor *model.Actor, action Action, target Target) error {
	rule, err := gate(actor, action)
	if err != nil {
		return err
	}

	if rule.DenySelf && target.ID == actor.ID {
		return &Denial{Action: action, Reason: ReasonSelfAction}
	}

	if rule.Ownership == OwnershipOwnerOrAdmin && !actor.IsAdmin() {
		if target.OwnerID == "" || target.OwnerID != actor.ID {
			return &Denial{Action: action, Reason: ReasonNotOwner}
		}
	}

	return nil
}

func gate(actor *model.Actor, action Action) (Rule, error) {
	if actor == nil || actor.ID == "" {
		return Rule{}, &Denial{Action: action, Reason: ReasonUnauthenticated}
	}

	rule, ok := rules[action]
	if !ok {
		return Rule{}, &Denial{Action: action, Reason: ReasonUnknownAction}
	}

	if !rule.Tier.Allows(actor.Role) {
		return Rule{}, &Denial{Action: action, Reason: ReasonInsufficientRole}
	}

	return rule, nil
}

// ReasonOf extracts the denial reason from an error chain.
// Returns an empty string when err is not a Denial.
func ReasonOf(err error) string {
	var denial *Denial
	if errors.As(err, &denial) {
		return denial.Reason
	}
	return ""
}

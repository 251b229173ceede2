// Package authz decides who may list, read and write each resource kind.
//
// Every decision is made twice: ListScope shapes what a collection query may
// return, and Authorize gates a single action against a single record. A
// record outside the principal's scope is reported as not found so that its
// existence does not leak.
package authz

import (
	"github.com/justsurfingit/jobboard/internal/apperr"
)

type Resource string

const (
	ResourceCategory     Resource = "category"
	ResourceJob          Resource = "job"
	ResourceApplication  Resource = "application"
	ResourceFavorite     Resource = "favorite_job"
	ResourceNotification Resource = "notification"
)

type Action string

const (
	ActionList     Action = "list"
	ActionRetrieve Action = "retrieve"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
)

// Safe reports whether the action only reads.
func (a Action) Safe() bool {
	return a == ActionList || a == ActionRetrieve
}

// Target is the record a per-object check runs against.
type Target struct {
	OwnerID uint
	// Hidden marks a record only admins may see (an inactive job).
	Hidden bool
}

func Owned(ownerID uint) *Target {
	return &Target{OwnerID: ownerID}
}

// Scope restricts a collection query. The zero value is unrestricted.
type Scope struct {
	OwnerID    uint
	ActiveOnly bool
}

func (s Scope) Unrestricted() bool {
	return s.OwnerID == 0 && !s.ActiveOnly
}

// Authorize returns nil when p may perform act on res. target is nil for
// collection level actions (list, create).
func Authorize(p Principal, res Resource, act Action, target *Target) error {
	switch res {
	case ResourceCategory:
		return authorizeAdminManaged(p, act, target, "category not found", "only platform admins may modify categories")
	case ResourceJob:
		return authorizeAdminManaged(p, act, target, "job not found", "only platform admins may modify jobs")
	case ResourceApplication:
		return authorizeApplication(p, act, target)
	case ResourceFavorite:
		return authorizeOwnerOnly(p, act, target, "favorite job not found", false)
	case ResourceNotification:
		return authorizeOwnerOnly(p, act, target, "notification not found", true)
	default:
		return apperr.Forbidden("unknown resource " + string(res))
	}
}

// ListScope returns the row restriction for listing res as p.
func ListScope(p Principal, res Resource) (Scope, error) {
	if err := Authorize(p, res, ActionList, nil); err != nil {
		return Scope{}, err
	}
	switch res {
	case ResourceCategory:
		return Scope{}, nil
	case ResourceJob:
		if p.IsAdmin() {
			return Scope{}, nil
		}
		return Scope{ActiveOnly: true}, nil
	case ResourceApplication:
		if p.IsAdmin() {
			return Scope{}, nil
		}
		return Scope{OwnerID: p.ID()}, nil
	case ResourceFavorite, ResourceNotification:
		return Scope{OwnerID: p.ID()}, nil
	default:
		return Scope{}, apperr.Forbidden("unknown resource " + string(res))
	}
}

func authorizeAdminManaged(p Principal, act Action, target *Target, notFound, denied string) error {
	if act.Safe() {
		if target != nil && target.Hidden && !p.IsAdmin() {
			return apperr.NotFound(notFound)
		}
		return nil
	}
	switch p.Role() {
	case RoleAnonymous:
		return apperr.Unauthenticated("authentication required")
	case RoleCandidate:
		return apperr.Forbidden(denied)
	case RoleAdmin:
		return nil
	default:
		return apperr.Forbidden("unknown principal")
	}
}

func authorizeApplication(p Principal, act Action, target *Target) error {
	switch p.Role() {
	case RoleAnonymous:
		return apperr.Unauthenticated("authentication required")
	case RoleAdmin:
		return nil
	case RoleCandidate:
		if target != nil && target.OwnerID != p.ID() {
			return apperr.NotFound("application not found")
		}
		if act.Safe() || act == ActionCreate {
			return nil
		}
		return apperr.Forbidden("only platform admins may change applications")
	default:
		return apperr.Forbidden("unknown principal")
	}
}

func authorizeOwnerOnly(p Principal, act Action, target *Target, notFound string, readOnly bool) error {
	switch p.Role() {
	case RoleAnonymous:
		return apperr.Unauthenticated("authentication required")
	case RoleCandidate, RoleAdmin:
		if target != nil && target.OwnerID != p.ID() {
			return apperr.NotFound(notFound)
		}
		if readOnly && !act.Safe() {
			return apperr.Forbidden("resource is read-only")
		}
		return nil
	default:
		return apperr.Forbidden("unknown principal")
	}
}

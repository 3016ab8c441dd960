package middleware

import (
	"github.com/gopress/gopress/models"
	"github.com/gopress/gopress/utils"
)

// Action names a mutation or privileged read on a resource.
type Action string

const (
	ActionList    Action = "list"
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionLike    Action = "like"
	ActionComment Action = "comment"
)

// Relationship is the minimum relation an actor must hold to the resource.
type Relationship int

const (
	// Anyone permits unauthenticated access.
	Anyone Relationship = iota
	// Authenticated requires any signed-in, active user.
	Authenticated
	// Owner requires the resource's author/owner; admins always qualify.
	Owner
	// Admin requires the admin role.
	Admin
)

// policies is the single source of authorization truth: resource x action ->
// required relationship. Handlers consult it through Authorize instead of
// duplicating conditional checks.
var policies = map[string]map[Action]Relationship{
	"post": {
		ActionCreate:  Authenticated,
		ActionUpdate:  Owner,
		ActionDelete:  Owner,
		ActionLike:    Authenticated,
		ActionComment: Authenticated,
	},
	"comment": {
		ActionCreate: Authenticated,
		ActionDelete: Owner,
	},
	"user": {
		ActionList:   Admin,
		ActionUpdate: Owner,
		ActionDelete: Admin,
	},
	"category": {
		ActionCreate: Admin,
		ActionUpdate: Admin,
		ActionDelete: Admin,
	},
}

// Authorize checks the policy table for resource/action against the acting
// user. ownerID identifies the resource owner for Owner-gated actions; pass
// zero when ownership is not applicable. A nil actor fails authentication;
// an insufficient relation fails authorization.
func Authorize(actor *models.User, resource string, action Action, ownerID uint) error {
	required, ok := policies[resource][action]
	if !ok {
		// Unlisted combinations are admin-only so a missing table entry
		// never widens access.
		required = Admin
	}

	switch required {
	case Anyone:
		return nil
	case Authenticated:
		if actor == nil {
			return utils.AuthenticationError("authentication required")
		}
		return nil
	case Owner:
		if actor == nil {
			return utils.AuthenticationError("authentication required")
		}
		if actor.IsAdmin() || actor.ID == ownerID {
			return nil
		}
		return utils.AuthorizationError("you do not own this resource")
	default: // Admin
		if actor == nil {
			return utils.AuthenticationError("authentication required")
		}
		if !actor.IsAdmin() {
			return utils.AuthorizationError("admin access required")
		}
		return nil
	}
}

// Package authz decides whether an actor may act on a resource instance.
//
// Every rule is a pure function of the actor and the facts about the target
// that the caller already loaded. Callers must stop before touching
// persistence when a rule denies.
package authz

import (
	"fmt"

	"social/internal/models"
	"social/internal/observability"
)

// Action is an operation an actor attempts on a resource.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Resource names the kind of entity a rule applies to.
type Resource string

const (
	ResourcePost    Resource = "post"
	ResourceComment Resource = "comment"
	ResourceLike    Resource = "like"
	ResourceTag     Resource = "tag"
	ResourceChat    Resource = "chat"
	ResourceMessage Resource = "message"
	ResourceProfile Resource = "profile"
)

// Actor is the authenticated identity performing a request.
type Actor struct {
	ID       uint
	Username string
	IsStaff  bool
}

// Authenticated reports whether the actor carries a real user ID.
func (a Actor) Authenticated() bool {
	return a.ID != 0
}

func (a Actor) is(userID uint) bool {
	return a.Authenticated() && a.ID == userID
}

func (a Actor) isPtr(userID *uint) bool {
	return userID != nil && a.is(*userID)
}

// CanPost applies the post rules: published posts are readable by anyone,
// drafts by their author and staff; only the author updates; the author or
// staff delete.
func CanPost(a Actor, action Action, authorID uint, published bool) bool {
	switch action {
	case ActionRead:
		return published || a.is(authorID) || a.IsStaff
	case ActionCreate:
		return a.Authenticated()
	case ActionUpdate:
		return a.is(authorID)
	case ActionDelete:
		return a.is(authorID) || (a.Authenticated() && a.IsStaff)
	}
	return false
}

// CanComment applies the comment rules. A comment whose author was deleted
// can only be removed by staff.
func CanComment(a Actor, action Action, authorID *uint) bool {
	switch action {
	case ActionRead, ActionCreate:
		return a.Authenticated()
	case ActionUpdate:
		return a.isPtr(authorID)
	case ActionDelete:
		return a.isPtr(authorID) || (a.Authenticated() && a.IsStaff)
	}
	return false
}

// CanLike applies the like rules: likes are never updated, only their author
// deletes them.
func CanLike(a Actor, action Action, authorID *uint) bool {
	switch action {
	case ActionRead, ActionCreate:
		return a.Authenticated()
	case ActionDelete:
		return a.isPtr(authorID)
	}
	return false
}

// CanTag applies the tag rules: any authenticated actor reads and creates,
// staff curate.
func CanTag(a Actor, action Action) bool {
	switch action {
	case ActionRead, ActionCreate:
		return a.Authenticated()
	case ActionUpdate, ActionDelete:
		return a.Authenticated() && a.IsStaff
	}
	return false
}

// CanChat applies the chat rules: read, update and delete require current
// membership. Staff get no override.
func CanChat(a Actor, action Action, isParticipant bool) bool {
	switch action {
	case ActionCreate:
		return a.Authenticated()
	case ActionRead, ActionUpdate, ActionDelete:
		return a.Authenticated() && isParticipant
	}
	return false
}

// CanMessage applies the message rules. isParticipant is the actor's
// membership in the message's chat.
func CanMessage(a Actor, action Action, authorID uint, isParticipant bool) bool {
	if !a.Authenticated() || !isParticipant {
		return false
	}
	switch action {
	case ActionRead, ActionCreate:
		return true
	case ActionUpdate, ActionDelete:
		return a.is(authorID)
	}
	return false
}

// CanProfile applies the profile rules: the owner updates, the owner or staff
// delete.
func CanProfile(a Actor, action Action, ownerID uint) bool {
	switch action {
	case ActionRead:
		return a.Authenticated()
	case ActionCreate, ActionUpdate:
		return a.is(ownerID)
	case ActionDelete:
		return a.is(ownerID) || (a.Authenticated() && a.IsStaff)
	}
	return false
}

// Require turns a rule outcome into a FORBIDDEN AppError and counts denials.
func Require(allowed bool, resource Resource, action Action) error {
	if allowed {
		return nil
	}
	observability.AuthorizationDenials.WithLabelValues(string(resource), string(action)).Inc()
	return models.NewForbiddenError(DenialMessage(resource, action))
}

// DenialMessage is the client-facing text for a denied action.
func DenialMessage(resource Resource, action Action) string {
	switch action {
	case ActionUpdate:
		return fmt.Sprintf("You cannot change this %s.", resource)
	case ActionDelete:
		return fmt.Sprintf("You cannot delete this %s.", resource)
	case ActionCreate:
		return fmt.Sprintf("You cannot create this %s.", resource)
	default:
		return fmt.Sprintf("You do not have access to this %s.", resource)
	}
}

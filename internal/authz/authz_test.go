package authz

import (
	"testing"

	"social/internal/models"

	"github.com/stretchr/testify/assert"
)

var (
	author   = Actor{ID: 1, Username: "author"}
	stranger = Actor{ID: 2, Username: "stranger"}
	staff    = Actor{ID: 3, Username: "staff", IsStaff: true}
	nobody   = Actor{}
)

func uintPtr(v uint) *uint { return &v }

func TestCanPost(t *testing.T) {
	tests := []struct {
		name      string
		actor     Actor
		action    Action
		published bool
		want      bool
	}{
		{"anyone reads published", stranger, ActionRead, true, true},
		{"stranger cannot read draft", stranger, ActionRead, false, false},
		{"author reads draft", author, ActionRead, false, true},
		{"staff reads draft", staff, ActionRead, false, true},
		{"author updates", author, ActionUpdate, true, true},
		{"staff cannot update", staff, ActionUpdate, true, false},
		{"stranger cannot update", stranger, ActionUpdate, true, false},
		{"author deletes", author, ActionDelete, true, true},
		{"staff deletes", staff, ActionDelete, true, true},
		{"stranger cannot delete", stranger, ActionDelete, true, false},
		{"anonymous cannot create", nobody, ActionCreate, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanPost(tt.actor, tt.action, author.ID, tt.published))
		})
	}
}

func TestCanComment(t *testing.T) {
	assert.True(t, CanComment(author, ActionUpdate, uintPtr(author.ID)))
	assert.False(t, CanComment(staff, ActionUpdate, uintPtr(author.ID)))
	assert.True(t, CanComment(author, ActionDelete, uintPtr(author.ID)))
	assert.True(t, CanComment(staff, ActionDelete, uintPtr(author.ID)))
	assert.False(t, CanComment(stranger, ActionDelete, uintPtr(author.ID)))

	// orphaned comment
	assert.False(t, CanComment(author, ActionUpdate, nil))
	assert.True(t, CanComment(staff, ActionDelete, nil))
	assert.False(t, CanComment(stranger, ActionDelete, nil))
}

func TestCanLike(t *testing.T) {
	assert.True(t, CanLike(author, ActionDelete, uintPtr(author.ID)))
	assert.False(t, CanLike(staff, ActionDelete, uintPtr(author.ID)))
	assert.False(t, CanLike(author, ActionUpdate, uintPtr(author.ID)))
	assert.True(t, CanLike(stranger, ActionCreate, nil))
	assert.False(t, CanLike(nobody, ActionCreate, nil))
}

func TestCanTag(t *testing.T) {
	assert.True(t, CanTag(stranger, ActionCreate))
	assert.False(t, CanTag(stranger, ActionUpdate))
	assert.False(t, CanTag(stranger, ActionDelete))
	assert.True(t, CanTag(staff, ActionUpdate))
	assert.True(t, CanTag(staff, ActionDelete))
}

func TestCanChat(t *testing.T) {
	for _, action := range []Action{ActionRead, ActionUpdate, ActionDelete} {
		assert.True(t, CanChat(author, action, true), action)
		assert.False(t, CanChat(stranger, action, false), action)
		assert.False(t, CanChat(staff, action, false), "staff has no chat override: %s", action)
	}
	assert.True(t, CanChat(stranger, ActionCreate, false))
}

func TestCanMessage(t *testing.T) {
	assert.True(t, CanMessage(stranger, ActionRead, author.ID, true))
	assert.True(t, CanMessage(stranger, ActionCreate, author.ID, true))
	assert.False(t, CanMessage(stranger, ActionRead, author.ID, false))
	assert.True(t, CanMessage(author, ActionUpdate, author.ID, true))
	assert.False(t, CanMessage(author, ActionUpdate, author.ID, false))
	assert.False(t, CanMessage(stranger, ActionDelete, author.ID, true))
}

func TestCanProfile(t *testing.T) {
	assert.True(t, CanProfile(stranger, ActionRead, author.ID))
	assert.True(t, CanProfile(author, ActionUpdate, author.ID))
	assert.False(t, CanProfile(staff, ActionUpdate, author.ID))
	assert.True(t, CanProfile(staff, ActionDelete, author.ID))
	assert.False(t, CanProfile(stranger, ActionDelete, author.ID))
}

func TestRequire(t *testing.T) {
	assert.NoError(t, Require(true, ResourcePost, ActionDelete))

	err := Require(false, ResourceChat, ActionDelete)
	assert.True(t, models.IsCode(err, models.CodeForbidden))
	assert.Equal(t, "You cannot delete this chat.", err.Error())
}

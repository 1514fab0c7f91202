package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"social/internal/cache"
	"social/internal/models"
	"social/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostService_CreateUsesActorAsAuthor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", false)
	tag, err := f.tags.CreateTag(ctx, alice, TagInput{Title: strPtr("Golang")})
	require.NoError(t, err)

	post, err := f.posts.CreatePost(ctx, alice, PostInput{
		Text:     strPtr("  hello world  "),
		Location: strPtr("Kyiv"),
		TagIDs:   idsPtr(tag.ID, tag.ID),
	})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, post.AuthorID)
	assert.Equal(t, "alice", post.AuthorName)
	assert.Equal(t, "hello world", post.Text)
	assert.True(t, post.IsPublished, "is_published defaults to true")
	require.Len(t, post.Tags, 1)
	assert.Equal(t, "golang", post.Tags[0].Slug)
	assert.Zero(t, post.LikesNum)
	assert.Zero(t, post.CommentsNum)
}

func TestPostService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", false)

	_, err := f.posts.CreatePost(ctx, alice, PostInput{})
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, errRequired, appErr.Fields["text"])

	_, err = f.posts.CreatePost(ctx, alice, PostInput{Text: strPtr(strings.Repeat("x", postTextMax+1))})
	assert.True(t, models.IsCode(err, models.CodeValidation))

	_, err = f.posts.CreatePost(ctx, alice, PostInput{Text: strPtr("ok"), Location: strPtr(strings.Repeat("l", locationMax+1))})
	assert.True(t, models.IsCode(err, models.CodeValidation))

	_, err = f.posts.CreatePost(ctx, alice, PostInput{Text: strPtr("ok"), TagIDs: idsPtr(999)})
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, errUnknownTagID, appErr.Fields["tags"])

	var count int64
	require.NoError(t, f.db.Model(&models.Post{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPostService_UpdateAndDeleteRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", false)
	bob := f.user(t, "bob", false)
	staff := f.user(t, "moderator", true)

	post, err := f.posts.CreatePost(ctx, alice, PostInput{Text: strPtr("original")})
	require.NoError(t, err)

	_, err = f.posts.UpdatePost(ctx, bob, post.ID, PostInput{Text: strPtr("hijacked")}, false)
	assert.True(t, models.IsCode(err, models.CodeForbidden))
	_, err = f.posts.UpdatePost(ctx, staff, post.ID, PostInput{Text: strPtr("moderated")}, false)
	assert.True(t, models.IsCode(err, models.CodeForbidden), "staff cannot edit other authors' posts")

	_, err = f.posts.UpdatePost(ctx, alice, post.ID, PostInput{Location: strPtr("Lviv")}, true)
	assert.True(t, models.IsCode(err, models.CodeValidation), "PUT requires text")

	updated, err := f.posts.UpdatePost(ctx, alice, post.ID, PostInput{Text: strPtr("edited")}, false)
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Text)

	assert.True(t, models.IsCode(f.posts.DeletePost(ctx, bob, post.ID), models.CodeForbidden))
	require.NoError(t, f.posts.DeletePost(ctx, staff, post.ID))

	_, err = f.posts.GetPost(ctx, alice, post.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestPostService_DraftVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", false)
	bob := f.user(t, "bob", false)
	staff := f.user(t, "moderator", true)

	draft, err := f.posts.CreatePost(ctx, alice, PostInput{Text: strPtr("draft"), IsPublished: boolPtr(false)})
	require.NoError(t, err)

	_, err = f.posts.GetPost(ctx, bob, draft.ID)
	assert.True(t, models.IsCode(err, models.CodeForbidden))
	_, err = f.posts.GetPost(ctx, alice, draft.ID)
	assert.NoError(t, err)
	_, err = f.posts.GetPost(ctx, staff, draft.ID)
	assert.NoError(t, err)

	bobList, err := f.posts.ListPosts(ctx, bob, ListPostsInput{})
	require.NoError(t, err)
	assert.Empty(t, bobList)
	aliceList, err := f.posts.ListPosts(ctx, alice, ListPostsInput{})
	require.NoError(t, err)
	assert.Len(t, aliceList, 1)
}

func TestPostService_DetailCacheIsInvalidated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", false)
	bob := f.user(t, "bob", false)

	post, err := f.posts.CreatePost(ctx, alice, PostInput{Text: strPtr("cached")})
	require.NoError(t, err)

	_, err = f.posts.GetPost(ctx, bob, post.ID)
	require.NoError(t, err)
	require.True(t, f.mr.Exists(cache.PostKey(post.ID)))

	_, err = f.likes.CreateLike(ctx, bob, post.ID)
	require.NoError(t, err)
	assert.False(t, f.mr.Exists(cache.PostKey(post.ID)), "like invalidates the detail")

	got, err := f.posts.GetPost(ctx, bob, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.LikesNum)

	_, err = f.comments.CreateComment(ctx, bob, CreateCommentInput{PostID: post.ID, Text: strPtr("nice")})
	require.NoError(t, err)
	got, err = f.posts.GetPost(ctx, alice, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.CommentsNum)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "bob", got.Comments[0].AuthorName)
}

func TestPostService_CachedDraftStillChecksReadRule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", false)
	bob := f.user(t, "bob", false)

	draft, err := f.posts.CreatePost(ctx, alice, PostInput{Text: strPtr("draft"), IsPublished: boolPtr(false)})
	require.NoError(t, err)
	_, err = f.posts.GetPost(ctx, alice, draft.ID)
	require.NoError(t, err)
	require.True(t, f.mr.Exists(cache.PostKey(draft.ID)))

	_, err = f.posts.GetPost(ctx, bob, draft.ID)
	assert.True(t, models.IsCode(err, models.CodeForbidden))
}

func TestPostService_PublishesPostCreated(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	alice := f.user(t, "alice", false)

	events := make(chan notifications.Event, 1)
	notifier := notifications.NewNotifier(f.rdb)
	require.NoError(t, notifier.Subscribe(ctx, func(_ string, evt notifications.Event) { events <- evt }, notifications.UserChannel(alice.ID)))

	_, err := f.posts.CreatePost(ctx, alice, PostInput{Text: strPtr("hello")})
	require.NoError(t, err)

	select {
	case evt := <-events:
		assert.Equal(t, notifications.EventPostCreated, evt.Type)
		assert.Equal(t, alice.ID, evt.ActorID)
		raw, _ := json.Marshal(evt.Data)
		assert.Contains(t, string(raw), `"post_id"`)
	case <-time.After(2 * time.Second):
		t.Fatal("post.created was not published")
	}
}

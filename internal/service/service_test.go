package service

import (
	"testing"
	"time"

	"social/internal/authz"
	"social/internal/cache"
	"social/internal/config"
	"social/internal/featureflags"
	"social/internal/models"
	"social/internal/notifications"
	"social/internal/repository"
	"social/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const testSecret = "test-secret-with-enough-length-0123456789"

type fixture struct {
	db  *gorm.DB
	rdb *redis.Client
	mr  *miniredis.Miniredis
	cfg *config.Config

	tokens   *TokenService
	auth     *AuthService
	posts    *PostService
	comments *CommentService
	likes    *LikeService
	tags     *TagService
	chats    *ChatService
	messages *MessageService
	profiles *ProfileService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	rdb, mr := testutil.NewRedis(t)
	cfg := &config.Config{
		JWTSecret:   testSecret,
		JWTIssuer:   "social-api",
		JWTAudience: "social-clients",
	}

	users := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	tagRepo := repository.NewTagRepository(db)
	chatRepo := repository.NewChatRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	store := cache.NewStore(rdb, time.Minute)
	notifier := notifications.NewNotifier(rdb)
	flags := featureflags.NewManager("post_cache=on")
	tokens := NewTokenService(cfg, rdb)

	return &fixture{
		db:       db,
		rdb:      rdb,
		mr:       mr,
		cfg:      cfg,
		tokens:   tokens,
		auth:     NewAuthService(users, tokens),
		posts:    NewPostService(postRepo, tagRepo, store, flags, notifier),
		comments: NewCommentService(repository.NewCommentRepository(db), postRepo, store, notifier),
		likes:    NewLikeService(repository.NewLikeRepository(db), postRepo, store, notifier),
		tags:     NewTagService(tagRepo),
		chats:    NewChatService(chatRepo, messageRepo, users, false),
		messages: NewMessageService(messageRepo, chatRepo, notifier, false),
		profiles: NewProfileService(repository.NewProfileRepository(db), postRepo, store),
	}
}

func (f *fixture) user(t *testing.T, username string, staff bool) authz.Actor {
	t.Helper()
	u := testutil.CreateUser(t, f.db, username, staff)
	return actorOf(u)
}

func actorOf(u *models.User) authz.Actor {
	return authz.Actor{ID: u.ID, Username: u.Username, IsStaff: u.IsStaff}
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func uintPtr(v uint) *uint { return &v }

func idsPtr(ids ...uint) *[]uint { return &ids }

package seed

import (
	"fmt"
	"log"
	"time"

	"social/internal/models"

	"gorm.io/gorm"
)

// Options configures the seeder.
type Options struct {
	NumUsers        int
	PostsPerUser    int
	NumTags         int
	NumChats        int
	MessagesPerChat int
	ShouldClean     bool
	DryRun          bool
	SkipBcrypt      bool
	Verbose         bool
	MaxDays         int
	RandSeed        int64
}

// DefaultOptions is what cmd/seed uses when no flags are given.
func DefaultOptions() Options {
	return Options{
		NumUsers:        25,
		PostsPerUser:    4,
		NumTags:         12,
		NumChats:        10,
		MessagesPerChat: 15,
		ShouldClean:     true,
		MaxDays:         90,
	}
}

// Summary counts what a seeding run created.
type Summary struct {
	Users    int
	Tags     int
	Posts    int
	Comments int
	Likes    int
	Chats    int
	Messages int
}

func (s Summary) String() string {
	return fmt.Sprintf("users=%d tags=%d posts=%d comments=%d likes=%d chats=%d messages=%d",
		s.Users, s.Tags, s.Posts, s.Comments, s.Likes, s.Chats, s.Messages)
}

// Seeder populates the database with generated or scripted content.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

// NewSeeder creates a seeder over db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, opts: opts, factory: NewFactory(db, opts)}
}

// clearOrder lists tables children first so foreign keys never block a delete.
var clearOrder = []string{
	"messages", "chat_participants", "chats",
	"likes", "comments", "post_tags", "posts", "tags",
	"media", "profiles", "users",
}

// ClearAll removes every row of application data.
func (s *Seeder) ClearAll() error {
	if s.opts.DryRun {
		log.Println("[dry-run] skipping cleanup")
		return nil
	}
	log.Println("Clearing existing data...")
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, table := range clearOrder {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}

// Run generates a random social graph sized by the seeder options.
func (s *Seeder) Run() (Summary, error) {
	var sum Summary
	f := s.factory

	if s.opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return sum, err
		}
	}

	users := make([]models.User, 0, s.opts.NumUsers)
	for i := 0; i < s.opts.NumUsers; i++ {
		u, err := f.CreateUser()
		if err != nil {
			return sum, err
		}
		users = append(users, *u)
	}
	sum.Users = len(users)
	log.Printf("%d users created", sum.Users)
	if len(users) == 0 {
		return sum, nil
	}

	tags := make([]models.Tag, 0, s.opts.NumTags)
	seen := map[string]bool{}
	for i := 0; i < s.opts.NumTags; i++ {
		t, err := f.CreateTag("")
		if err != nil {
			return sum, err
		}
		if seen[t.Slug] {
			continue
		}
		seen[t.Slug] = true
		tags = append(tags, *t)
	}
	sum.Tags = len(tags)

	for i := range users {
		for j := 0; j < s.opts.PostsPerUser; j++ {
			post, err := f.CreatePost(&users[i], pickTags(f, tags), func(p *models.Post) {
				p.IsPublished = f.faker.Float32Range(0, 1) > 0.1
			})
			if err != nil {
				return sum, err
			}
			sum.Posts++

			c, l, err := s.engage(post, users)
			if err != nil {
				return sum, err
			}
			sum.Comments += c
			sum.Likes += l
		}
	}
	log.Printf("%d posts created with %d comments and %d likes", sum.Posts, sum.Comments, sum.Likes)

	if len(users) >= 2 {
		for i := 0; i < s.opts.NumChats; i++ {
			n, err := s.chat(users)
			if err != nil {
				return sum, err
			}
			sum.Chats++
			sum.Messages += n
		}
	}
	log.Printf("%d chats created with %d messages", sum.Chats, sum.Messages)

	return sum, nil
}

// engage adds comments and likes to a published post from random users.
func (s *Seeder) engage(post *models.Post, users []models.User) (comments, likes int, err error) {
	if !post.IsPublished {
		return 0, 0, nil
	}
	f := s.factory
	for k := f.faker.IntRange(0, 4); k > 0; k-- {
		author := users[f.faker.IntRange(0, len(users)-1)]
		if _, err := f.CreateComment(&author, post); err != nil {
			return comments, likes, err
		}
		comments++
	}
	liked := map[uint]bool{}
	for k := f.faker.IntRange(0, len(users)/2); k > 0; k-- {
		u := users[f.faker.IntRange(0, len(users)-1)]
		if liked[u.ID] {
			continue
		}
		liked[u.ID] = true
		if err := f.CreateLike(&u, post); err != nil {
			return comments, likes, err
		}
		likes++
	}
	return comments, likes, nil
}

// chat opens a conversation between two to four random users and fills it
// with messages in chronological order.
func (s *Seeder) chat(users []models.User) (int, error) {
	f := s.factory
	size := f.faker.IntRange(2, min(4, len(users)))
	picked := map[uint]bool{}
	participants := make([]models.User, 0, size)
	for len(participants) < size {
		u := users[f.faker.IntRange(0, len(users)-1)]
		if picked[u.ID] {
			continue
		}
		picked[u.ID] = true
		participants = append(participants, u)
	}

	title := ""
	if size > 2 {
		title = f.faker.BuzzWord()
	}
	chat, err := f.CreateChat(title, participants)
	if err != nil {
		return 0, err
	}

	at := f.pastTime()
	for i := 0; i < s.opts.MessagesPerChat; i++ {
		author := participants[f.faker.IntRange(0, len(participants)-1)]
		at = at.Add(time.Duration(f.faker.IntRange(1, 90)) * time.Minute)
		if _, err := f.CreateMessage(chat, &author, at); err != nil {
			return i, err
		}
	}
	return s.opts.MessagesPerChat, nil
}

func pickTags(f *Factory, tags []models.Tag) []models.Tag {
	if len(tags) == 0 {
		return nil
	}
	n := f.faker.IntRange(0, min(3, len(tags)))
	out := make([]models.Tag, 0, n)
	seen := map[uint]bool{}
	for len(out) < n {
		t := tags[f.faker.IntRange(0, len(tags)-1)]
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out
}

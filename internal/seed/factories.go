// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"log"
	"strings"
	"time"

	"social/internal/models"
	"social/internal/slug"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every generated account.
const DefaultPassword = "password123"

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker

	// bcrypt is slow; every seeded user shares one hash per password.
	hashes map[string]string
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB. A zero
// Options.RandSeed picks a time based seed.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{
		db:     db,
		opts:   opts,
		faker:  gofakeit.New(seed),
		hashes: map[string]string{},
		nextID: 1000,
	}
}

func (f *Factory) assignID(kind string, id *uint) {
	f.nextID++
	*id = f.nextID
	if f.opts.Verbose {
		log.Printf("[dry-run] create %s id=%d", kind, *id)
	}
}

func (f *Factory) passwordHash(plain string) (string, error) {
	if f.opts.SkipBcrypt {
		return plain, nil
	}
	if h, ok := f.hashes[plain]; ok {
		return h, nil
	}
	raw, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	f.hashes[plain] = string(raw)
	return string(raw), nil
}

// pastTime spreads timestamps over the last MaxDays days.
func (f *Factory) pastTime() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.faker.IntRange(0, maxDays*24*60)) * time.Minute
	return time.Now().Add(-back)
}

// CreateUser constructs and persists a user with its profile. Override
// functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User, *models.Profile)) (*models.User, error) {
	hash, err := f.passwordHash(DefaultPassword)
	if err != nil {
		return nil, err
	}

	username := strings.ToLower(f.faker.Username()) + fmt.Sprintf("%d", f.faker.Number(100, 999))
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: hash,
	}
	dob := models.Date{Time: f.faker.DateRange(
		time.Date(1960, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2005, 12, 31, 0, 0, 0, 0, time.UTC),
	).Truncate(24 * time.Hour)}
	profile := &models.Profile{
		Bio:            f.faker.Sentence(10),
		ProfilePicture: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", username),
		Location:       f.faker.City(),
		Website:        "https://" + f.faker.DomainName(),
		DateOfBirth:    &dob,
	}

	for _, override := range overrides {
		override(user, profile)
	}

	if f.opts.DryRun {
		f.assignID("user", &user.ID)
		profile.UserID = user.ID
		user.Profile = profile
		return user, nil
	}

	err = f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Profile").Create(user).Error; err != nil {
			return err
		}
		profile.UserID = user.ID
		return tx.Omit("User").Create(profile).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create user %s: %w", user.Username, err)
	}
	user.Profile = profile
	return user, nil
}

// CreateTag persists a tag, deriving the slug from the title.
func (f *Factory) CreateTag(title string) (*models.Tag, error) {
	if title == "" {
		title = f.faker.Hobby()
	}
	tag := &models.Tag{Title: title, Slug: slug.Make(title)}

	if f.opts.DryRun {
		f.assignID("tag", &tag.ID)
		return tag, nil
	}
	if err := f.db.Where(models.Tag{Slug: tag.Slug}).Attrs(models.Tag{Title: title}).FirstOrCreate(tag).Error; err != nil {
		return nil, fmt.Errorf("create tag %q: %w", title, err)
	}
	return tag, nil
}

// CreatePost constructs and persists a published post by author with the
// given tags attached.
func (f *Factory) CreatePost(author *models.User, tags []models.Tag, overrides ...func(*models.Post)) (*models.Post, error) {
	post := &models.Post{
		Text:        f.faker.Paragraph(1, f.faker.IntRange(1, 4), 12, " "),
		AuthorID:    author.ID,
		IsPublished: true,
		Tags:        tags,
		TimeCreate:  f.pastTime(),
	}
	if f.faker.Float32Range(0, 1) < 0.4 {
		post.Image = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID())
	}
	if f.faker.Bool() {
		post.Location = f.faker.City()
	}

	for _, override := range overrides {
		override(post)
	}

	if f.opts.DryRun {
		f.assignID("post", &post.ID)
		return post, nil
	}
	if err := f.db.Omit("Author", "Comments", "Tags.*").Create(post).Error; err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// CreateComment persists a comment by author on post.
func (f *Factory) CreateComment(author *models.User, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	authorID := author.ID
	comment := &models.Comment{
		PostID:     post.ID,
		AuthorID:   &authorID,
		Text:       f.faker.Sentence(f.faker.IntRange(3, 15)),
		TimeCreate: post.TimeCreate.Add(time.Duration(f.faker.IntRange(1, 600)) * time.Minute),
	}

	for _, override := range overrides {
		override(comment)
	}

	if f.opts.DryRun {
		f.assignID("comment", &comment.ID)
		return comment, nil
	}
	if err := f.db.Omit("Author").Create(comment).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

// CreateLike persists a like from user on post. A repeated like is skipped.
func (f *Factory) CreateLike(user *models.User, post *models.Post) error {
	authorID := user.ID
	like := &models.Like{PostID: post.ID, AuthorID: &authorID}

	if f.opts.DryRun {
		f.assignID("like", &like.ID)
		return nil
	}
	err := f.db.Omit("Author", "Post").
		Where(models.Like{PostID: post.ID, AuthorID: &authorID}).
		FirstOrCreate(like).Error
	if err != nil {
		return fmt.Errorf("create like: %w", err)
	}
	return nil
}

// CreateChat persists a chat between participants. An empty title is
// derived from the participant usernames.
func (f *Factory) CreateChat(title string, participants []models.User) (*models.Chat, error) {
	if title == "" {
		names := make([]string, 0, len(participants))
		for _, p := range participants {
			names = append(names, p.Username)
		}
		title = strings.Join(names, ", ")
	}
	chat := &models.Chat{Title: title, Participants: participants}

	if f.opts.DryRun {
		f.assignID("chat", &chat.ID)
		return chat, nil
	}
	if err := f.db.Omit("Participants.*", "Messages").Create(chat).Error; err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}
	return chat, nil
}

// CreateMessage persists a message by author in chat.
func (f *Factory) CreateMessage(chat *models.Chat, author *models.User, at time.Time, overrides ...func(*models.Message)) (*models.Message, error) {
	msg := &models.Message{
		ChatID:      chat.ID,
		AuthorID:    author.ID,
		Text:        f.faker.Sentence(f.faker.IntRange(2, 20)),
		IsPublished: true,
		TimeCreate:  at,
	}

	for _, override := range overrides {
		override(msg)
	}

	if f.opts.DryRun {
		f.assignID("message", &msg.ID)
		return msg, nil
	}
	if err := f.db.Omit("Author", "Recipient").Create(msg).Error; err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return msg, nil
}

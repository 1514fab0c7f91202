package seed

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"strings"
	"time"

	"social/internal/models"
	"social/internal/slug"

	"gopkg.in/yaml.v3"
)

//go:embed scenarios/*.yml
var builtinScenarios embed.FS

// Scenario is a hand-written data set loaded from YAML. Users are referenced
// by username everywhere else in the file.
type Scenario struct {
	Users []ScenarioUser `yaml:"users"`
	Tags  []string       `yaml:"tags"`
	Posts []ScenarioPost `yaml:"posts"`
	Chats []ScenarioChat `yaml:"chats"`
}

type ScenarioUser struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Staff    bool   `yaml:"staff"`
	Bio      string `yaml:"bio"`
	Location string `yaml:"location"`
	Website  string `yaml:"website"`
}

type ScenarioPost struct {
	Author   string            `yaml:"author"`
	Text     string            `yaml:"text"`
	Location string            `yaml:"location"`
	Draft    bool              `yaml:"draft"`
	Tags     []string          `yaml:"tags"`
	Comments []ScenarioMessage `yaml:"comments"`
	LikedBy  []string          `yaml:"liked_by"`
	DaysAgo  int               `yaml:"days_ago"`
}

type ScenarioChat struct {
	Title        string            `yaml:"title"`
	Participants []string          `yaml:"participants"`
	Messages     []ScenarioMessage `yaml:"messages"`
}

type ScenarioMessage struct {
	Author string `yaml:"author"`
	Text   string `yaml:"text"`
}

// ParseScenario decodes a scenario and checks that every username it
// references is declared.
func ParseScenario(raw []byte) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// LoadScenario reads a scenario from path. A bare name such as "demo" refers
// to a scenario shipped with the binary.
func LoadScenario(path string) (*Scenario, error) {
	var (
		raw []byte
		err error
	)
	if !strings.ContainsAny(path, "/\\.") {
		raw, err = builtinScenarios.ReadFile("scenarios/" + path + ".yml")
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}
	return ParseScenario(raw)
}

func (sc *Scenario) validate() error {
	known := map[string]bool{}
	for _, u := range sc.Users {
		name := strings.TrimSpace(u.Username)
		if name == "" {
			return fmt.Errorf("scenario user without username")
		}
		if known[name] {
			return fmt.Errorf("scenario user %q declared twice", name)
		}
		known[name] = true
	}

	check := func(where, name string) error {
		if !known[name] {
			return fmt.Errorf("%s references unknown user %q", where, name)
		}
		return nil
	}
	for i, p := range sc.Posts {
		where := fmt.Sprintf("posts[%d]", i)
		if err := check(where, p.Author); err != nil {
			return err
		}
		for _, c := range p.Comments {
			if err := check(where+" comment", c.Author); err != nil {
				return err
			}
		}
		for _, name := range p.LikedBy {
			if err := check(where+" like", name); err != nil {
				return err
			}
		}
	}
	for i, c := range sc.Chats {
		where := fmt.Sprintf("chats[%d]", i)
		members := map[string]bool{}
		for _, name := range c.Participants {
			if err := check(where, name); err != nil {
				return err
			}
			members[name] = true
		}
		if len(members) < 2 {
			return fmt.Errorf("%s needs at least two participants", where)
		}
		for _, m := range c.Messages {
			if !members[m.Author] {
				return fmt.Errorf("%s message author %q is not a participant", where, m.Author)
			}
		}
	}
	return nil
}

// ApplyScenario writes sc to the database.
func (s *Seeder) ApplyScenario(sc *Scenario) (Summary, error) {
	var sum Summary
	f := s.factory

	if s.opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return sum, err
		}
	}

	users := map[string]*models.User{}
	for _, su := range sc.Users {
		password := su.Password
		if password == "" {
			password = DefaultPassword
		}
		hash, err := f.passwordHash(password)
		if err != nil {
			return sum, err
		}
		u, err := f.CreateUser(func(u *models.User, p *models.Profile) {
			u.Username = su.Username
			u.Email = su.Email
			if u.Email == "" {
				u.Email = su.Username + "@example.com"
			}
			u.Password = hash
			u.IsStaff = su.Staff
			p.Bio = su.Bio
			p.Location = su.Location
			p.Website = su.Website
			p.DateOfBirth = nil
		})
		if err != nil {
			return sum, err
		}
		users[su.Username] = u
		sum.Users++
	}

	tags := map[string]models.Tag{}
	addTag := func(title string) (models.Tag, error) {
		key := slug.Make(title)
		if t, ok := tags[key]; ok {
			return t, nil
		}
		t, err := f.CreateTag(title)
		if err != nil {
			return models.Tag{}, err
		}
		tags[key] = *t
		sum.Tags++
		return *t, nil
	}
	for _, title := range sc.Tags {
		if _, err := addTag(title); err != nil {
			return sum, err
		}
	}

	for _, sp := range sc.Posts {
		postTags := make([]models.Tag, 0, len(sp.Tags))
		for _, title := range sp.Tags {
			t, err := addTag(title)
			if err != nil {
				return sum, err
			}
			postTags = append(postTags, t)
		}

		post, err := f.CreatePost(users[sp.Author], postTags, func(p *models.Post) {
			p.Text = sp.Text
			p.Location = sp.Location
			p.Image = ""
			p.IsPublished = !sp.Draft
			p.TimeCreate = time.Now().AddDate(0, 0, -sp.DaysAgo)
		})
		if err != nil {
			return sum, err
		}
		sum.Posts++

		for i, c := range sp.Comments {
			text := c.Text
			at := post.TimeCreate.Add(time.Duration(i+1) * time.Minute)
			if _, err := f.CreateComment(users[c.Author], post, func(cm *models.Comment) {
				cm.Text = text
				cm.TimeCreate = at
			}); err != nil {
				return sum, err
			}
			sum.Comments++
		}
		for _, name := range sp.LikedBy {
			if err := f.CreateLike(users[name], post); err != nil {
				return sum, err
			}
			sum.Likes++
		}
	}

	for _, sch := range sc.Chats {
		participants := make([]models.User, 0, len(sch.Participants))
		seen := map[string]bool{}
		for _, name := range sch.Participants {
			if seen[name] {
				continue
			}
			seen[name] = true
			participants = append(participants, *users[name])
		}
		chat, err := f.CreateChat(sch.Title, participants)
		if err != nil {
			return sum, err
		}
		sum.Chats++

		at := time.Now().Add(-time.Duration(len(sch.Messages)) * time.Minute)
		for i, m := range sch.Messages {
			text := m.Text
			if _, err := f.CreateMessage(chat, users[m.Author], at.Add(time.Duration(i)*time.Minute), func(msg *models.Message) {
				msg.Text = text
			}); err != nil {
				return sum, err
			}
			sum.Messages++
		}
	}

	return sum, nil
}

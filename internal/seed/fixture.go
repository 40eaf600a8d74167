package seed

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yml
var defaultFixture []byte

// Fixture is a hand-written data set, usually loaded from YAML.
type Fixture struct {
	Users    []FixtureUser    `yaml:"users"`
	Posts    []FixturePost    `yaml:"posts"`
	Comments []FixtureComment `yaml:"comments"`
}

// FixtureUser describes an account. An empty password falls back to
// DefaultPassword.
type FixtureUser struct {
	Username    string   `yaml:"username"`
	Email       string   `yaml:"email"`
	FirstName   string   `yaml:"first_name"`
	LastName    string   `yaml:"last_name"`
	Password    string   `yaml:"password"`
	Superuser   bool     `yaml:"superuser"`
	Permissions []string `yaml:"permissions"`
}

// FixturePost is authored by a fixture user. Status defaults to published.
type FixturePost struct {
	Title   string    `yaml:"title"`
	Slug    string    `yaml:"slug"`
	Author  string    `yaml:"author"`
	Body    string    `yaml:"body"`
	Status  string    `yaml:"status"`
	Publish time.Time `yaml:"publish"`
	Tags    []string  `yaml:"tags"`
}

// FixtureComment refers to its post by slug.
type FixtureComment struct {
	Post   string `yaml:"post"`
	User   string `yaml:"user"`
	Body   string `yaml:"body"`
	Active *bool  `yaml:"active"`
}

// ParseFixture decodes YAML and checks that every reference resolves.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// LoadFixture reads a fixture file. An empty path selects the built-in
// demo data.
func LoadFixture(path string) (*Fixture, error) {
	if path == "" {
		return ParseFixture(defaultFixture)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(data)
}

func (f *Fixture) validate() error {
	users := make(map[string]bool, len(f.Users))
	for i, u := range f.Users {
		if u.Username == "" {
			return fmt.Errorf("users[%d]: username is required", i)
		}
		if users[u.Username] {
			return fmt.Errorf("users[%d]: duplicate username %q", i, u.Username)
		}
		users[u.Username] = true
	}

	posts := make(map[string]bool, len(f.Posts))
	for i, p := range f.Posts {
		if p.Title == "" {
			return fmt.Errorf("posts[%d]: title is required", i)
		}
		if !users[p.Author] {
			return fmt.Errorf("posts[%d]: unknown author %q", i, p.Author)
		}
		switch p.Status {
		case "", "draft", "published":
		default:
			return fmt.Errorf("posts[%d]: invalid status %q", i, p.Status)
		}
		posts[p.postSlug()] = true
	}

	for i, c := range f.Comments {
		if !posts[c.Post] {
			return fmt.Errorf("comments[%d]: unknown post %q", i, c.Post)
		}
		if !users[c.User] {
			return fmt.Errorf("comments[%d]: unknown user %q", i, c.User)
		}
	}
	return nil
}

// Package seed populates a database with demo data for development and
// tests, either from a YAML fixture or from generated content.
package seed

import (
	"fmt"
	"time"

	"myblog/internal/middleware"
	"myblog/internal/models"
	"myblog/internal/slug"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is used for fixture users without a password and for
// every generated user.
const DefaultPassword = "password123"

var tagPool = []string{
	"go", "python", "django", "databases", "web", "devops", "music",
	"jazz", "travel", "food", "books", "testing",
}

// Options controls generated content.
type Options struct {
	// RandomSeed makes generated content reproducible when non-zero.
	RandomSeed int64
	// MaxDays spreads publish dates over the last MaxDays days.
	MaxDays int
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
	// Now defaults to time.Now.
	Now func() time.Time
}

// Seeder writes demo data through GORM.
type Seeder struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker
	// used tracks permalinks taken by generated posts.
	used map[string]bool
}

// NewSeeder creates a Seeder bound to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	if opts.RandomSeed == 0 {
		opts.RandomSeed = time.Now().UnixNano()
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Seeder{
		db:    db,
		opts:  opts,
		faker: gofakeit.New(opts.RandomSeed),
		used:  map[string]bool{},
	}
}

// ClearAll hard-deletes every blog row, children first.
func (s *Seeder) ClearAll() error {
	tables := []string{"post_tags", "comments", "posts", "tags", "user_permissions", "users"}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	middleware.Logger.Info("database cleared")
	return nil
}

// ApplyFixture inserts f in one transaction.
func (s *Seeder) ApplyFixture(f *Fixture) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		users := make(map[string]*models.User, len(f.Users))
		for _, fu := range f.Users {
			u, err := s.createUser(tx, fu)
			if err != nil {
				return err
			}
			users[fu.Username] = u
		}

		posts := make(map[string]*models.Post, len(f.Posts))
		for _, fp := range f.Posts {
			status := models.PostStatus(fp.Status)
			if status == "" {
				status = models.StatusPublished
			}
			publish := fp.Publish
			if publish.IsZero() {
				publish = s.opts.Now().UTC()
			}
			p, err := s.createPost(tx, users[fp.Author], fp.Title, fp.postSlug(), fp.Body, status, publish.UTC(), fp.Tags)
			if err != nil {
				return err
			}
			posts[p.Slug] = p
		}

		for _, fc := range f.Comments {
			active := fc.Active == nil || *fc.Active
			if err := createComment(tx, posts[fc.Post], users[fc.User], fc.Body, active); err != nil {
				return err
			}
		}

		middleware.Logger.Info("fixture applied",
			"users", len(f.Users), "posts", len(f.Posts), "comments", len(f.Comments))
		return nil
	})
}

// SeedRandom generates numUsers users and numPosts posts with tags and
// comments. Every generated user may write posts.
func (s *Seeder) SeedRandom(numUsers, numPosts int) ([]*models.User, error) {
	if numUsers <= 0 {
		return nil, nil
	}

	users := make([]*models.User, 0, numUsers)
	for i := 0; i < numUsers; i++ {
		first := s.faker.FirstName()
		username := fmt.Sprintf("%s%d", s.faker.Username(), i)
		u, err := s.createUser(s.db, FixtureUser{
			Username:    username,
			Email:       fmt.Sprintf("%s@example.com", username),
			FirstName:   first,
			LastName:    s.faker.LastName(),
			Permissions: []string{models.PermAddPost},
		})
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	now := s.opts.Now().UTC()
	for i := 0; i < numPosts; i++ {
		author := users[s.faker.Number(0, len(users)-1)]
		publish := now.Add(-time.Duration(s.faker.Number(0, s.opts.MaxDays*24*60)) * time.Minute)
		title := s.faker.Sentence(s.faker.Number(3, 7))
		status := models.StatusPublished
		if s.faker.Number(1, 10) == 1 {
			status = models.StatusDraft
		}

		tags := make([]string, 0, 3)
		for n := s.faker.Number(0, 3); n > 0; n-- {
			tags = append(tags, s.faker.RandomString(tagPool))
		}

		body := s.faker.Paragraph(s.faker.Number(1, 4), 4, 12, "\n\n")
		post, err := s.createPost(s.db, author, title, s.uniqueSlug(title, publish), body, status, publish, tags)
		if err != nil {
			return nil, err
		}
		if status != models.StatusPublished {
			continue
		}
		for n := s.faker.Number(0, 4); n > 0; n-- {
			commenter := users[s.faker.Number(0, len(users)-1)]
			active := s.faker.Number(1, 20) != 1
			if err := createComment(s.db, post, commenter, s.faker.Sentence(s.faker.Number(4, 16)), active); err != nil {
				return nil, err
			}
		}
	}

	middleware.Logger.Info("random data seeded", "users", numUsers, "posts", numPosts)
	return users, nil
}

// uniqueSlug suffixes the slug of title until no generated post shares it
// on the same day.
func (s *Seeder) uniqueSlug(title string, publish time.Time) string {
	base := slug.Make(title)
	if base == "" {
		base = "post"
	}
	day := publish.Format("2006-01-02")
	candidate := base
	for n := 2; s.used[day+"/"+candidate]; n++ {
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
	s.used[day+"/"+candidate] = true
	return candidate
}

func (s *Seeder) createUser(tx *gorm.DB, fu FixtureUser) (*models.User, error) {
	password := fu.Password
	if password == "" {
		password = DefaultPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		return nil, err
	}

	email := fu.Email
	if email == "" {
		email = fu.Username + "@example.com"
	}
	u := &models.User{
		Username:    fu.Username,
		Email:       email,
		FirstName:   fu.FirstName,
		LastName:    fu.LastName,
		Password:    string(hash),
		IsActive:    true,
		IsSuperuser: fu.Superuser,
	}
	if err := tx.Create(u).Error; err != nil {
		return nil, fmt.Errorf("create user %s: %w", fu.Username, err)
	}
	for _, codename := range fu.Permissions {
		if err := tx.Create(&models.UserPermission{UserID: u.ID, Codename: codename}).Error; err != nil {
			return nil, fmt.Errorf("grant %s to %s: %w", codename, fu.Username, err)
		}
	}
	return u, nil
}

func (s *Seeder) createPost(tx *gorm.DB, author *models.User, title, postSlug, body string,
	status models.PostStatus, publish time.Time, tagNames []string) (*models.Post, error) {
	tags, err := ensureTags(tx, tagNames)
	if err != nil {
		return nil, err
	}
	p := &models.Post{
		Title:    title,
		Slug:     postSlug,
		Body:     body,
		AuthorID: author.ID,
		Status:   status,
		Publish:  publish,
		Tags:     tags,
	}
	if err := tx.Omit("Author").Create(p).Error; err != nil {
		return nil, fmt.Errorf("create post %q: %w", title, err)
	}
	return p, nil
}

func ensureTags(tx *gorm.DB, names []string) ([]models.Tag, error) {
	seen := map[string]bool{}
	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		tagSlug := slug.Make(name)
		if tagSlug == "" || seen[tagSlug] {
			continue
		}
		seen[tagSlug] = true

		var tag models.Tag
		if err := tx.Where(models.Tag{Slug: tagSlug}).Attrs(models.Tag{Name: name}).FirstOrCreate(&tag).Error; err != nil {
			return nil, fmt.Errorf("tag %q: %w", name, err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func createComment(tx *gorm.DB, post *models.Post, user *models.User, body string, active bool) error {
	c := &models.Comment{
		PostID: post.ID,
		UserID: user.ID,
		Name:   user.Username,
		Body:   body,
		Active: true,
	}
	if err := tx.Omit("User").Create(c).Error; err != nil {
		return fmt.Errorf("create comment on %q: %w", post.Slug, err)
	}
	// Active has a database default, so false must be written explicitly.
	if !active {
		return tx.Model(c).Update("active", false).Error
	}
	return nil
}

func (p FixturePost) postSlug() string {
	if p.Slug != "" {
		return p.Slug
	}
	return slug.Make(p.Title)
}

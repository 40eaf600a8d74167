package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"myblog/internal/mail"
	"myblog/internal/middleware"
	"myblog/internal/models"
	"myblog/internal/observability"
	"myblog/internal/repository"
	"myblog/internal/validation"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

type UserService struct {
	users        repository.UserRepository
	mailer       mail.Mailer
	from         string
	siteName     string
	defaultPerms []string
	bcryptCost   int
}

type RegisterInput struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
	Password  string
	Password2 string
}

func NewUserService(users repository.UserRepository, mailer mail.Mailer, from, siteName string, defaultPerms []string) *UserService {
	return &UserService{
		users:        users,
		mailer:       mailer,
		from:         from,
		siteName:     siteName,
		defaultPerms: defaultPerms,
		bcryptCost:   bcrypt.DefaultCost,
	}
}

// SetBcryptCost lowers hashing cost for tests and seeding.
func (s *UserService) SetBcryptCost(cost int) {
	s.bcryptCost = cost
}

func (s *UserService) validateRegistration(ctx context.Context, in RegisterInput) error {
	errs := validation.Errors{}
	errs.Check("username", validation.ValidateUsername(in.Username))
	errs.Check("first_name", validation.MaxLength(in.FirstName, 150))
	errs.Check("last_name", validation.MaxLength(in.LastName, 150))
	errs.Check("email", validation.ValidateEmail(in.Email))
	errs.Check("password", validation.ValidatePassword(in.Password))
	errs.Check("password2", validation.Required(in.Password2))
	if in.Password != in.Password2 {
		errs["password2"] = "Passwords don't match."
	}

	if _, taken := errs["username"]; !taken {
		if _, err := s.users.GetByUsername(ctx, in.Username); err == nil {
			errs["username"] = "A user with that username already exists."
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewInternalError(err)
		}
	}
	if _, bad := errs["email"]; !bad {
		taken, err := s.users.EmailTaken(ctx, in.Email)
		if err != nil {
			return models.NewInternalError(err)
		}
		if taken {
			errs["email"] = "A user with that email already exists."
		}
	}

	if !errs.Empty() {
		return models.NewFieldErrors(errs)
	}
	return nil
}

// Register creates an active user with the default permissions and sends a
// welcome email. A mail failure is returned after the user has been stored.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	span, ctx := observability.NewSpan(ctx, "UserService.Register")
	defer span.End()

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := s.validateRegistration(ctx, in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:  in.Username,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     in.Email,
		Password:  string(hash),
		IsActive:  true,
	}
	if err := s.users.Create(ctx, user, s.defaultPerms...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, models.NewFieldErrors(map[string]string{
				"username": "A user with that username or email already exists.",
			})
		}
		span.SetError(err)
		return nil, models.NewInternalError(err)
	}
	middleware.Logger.InfoContext(ctx, "user registered", "user_id", user.ID, "username", user.Username)

	greeting := user.FirstName
	if greeting == "" {
		greeting = user.Username
	}
	msg := mail.Message{
		Subject: fmt.Sprintf("Welcome %s to %s!", greeting, s.siteName),
		Body: fmt.Sprintf("Thank you %s for joining %s.\nYour account %s has been successfully created!\n\nBest wishes",
			greeting, s.siteName, user.Username),
		From: s.from,
		To:   []string{user.Email},
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		span.SetError(err)
		observability.EmailsSent.WithLabelValues("welcome", "error").Inc()
		return user, fmt.Errorf("welcome email for %s: %w", user.Username, err)
	}
	observability.EmailsSent.WithLabelValues("welcome", "ok").Inc()
	return user, nil
}

// Authenticate checks credentials. Inactive accounts are refused even with
// the right password.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	invalid := models.NewFieldError("__all__",
		"Please enter a correct username and password. Note that both fields may be case-sensitive.")

	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalid
		}
		return nil, models.NewInternalError(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, invalid
	}
	if !user.IsActive {
		return nil, models.NewFieldError("__all__", "Disabled account")
	}
	return user, nil
}

// GetUser returns the user or NOT_FOUND.
func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "User", id)
	}
	return user, nil
}

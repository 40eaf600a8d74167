package service

import (
	"context"
	"testing"
	"time"

	"myblog/internal/mail"
	"myblog/internal/models"
	"myblog/internal/repository"
	"myblog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// mockMailer is a testify mock for mail.Mailer.
type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, msg mail.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type fixture struct {
	db       *gorm.DB
	posts    *PostService
	comments *CommentService
	users    repository.UserRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	postRepo := repository.NewPostRepository(db)
	userRepo := repository.NewUserRepository(db)

	return &fixture{
		db:       db,
		posts:    NewPostService(postRepo, repository.NewTagRepository(db), userRepo, time.UTC),
		comments: NewCommentService(repository.NewCommentRepository(db), postRepo, userRepo, userRepo),
		users:    userRepo,
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, models.IsCode(err, code), "expected %s, got %v", code, err)
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, models.CodeValidation, appErr.Code)
	return appErr.Fields
}

package server

import (
	"errors"
	"net/http"
	"net/url"
	"testing"

	"myblog/internal/auth"
	"myblog/internal/models"
	"myblog/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registration(password2 string) url.Values {
	return url.Values{
		"username":   {"newbie"},
		"first_name": {"New"},
		"email":      {"newbie@example.com"},
		"password":   {"abc-Xyz-12345"},
		"password2":  {password2},
	}
}

func TestRegister(t *testing.T) {
	t.Run("passwords differ", func(t *testing.T) {
		env := newTestEnv(t)
		resp, body := env.do(t, postFormRequest("/register", registration("something-else"), nil))
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "Passwords don&#39;t match.")
		assert.NotContains(t, body, "abc-Xyz-12345")

		var count int64
		require.NoError(t, env.db.Model(&models.User{}).Count(&count).Error)
		assert.Zero(t, count)
		assert.Empty(t, env.outbox.Messages())
	})

	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t)
		resp, body := env.do(t, postFormRequest("/register", registration("abc-Xyz-12345"), nil))
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "Welcome New!")

		msgs := env.outbox.Messages()
		require.Len(t, msgs, 1)
		assert.Equal(t, "Welcome New to My Blog!", msgs[0].Subject)

		var user models.User
		require.NoError(t, env.db.Preload("Permissions").Where("username = ?", "newbie").First(&user).Error)
		require.Len(t, user.Permissions, 1)
		assert.Equal(t, models.PermAddPost, user.Permissions[0].Codename)
	})

	t.Run("email already registered", func(t *testing.T) {
		env := newTestEnv(t)
		existing := testutil.CreateUser(t, env.db, "someone")
		values := registration("abc-Xyz-12345")
		values.Set("email", existing.Email)

		resp, body := env.do(t, postFormRequest("/register", values, nil))
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "A user with that email already exists.")
		assert.Empty(t, env.outbox.Messages())

		var count int64
		require.NoError(t, env.db.Model(&models.User{}).Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})

	t.Run("mail failure propagates but keeps the account", func(t *testing.T) {
		env := newTestEnv(t)
		env.outbox.Err = errors.New("smtp down")
		resp, body := env.do(t, postFormRequest("/register", registration("abc-Xyz-12345"), nil))
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
		assert.Contains(t, body, "Server Error (500)")
		assert.NotContains(t, body, "smtp down")

		var count int64
		require.NoError(t, env.db.Model(&models.User{}).Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})
}

func TestLoginLogout(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateUser(t, env.db, "alice")

	resp, body := env.do(t, getPage("/login?next=/drafts", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `value="/drafts"`)

	resp, body = env.do(t, postFormRequest("/login", url.Values{"username": {"alice"}, "password": {"wrong"}}, nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Please enter a correct username and password.")

	resp, _ = env.do(t, postFormRequest("/login", url.Values{
		"username": {"alice"},
		"password": {testutil.Password},
		"next":     {"/drafts"},
	}, nil))
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/drafts", resp.Header.Get(fiber.HeaderLocation))

	var session *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == auth.CookieName {
			session = ck
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)

	cookie := &http.Cookie{Name: session.Name, Value: session.Value}
	resp, body = env.do(t, getPage("/", cookie))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Hello alice")

	resp, body = env.do(t, postFormRequest("/logout", url.Values{}, cookie))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotContains(t, body, "Hello alice")

	// The old token is revoked even if the browser kept it.
	_, body = env.do(t, getPage("/", cookie))
	assert.NotContains(t, body, "Hello alice")
}

func TestLogin_OffsiteNextIsIgnored(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateUser(t, env.db, "alice")

	resp, _ := env.do(t, postFormRequest("/login", url.Values{
		"username": {"alice"},
		"password": {testutil.Password},
		"next":     {"//evil.example.com/"},
	}, nil))
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get(fiber.HeaderLocation))
}

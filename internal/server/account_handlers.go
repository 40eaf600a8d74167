package server

import (
	"time"

	"myblog/internal/auth"
	"myblog/internal/middleware"
	"myblog/internal/models"
	"myblog/internal/service"

	"github.com/gofiber/fiber/v2"
)

type registerForm struct {
	Username  string `form:"username"`
	FirstName string `form:"first_name"`
	LastName  string `form:"last_name"`
	Email     string `form:"email"`
	Password  string `form:"password"`
	Password2 string `form:"password2"`
}

type loginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
	Next     string `form:"next"`
}

// RegisterForm handles GET /register
func (s *Server) RegisterForm(c *fiber.Ctx) error {
	return s.render(c, "account/register", fiber.Map{"Form": registerForm{}})
}

// Register handles POST /register
func (s *Server) Register(c *fiber.Ctx) error {
	var form registerForm
	if err := c.BodyParser(&form); err != nil {
		return models.NewValidationError("Invalid form submission")
	}

	user, err := s.userService.Register(c.UserContext(), service.RegisterInput{
		Username:  form.Username,
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Password:  form.Password,
		Password2: form.Password2,
	})
	if errs, ok := fieldErrors(err); ok {
		form.Password, form.Password2 = "", ""
		return s.render(c, "account/register", fiber.Map{"Form": form, "Errors": errs})
	}
	if err != nil {
		return err
	}
	return s.render(c, "account/register_done", fiber.Map{"NewUser": user})
}

// LoginForm handles GET /login
func (s *Server) LoginForm(c *fiber.Ctx) error {
	return s.render(c, "account/login", fiber.Map{"Form": loginForm{Next: c.Query("next")}})
}

// Login handles POST /login. The session is a JWT in an HttpOnly cookie.
func (s *Server) Login(c *fiber.Ctx) error {
	var form loginForm
	if err := c.BodyParser(&form); err != nil {
		return models.NewValidationError("Invalid form submission")
	}

	user, err := s.userService.Authenticate(c.UserContext(), form.Username, form.Password)
	if errs, ok := fieldErrors(err); ok {
		form.Password = ""
		return s.render(c, "account/login", fiber.Map{"Form": form, "Errors": errs})
	}
	if err != nil {
		return err
	}

	token, claims, err := s.tokens.Issue(user)
	if err != nil {
		return models.NewInternalError(err)
	}
	c.Cookie(&fiber.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  claims.ExpiresAt.Time,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	middleware.Logger.InfoContext(c.UserContext(), "user logged in", "user_id", user.ID)

	return c.Redirect(safeRedirect(form.Next), fiber.StatusFound)
}

// Logout handles POST /logout
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.tokens.Revoke(c.UserContext(), middleware.CurrentClaims(c)); err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "token revocation failed", "error", err.Error())
	}
	c.Cookie(&fiber.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	c.Locals("claims", nil)
	return s.render(c, "account/logged_out", nil)
}

package server

import (
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"time"

	"myblog/internal/middleware"
	"myblog/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
)

//go:embed templates
var templatesFS embed.FS

func (s *Server) newViewEngine() (*html.Engine, error) {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		return nil, err
	}

	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFunc("postURL", s.postService.DetailPath)
	engine.AddFunc("truncatewords", truncateWords)
	engine.AddFunc("linebreaks", linebreaks)
	engine.AddFunc("date", func(t time.Time) string {
		return t.In(s.postService.Location()).Format("Jan. 2, 2006, 15:04")
	})
	engine.AddFunc("fieldError", func(errs map[string]string, field string) string {
		return errs[field]
	})
	engine.AddFunc("pluralize", func(n int) string {
		if n == 1 {
			return ""
		}
		return "s"
	})
	return engine, nil
}

// render executes a page template inside the base layout, adding the site
// name and the signed-in username.
func (s *Server) render(c *fiber.Ctx, name string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	data["SiteName"] = s.config.SiteName
	if claims := middleware.CurrentClaims(c); claims != nil {
		data["CurrentUser"] = claims.Username
	}
	return c.Render(name, data)
}

func (s *Server) renderError(c *fiber.Ctx, status int, err error) error {
	if models.IsCode(err, models.CodeUnauthorized) {
		return c.Redirect("/login?next="+url.QueryEscape(c.OriginalURL()), fiber.StatusFound)
	}

	message := "Server Error (500)"
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Code != models.CodeInternal {
		message = appErr.Message
	}

	c.Status(status)
	if rerr := s.render(c, "errors/error", fiber.Map{"Status": status, "Message": message}); rerr != nil {
		return c.Status(status).SendString(message)
	}
	return nil
}

func truncateWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + " …"
}

// linebreaks escapes s and turns blank-line separated blocks into paragraphs.
func linebreaks(s string) template.HTML {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	var b strings.Builder
	for _, para := range strings.Split(s, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		lines := strings.Split(para, "\n")
		for i, l := range lines {
			lines[i] = template.HTMLEscapeString(l)
		}
		b.WriteString("<p>" + strings.Join(lines, "<br>") + "</p>")
	}
	return template.HTML(b.String())
}

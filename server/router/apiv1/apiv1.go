// Package apiv1 exposes the JSON REST surface the browser UI calls.
package apiv1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gaslightgpt/gaslightgpt/internal/profile"
	"github.com/gaslightgpt/gaslightgpt/server/session"
	"github.com/gaslightgpt/gaslightgpt/store"
)

type APIV1Service struct {
	Profile   *profile.Profile
	Store     *store.Store
	Completer session.Completer
	Session   *session.Controller
}

func NewAPIV1Service(profile *profile.Profile, store *store.Store, completer session.Completer, controller *session.Controller) *APIV1Service {
	return &APIV1Service{
		Profile:   profile,
		Store:     store,
		Completer: completer,
		Session:   controller,
	}
}

// errorResponse is the uniform error body: {"error": "..."}.
type errorResponse struct {
	Error string `json:"error"`
}

// RegisterRoutes attaches every handler to the given Echo instance.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api", corsMiddleware)
	api.POST("/chat", s.handleChat)
	api.OPTIONS("/chat", handlePreflight)

	v1 := api.Group("/v1")
	v1.GET("/conversations", s.listConversations)
	v1.GET("/conversations/:id", s.getConversation)
	v1.DELETE("/conversations/:id", s.deleteConversation)
	v1.DELETE("/conversations", s.clearConversations)

	v1.GET("/session", s.getSession)
	v1.POST("/session/messages", s.sendMessage)
	v1.PATCH("/session/messages/:id", s.editMessage)
	v1.POST("/session/new", s.newChat)
	v1.POST("/session/select", s.selectConversation)

	v1.GET("/settings", s.getSettings)
	v1.PUT("/settings", s.updateSettings)
}

// corsMiddleware applies the permissive browser policy: wildcard origin and
// the standard method/header allowances. Preflight answers 200 with no body.
func corsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Response().Header()
		header.Set("Access-Control-Allow-Credentials", "true")
		header.Set(echo.HeaderAccessControlAllowOrigin, "*")
		header.Set(echo.HeaderAccessControlAllowMethods, "GET,OPTIONS,PATCH,DELETE,POST,PUT")
		header.Set(echo.HeaderAccessControlAllowHeaders,
			"X-CSRF-Token, X-Requested-With, Accept, Accept-Version, Content-Length, Content-MD5, Content-Type, Date, X-Api-Version")
		if c.Request().Method == http.MethodOptions {
			return c.NoContent(http.StatusOK)
		}
		return next(c)
	}
}

func handlePreflight(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

package apiv1

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gaslightgpt/gaslightgpt/ai"
)

// settingsResponse is the full preference set. The API key travels decoded;
// obfuscation is a storage concern only.
type settingsResponse struct {
	Theme           string `json:"theme"`
	APIProvider     string `json:"apiProvider"`
	APIKey          string `json:"apiKey"`
	Model           string `json:"model"`
	ShowEditedBadge bool   `json:"showEditedBadge"`
}

// settingsPatch is a partial update; absent fields keep their current value.
type settingsPatch struct {
	Theme           *string `json:"theme"`
	APIProvider     *string `json:"apiProvider"`
	APIKey          *string `json:"apiKey"`
	Model           *string `json:"model"`
	ShowEditedBadge *bool   `json:"showEditedBadge"`
}

func (s *APIV1Service) getSettings(c echo.Context) error {
	ctx := c.Request().Context()
	return c.JSON(http.StatusOK, settingsResponse{
		Theme:           s.Store.GetTheme(ctx),
		APIProvider:     s.Store.GetAPIProvider(ctx),
		APIKey:          s.Store.GetAPIKey(ctx),
		Model:           s.Store.GetModel(ctx),
		ShowEditedBadge: s.Store.GetShowEditedBadge(ctx),
	})
}

func (s *APIV1Service) updateSettings(c echo.Context) error {
	var patch settingsPatch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
	}
	ctx := c.Request().Context()

	if patch.APIProvider != nil {
		if _, ok := ai.LookupProvider(*patch.APIProvider); !ok {
			return c.JSON(http.StatusBadRequest, errorResponse{
				Error: fmt.Sprintf("Invalid API provider: %s", *patch.APIProvider),
			})
		}
		if err := s.Store.SetAPIProvider(ctx, *patch.APIProvider); err != nil {
			return settingsWriteError(c, "apiProvider", err)
		}
	}
	if patch.Theme != nil {
		if err := s.Store.SetTheme(ctx, *patch.Theme); err != nil {
			return settingsWriteError(c, "theme", err)
		}
	}
	if patch.APIKey != nil {
		if err := s.Store.SetAPIKey(ctx, *patch.APIKey); err != nil {
			return settingsWriteError(c, "apiKey", err)
		}
	}
	if patch.Model != nil {
		if err := s.Store.SetModel(ctx, *patch.Model); err != nil {
			return settingsWriteError(c, "model", err)
		}
	}
	if patch.ShowEditedBadge != nil {
		if err := s.Store.SetShowEditedBadge(ctx, *patch.ShowEditedBadge); err != nil {
			return settingsWriteError(c, "showEditedBadge", err)
		}
	}
	return s.getSettings(c)
}

func settingsWriteError(c echo.Context, name string, err error) error {
	slog.Error("failed to update setting", "name", name, "error", err)
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to update settings"})
}

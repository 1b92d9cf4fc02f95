package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mtamaramu/authbroker/identity"
	"github.com/mtamaramu/authbroker/internal/errors"
	"github.com/mtamaramu/authbroker/lineworks"
)

// multipartMemoryLimit bounds in-memory multipart parsing; images above the
// platform's 1MB cap are rejected later by validation anyway.
const multipartMemoryLimit = 2 << 20

// botCredentials resolves the decrypted bot credentials for the caller's
// token and bot configuration. A missing bearer token short-circuits before
// any backend call.
func (s *Server) botCredentials(r *http.Request, botConfigID string) (*identity.BotCredentials, string, int) {
	token := bearerToken(r)
	if token == "" {
		return nil, "Unauthorized", http.StatusUnauthorized
	}
	creds, err := s.backend.GetBotConfigWithSecrets(r.Context(), token, botConfigID)
	if err != nil {
		return nil, rejectionMessage(err, "identity backend unavailable"), identity.HTTPStatus(err)
	}
	return creds, "", 0
}

// platformErrorJSON maps a bot platform error onto the API response.
func platformErrorJSON(w http.ResponseWriter, err error) {
	if errors.Is(err, errors.ErrNotFound) {
		errorJSON(w, http.StatusNotFound, "not found")
		return
	}
	errorJSON(w, http.StatusInternalServerError, err.Error())
}

// RichMenuListHandler returns every rich menu together with the default menu
// id and each menu's image status, fetched from the platform concurrently.
func (s *Server) RichMenuListHandler() http.HandlerFunc {
	type request struct {
		BotConfigID string `json:"botConfigId"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BotConfigID == "" {
			errorJSON(w, http.StatusBadRequest, "botConfigId is required")
			return
		}

		log.Info().Str("event", "richmenu_list").Str("bot_config_id", req.BotConfigID).Msg("rich menu list")

		creds, message, status := s.botCredentials(r, req.BotConfigID)
		if creds == nil {
			errorJSON(w, status, message)
			return
		}

		overview, err := s.newBotClient(creds).Overview(r.Context())
		if err != nil {
			platformErrorJSON(w, err)
			return
		}
		writeJSON(w, http.StatusOK, overview)
	}
}

// RichMenuCreateHandler creates a rich menu from its layout definition.
func (s *Server) RichMenuCreateHandler() http.HandlerFunc {
	type request struct {
		BotConfigID  string                   `json:"botConfigId"`
		RichMenuName string                   `json:"richmenuName"`
		Size         lineworks.RichMenuSize   `json:"size"`
		Areas        []lineworks.RichMenuArea `json:"areas"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errorJSON(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		if req.BotConfigID == "" || req.RichMenuName == "" || len(req.Areas) == 0 {
			errorJSON(w, http.StatusBadRequest, "botConfigId, richmenuName, size, and areas are required")
			return
		}

		log.Info().Str("event", "richmenu_create").Str("bot_config_id", req.BotConfigID).Str("name", req.RichMenuName).Msg("rich menu create")

		creds, message, status := s.botCredentials(r, req.BotConfigID)
		if creds == nil {
			errorJSON(w, status, message)
			return
		}

		menu, err := s.newBotClient(creds).CreateRichMenu(r.Context(), lineworks.RichMenuCreate{
			RichMenuName: req.RichMenuName,
			Size:         req.Size,
			Areas:        req.Areas,
		})
		if err != nil {
			platformErrorJSON(w, err)
			return
		}
		writeJSON(w, http.StatusOK, menu)
	}
}

// RichMenuDeleteHandler deletes one rich menu.
func (s *Server) RichMenuDeleteHandler() http.HandlerFunc {
	type request struct {
		BotConfigID string `json:"botConfigId"`
		RichMenuID  string `json:"richmenuId"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BotConfigID == "" || req.RichMenuID == "" {
			errorJSON(w, http.StatusBadRequest, "botConfigId and richmenuId are required")
			return
		}

		log.Info().Str("event", "richmenu_delete").Str("bot_config_id", req.BotConfigID).Str("richmenu_id", req.RichMenuID).Msg("rich menu delete")

		creds, message, status := s.botCredentials(r, req.BotConfigID)
		if creds == nil {
			errorJSON(w, status, message)
			return
		}

		if err := s.newBotClient(creds).DeleteRichMenu(r.Context(), req.RichMenuID); err != nil {
			platformErrorJSON(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// RichMenuImageUploadHandler attaches an image to a rich menu via the
// platform's three-step attachment protocol. Size and type limits are
// enforced here, before a single platform call is made.
func (s *Server) RichMenuImageUploadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
			errorJSON(w, http.StatusBadRequest, "Invalid multipart form data")
			return
		}

		botConfigID := r.FormValue("botConfigId")
		richMenuID := r.FormValue("richmenuId")
		file, header, err := r.FormFile("image")
		if botConfigID == "" || richMenuID == "" || err != nil {
			errorJSON(w, http.StatusBadRequest, "botConfigId, richmenuId, and image are required")
			return
		}
		defer file.Close()

		if err := lineworks.ValidateImage(header.Filename, header.Size); err != nil {
			errorJSON(w, http.StatusBadRequest, err.Error())
			return
		}

		image, err := io.ReadAll(file)
		if err != nil {
			errorJSON(w, http.StatusBadRequest, "failed to read image")
			return
		}

		log.Info().Str("event", "richmenu_image_upload").
			Str("bot_config_id", botConfigID).
			Str("richmenu_id", richMenuID).
			Str("file_name", header.Filename).
			Int64("size", header.Size).
			Msg("rich menu image upload")

		creds, message, status := s.botCredentials(r, botConfigID)
		if creds == nil {
			errorJSON(w, status, message)
			return
		}

		if err := s.newBotClient(creds).UploadRichMenuImage(r.Context(), richMenuID, header.Filename, image); err != nil {
			if errors.Is(err, errors.ErrImageTooLarge) || errors.Is(err, errors.ErrUnsupportedImage) {
				errorJSON(w, http.StatusBadRequest, err.Error())
				return
			}
			platformErrorJSON(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// RichMenuDefaultSetHandler makes a rich menu the bot's default.
func (s *Server) RichMenuDefaultSetHandler() http.HandlerFunc {
	type request struct {
		BotConfigID string `json:"botConfigId"`
		RichMenuID  string `json:"richmenuId"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BotConfigID == "" || req.RichMenuID == "" {
			errorJSON(w, http.StatusBadRequest, "botConfigId and richmenuId are required")
			return
		}

		log.Info().Str("event", "richmenu_default_set").Str("bot_config_id", req.BotConfigID).Str("richmenu_id", req.RichMenuID).Msg("rich menu default set")

		creds, message, status := s.botCredentials(r, req.BotConfigID)
		if creds == nil {
			errorJSON(w, status, message)
			return
		}

		if err := s.newBotClient(creds).SetDefaultRichMenu(r.Context(), req.RichMenuID); err != nil {
			platformErrorJSON(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// RichMenuDefaultDeleteHandler removes the bot's default rich menu.
func (s *Server) RichMenuDefaultDeleteHandler() http.HandlerFunc {
	type request struct {
		BotConfigID string `json:"botConfigId"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BotConfigID == "" {
			errorJSON(w, http.StatusBadRequest, "botConfigId is required")
			return
		}

		log.Info().Str("event", "richmenu_default_delete").Str("bot_config_id", req.BotConfigID).Msg("rich menu default delete")

		creds, message, status := s.botCredentials(r, req.BotConfigID)
		if creds == nil {
			errorJSON(w, status, message)
			return
		}

		if err := s.newBotClient(creds).DeleteDefaultRichMenu(r.Context()); err != nil {
			platformErrorJSON(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

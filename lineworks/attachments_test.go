package lineworks_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mtamaramu/authbroker/internal/errors"
	"github.com/mtamaramu/authbroker/lineworks"
)

func TestValidateImage(t *testing.T) {
	require.NoError(t, lineworks.ValidateImage("menu.png", 1024))
	require.NoError(t, lineworks.ValidateImage("MENU.JPG", lineworks.MaxImageSize))
	require.NoError(t, lineworks.ValidateImage("menu.jpeg", 1))

	require.ErrorIs(t, lineworks.ValidateImage("menu.png", lineworks.MaxImageSize+1), errors.ErrImageTooLarge)
	require.ErrorIs(t, lineworks.ValidateImage("menu.gif", 1024), errors.ErrUnsupportedImage)
	require.ErrorIs(t, lineworks.ValidateImage("menu", 1024), errors.ErrUnsupportedImage)
}

func TestClient_UploadRichMenuImage(t *testing.T) {
	t.Run("three steps share one access token", func(t *testing.T) {
		platform := newFakePlatform(t)
		image := bytes.Repeat([]byte{0x89}, 512)
		var steps []string

		platform.mux.HandleFunc("POST /bots/bot-1/attachments", func(w http.ResponseWriter, r *http.Request) {
			steps = append(steps, "slot")
			var req struct {
				FileName string `json:"fileName"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Equal(t, "menu.png", req.FileName)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"fileId":    "file-1",
				"uploadUrl": platform.srv.URL + "/upload/file-1",
			})
		})
		platform.mux.HandleFunc("POST /upload/file-1", func(w http.ResponseWriter, r *http.Request) {
			steps = append(steps, "upload")
			require.NoError(t, r.ParseMultipartForm(lineworks.MaxImageSize))
			require.Equal(t, "menu.png", r.PostFormValue("resourceName"))
			file, header, err := r.FormFile("Filedata")
			require.NoError(t, err)
			defer file.Close()
			require.Equal(t, "menu.png", header.Filename)
			data, err := io.ReadAll(file)
			require.NoError(t, err)
			require.Equal(t, image, data)
		})
		platform.mux.HandleFunc("POST /bots/bot-1/richmenus/rm-1/image", func(w http.ResponseWriter, r *http.Request) {
			steps = append(steps, "associate")
			var req struct {
				FileID string `json:"fileId"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Equal(t, "file-1", req.FileID)
		})

		err := platform.client(t).UploadRichMenuImage(context.Background(), "rm-1", "menu.png", image)
		require.NoError(t, err)
		require.Equal(t, []string{"slot", "upload", "associate"}, steps)
		require.Equal(t, int32(1), platform.tokenCalls.Load())
	})

	t.Run("slot failure aborts before any upload", func(t *testing.T) {
		platform := newFakePlatform(t)
		uploaded := false
		platform.mux.HandleFunc("POST /bots/bot-1/attachments", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"message":"quota"}`, http.StatusTooManyRequests)
		})
		platform.mux.HandleFunc("POST /upload/", func(w http.ResponseWriter, r *http.Request) {
			uploaded = true
		})

		err := platform.client(t).UploadRichMenuImage(context.Background(), "rm-1", "menu.png", []byte{1})
		require.Error(t, err)
		require.False(t, uploaded)
	})

	t.Run("upload failure aborts before association", func(t *testing.T) {
		platform := newFakePlatform(t)
		associated := false
		platform.mux.HandleFunc("POST /bots/bot-1/attachments", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{
				"fileId":    "file-1",
				"uploadUrl": platform.srv.URL + "/upload/file-1",
			})
		})
		platform.mux.HandleFunc("POST /upload/file-1", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		})
		platform.mux.HandleFunc("POST /bots/bot-1/richmenus/rm-1/image", func(w http.ResponseWriter, r *http.Request) {
			associated = true
		})

		err := platform.client(t).UploadRichMenuImage(context.Background(), "rm-1", "menu.png", []byte{1})
		require.Error(t, err)
		require.False(t, associated)
	})

	t.Run("oversized image rejected before step one", func(t *testing.T) {
		platform := newFakePlatform(t)
		slotRequested := false
		platform.mux.HandleFunc("POST /bots/bot-1/attachments", func(w http.ResponseWriter, r *http.Request) {
			slotRequested = true
		})

		image := make([]byte, lineworks.MaxImageSize+1)
		err := platform.client(t).UploadRichMenuImage(context.Background(), "rm-1", "menu.png", image)
		require.ErrorIs(t, err, errors.ErrImageTooLarge)
		require.False(t, slotRequested)
		require.Equal(t, int32(0), platform.tokenCalls.Load())
	})
}

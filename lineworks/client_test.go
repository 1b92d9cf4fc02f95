package lineworks_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mtamaramu/authbroker/lineworks"
)

// fakePlatform serves both the token endpoint and the bot API.
type fakePlatform struct {
	mux        *http.ServeMux
	srv        *httptest.Server
	tokenCalls atomic.Int32
}

func newFakePlatform(t *testing.T) *fakePlatform {
	t.Helper()
	p := &fakePlatform{mux: http.NewServeMux()}
	p.mux.HandleFunc("POST /oauth2/v2.0/token", func(w http.ResponseWriter, r *http.Request) {
		p.tokenCalls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "platform-token"})
	})
	p.srv = httptest.NewServer(p.mux)
	t.Cleanup(p.srv.Close)
	return p
}

func (p *fakePlatform) client(t *testing.T) *lineworks.Client {
	t.Helper()
	creds, _ := testCredentials(t)
	source := lineworks.NewTokenSource(lineworks.WithTokenEndpoint(p.srv.URL + "/oauth2/v2.0/token"))
	return lineworks.NewClient(creds, lineworks.WithAPIBase(p.srv.URL), lineworks.WithTokenSource(source))
}

func TestClient_ListRichMenus(t *testing.T) {
	platform := newFakePlatform(t)
	platform.mux.HandleFunc("GET /bots/bot-1/richmenus", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer platform-token", r.Header.Get("Authorization"))
		require.Equal(t, "100", r.URL.Query().Get("count"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"richmenus": []map[string]any{
				{"richmenuId": "rm-1", "richmenuName": "main"},
			},
		})
	})

	menus, err := platform.client(t).ListRichMenus(context.Background())
	require.NoError(t, err)
	require.Len(t, menus, 1)
	require.Equal(t, "rm-1", menus[0].RichMenuID)
}

func TestClient_CreateAndDelete(t *testing.T) {
	platform := newFakePlatform(t)
	platform.mux.HandleFunc("POST /bots/bot-1/richmenus", func(w http.ResponseWriter, r *http.Request) {
		var create lineworks.RichMenuCreate
		require.NoError(t, json.NewDecoder(r.Body).Decode(&create))
		require.Equal(t, "main", create.RichMenuName)
		_ = json.NewEncoder(w).Encode(lineworks.RichMenu{
			RichMenuID:   "rm-new",
			RichMenuName: create.RichMenuName,
			Size:         create.Size,
			Areas:        create.Areas,
		})
	})
	deleted := false
	platform.mux.HandleFunc("DELETE /bots/bot-1/richmenus/rm-new", func(w http.ResponseWriter, r *http.Request) {
		deleted = true
		w.WriteHeader(http.StatusOK)
	})

	client := platform.client(t)
	menu, err := client.CreateRichMenu(context.Background(), lineworks.RichMenuCreate{
		RichMenuName: "main",
		Size:         lineworks.RichMenuSize{Width: 2500, Height: 1686},
		Areas: []lineworks.RichMenuArea{{
			Bounds: lineworks.RichMenuBounds{Width: 2500, Height: 1686},
			Action: lineworks.RichMenuAction{Type: "uri", URI: "https://app.example/"},
		}},
	})
	require.NoError(t, err)
	require.Equal(t, "rm-new", menu.RichMenuID)

	require.NoError(t, client.DeleteRichMenu(context.Background(), "rm-new"))
	require.True(t, deleted)
}

func TestClient_DefaultRichMenu(t *testing.T) {
	platform := newFakePlatform(t)
	hasDefault := false
	platform.mux.HandleFunc("GET /bots/bot-1/richmenus/default", func(w http.ResponseWriter, r *http.Request) {
		if !hasDefault {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"defaultRichmenuId": "rm-1"})
	})
	platform.mux.HandleFunc("POST /bots/bot-1/richmenus/rm-1/set-default", func(w http.ResponseWriter, r *http.Request) {
		hasDefault = true
	})
	platform.mux.HandleFunc("DELETE /bots/bot-1/richmenus/default", func(w http.ResponseWriter, r *http.Request) {
		if !hasDefault {
			http.NotFound(w, r)
			return
		}
		hasDefault = false
	})

	client := platform.client(t)
	ctx := context.Background()

	t.Run("absent default is empty, not an error", func(t *testing.T) {
		id, err := client.GetDefaultRichMenu(ctx)
		require.NoError(t, err)
		require.Empty(t, id)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, client.SetDefaultRichMenu(ctx, "rm-1"))
		id, err := client.GetDefaultRichMenu(ctx)
		require.NoError(t, err)
		require.Equal(t, "rm-1", id)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, client.DeleteDefaultRichMenu(ctx))
		require.NoError(t, client.DeleteDefaultRichMenu(ctx))
	})
}

func TestClient_Overview(t *testing.T) {
	platform := newFakePlatform(t)
	platform.mux.HandleFunc("GET /bots/bot-1/richmenus", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"richmenus": []map[string]any{
				{"richmenuId": "rm-1"},
				{"richmenuId": "rm-2"},
			},
		})
	})
	platform.mux.HandleFunc("GET /bots/bot-1/richmenus/default", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"defaultRichmenuId": "rm-2"})
	})
	platform.mux.HandleFunc("GET /bots/bot-1/richmenus/rm-1/image", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	platform.mux.HandleFunc("GET /bots/bot-1/richmenus/rm-2/image", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	overview, err := platform.client(t).Overview(context.Background())
	require.NoError(t, err)
	require.Len(t, overview.RichMenus, 2)
	require.Equal(t, "rm-2", overview.DefaultRichMenuID)
	require.Equal(t, map[string]bool{"rm-1": true, "rm-2": false}, overview.ImageStatus)
}

func TestClient_APIFailureSurfaced(t *testing.T) {
	platform := newFakePlatform(t)
	platform.mux.HandleFunc("GET /bots/bot-1/richmenus", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"internal"}`, http.StatusInternalServerError)
	})

	_, err := platform.client(t).ListRichMenus(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "500")
}

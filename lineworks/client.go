package lineworks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mtamaramu/authbroker/identity"
	"github.com/mtamaramu/authbroker/internal/errors"
)

// APIBase is the bot platform's API origin.
const APIBase = "https://www.worksapis.com/v1.0"

// Client calls the bot platform on behalf of one bot. Every call mints a
// fresh access token via the TokenSource; credentials live only for the
// lifetime of the client, which is one broker request.
type Client struct {
	creds      *identity.BotCredentials
	tokens     *TokenSource
	apiBase    string
	httpClient *http.Client
}

type ClientOption func(*Client)

// WithAPIBase overrides the platform API origin (for tests).
func WithAPIBase(base string) ClientOption {
	return func(c *Client) {
		c.apiBase = base
	}
}

// WithTokenSource overrides the token source (for tests).
func WithTokenSource(ts *TokenSource) ClientOption {
	return func(c *Client) {
		c.tokens = ts
	}
}

func NewClient(creds *identity.BotCredentials, options ...ClientOption) *Client {
	c := &Client{
		creds:      creds,
		tokens:     NewTokenSource(),
		apiBase:    APIBase,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// ListRichMenus returns all rich menus for the bot.
func (c *Client) ListRichMenus(ctx context.Context) ([]RichMenu, error) {
	var result struct {
		RichMenus []RichMenu `json:"richmenus"`
	}
	if err := c.call(ctx, http.MethodGet, "/richmenus?count=100", nil, &result); err != nil {
		return nil, err
	}
	return result.RichMenus, nil
}

// CreateRichMenu creates a menu and returns it with its assigned id.
func (c *Client) CreateRichMenu(ctx context.Context, menu RichMenuCreate) (*RichMenu, error) {
	var created RichMenu
	if err := c.call(ctx, http.MethodPost, "/richmenus", menu, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteRichMenu deletes a menu by id.
func (c *Client) DeleteRichMenu(ctx context.Context, richMenuID string) error {
	return c.call(ctx, http.MethodDelete, "/richmenus/"+richMenuID, nil, nil)
}

// GetDefaultRichMenu returns the default menu id, or "" when none is set.
func (c *Client) GetDefaultRichMenu(ctx context.Context) (string, error) {
	var result struct {
		DefaultRichMenuID string `json:"defaultRichmenuId"`
	}
	err := c.call(ctx, http.MethodGet, "/richmenus/default", nil, &result)
	if errors.Is(err, errors.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return result.DefaultRichMenuID, nil
}

// SetDefaultRichMenu makes a menu the bot's default.
func (c *Client) SetDefaultRichMenu(ctx context.Context, richMenuID string) error {
	return c.call(ctx, http.MethodPost, "/richmenus/"+richMenuID+"/set-default", nil, nil)
}

// DeleteDefaultRichMenu clears the default menu. Already-absent is not an
// error.
func (c *Client) DeleteDefaultRichMenu(ctx context.Context) error {
	err := c.call(ctx, http.MethodDelete, "/richmenus/default", nil, nil)
	if errors.Is(err, errors.ErrNotFound) {
		return nil
	}
	return err
}

// HasRichMenuImage reports whether a menu has an image attached.
func (c *Client) HasRichMenuImage(ctx context.Context, richMenuID string) (bool, error) {
	err := c.call(ctx, http.MethodGet, "/richmenus/"+richMenuID+"/image", nil, nil)
	if errors.Is(err, errors.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Overview joins the list, default-menu, and per-menu image-presence reads.
// The reads are independent and order-free, so they run concurrently.
func (c *Client) Overview(ctx context.Context) (*RichMenuOverview, error) {
	overview := &RichMenuOverview{}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		menus, err := c.ListRichMenus(groupCtx)
		overview.RichMenus = menus
		return err
	})
	group.Go(func() error {
		defaultID, err := c.GetDefaultRichMenu(groupCtx)
		overview.DefaultRichMenuID = defaultID
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	overview.ImageStatus = make(map[string]bool, len(overview.RichMenus))
	statuses := make([]bool, len(overview.RichMenus))
	imageGroup, imageCtx := errgroup.WithContext(ctx)
	for i, menu := range overview.RichMenus {
		imageGroup.Go(func() error {
			has, err := c.HasRichMenuImage(imageCtx, menu.RichMenuID)
			statuses[i] = has
			return err
		})
	}
	if err := imageGroup.Wait(); err != nil {
		return nil, err
	}
	for i, menu := range overview.RichMenus {
		overview.ImageStatus[menu.RichMenuID] = statuses[i]
	}
	return overview, nil
}

// call mints a token, performs one API request, and decodes the response
// into result when non-nil. 404 maps to ErrNotFound so callers can treat
// absence as a value.
func (c *Client) call(ctx context.Context, method, path string, body, result any) error {
	token, err := c.tokens.AccessToken(ctx, c.creds)
	if err != nil {
		return err
	}

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "[lineworks.call] marshal %s %s body", method, path)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.botURL(path), reqBody)
	if err != nil {
		return errors.Wrapf(err, "[lineworks.call] build %s %s", method, path)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "[lineworks.call] %s %s", method, path)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "[lineworks.call] read %s %s response", method, path)
	}

	if resp.StatusCode == http.StatusNotFound {
		return errors.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("[lineworks.call] %s %s failed: %d %s", method, path, resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return errors.Wrapf(err, "[lineworks.call] decode %s %s response", method, path)
		}
	}
	return nil
}

func (c *Client) botURL(path string) string {
	return fmt.Sprintf("%s/bots/%s%s", c.apiBase, c.creds.BotID, path)
}

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-modeladmin/pkg/model"
	"github.com/goliatone/go-modeladmin/pkg/session"
)

// Backend endpoints.
const (
	TokenPath       = "/api/token/"
	AdminConfigPath = "/api/admin/"
)

// Export formats accepted by the backend.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// SignIn exchanges credentials for a token pair and stores the new session.
func (c *Client) SignIn(ctx context.Context, username, password string) (session.Session, error) {
	var tokens struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	_, err := c.Do(ctx, Request{
		Method:    http.MethodPost,
		Path:      TokenPath,
		Body:      JSON(map[string]string{"username": username, "password": password}),
		Anonymous: true,
	}, &tokens)
	if err != nil {
		return session.Session{}, err
	}
	if tokens.Access == "" {
		return session.Session{}, errors.New("client: sign in: response carries no access token")
	}
	sess := session.New(tokens.Access, tokens.Refresh, username)
	if err := c.store.Save(ctx, sess); err != nil {
		return session.Session{}, fmt.Errorf("client: save session: %w", err)
	}
	c.logger.InfoContext(ctx, "signed in", "user", username)
	return sess, nil
}

// SignOut clears the stored session and runs the sign-out hooks.
func (c *Client) SignOut(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("client: clear session: %w", err)
	}
	for _, hook := range c.onSignOut {
		hook(ctx)
	}
	c.logger.InfoContext(ctx, "signed out")
	return nil
}

// Session returns the stored session.
func (c *Client) Session(ctx context.Context) (session.Session, error) {
	return c.store.Load(ctx)
}

// AdminConfig fetches the admin registry.
func (c *Client) AdminConfig(ctx context.Context) (model.AdminConfig, error) {
	resp, err := c.Do(ctx, Request{Path: AdminConfigPath}, nil)
	if err != nil {
		return model.AdminConfig{}, err
	}
	return model.ParseAdminConfig(resp.Body)
}

// ModelConfig fetches and parses the field configuration at configURL.
func (c *Client) ModelConfig(ctx context.Context, configURL string, opts ...model.ParseOption) (model.ModelConfig, error) {
	resp, err := c.Do(ctx, Request{Path: configURL}, nil)
	if err != nil {
		return model.ModelConfig{}, err
	}
	return model.ParseModelConfig(resp.Body, opts...)
}

// ListParams narrows a list request.
type ListParams struct {
	Page     int
	PageSize int
	Search   string
	Ordering string
}

// Values encodes the parameters as DRF query arguments.
func (p ListParams) Values() url.Values {
	values := url.Values{}
	if p.Page > 0 {
		values.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		values.Set("page_size", strconv.Itoa(p.PageSize))
	}
	if p.Search != "" {
		values.Set("search", p.Search)
	}
	if p.Ordering != "" {
		values.Set("ordering", p.Ordering)
	}
	return values
}

// ListItems fetches one page of items. Both paginated envelopes and bare
// lists are accepted.
func (c *Client) ListItems(ctx context.Context, listURL string, params ListParams) (model.Page, error) {
	resp, err := c.Do(ctx, Request{Path: listURL, Query: params.Values()}, nil)
	if err != nil {
		return model.Page{}, err
	}
	return model.ParsePage(resp.Body)
}

// GetItem fetches a single item.
func (c *Client) GetItem(ctx context.Context, listURL, id string) (model.Item, error) {
	var item model.Item
	if _, err := c.Do(ctx, Request{Path: ItemURL(listURL, id)}, &item); err != nil {
		return nil, err
	}
	return item, nil
}

// CreateItem posts body to the list endpoint.
func (c *Client) CreateItem(ctx context.Context, listURL string, body Body) (model.Item, error) {
	var item model.Item
	if _, err := c.Do(ctx, Request{Method: http.MethodPost, Path: listURL, Body: body}, &item); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItem patches the item identified by id.
func (c *Client) UpdateItem(ctx context.Context, listURL, id string, body Body) (model.Item, error) {
	var item model.Item
	if _, err := c.Do(ctx, Request{Method: http.MethodPatch, Path: ItemURL(listURL, id), Body: body}, &item); err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem deletes the item identified by id.
func (c *Client) DeleteItem(ctx context.Context, listURL, id string) error {
	_, err := c.Do(ctx, Request{Method: http.MethodDelete, Path: ItemURL(listURL, id)}, nil)
	return err
}

// Export downloads every item of a model in the given format.
func (c *Client) Export(ctx context.Context, listURL, format string) ([]byte, error) {
	if format == "" {
		format = FormatCSV
	}
	resp, err := c.Do(ctx, Request{
		Path:  joinPath(listURL, "export/"),
		Query: url.Values{"format": {format}},
	}, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Import uploads a CSV or JSON file and returns the number of imported
// items.
func (c *Client) Import(ctx context.Context, listURL, format, filename string, content []byte) (int, error) {
	if format == "" {
		format = FormatCSV
	}
	body := NewMultipart().
		AddFile("file", filename, "", content).
		Add("format", format)
	var result struct {
		Count int `json:"count"`
	}
	if _, err := c.Do(ctx, Request{Method: http.MethodPost, Path: joinPath(listURL, "import/"), Body: body}, &result); err != nil {
		return 0, err
	}
	return result.Count, nil
}

// ItemURL returns the detail endpoint of id under listURL.
func ItemURL(listURL, id string) string {
	return joinPath(listURL, url.PathEscape(id)+"/")
}

func joinPath(base, elem string) string {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + elem
}

func decodeJSON(data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

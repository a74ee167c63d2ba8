// Package api is the typed surface of the remote ERP backend. Every call
// goes through the authenticated transport wrapper.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/example/fieldentry/internal/client/models"
	"github.com/example/fieldentry/internal/client/transport"
	"github.com/example/fieldentry/internal/common"
	"github.com/example/fieldentry/internal/logging"
)

// Client talks to the ERP backend.
type Client struct {
	baseURL string
	http    *transport.Client
	log     logging.Logger
}

// NewClient constructs a Client for the given base URL.
func NewClient(baseURL string, http *transport.Client, log logging.Logger) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: http, log: log}
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// get executes an authenticated GET and returns the raw body of a 2xx
// response. Status codes are mapped onto the shared error taxonomy.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	resp, err := c.http.Get(ctx, c.endpoint(path, query))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := c.mapStatus(resp); err != nil {
		return nil, err
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) mapStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return common.ErrUnauthorized
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s", common.ErrUnavailable, resp.Status)
	default:
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
}

// GetErpSystems lists the ERP systems available to the user. Malformed list
// entries are dropped rather than failing the whole call.
func (c *Client) GetErpSystems(ctx context.Context) ([]models.ErpSystem, error) {
	body, err := c.get(ctx, "/erpSystems", nil)
	if err != nil {
		return nil, err
	}

	items, err := normalizeList(body)
	if err != nil {
		return nil, fmt.Errorf("normalizing erp systems: %w", err)
	}

	systems := make([]models.ErpSystem, 0, len(items))
	for _, item := range items {
		if sys := mapErpSystem(item); sys != nil {
			systems = append(systems, *sys)
		}
	}
	return systems, nil
}

// GetDoctype fetches the schema for a single doctype by form name.
func (c *Client) GetDoctype(ctx context.Context, formName string) (*models.DocTypeSchema, error) {
	body, err := c.get(ctx, "/doctypeByName", url.Values{"formName": {formName}})
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", common.ErrSchemaFetchFailure, formName, err)
	}

	obj, err := normalizeObject(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", common.ErrSchemaFetchFailure, formName, err)
	}

	var schema models.DocTypeSchema
	if err := json.Unmarshal(obj, &schema); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", common.ErrSchemaFetchFailure, formName, err)
	}
	if schema.Name == "" {
		schema.Name = formName
	}
	return &schema, nil
}

// GetLinkOptions lists the selectable record names for a Link field.
func (c *Client) GetLinkOptions(ctx context.Context, linkedDoctype string) ([]string, error) {
	body, err := c.get(ctx, "/linkOptions", url.Values{"linkedDoctype": {linkedDoctype}})
	if err != nil {
		return nil, err
	}

	items, err := normalizeList(body)
	if err != nil {
		return nil, fmt.Errorf("normalizing link options: %w", err)
	}

	options := make([]string, 0, len(items))
	for _, item := range items {
		if opt := mapLinkOption(item); opt != "" {
			options = append(options, opt)
		}
	}
	return options, nil
}

// SubmitForm uploads one completed record. The write path is outside the
// offline core's guarantees but still routes through the authenticated
// transport.
func (c *Client) SubmitForm(ctx context.Context, doctype string, payload json.RawMessage) error {
	body, err := json.Marshal(map[string]any{
		"doctype": doctype,
		"payload": payload,
	})
	if err != nil {
		return err
	}

	resp, err := c.http.Post(ctx, c.endpoint("/submitForm", nil), body)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	return c.mapStatus(resp)
}

// Ping probes backend reachability with a HEAD against the systems endpoint.
// It backs the online-status watcher.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.http.Head(ctx, c.endpoint("/erpSystems", nil))
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: %s", common.ErrUnavailable, resp.Status)
	}
	return nil
}

// Package aquarius talks to the metadata cache that stores published DDOs.
package aquarius

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/bluesky-social/indigo/util"
	"github.com/oceanprotocol/oceanlib/ddo"
)

var ErrNotFound = errors.New("ddo not found in metadata cache")

type Client struct {
	h      *http.Client
	logger *slog.Logger

	service string
}

type ClientArgs struct {
	Service string
	// Client defaults to util.RobustHTTPClient.
	Client *http.Client
	Logger *slog.Logger
}

func NewClient(args *ClientArgs) (*Client, error) {
	if args.Service == "" {
		return nil, fmt.Errorf("metadata cache url is required")
	}

	if _, err := url.Parse(args.Service); err != nil {
		return nil, fmt.Errorf("invalid metadata cache url: %w", err)
	}

	if args.Client == nil {
		args.Client = util.RobustHTTPClient()
	}

	if args.Logger == nil {
		args.Logger = slog.Default()
	}

	return &Client{
		h:       args.Client,
		logger:  args.Logger,
		service: strings.TrimSuffix(args.Service, "/"),
	}, nil
}

func (c *Client) ddoURL(did string) string {
	return c.service + "/api/aquarius/assets/ddo/" + url.PathEscape(did)
}

// FetchDDO returns the decoded document for did, or ErrNotFound when the
// cache does not know it.
func (c *Client) FetchDDO(ctx context.Context, did string) (ddo.Document, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.ddoURL(did), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.h.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %s", ErrNotFound, did)
	}

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("metadata cache returned status %d for %s", resp.StatusCode, did)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	// the cache answers unknown dids with an empty body on some versions
	if len(bytes.TrimSpace(b)) == 0 || string(bytes.TrimSpace(b)) == "null" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, did)
	}

	doc, err := ddo.Decode(b)
	if err != nil {
		return nil, fmt.Errorf("error decoding ddo for %s: %w", did, err)
	}

	return doc, nil
}

// ValidationResult is the metadata cache's verdict on a submitted document.
type ValidationResult struct {
	Valid  bool
	Hash   string
	Errors map[string]any
}

// ValidateRemote submits doc to the metadata cache's validation endpoint.
// A rejected document is not an error: it yields Valid false and the cache's
// error map.
func (c *Client) ValidateRemote(ctx context.Context, doc ddo.Document) (*ValidationResult, error) {
	b, err := json.Marshal(ddo.AsDictionary(doc))
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.service+"/api/aquarius/assets/ddo/validate", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}

	req.Header.Add("content-type", "application/octet-stream")

	resp, err := c.h.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var out struct {
			Hash string `json:"hash"`
		}
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, fmt.Errorf("error decoding validation response: %w", err)
		}
		return &ValidationResult{Valid: true, Hash: out.Hash}, nil
	case http.StatusBadRequest:
		var errs map[string]any
		if err := json.Unmarshal(body, &errs); err != nil {
			errs = map[string]any{"error": string(body)}
		}
		c.logger.Debug("metadata cache rejected ddo", "did", doc.GetDID(), "errors", errs)
		return &ValidationResult{Valid: false, Errors: errs}, nil
	default:
		return nil, fmt.Errorf("metadata cache returned status %d while validating %s", resp.StatusCode, doc.GetDID())
	}
}

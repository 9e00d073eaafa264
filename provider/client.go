// Package provider is a client for the provider service that encrypts
// service files and reports whether they are reachable.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/bluesky-social/indigo/util"
	"github.com/oceanprotocol/oceanlib/ddo"
	"github.com/samber/lo"
)

const (
	encryptPath  = "/api/services/encrypt"
	fileInfoPath = "/api/services/fileinfo"
)

type Client struct {
	h      *http.Client
	logger *slog.Logger

	service string
}

type ClientArgs struct {
	// Service is used when a call does not name a provider itself.
	Service string
	Client  *http.Client
	Logger  *slog.Logger
}

func NewClient(args *ClientArgs) *Client {
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
	}
}

func (c *Client) baseURL(providerURI string) (string, error) {
	if providerURI == "" {
		providerURI = c.service
	}
	if providerURI == "" {
		return "", fmt.Errorf("no provider url configured")
	}
	return strings.TrimSuffix(providerURI, "/"), nil
}

// EncryptFiles asks the provider at providerURI (or the client default) to
// encrypt files for the given data nft. The returned ciphertext is opaque.
func (c *Client) EncryptFiles(ctx context.Context, files any, nftAddress string, chainID int64, providerURI string) (string, error) {
	base, err := c.baseURL(providerURI)
	if err != nil {
		return "", err
	}

	b, err := json.Marshal(encryptRequest{Files: files, NFTAddress: nftAddress, ChainID: chainID})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", base+encryptPath+"?chainId="+strconv.FormatInt(chainID, 10), bytes.NewBuffer(b))
	if err != nil {
		return "", err
	}

	req.Header.Add("content-type", "application/json")

	resp, err := c.h.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s", &StatusError{Code: resp.StatusCode, Op: "encrypt"}, strings.TrimSpace(string(body)))
	}

	return strings.TrimSpace(string(body)), nil
}

func (c *Client) FileInfo(ctx context.Context, did string, svc *ddo.Service) ([]FileInfo, error) {
	if svc == nil {
		return nil, fmt.Errorf("fileinfo for %s: no service given", did)
	}

	base, err := c.baseURL(svc.ServiceEndpoint)
	if err != nil {
		return nil, err
	}

	b, err := json.Marshal(fileInfoRequest{DID: did, ServiceID: svc.ID})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", base+fileInfoPath, bytes.NewBuffer(b))
	if err != nil {
		return nil, err
	}

	req.Header.Add("content-type", "application/json")

	resp, err := c.h.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Code: resp.StatusCode, Op: "fileinfo of " + did}
	}

	var infos []FileInfo
	if err := json.NewDecoder(resp.Body).Decode(&infos); err != nil {
		return nil, err
	}

	return infos, nil
}

// CheckFileConnectivity reports true when the provider answers fileinfo for
// the service and every file is valid. Transport failures are errors; an
// unhappy provider answer is a plain false.
func (c *Client) CheckFileConnectivity(ctx context.Context, did string, svc *ddo.Service) (bool, error) {
	infos, err := c.FileInfo(ctx, did, svc)
	var se *StatusError
	if errors.As(err, &se) {
		c.logger.Warn("file connectivity check failed", "did", did, "service", svc.ID, "status", se.Code)
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if len(infos) == 0 {
		return false, nil
	}

	return lo.EveryBy(infos, func(fi FileInfo) bool { return fi.Valid }), nil
}

var _ ddo.FileEncryptor = (*Client)(nil)

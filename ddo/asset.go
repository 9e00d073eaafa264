package ddo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/oceanprotocol/oceanlib/credentials"
	"github.com/spf13/cast"
)

const (
	DefaultContext = "https://w3id.org/did/v1"
	VersionV4      = "4.1.0"
)

// nft states in which the asset can still be ordered
var activeNFTStates = map[int]bool{0: true, 5: true}

// Asset is a V4 DDO.
type Asset struct {
	ID          string
	Context     []string
	ChainID     int64
	NFTAddress  string
	Version     string
	Metadata    map[string]any
	Services    []*Service
	Credentials credentials.Credentials
	NFT         map[string]any
	Datatokens  []any
	Event       map[string]any
	Stats       map[string]any
}

func NewAsset(chainID int64, nftAddress string) *Asset {
	return &Asset{
		Context:    []string{DefaultContext},
		ChainID:    chainID,
		NFTAddress: nftAddress,
		Version:    VersionV4,
		Services:   []*Service{},
	}
}

type assetJSON struct {
	Context     []string                `json:"@context"`
	ID          json.RawMessage         `json:"id"`
	Version     string                  `json:"version"`
	ChainID     any                     `json:"chainId"`
	NFTAddress  string                  `json:"nftAddress"`
	Metadata    map[string]any          `json:"metadata"`
	Services    []*Service              `json:"services"`
	Credentials credentials.Credentials `json:"credentials"`
	NFT         map[string]any          `json:"nft"`
	Datatokens  []any                   `json:"datatokens"`
	Event       map[string]any          `json:"event"`
	Stats       map[string]any          `json:"stats"`
}

func decodeAsset(b []byte) (Document, error) {
	var aj assetJSON
	if err := json.Unmarshal(b, &aj); err != nil {
		return nil, err
	}

	// A missing id means the document was never published. A null id is a
	// new asset whose did has not been assigned yet.
	if aj.ID == nil {
		return &Unresolved{}, nil
	}

	var id string
	if string(aj.ID) != "null" {
		if err := json.Unmarshal(aj.ID, &id); err != nil {
			return nil, fmt.Errorf("invalid id: %w", err)
		}
	}

	var chainID int64
	if aj.ChainID != nil {
		id, err := cast.ToInt64E(aj.ChainID)
		if err != nil {
			return nil, fmt.Errorf("invalid chainId: %w", err)
		}
		chainID = id
	}

	if aj.Context == nil {
		aj.Context = []string{DefaultContext}
	}
	if aj.Version == "" {
		aj.Version = VersionV4
	}
	if aj.Services == nil {
		aj.Services = []*Service{}
	}

	return &Asset{
		ID:          id,
		Context:     aj.Context,
		ChainID:     chainID,
		NFTAddress:  aj.NFTAddress,
		Version:     aj.Version,
		Metadata:    aj.Metadata,
		Services:    aj.Services,
		Credentials: aj.Credentials,
		NFT:         aj.NFT,
		Datatokens:  aj.Datatokens,
		Event:       aj.Event,
		Stats:       aj.Stats,
	}, nil
}

func (a *Asset) AsDictionary() map[string]any {
	var id any
	if a.ID != "" {
		id = a.ID
	}

	out := map[string]any{
		"@context":   a.Context,
		"id":         id,
		"version":    a.Version,
		"chainId":    a.ChainID,
		"nftAddress": a.NFTAddress,
	}

	services := make([]any, 0, len(a.Services))
	for _, s := range a.Services {
		services = append(services, s.AsDictionary())
	}
	out["services"] = services

	if len(a.Metadata) > 0 {
		out["metadata"] = a.Metadata
	}
	if len(a.Credentials) > 0 {
		out["credentials"] = a.Credentials
	}
	if len(a.NFT) > 0 {
		out["nft"] = a.NFT
	}
	if len(a.Datatokens) > 0 {
		out["datatokens"] = a.Datatokens
	}
	if len(a.Event) > 0 {
		out["event"] = a.Event
	}
	if len(a.Stats) > 0 {
		out["stats"] = a.Stats
	}

	return out
}

func (a *Asset) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.AsDictionary())
}

func (a *Asset) GetDID() string                          { return a.ID }
func (a *Asset) SchemaVersion() string                   { return a.Version }
func (a *Asset) GetMetadata() map[string]any             { return a.Metadata }
func (a *Asset) GetCredentials() credentials.Credentials { return a.Credentials }

// IsDisabled is true when there is no metadata or the data nft is in a state
// that does not allow ordering.
func (a *Asset) IsDisabled() bool {
	if len(a.Metadata) == 0 {
		return true
	}

	if len(a.NFT) == 0 {
		return false
	}

	state, err := cast.ToIntE(a.NFT["state"])
	if err != nil || a.NFT["state"] == nil {
		return true
	}

	return !activeNFTStates[state]
}

func (a *Asset) status(key string) bool {
	st, ok := a.Metadata["status"].(map[string]any)
	if !ok {
		return false
	}
	return cast.ToBool(st[key])
}

func (a *Asset) IsOrderDisabled() bool { return a.status("isOrderDisabled") }
func (a *Asset) IsRetired() bool       { return a.status("isRetired") }

func (a *Asset) IsListed() bool {
	st, ok := a.Metadata["status"].(map[string]any)
	if !ok {
		return true
	}
	if v, ok := st["isListed"]; ok {
		return cast.ToBool(v)
	}
	return true
}

// AddService encrypts the service files through enc and then appends the
// service. The service is not added if encryption fails.
func (a *Asset) AddService(ctx context.Context, enc FileEncryptor, s *Service) error {
	if err := s.encryptFiles(ctx, enc, a.NFTAddress, a.ChainID); err != nil {
		return err
	}

	a.Services = append(a.Services, s)
	return nil
}

type ServiceArgs struct {
	ID              string
	ServiceEndpoint string
	Datatoken       string
	Files           any
	Timeout         int64
	Name            string
	Description     string
	ComputeValues   *ComputeValues
}

func (a *Asset) newService(typ string, args ServiceArgs) *Service {
	if args.ID == "" {
		args.ID = uuid.NewString()
	}
	if args.Timeout == 0 {
		args.Timeout = DefaultServiceTimeout
	}

	return &Service{
		ID:              args.ID,
		Type:            typ,
		ServiceEndpoint: args.ServiceEndpoint,
		Datatoken:       args.Datatoken,
		Files:           args.Files,
		Timeout:         args.Timeout,
		Name:            args.Name,
		Description:     args.Description,
	}
}

func (a *Asset) CreateAccessService(ctx context.Context, enc FileEncryptor, args ServiceArgs) (*Service, error) {
	s := a.newService(ServiceTypeAccess, args)
	if err := a.AddService(ctx, enc, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (a *Asset) CreateComputeService(ctx context.Context, enc FileEncryptor, args ServiceArgs) (*Service, error) {
	s := a.newService(ServiceTypeCompute, args)

	s.ComputeValues = args.ComputeValues
	if s.ComputeValues == nil {
		s.ComputeValues = DefaultComputeValues()
	}

	if err := a.AddService(ctx, enc, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (a *Asset) ServiceByID(id string) *Service {
	for _, s := range a.Services {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func (a *Asset) ServiceByIndex(i int) *Service {
	if i < 0 || i >= len(a.Services) {
		return nil
	}
	return a.Services[i]
}

func (a *Asset) IndexOfService(s *Service) (int, bool) {
	if s == nil {
		return -1, false
	}

	for i, svc := range a.Services {
		if svc.ID == s.ID {
			return i, true
		}
	}
	return -1, false
}

func (a *Asset) RemoveService(id string) bool {
	for i, s := range a.Services {
		if s.ID == id {
			a.Services = append(a.Services[:i], a.Services[i+1:]...)
			return true
		}
	}
	return false
}

func (a *Asset) AllowedAddresses() ([]string, error) {
	return a.Credentials.AddressesOfClass(credentials.ClassAllow)
}

func (a *Asset) DeniedAddresses() ([]string, error) {
	return a.Credentials.AddressesOfClass(credentials.ClassDeny)
}

func (a *Asset) AddAddressToAllowList(address string) error {
	return a.Credentials.AddAddress(credentials.ClassAllow, address)
}

func (a *Asset) AddAddressToDenyList(address string) error {
	return a.Credentials.AddAddress(credentials.ClassDeny, address)
}

func (a *Asset) RemoveAddressFromAllowList(address string) error {
	return a.Credentials.RemoveAddress(credentials.ClassAllow, address)
}

func (a *Asset) RemoveAddressFromDenyList(address string) error {
	return a.Credentials.RemoveAddress(credentials.ClassDeny, address)
}

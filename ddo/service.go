package ddo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	ServiceTypeAccess        = "access"
	ServiceTypeCompute       = "compute"
	ServiceTypeMetadata      = "metadata"
	ServiceTypeAuthorization = "authorization"
	ServiceTypeWSS           = "wss"

	DefaultServiceTimeout = 3600
)

var (
	ErrServiceTypeRequired = errors.New("service type is required")
	ErrNoEncryptor         = errors.New("service files are not encrypted and no encryptor was given")
)

// FileEncryptor turns a plaintext file list into the provider ciphertext
// stored in a published service.
type FileEncryptor interface {
	EncryptFiles(ctx context.Context, files any, nftAddress string, chainID int64, providerURI string) (string, error)
}

type Service struct {
	ID                    string
	Type                  string
	ServiceEndpoint       string
	Datatoken             string
	Files                 any
	Timeout               int64
	ComputeValues         *ComputeValues
	Name                  string
	Description           string
	AdditionalInformation map[string]any
	ConsumerParameters    []ConsumerParameter
}

type ComputeValues struct {
	AllowRawAlgorithm                   bool               `json:"allowRawAlgorithm"`
	AllowNetworkAccess                  bool               `json:"allowNetworkAccess"`
	PublisherTrustedAlgorithms          []TrustedAlgorithm `json:"publisherTrustedAlgorithms"`
	PublisherTrustedAlgorithmPublishers []string           `json:"publisherTrustedAlgorithmPublishers"`
}

type TrustedAlgorithm struct {
	DID                      string `json:"did"`
	FilesChecksum            string `json:"filesChecksum"`
	ContainerSectionChecksum string `json:"containerSectionChecksum"`
}

func DefaultComputeValues() *ComputeValues {
	return &ComputeValues{
		AllowRawAlgorithm:                   false,
		AllowNetworkAccess:                  true,
		PublisherTrustedAlgorithms:          []TrustedAlgorithm{},
		PublisherTrustedAlgorithmPublishers: []string{},
	}
}

func (cv ComputeValues) MarshalJSON() ([]byte, error) {
	type plain ComputeValues
	if cv.PublisherTrustedAlgorithms == nil {
		cv.PublisherTrustedAlgorithms = []TrustedAlgorithm{}
	}
	if cv.PublisherTrustedAlgorithmPublishers == nil {
		cv.PublisherTrustedAlgorithmPublishers = []string{}
	}
	return json.Marshal(plain(cv))
}

type serviceJSON struct {
	ID                    string          `json:"id"`
	Type                  *string         `json:"type"`
	ServiceEndpoint       string          `json:"serviceEndpoint"`
	Datatoken             string          `json:"datatokenAddress"`
	Files                 any             `json:"files"`
	Timeout               int64           `json:"timeout"`
	Compute               *ComputeValues  `json:"compute"`
	Name                  string          `json:"name"`
	Description           string          `json:"description"`
	AdditionalInformation map[string]any  `json:"additionalInformation"`
	ConsumerParameters    json.RawMessage `json:"consumerParameters"`
}

func (s *Service) UnmarshalJSON(b []byte) error {
	var sj serviceJSON
	if err := json.Unmarshal(b, &sj); err != nil {
		return err
	}

	if sj.Type == nil || *sj.Type == "" {
		return fmt.Errorf("%w (service %q)", ErrServiceTypeRequired, sj.ID)
	}

	params, err := parseConsumerParameters(sj.ConsumerParameters)
	if err != nil {
		return err
	}

	*s = Service{
		ID:                    sj.ID,
		Type:                  *sj.Type,
		ServiceEndpoint:       sj.ServiceEndpoint,
		Datatoken:             sj.Datatoken,
		Files:                 sj.Files,
		Timeout:               sj.Timeout,
		ComputeValues:         sj.Compute,
		Name:                  sj.Name,
		Description:           sj.Description,
		AdditionalInformation: sj.AdditionalInformation,
		ConsumerParameters:    params,
	}

	return nil
}

func (s *Service) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.AsDictionary())
}

func ServiceFromDict(m map[string]any) (*Service, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}

	var s Service
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}

	return &s, nil
}

func (s *Service) AsDictionary() map[string]any {
	out := map[string]any{
		"id":               s.ID,
		"type":             s.Type,
		"serviceEndpoint":  s.ServiceEndpoint,
		"datatokenAddress": s.Datatoken,
		"files":            s.Files,
		"timeout":          s.Timeout,
	}

	if s.ComputeValues != nil {
		out["compute"] = s.ComputeValues
	}
	if s.Name != "" {
		out["name"] = s.Name
	}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if s.AdditionalInformation != nil {
		out["additionalInformation"] = s.AdditionalInformation
	}
	if s.ConsumerParameters != nil {
		out["consumerParameters"] = s.ConsumerParameters
	}

	return out
}

func (s *Service) IsCompute() bool {
	return s.Type == ServiceTypeCompute
}

func (s *Service) TrustedAlgorithmDIDs() []string {
	if s.ComputeValues == nil {
		return nil
	}

	dids := make([]string, 0, len(s.ComputeValues.PublisherTrustedAlgorithms))
	for _, ta := range s.ComputeValues.PublisherTrustedAlgorithms {
		dids = append(dids, ta.DID)
	}
	return dids
}

// encryptFiles replaces plaintext files with provider ciphertext. Files that
// are already a string are assumed to be encrypted.
func (s *Service) encryptFiles(ctx context.Context, enc FileEncryptor, nftAddress string, chainID int64) error {
	if _, ok := s.Files.(string); ok {
		return nil
	}

	if enc == nil {
		return ErrNoEncryptor
	}

	ciphertext, err := enc.EncryptFiles(ctx, s.Files, nftAddress, chainID, s.ServiceEndpoint)
	if err != nil {
		return fmt.Errorf("error encrypting files for service %s: %w", s.ID, err)
	}

	s.Files = ciphertext
	return nil
}

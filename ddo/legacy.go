package ddo

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/oceanprotocol/oceanlib/credentials"
	"github.com/spf13/cast"
)

const VersionV3 = "3"

// LegacyAsset is a V3 DDO. Keys outside the known set are kept in Other and
// written back unchanged.
type LegacyAsset struct {
	Context        any
	ID             string
	Created        string
	Updated        string
	PublicKey      []any
	Authentication []any
	Services       []*LegacyService
	Proof          map[string]any
	DataToken      string
	Credentials    credentials.Credentials
	Other          map[string]any
}

type LegacyService struct {
	Type            string
	Index           int
	ServiceEndpoint string
	Attributes      map[string]any
	Other           map[string]any
}

func popJSON[T any](m map[string]json.RawMessage, key string, dst *T) error {
	raw, ok := m[key]
	if !ok {
		return nil
	}
	delete(m, key)

	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("invalid %q: %w", key, err)
	}
	return nil
}

func remaining(m map[string]json.RawMessage) (map[string]any, error) {
	if len(m) == 0 {
		return nil, nil
	}

	out := make(map[string]any, len(m))
	for k, raw := range m {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

func decodeLegacyAsset(b []byte) (Document, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}

	if _, ok := m["id"]; !ok {
		return &Unresolved{}, nil
	}

	var la LegacyAsset
	var rawServices []json.RawMessage

	if err := errors.Join(
		popJSON(m, "id", &la.ID),
		popJSON(m, "@context", &la.Context),
		popJSON(m, "created", &la.Created),
		popJSON(m, "updated", &la.Updated),
		popJSON(m, "publicKey", &la.PublicKey),
		popJSON(m, "authentication", &la.Authentication),
		popJSON(m, "service", &rawServices),
		popJSON(m, "proof", &la.Proof),
		popJSON(m, "dataToken", &la.DataToken),
		popJSON(m, "credentials", &la.Credentials),
	); err != nil {
		return nil, err
	}

	la.Services = make([]*LegacyService, 0, len(rawServices))
	for _, raw := range rawServices {
		s, err := decodeLegacyService(raw)
		if err != nil {
			return nil, err
		}
		la.Services = append(la.Services, s)
	}

	other, err := remaining(m)
	if err != nil {
		return nil, err
	}
	la.Other = other

	return &la, nil
}

func decodeLegacyService(b []byte) (*LegacyService, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}

	if _, ok := m["type"]; !ok {
		return nil, ErrServiceTypeRequired
	}

	var s LegacyService
	var index any

	if err := errors.Join(
		popJSON(m, "type", &s.Type),
		popJSON(m, "index", &index),
		popJSON(m, "serviceEndpoint", &s.ServiceEndpoint),
		popJSON(m, "attributes", &s.Attributes),
	); err != nil {
		return nil, err
	}

	if s.Type == "" {
		return nil, ErrServiceTypeRequired
	}

	var err error
	if s.Index, err = cast.ToIntE(index); err != nil {
		return nil, fmt.Errorf("invalid service index: %w", err)
	}

	s.Other, err = remaining(m)
	if err != nil {
		return nil, err
	}

	return &s, nil
}

func (s *LegacyService) AsDictionary() map[string]any {
	out := map[string]any{}
	for k, v := range s.Other {
		out[k] = v
	}

	out["type"] = s.Type
	out["index"] = s.Index
	out["serviceEndpoint"] = s.ServiceEndpoint
	if s.Attributes != nil {
		out["attributes"] = s.Attributes
	}

	return out
}

func (la *LegacyAsset) AsDictionary() map[string]any {
	out := map[string]any{}
	for k, v := range la.Other {
		out[k] = v
	}

	out["id"] = la.ID
	if la.Context != nil {
		out["@context"] = la.Context
	}
	if la.Created != "" {
		out["created"] = la.Created
	}
	if la.Updated != "" {
		out["updated"] = la.Updated
	}
	if la.PublicKey != nil {
		out["publicKey"] = la.PublicKey
	}
	if la.Authentication != nil {
		out["authentication"] = la.Authentication
	}
	if la.Proof != nil {
		out["proof"] = la.Proof
	}
	if la.DataToken != "" {
		out["dataToken"] = la.DataToken
	}
	if len(la.Credentials) > 0 {
		out["credentials"] = la.Credentials
	}

	services := make([]any, 0, len(la.Services))
	for _, s := range la.Services {
		services = append(services, s.AsDictionary())
	}
	out["service"] = services

	return out
}

func (la *LegacyAsset) MarshalJSON() ([]byte, error) {
	return json.Marshal(la.AsDictionary())
}

func (la *LegacyAsset) GetDID() string                          { return la.ID }
func (la *LegacyAsset) SchemaVersion() string                   { return VersionV3 }
func (la *LegacyAsset) GetCredentials() credentials.Credentials { return la.Credentials }

func (la *LegacyAsset) ServiceByType(typ string) *LegacyService {
	for _, s := range la.Services {
		if s.Type == typ {
			return s
		}
	}
	return nil
}

// GetMetadata returns the attributes of the metadata service.
func (la *LegacyAsset) GetMetadata() map[string]any {
	s := la.ServiceByType(ServiceTypeMetadata)
	if s == nil {
		return nil
	}
	return s.Attributes
}

func (la *LegacyAsset) IsDisabled() bool {
	md := la.GetMetadata()
	if len(md) == 0 {
		return true
	}

	st, ok := md["status"].(map[string]any)
	if !ok {
		return false
	}
	return cast.ToBool(st["isOrderDisabled"])
}

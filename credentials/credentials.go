// Package credentials evaluates the allow/deny address lists stored in a
// DDO against a credential presented by a consumer.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

const (
	ClassAllow = "allow"
	ClassDeny  = "deny"

	TypeAddress = "address"
)

var ErrMalformedCredential = errors.New("malformed credential")

// Credentials is the stored shape: class name to a list of typed entries.
// Address entries carry a plural "values" list.
type Credentials map[string][]Entry

type Entry struct {
	Type string
	// Values is nil when the key is absent from the document.
	Values []string
	// Other holds the keys this package does not interpret, including the
	// "values" of non-address entries when they are not a list of strings.
	Other map[string]json.RawMessage
}

func (e Entry) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Other)+2)
	for k, v := range e.Other {
		out[k] = v
	}

	out["type"] = e.Type
	if e.Values != nil {
		out["values"] = e.Values
	}

	return json.Marshal(out)
}

func (e *Entry) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	var typ string
	if t, ok := raw["type"]; ok {
		if err := json.Unmarshal(t, &typ); err != nil {
			return fmt.Errorf("credential entry type: %w", err)
		}
		delete(raw, "type")
	}

	var values []string
	if v, ok := raw["values"]; ok {
		err := json.Unmarshal(v, &values)
		switch {
		case err == nil:
			delete(raw, "values")
		case typ == TypeAddress:
			return fmt.Errorf("%w: address values must be strings", ErrMalformedCredential)
		}
	}

	if len(raw) == 0 {
		raw = nil
	}

	*e = Entry{Type: typ, Values: values, Other: raw}
	return nil
}

// Credential is what a consumer presents: a single value, not a list.
type Credential struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func AddressCredential(address string) *Credential {
	return &Credential{Type: TypeAddress, Value: address}
}

func (c Credentials) addressEntry(class string) (int, bool) {
	for i, e := range c[class] {
		if e.Type == TypeAddress {
			return i, true
		}
	}
	return -1, false
}

// AddressesOfClass returns the lower-cased addresses of the first address
// entry under class, or an empty list when there is none.
func (c Credentials) AddressesOfClass(class string) ([]string, error) {
	i, ok := c.addressEntry(class)
	if !ok {
		return []string{}, nil
	}

	entry := c[class][i]
	if entry.Values == nil {
		return nil, fmt.Errorf("%w: %s address entry has no values", ErrMalformedCredential, class)
	}

	return lo.Map(entry.Values, func(v string, _ int) string {
		return strings.ToLower(v)
	}), nil
}

func (c Credentials) RequiresCredential() (bool, error) {
	allowed, err := c.AddressesOfClass(ClassAllow)
	if err != nil {
		return false, err
	}

	denied, err := c.AddressesOfClass(ClassDeny)
	if err != nil {
		return false, err
	}

	return len(allowed) > 0 || len(denied) > 0, nil
}

// ValidateAccess decides whether cred may consume. A non-empty allow list
// alone decides the outcome; the deny list is only consulted when there is
// no allow list.
func (c Credentials) ValidateAccess(cred *Credential) (ConsumableCode, error) {
	var address string
	if cred != nil {
		if cred.Value == "" {
			return OK, fmt.Errorf("%w: received empty address", ErrMalformedCredential)
		}
		address = strings.ToLower(cred.Value)
	}

	allowed, err := c.AddressesOfClass(ClassAllow)
	if err != nil {
		return OK, err
	}

	denied, err := c.AddressesOfClass(ClassDeny)
	if err != nil {
		return OK, err
	}

	if address == "" && len(allowed) == 0 && len(denied) == 0 {
		return OK, nil
	}

	if len(allowed) > 0 && !lo.Contains(allowed, address) {
		return CredentialNotInAllowList, nil
	}

	if len(allowed) == 0 && lo.Contains(denied, address) {
		return CredentialInDenyList, nil
	}

	return OK, nil
}

func (c *Credentials) AddAddress(class, address string) error {
	address = strings.ToLower(address)

	if *c == nil {
		*c = Credentials{}
	}

	i, ok := c.addressEntry(class)
	if !ok {
		(*c)[class] = append((*c)[class], Entry{Type: TypeAddress, Values: []string{address}})
		return nil
	}

	addresses, err := c.AddressesOfClass(class)
	if err != nil {
		return err
	}

	if !lo.Contains(addresses, address) {
		addresses = append(addresses, address)
	}

	(*c)[class][i].Values = addresses
	return nil
}

func (c Credentials) RemoveAddress(class, address string) error {
	address = strings.ToLower(address)

	i, ok := c.addressEntry(class)
	if !ok {
		return nil
	}

	addresses, err := c.AddressesOfClass(class)
	if err != nil {
		return err
	}

	idx := lo.IndexOf(addresses, address)
	if idx < 0 {
		return nil
	}

	c[class][i].Values = append(addresses[:idx], addresses[idx+1:]...)
	return nil
}

// Package ddo models DID documents in both schema families: the current V4
// asset and the legacy V3 document.
package ddo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/oceanprotocol/oceanlib/credentials"
)

var ErrUnsupportedVersion = errors.New("unsupported ddo version")

// Document is implemented by *Asset, *LegacyAsset and *Unresolved.
type Document interface {
	GetDID() string
	SchemaVersion() string
	GetMetadata() map[string]any
	GetCredentials() credentials.Credentials
	IsDisabled() bool
}

// Unresolved stands in for a did whose document could not be resolved, or
// for a document that carries no id.
type Unresolved struct {
	DID string
}

func (u *Unresolved) GetDID() string                          { return u.DID }
func (u *Unresolved) SchemaVersion() string                   { return "" }
func (u *Unresolved) GetMetadata() map[string]any             { return nil }
func (u *Unresolved) GetCredentials() credentials.Credentials { return nil }
func (u *Unresolved) IsDisabled() bool                        { return true }

func IsUnresolved(d Document) bool {
	_, ok := d.(*Unresolved)
	return ok
}

// Decode reads a serialized document and dispatches on its schema version.
// A "version" starting with 4 selects the V4 asset; without a version, a
// legacy "service" list selects V3.
func Decode(b []byte) (Document, error) {
	var probe struct {
		Version  *string         `json:"version"`
		Service  json.RawMessage `json:"service"`
		Services json.RawMessage `json:"services"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return nil, fmt.Errorf("error decoding ddo: %w", err)
	}

	switch {
	case probe.Version != nil && strings.HasPrefix(*probe.Version, "4"):
		return decodeAsset(b)
	case probe.Version != nil:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, *probe.Version)
	case probe.Service != nil && probe.Services == nil:
		return decodeLegacyAsset(b)
	default:
		return decodeAsset(b)
	}
}

// FromDict decodes a document from its generic map form. The input is not
// retained.
func FromDict(m map[string]any) (Document, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}

	return Decode(b)
}

// AsDictionary returns the generic map form of d, or nil for unresolved
// documents.
func AsDictionary(d Document) map[string]any {
	switch v := d.(type) {
	case *Asset:
		return v.AsDictionary()
	case *LegacyAsset:
		return v.AsDictionary()
	default:
		return nil
	}
}

type Resolver interface {
	ResolveDDO(ctx context.Context, did string) (Document, error)
}

// AssetRef is either a did still to be resolved or an already resolved
// document.
type AssetRef struct {
	did string
	doc Document
}

func RefDID(did string) AssetRef {
	return AssetRef{did: did}
}

func RefDocument(doc Document) AssetRef {
	return AssetRef{doc: doc}
}

func (r AssetRef) DID() string {
	if r.doc != nil {
		return r.doc.GetDID()
	}
	return r.did
}

func (r AssetRef) Resolve(ctx context.Context, res Resolver) (Document, error) {
	if r.doc != nil {
		return r.doc, nil
	}

	if res == nil {
		return nil, fmt.Errorf("no resolver available for %s", r.did)
	}

	return res.ResolveDDO(ctx, r.did)
}

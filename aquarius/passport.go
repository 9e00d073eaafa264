package aquarius

import (
	"context"
	"errors"
	"sync"

	"github.com/oceanprotocol/oceanlib/ddo"
)

type BackingCache interface {
	GetDoc(did string) (ddo.Document, bool)
	PutDoc(did string, doc ddo.Document) error
	BustDoc(did string) error
}

// Fetcher is the part of Client that Passport needs.
type Fetcher interface {
	FetchDDO(ctx context.Context, did string) (ddo.Document, error)
}

type skipCacheKey struct{}

// WithSkipCache makes the next resolution through a Passport bypass the
// cache. The fetched document still replaces the cached one.
func WithSkipCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipCacheKey{}, true)
}

// Passport resolves dids through the metadata cache, keeping recent
// documents in a BackingCache. It implements ddo.Resolver.
type Passport struct {
	bc BackingCache
	f  Fetcher
	lk sync.Mutex
}

func NewPassport(f Fetcher, bc BackingCache) *Passport {
	return &Passport{
		bc: bc,
		f:  f,
		lk: sync.Mutex{},
	}
}

func (p *Passport) FetchDoc(ctx context.Context, did string) (ddo.Document, error) {
	skipCache, _ := ctx.Value(skipCacheKey{}).(bool)

	if !skipCache {
		cached, ok := p.bc.GetDoc(did)
		if ok {
			return cached, nil
		}
	}

	p.lk.Lock()
	defer p.lk.Unlock()

	doc, err := p.f.FetchDDO(ctx, did)
	if err != nil {
		return nil, err
	}

	if !ddo.IsUnresolved(doc) {
		p.bc.PutDoc(did, doc)
	}

	return doc, nil
}

// ResolveDDO is FetchDoc with unknown dids reported as *ddo.Unresolved
// instead of ErrNotFound. Unresolved results are not cached.
func (p *Passport) ResolveDDO(ctx context.Context, did string) (ddo.Document, error) {
	doc, err := p.FetchDoc(ctx, did)
	if errors.Is(err, ErrNotFound) {
		return &ddo.Unresolved{DID: did}, nil
	}
	if err != nil {
		return nil, err
	}

	if ddo.IsUnresolved(doc) {
		return &ddo.Unresolved{DID: did}, nil
	}

	return doc, nil
}

func (p *Passport) BustDoc(ctx context.Context, did string) error {
	return p.bc.BustDoc(did)
}

var _ ddo.Resolver = (*Passport)(nil)

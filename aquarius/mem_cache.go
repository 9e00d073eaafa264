package aquarius

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/oceanprotocol/oceanlib/ddo"
)

const DefaultCacheTTL = 5 * time.Minute

type MemCache struct {
	docCache *expirable.LRU[string, ddo.Document]
}

func NewMemCache(size int, ttl time.Duration) *MemCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	return &MemCache{
		docCache: expirable.NewLRU[string, ddo.Document](size, nil, ttl),
	}
}

func (mc *MemCache) GetDoc(did string) (ddo.Document, bool) {
	return mc.docCache.Get(did)
}

func (mc *MemCache) PutDoc(did string, doc ddo.Document) error {
	mc.docCache.Add(did, doc)
	return nil
}

func (mc *MemCache) BustDoc(did string) error {
	mc.docCache.Remove(did)
	return nil
}

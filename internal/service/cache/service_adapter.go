package cache

import (
	"context"
	"errors"
	"time"

	pkgcache "ChainPull/pkg/cache"
)

// ServiceCache adapts a pkg/cache Service to the BytesCache API used by
// request handlers.
type ServiceCache struct {
	svc pkgcache.Service
}

func NewServiceCache(svc pkgcache.Service) *ServiceCache {
	return &ServiceCache{svc: svc}
}

func (s *ServiceCache) GetBytes(key string) ([]byte, bool, error) {
	var v string
	err := s.svc.Get(context.Background(), key, &v)
	if err != nil {
		if errors.Is(err, pkgcache.ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return []byte(v), true, nil
}

func (s *ServiceCache) SetBytes(key string, value []byte, ttl time.Duration) error {
	return s.svc.Set(context.Background(), key, string(value), ttl)
}

var _ BytesCache = (*ServiceCache)(nil)

package redis

import (
	"context"
	"fmt"
	"sort"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/joshnavoa/zakeke/internal/repository"
)

// DefaultKey is the Redis set holding customizable product ids
const DefaultKey = "zakeke:customizable_products"

type customizableSet struct {
	client *goredis.Client
	key    string
}

// NewClient parses a redis:// URL and pings the server
func NewClient(ctx context.Context, url string) (*goredis.Client, error) {
	opt, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := goredis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// NewCustomizableSet creates a CustomizableSet stored in a Redis set so the
// flags survive restarts and are shared between instances
func NewCustomizableSet(client *goredis.Client, key string) repository.CustomizableSet {
	if key == "" {
		key = DefaultKey
	}
	return &customizableSet{client: client, key: key}
}

func (s *customizableSet) Mark(ctx context.Context, productID string) error {
	return s.client.SAdd(ctx, s.key, productID).Err()
}

func (s *customizableSet) Unmark(ctx context.Context, productID string) error {
	return s.client.SRem(ctx, s.key, productID).Err()
}

func (s *customizableSet) Contains(ctx context.Context, productID string) (bool, error) {
	return s.client.SIsMember(ctx, s.key, productID).Result()
}

// List returns the members sorted
func (s *customizableSet) List(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.key).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

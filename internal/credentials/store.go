package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aturei/flowsynth/internal/models"
)

// Store is a Redis-backed view of each user's saved service
// credentials. The resolver consumes it read-only; Save exists for the
// onboarding collaborator that collects credential values.
type Store struct {
	client *redis.Client
}

func NewStore(redisURL string) (*Store, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{client: client}, nil
}

// NewStoreFromClient wraps an existing client; used by tests.
func NewStoreFromClient(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) userKey(userID string) string {
	return fmt.Sprintf("credentials:%s", userID)
}

// FindByUser returns every credential record stored for a user. A user
// with no stored credentials gets an empty list, not an error.
func (s *Store) FindByUser(ctx context.Context, userID string) ([]models.UserCredential, error) {
	data, err := s.client.Get(ctx, s.userKey(userID)).Result()
	if err == redis.Nil {
		return []models.UserCredential{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials for user %s: %w", userID, err)
	}

	var creds []models.UserCredential
	if err := json.Unmarshal([]byte(data), &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credential records: %w", err)
	}

	return creds, nil
}

// Save upserts one credential record, keyed by normalized service name.
func (s *Store) Save(ctx context.Context, userID string, cred models.UserCredential) error {
	creds, err := s.FindByUser(ctx, userID)
	if err != nil {
		return err
	}

	key := NormalizeService(cred.Service)
	replaced := false
	for i, existing := range creds {
		if NormalizeService(existing.Service) == key {
			creds[i] = cred
			replaced = true
			break
		}
	}
	if !replaced {
		creds = append(creds, cred)
	}

	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credential records: %w", err)
	}

	if err := s.client.Set(ctx, s.userKey(userID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save credentials for user %s: %w", userID, err)
	}

	return nil
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

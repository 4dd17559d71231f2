package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const documentKeyPrefix = "knowledge:docs:"

// Repository persists operator-editable knowledge snippets per topic.
type Repository interface {
	AppendDocuments(ctx context.Context, topic string, docs []string) error
	GetDocuments(ctx context.Context, topic string) ([]string, error)
	ReplaceDocuments(ctx context.Context, topic string, docs []string) error
}

// RedisRepository stores raw documents in Redis lists.
type RedisRepository struct {
	client *redis.Client
}

// NewRedisRepository creates a Redis-backed knowledge repo.
func NewRedisRepository(client *redis.Client) *RedisRepository {
	if client == nil {
		panic("knowledge: redis client cannot be nil")
	}
	return &RedisRepository{client: client}
}

// AppendDocuments pushes new snippets onto the topic's list.
func (r *RedisRepository) AppendDocuments(ctx context.Context, topic string, docs []string) error {
	if len(docs) == 0 {
		return nil
	}
	args := make([]interface{}, len(docs))
	for i, d := range docs {
		args[i] = d
	}
	if err := r.client.RPush(ctx, documentKey(topic), args...).Err(); err != nil {
		return fmt.Errorf("knowledge: failed to push documents: %w", err)
	}
	return nil
}

// GetDocuments returns all snippets for a topic.
func (r *RedisRepository) GetDocuments(ctx context.Context, topic string) ([]string, error) {
	docs, err := r.client.LRange(ctx, documentKey(topic), 0, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("knowledge: failed to load documents: %w", err)
	}
	return docs, nil
}

// ReplaceDocuments overwrites all snippets for the topic.
func (r *RedisRepository) ReplaceDocuments(ctx context.Context, topic string, docs []string) error {
	key := documentKey(topic)
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(docs) > 0 {
		args := make([]interface{}, len(docs))
		for i, d := range docs {
			args[i] = d
		}
		pipe.RPush(ctx, key, args...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("knowledge: failed to replace documents: %w", err)
	}
	return nil
}

// QueryDocuments returns snippets whose text shares a token with the query.
// This is intentionally approximate: it backs the "additional relevant info"
// block of the system prompt, so recall matters more than precision.
func QueryDocuments(ctx context.Context, repo Repository, topic, query string, limit int) []string {
	if repo == nil || strings.TrimSpace(query) == "" {
		return nil
	}
	docs, err := repo.GetDocuments(ctx, topic)
	if err != nil || len(docs) == 0 {
		return nil
	}

	tokens := strings.Fields(strings.ToLower(query))
	var matched []string
	for _, doc := range docs {
		lower := strings.ToLower(doc)
		for _, tok := range tokens {
			if len([]rune(tok)) < 3 {
				continue
			}
			if strings.Contains(lower, tok) {
				matched = append(matched, doc)
				break
			}
		}
		if limit > 0 && len(matched) >= limit {
			break
		}
	}
	return matched
}

func documentKey(topic string) string {
	return documentKeyPrefix + topic
}

// Package dedup guards repeated runs against resurfacing the same
// stories: a Redis set remembers which article URLs earlier runs already
// turned into ideas, and a per-batch title index drops near-duplicate
// topics the synthesis phase failed to merge. Both guards are optional;
// a nil Deduper keeps every topic.
package dedup

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/autofyn/linkedgen/internal/helpers"
	"github.com/autofyn/linkedgen/models"
)

const (
	seenKey        = "linkedgen:seen:urls"
	defaultSeenTTL = 7 * 24 * time.Hour
)

// NewClient dials Redis and pings it, so a bad address fails at startup
// instead of on first use.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}

// SeenStore tracks article URLs surfaced by earlier runs. The whole set
// shares one sliding TTL; a quiet week clears it.
type SeenStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSeenStore(client *redis.Client, ttl time.Duration) *SeenStore {
	if ttl <= 0 {
		ttl = defaultSeenTTL
	}
	return &SeenStore{client: client, ttl: ttl}
}

// MarkSeen records URLs as surfaced and refreshes the retention window.
func (s *SeenStore) MarkSeen(ctx context.Context, urls ...string) error {
	if s == nil || len(urls) == 0 {
		return nil
	}
	members := make([]interface{}, 0, len(urls))
	for _, u := range urls {
		if u != "" {
			members = append(members, member(u))
		}
	}
	if len(members) == 0 {
		return nil
	}
	if err := s.client.SAdd(ctx, seenKey, members...).Err(); err != nil {
		return err
	}
	return s.client.Expire(ctx, seenKey, s.ttl).Err()
}

// Seen reports whether a URL was surfaced by an earlier run.
func (s *SeenStore) Seen(ctx context.Context, url string) (bool, error) {
	if s == nil || url == "" {
		return false, nil
	}
	return s.client.SIsMember(ctx, seenKey, member(url)).Result()
}

// member canonicalizes a URL before it touches the set, so the same story
// arriving from a feed and from a search result with different tracking
// parameters still counts as seen. Unparseable URLs stay raw.
func member(raw string) string {
	canonical, err := helpers.CanonicalURL(raw)
	if err != nil {
		return raw
	}
	return canonical
}

// Deduper combines the cross-run URL guard with the per-batch title
// guard. seen may be nil when Redis is not configured.
type Deduper struct {
	seen   *SeenStore
	logger *log.Logger
}

func New(seen *SeenStore, logger *log.Logger) *Deduper {
	if logger == nil {
		logger = log.New(log.Writer(), "[DEDUP] ", log.LstdFlags)
	}
	return &Deduper{seen: seen, logger: logger}
}

// FilterTopics drops topics whose primary URL was surfaced by an earlier
// run and topics whose title near-duplicates one earlier in the batch.
// Guard failures keep the topic; dropping content over an infrastructure
// error would starve the pipeline.
func (d *Deduper) FilterTopics(ctx context.Context, topics []models.Topic) []models.Topic {
	if d == nil || len(topics) == 0 {
		return topics
	}
	index, err := NewTitleIndex()
	if err != nil {
		d.logger.Printf("title index unavailable: %v", err)
		index = nil
	}
	kept := make([]models.Topic, 0, len(topics))
	for _, topic := range topics {
		if d.seen != nil && topic.PrimaryURL != "" {
			seen, err := d.seen.Seen(ctx, topic.PrimaryURL)
			if err != nil {
				d.logger.Printf("seen check failed for %s: %v", topic.PrimaryURL, err)
			} else if seen {
				d.logger.Printf("dropping topic %d: url already surfaced (%s)", topic.TopicID, topic.PrimaryURL)
				continue
			}
		}
		if index != nil && topic.Title != "" {
			dup, err := index.NearDuplicate(topic.Title)
			if err != nil {
				d.logger.Printf("title check failed for %q: %v", topic.Title, err)
			} else if dup {
				d.logger.Printf("dropping topic %d: near-duplicate title %q", topic.TopicID, topic.Title)
				continue
			}
			if err := index.Add(strconv.Itoa(topic.TopicID), topic.Title); err != nil {
				d.logger.Printf("indexing title %q failed: %v", topic.Title, err)
			}
		}
		kept = append(kept, topic)
	}
	return kept
}

// MarkSurfaced records the source URLs of a finished idea batch so later
// runs skip them. Best effort.
func (d *Deduper) MarkSurfaced(ctx context.Context, ideas []models.Idea) {
	if d == nil || d.seen == nil {
		return
	}
	urls := make([]string, 0, len(ideas))
	for _, idea := range ideas {
		if idea.SourceURL != "" {
			urls = append(urls, idea.SourceURL)
		}
	}
	if err := d.seen.MarkSeen(ctx, urls...); err != nil {
		d.logger.Printf("recording surfaced urls failed: %v", err)
	}
}

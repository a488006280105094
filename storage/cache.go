package storage

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"boardify-api/domain"
)

const generationKey = "boards:gen"

type boardBackend interface {
	ListBoards(ctx context.Context) ([]domain.BoardOverview, error)
	GetBoard(ctx context.Context, id uuid.UUID) (domain.BoardPublic, error)
	CreateBoard(ctx context.Context, in domain.BoardCreate) (domain.BoardPublic, error)
	UpdateBoard(ctx context.Context, id uuid.UUID, upd domain.BoardUpdate) (domain.BoardPublic, error)
	DeleteBoard(ctx context.Context, id uuid.UUID) error
}

type ticketBackend interface {
	CreateTicket(ctx context.Context, boardID uuid.UUID, in domain.TicketCreate) (domain.TicketPublic, error)
	UpdateTicket(ctx context.Context, id uuid.UUID, upd domain.TicketUpdate) (domain.TicketPublic, error)
	DeleteTicket(ctx context.Context, id uuid.UUID) error
}

// Cache serves board reads from Redis. Cached entries are keyed by a generation
// counter that every successful mutation increments, so a write that has returned
// is never followed by a stale read.
type Cache struct {
	boards  boardBackend
	tickets ticketBackend
	redis   *redis.Client
	ttl     time.Duration
}

// NewCache wraps the board and ticket services. A nil client or a zero TTL
// disables caching and every call goes straight to the services.
func NewCache(boards boardBackend, tickets ticketBackend, client *redis.Client, ttl time.Duration) *Cache {
	if boards == nil || tickets == nil {
		panic("storage.NewCache: backing service is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{boards: boards, tickets: tickets, redis: client, ttl: ttl}
}

func (c *Cache) ListBoards(ctx context.Context) ([]domain.BoardOverview, error) {
	key, ok := c.key(ctx, "list")
	if ok {
		var cached []domain.BoardOverview
		if c.load(ctx, key, &cached) {
			return cached, nil
		}
	}
	boards, err := c.boards.ListBoards(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		c.store(ctx, key, boards)
	}
	return boards, nil
}

func (c *Cache) GetBoard(ctx context.Context, id uuid.UUID) (domain.BoardPublic, error) {
	key, ok := c.key(ctx, id.String())
	if ok {
		var cached domain.BoardPublic
		if c.load(ctx, key, &cached) {
			return cached, nil
		}
	}
	board, err := c.boards.GetBoard(ctx, id)
	if err != nil {
		return domain.BoardPublic{}, err
	}
	if ok {
		c.store(ctx, key, board)
	}
	return board, nil
}

func (c *Cache) CreateBoard(ctx context.Context, in domain.BoardCreate) (domain.BoardPublic, error) {
	board, err := c.boards.CreateBoard(ctx, in)
	if err != nil {
		return domain.BoardPublic{}, err
	}
	c.bump(ctx)
	return board, nil
}

func (c *Cache) UpdateBoard(ctx context.Context, id uuid.UUID, upd domain.BoardUpdate) (domain.BoardPublic, error) {
	board, err := c.boards.UpdateBoard(ctx, id, upd)
	if err != nil {
		return domain.BoardPublic{}, err
	}
	c.bump(ctx)
	return board, nil
}

func (c *Cache) DeleteBoard(ctx context.Context, id uuid.UUID) error {
	if err := c.boards.DeleteBoard(ctx, id); err != nil {
		return err
	}
	c.bump(ctx)
	return nil
}

func (c *Cache) CreateTicket(ctx context.Context, boardID uuid.UUID, in domain.TicketCreate) (domain.TicketPublic, error) {
	ticket, err := c.tickets.CreateTicket(ctx, boardID, in)
	if err != nil {
		return domain.TicketPublic{}, err
	}
	c.bump(ctx)
	return ticket, nil
}

func (c *Cache) UpdateTicket(ctx context.Context, id uuid.UUID, upd domain.TicketUpdate) (domain.TicketPublic, error) {
	ticket, err := c.tickets.UpdateTicket(ctx, id, upd)
	if err != nil {
		return domain.TicketPublic{}, err
	}
	c.bump(ctx)
	return ticket, nil
}

func (c *Cache) DeleteTicket(ctx context.Context, id uuid.UUID) error {
	if err := c.tickets.DeleteTicket(ctx, id); err != nil {
		return err
	}
	c.bump(ctx)
	return nil
}

func (c *Cache) enabled() bool {
	return c.redis != nil && c.ttl > 0
}

// key reports false when the cache is disabled or the generation cannot be read.
func (c *Cache) key(ctx context.Context, suffix string) (string, bool) {
	if !c.enabled() {
		return "", false
	}
	gen, err := c.redis.Get(ctx, generationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		log.WithError(err).Warn("read cache generation")
		return "", false
	}
	return boardsCacheKey(gen, suffix), true
}

func (c *Cache) load(ctx context.Context, key string, dst any) bool {
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := sonic.Unmarshal(data, dst); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return false
	}
	return true
}

func (c *Cache) store(ctx context.Context, key string, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
}

func (c *Cache) bump(ctx context.Context) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Incr(ctx, generationKey).Err(); err != nil {
		log.WithError(err).Error("bump cache generation")
	}
}

func boardsCacheKey(gen int64, suffix string) string {
	return "boards:" + strconv.FormatInt(gen, 10) + ":" + suffix
}

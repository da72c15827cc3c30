package store

import (
	"context"
	stderrors "errors"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/matzehuels/fretsheet/pkg/errors"
	"github.com/matzehuels/fretsheet/pkg/sheet"
)

const (
	// DefaultRedisAddr is used when no address is configured.
	DefaultRedisAddr = "localhost:6379"

	redisSheetPrefix = "fretsheet:sheet:"
	redisIndexKey    = "fretsheet:sheets"
)

// RedisStore keeps msgpack-encoded sheet records under one key per sheet,
// with a sorted set of IDs scored by update time.
type RedisStore struct {
	rdb redis.UniversalClient
}

// NewRedisStore connects to addr and verifies the connection.
func NewRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	if addr == "" {
		addr = DefaultRedisAddr
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	ping := func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	if err := retry(ctx, pingAttempts, pingDelay, ping); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "ping redis at %s", addr)
	}
	return NewRedisStoreWithClient(rdb), nil
}

// NewRedisStoreWithClient wraps an existing client. The store takes
// ownership and closes it on Close.
func NewRedisStoreWithClient(rdb redis.UniversalClient) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func sheetKey(id string) string { return redisSheetPrefix + id }

func encodeRecord(rec sheet.Record) ([]byte, error) {
	return msgpack.Marshal(&rec)
}

func decodeRecord(data []byte) (sheet.Record, error) {
	var rec sheet.Record
	err := msgpack.Unmarshal(data, &rec)
	return rec, err
}

func (s *RedisStore) Get(ctx context.Context, id string) (*sheet.Sheet, error) {
	data, err := s.rdb.Get(ctx, sheetKey(id)).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load sheet %q", id)
	}
	rec, err := decodeRecord(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode sheet %q", id)
	}
	return sheet.FromRecord(rec)
}

func (s *RedisStore) List(ctx context.Context) ([]Summary, error) {
	ids, err := s.rdb.ZRevRange(ctx, redisIndexKey, 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list sheets")
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = sheetKey(id)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load sheets")
	}

	out := make([]Summary, 0, len(vals))
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue // removed between ZREVRANGE and MGET
		}
		rec, err := decodeRecord([]byte(str))
		if err != nil {
			continue
		}
		rec.ID = ids[i]
		out = append(out, summarize(rec))
	}
	sortSummaries(out)
	return out, nil
}

func (s *RedisStore) Put(ctx context.Context, sh *sheet.Sheet) error {
	rec, err := prepare(sh)
	if err != nil {
		return err
	}
	data, err := encodeRecord(rec)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode sheet %q", rec.ID)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, sheetKey(rec.ID), data, 0)
	pipe.ZAdd(ctx, redisIndexKey, redis.Z{Score: float64(rec.UpdatedAt.UnixMilli()), Member: rec.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save sheet %q", rec.ID)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	pipe := s.rdb.TxPipeline()
	del := pipe.Del(ctx, sheetKey(id))
	pipe.ZRem(ctx, redisIndexKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "delete sheet %q", id)
	}
	if del.Val() == 0 {
		return notFound(id)
	}
	return nil
}

func (s *RedisStore) Close() error { return s.rdb.Close() }

var _ Store = (*RedisStore)(nil)

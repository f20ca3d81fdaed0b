package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pario-ai/aigateway/pkg/models"
)

// RedisStore keeps each quota document in a hash, with one set indexing
// every document id and one set per (use case, provider, model) tuple. The
// hash holds the immutable fields as JSON under "doc" and the mutable
// enabled flag and balance as plain string fields, so Lua never converts
// the balance to a float.
type RedisStore struct {
	client    goredis.UniversalClient
	keyPrefix string
}

var _ Store = (*RedisStore)(nil)

// RedisOption configures RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix sets the Redis key prefix (default "aigateway:quota:").
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.keyPrefix = prefix }
}

// NewRedis creates a RedisStore on a connected client.
func NewRedis(client goredis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, keyPrefix: "aigateway:quota:"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const (
	fieldDoc     = "doc"
	fieldEnabled = "enabled"
	fieldBalance = "balance"
)

func (s *RedisStore) docKey(id string) string { return s.keyPrefix + "doc:" + id }
func (s *RedisStore) allKey() string          { return s.keyPrefix + "all" }

func (s *RedisStore) tupleKey(useCase, provider, model string) string {
	return s.keyPrefix + "tuple:" + useCase + "|" + provider + "|" + model
}

// setScript applies a partial update to one document hash.
// KEYS[1] = document key
// ARGV[1] = enabled guard ("1", "0" or "")
// ARGV[2] = new enabled ("1", "0" or "")
// ARGV[3] = new balance (decimal string or "")
//
// Returns doc, enabled and balance after the update, or nil when the key is
// gone or the guard no longer holds.
var setScript = goredis.NewScript(`
local enabled = redis.call('HGET', KEYS[1], 'enabled')
if not enabled then
	return nil
end
if ARGV[1] ~= '' and enabled ~= ARGV[1] then
	return nil
end
if ARGV[2] ~= '' then
	redis.call('HSET', KEYS[1], 'enabled', ARGV[2])
end
if ARGV[3] ~= '' then
	redis.call('HSET', KEYS[1], 'balance', ARGV[3])
end
return redis.call('HMGET', KEYS[1], 'doc', 'enabled', 'balance')
`)

func flag(b *bool) string {
	switch {
	case b == nil:
		return ""
	case *b:
		return "1"
	default:
		return "0"
	}
}

// decodeRedisDoc rebuilds a quota from the doc, enabled and balance fields
// of its hash. It reports false when the hash no longer exists.
func decodeRedisDoc(vals []any) (models.Quota, bool, error) {
	var q models.Quota
	if len(vals) != 3 {
		return q, false, fmt.Errorf("ledger/redis: got %d fields, want 3", len(vals))
	}
	doc, ok := vals[0].(string)
	if !ok {
		return q, false, nil
	}
	enabled, _ := vals[1].(string)
	balance, _ := vals[2].(string)

	if err := json.Unmarshal([]byte(doc), &q); err != nil {
		return q, false, fmt.Errorf("ledger/redis: decode: %w", err)
	}
	n, err := strconv.ParseInt(balance, 10, 64)
	if err != nil {
		return q, false, fmt.Errorf("ledger/redis: decode balance %q: %w", balance, err)
	}
	q.Balance = n
	q.Enabled = enabled == "1"
	return q, true, nil
}

func (s *RedisStore) Insert(ctx context.Context, q models.Quota) error {
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("ledger/redis: encode: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.HSet(ctx, s.docKey(q.ID),
			fieldDoc, string(data),
			fieldEnabled, flag(&q.Enabled),
			fieldBalance, strconv.FormatInt(q.Balance, 10),
		)
		p.SAdd(ctx, s.allKey(), q.ID)
		p.SAdd(ctx, s.tupleKey(q.UseCase.ID, q.Provider.Name, q.Provider.Model.Name), q.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("ledger/redis: insert: %w", err)
	}
	return nil
}

func (s *RedisStore) Find(ctx context.Context, f Filter) ([]models.Quota, error) {
	index := s.allKey()
	if f.UseCaseID != "" && f.ProviderName != "" && f.ModelName != "" {
		index = s.tupleKey(f.UseCaseID, f.ProviderName, f.ModelName)
	}
	ids, err := s.client.SMembers(ctx, index).Result()
	if err != nil {
		return nil, fmt.Errorf("ledger/redis: index: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	cmds := make([]*goredis.SliceCmd, len(ids))
	_, err = s.client.Pipelined(ctx, func(p goredis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = p.HMGet(ctx, s.docKey(id), fieldDoc, fieldEnabled, fieldBalance)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ledger/redis: read: %w", err)
	}

	var out []models.Quota
	for _, cmd := range cmds {
		q, ok, err := decodeRedisDoc(cmd.Val())
		if err != nil {
			return nil, err
		}
		if ok && f.Match(q) {
			out = append(out, q)
		}
	}
	sortByCreated(out)
	return out, nil
}

func (s *RedisStore) apply(ctx context.Context, q models.Quota, f Filter, u Update) (*models.Quota, error) {
	balance := ""
	if u.Balance != nil {
		balance = strconv.FormatInt(*u.Balance, 10)
	}
	res, err := setScript.Run(ctx, s.client, []string{s.docKey(q.ID)},
		flag(f.Enabled), flag(u.Enabled), balance).Slice()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ledger/redis: update: %w", err)
	}
	out, ok, err := decodeRedisDoc(res)
	if err != nil || !ok {
		return nil, err
	}
	return &out, nil
}

func (s *RedisStore) FindOneAndUpdate(ctx context.Context, f Filter, u Update) (*models.Quota, error) {
	qs, err := s.Find(ctx, f)
	if err != nil {
		return nil, err
	}
	for _, q := range qs {
		if u.empty() {
			return &q, nil
		}
		updated, err := s.apply(ctx, q, f, u)
		if err != nil {
			return nil, err
		}
		if updated != nil {
			return updated, nil
		}
	}
	return nil, nil
}

func (s *RedisStore) UpdateMany(ctx context.Context, f Filter, u Update) (int64, error) {
	qs, err := s.Find(ctx, f)
	if err != nil {
		return 0, err
	}
	if u.empty() {
		return int64(len(qs)), nil
	}
	var n int64
	for _, q := range qs {
		updated, err := s.apply(ctx, q, f, u)
		if err != nil {
			return n, err
		}
		if updated != nil {
			n++
		}
	}
	return n, nil
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

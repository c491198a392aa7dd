package store

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/redis/go-redis/v9"

	"github.com/fieldline/engine/internal/config"
	"github.com/fieldline/engine/pkg/api"
)

// Redis is a definition store backed by redis. Key layout:
//
//	<prefix>:wf:<id>  => workflow definition JSON
//	<prefix>:wf-index => SET of stored workflow IDs
//
// The index set is updated in the same transaction as the definition, so
// List never sees a member without a definition except when a Delete races
// it; dangling members are skipped
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to redis with the given settings and verifies the
// connection before returning the store
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Addr, err)
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = config.DefaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix}, nil
}

func (r *Redis) keyWorkflow(id api.WorkflowID) string {
	return r.prefix + ":wf:" + string(id)
}

func (r *Redis) keyIndex() string {
	return r.prefix + ":wf-index"
}

func (r *Redis) Put(ctx context.Context, wf *api.Workflow) error {
	data, err := encode(wf)
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.keyWorkflow(wf.ID), data, 0)
	pipe.SAdd(ctx, r.keyIndex(), string(wf.ID))
	_, err = pipe.Exec(ctx)
	return err
}

func (r *Redis) Get(
	ctx context.Context, id api.WorkflowID,
) (*api.Workflow, error) {
	data, err := r.client.Get(ctx, r.keyWorkflow(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decode(data)
}

func (r *Redis) Delete(ctx context.Context, id api.WorkflowID) error {
	removed, err := r.client.Del(ctx, r.keyWorkflow(id)).Result()
	if err != nil {
		return err
	}
	if err := r.client.SRem(ctx, r.keyIndex(), string(id)).Err(); err != nil {
		return err
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Redis) List(ctx context.Context) ([]*api.Workflow, error) {
	ids, err := r.client.SMembers(ctx, r.keyIndex()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []*api.Workflow{}, nil
		}
		return nil, err
	}
	if len(ids) == 0 {
		return []*api.Workflow{}, nil
	}
	slices.Sort(ids)

	pipe := r.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, r.keyWorkflow(api.WorkflowID(id)))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	workflows := make([]*api.Workflow, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, err
		}
		wf, err := decode(data)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, wf)
	}
	return workflows, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

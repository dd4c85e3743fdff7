// README: Driver presence backed by Redis keys with a TTL.
package fleet

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vilamourachauffeurs/dispatch/internal/types"
)

const presenceKeyPrefix = "presence:driver:%s"

// Presence tracks which drivers are currently on shift. A driver is online
// while its heartbeat key lives; silence past the TTL marks it offline
// without any explicit sign-off.
type Presence struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewPresence(redis *redis.Client, ttl time.Duration) *Presence {
	return &Presence{redis: redis, ttl: ttl}
}

func (p *Presence) Heartbeat(ctx context.Context, driverID types.ID) error {
	return p.redis.Set(ctx, presenceKey(driverID), "1", p.ttl).Err()
}

func (p *Presence) Offline(ctx context.Context, driverID types.ID) error {
	return p.redis.Del(ctx, presenceKey(driverID)).Err()
}

func (p *Presence) Online(ctx context.Context, driverID types.ID) (bool, error) {
	n, err := p.redis.Exists(ctx, presenceKey(driverID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// OnlineSet checks many drivers in one round trip.
func (p *Presence) OnlineSet(ctx context.Context, driverIDs []types.ID) (map[types.ID]bool, error) {
	pipe := p.redis.Pipeline()
	cmds := make(map[types.ID]*redis.IntCmd, len(driverIDs))
	for _, id := range driverIDs {
		cmds[id] = pipe.Exists(ctx, presenceKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}
	out := make(map[types.ID]bool, len(driverIDs))
	for id, cmd := range cmds {
		out[id] = cmd.Val() > 0
	}
	return out, nil
}

func presenceKey(driverID types.ID) string {
	return fmt.Sprintf(presenceKeyPrefix, string(driverID))
}

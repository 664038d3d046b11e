package notification

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"terminal-terrace/sse-blog/internal/logger"
	pkgDatabase "terminal-terrace/sse-blog/packages/database"
)

// setIfGeneration 只有代数未变时才回填计数
// KEYS[1] 代数键，KEYS[2] 计数键；ARGV: 读库前的代数、计数、过期毫秒
var setIfGeneration = redis.NewScript(`
local gen = redis.call('GET', KEYS[1]) or '0'
if gen ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

// UnreadCache 未读数缓存
// 每个用户有一个代数，Invalidate 递增代数并删除计数；
// 回填前读到的代数与回填时不一致说明期间有写入，放弃回填
// redis 为 nil 时所有操作都是空操作，读取总是未命中
type UnreadCache struct {
	redis *pkgDatabase.RedisClient
	ttl   time.Duration
}

func NewUnreadCache(redis *pkgDatabase.RedisClient, ttl time.Duration) *UnreadCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &UnreadCache{redis: redis, ttl: ttl}
}

func (c *UnreadCache) key(userID uint) string {
	return c.redis.Key("notification", "unread", userID)
}

func (c *UnreadCache) genKey(userID uint) string {
	return c.redis.Key("notification", "unread", userID, "gen")
}

func (c *UnreadCache) enabled() bool {
	return c != nil && c.redis != nil
}

// Get 返回缓存的未读数，未命中或出错时 ok 为 false
func (c *UnreadCache) Get(ctx context.Context, userID uint) (int64, bool) {
	if !c.enabled() {
		return 0, false
	}
	count, err := c.redis.Get(ctx, c.key(userID)).Int64()
	if err != nil {
		if err != redis.Nil {
			logger.Log.WithError(err).WithField("user_id", userID).Warn("读取未读数缓存失败")
		}
		return 0, false
	}
	return count, true
}

// Generation 读库之前调用，结果交给 Set
// ok 为 false 时不应回填
func (c *UnreadCache) Generation(ctx context.Context, userID uint) (int64, bool) {
	if !c.enabled() {
		return 0, false
	}
	gen, err := c.redis.Get(ctx, c.genKey(userID)).Int64()
	if err == redis.Nil {
		return 0, true
	}
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Warn("读取未读数代数失败")
		return 0, false
	}
	return gen, true
}

// Set 回填计数，gen 须是读库之前 Generation 的结果
func (c *UnreadCache) Set(ctx context.Context, userID uint, gen, count int64) {
	if !c.enabled() {
		return
	}
	keys := []string{c.genKey(userID), c.key(userID)}
	stored, err := setIfGeneration.Run(ctx, c.redis, keys,
		strconv.FormatInt(gen, 10), count, c.ttl.Milliseconds()).Int()
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Warn("写入未读数缓存失败")
		return
	}
	if stored == 0 {
		logger.Log.WithField("user_id", userID).Debug("未读数在统计期间已变化，放弃回填")
	}
}

// Invalidate 递增代数并删除计数，下次读取时回源数据库
func (c *UnreadCache) Invalidate(ctx context.Context, userIDs ...uint) {
	if !c.enabled() || len(userIDs) == 0 {
		return
	}
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range userIDs {
			pipe.Incr(ctx, c.genKey(id))
			pipe.Del(ctx, c.key(id))
		}
		return nil
	})
	if err != nil {
		logger.Log.WithError(err).WithField("user_ids", userIDs).Warn("清除未读数缓存失败")
	}
}

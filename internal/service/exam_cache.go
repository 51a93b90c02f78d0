package service

import (
	"context"
	"encoding/json"
	"exam_manager/pkg/logger"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	examCacheKeyPrefix   = "exam:detail:"
	examVersionKeyPrefix = "exam:version:"
)

// ExamCache 试卷详情的读缓存。缓存故障只记录日志，不影响请求。
// Get 同时返回当前版本，未命中时把它原样传给 Set；Invalidate 之后旧版本的写入不会再被读到
type ExamCache interface {
	Get(ctx context.Context, examID uint) (detail *ExamDetail, version int64, ok bool)
	Set(ctx context.Context, detail *ExamDetail, version int64)
	Invalidate(ctx context.Context, examID uint)
}

type noopExamCache struct{}

func NewNoopExamCache() ExamCache {
	return noopExamCache{}
}

func (noopExamCache) Get(context.Context, uint) (*ExamDetail, int64, bool) { return nil, 0, false }
func (noopExamCache) Set(context.Context, *ExamDetail, int64)              {}
func (noopExamCache) Invalidate(context.Context, uint)                     {}

// RedisExamCache 详情键带版本号，失效时只递增版本，旧键等 TTL 过期
type RedisExamCache struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewRedisExamCache(rdb *redis.Client, ttl time.Duration) *RedisExamCache {
	return &RedisExamCache{Redis: rdb, TTL: ttl}
}

func examCacheKey(examID uint, version int64) string {
	return fmt.Sprintf("%s%d:%d", examCacheKeyPrefix, examID, version)
}

func examVersionKey(examID uint) string {
	return fmt.Sprintf("%s%d", examVersionKeyPrefix, examID)
}

func (c *RedisExamCache) Get(ctx context.Context, examID uint) (*ExamDetail, int64, bool) {
	version, err := c.Redis.Get(ctx, examVersionKey(examID)).Int64()
	if err == redis.Nil {
		version = 0
	} else if err != nil {
		logger.Log.Warn("exam cache version read failed", zap.Uint("exam_id", examID), zap.Error(err))
		return nil, -1, false
	}

	val, err := c.Redis.Get(ctx, examCacheKey(examID, version)).Bytes()
	if err == redis.Nil {
		return nil, version, false
	} else if err != nil {
		logger.Log.Warn("exam cache get failed", zap.Uint("exam_id", examID), zap.Error(err))
		return nil, -1, false
	}

	var detail ExamDetail
	if err := json.Unmarshal(val, &detail); err != nil {
		logger.Log.Warn("exam cache entry corrupt", zap.Uint("exam_id", examID), zap.Error(err))
		return nil, version, false
	}
	return &detail, version, true
}

// Set version < 0 表示读取版本失败，此时不写入
func (c *RedisExamCache) Set(ctx context.Context, detail *ExamDetail, version int64) {
	if version < 0 {
		return
	}
	val, err := json.Marshal(detail)
	if err != nil {
		logger.Log.Warn("exam cache marshal failed", zap.Uint("exam_id", detail.ID), zap.Error(err))
		return
	}
	if err := c.Redis.Set(ctx, examCacheKey(detail.ID, version), val, c.TTL).Err(); err != nil {
		logger.Log.Warn("exam cache set failed", zap.Uint("exam_id", detail.ID), zap.Error(err))
	}
}

func (c *RedisExamCache) Invalidate(ctx context.Context, examID uint) {
	if err := c.Redis.Incr(ctx, examVersionKey(examID)).Err(); err != nil {
		logger.Log.Warn("exam cache invalidate failed", zap.Uint("exam_id", examID), zap.Error(err))
	}
}

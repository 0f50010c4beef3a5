package services

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"pdf-rag-service/internal/logger"
	"pdf-rag-service/utils"
)

const textCacheTTL = 24 * time.Hour

// TextCache keeps extracted transcripts in redis so repeated pipeline calls
// for the same document do not re-run extraction. Misses and redis failures
// are non-fatal; the pipeline just extracts again.
type TextCache struct {
	rdb *redis.Client
}

func NewTextCache(rdb *redis.Client) *TextCache {
	return &TextCache{rdb: rdb}
}

func textCacheKey(chatbotID, filename string) string {
	return "ocrtext:" + chatbotID + "/" + filename
}

func (c *TextCache) Get(ctx context.Context, chatbotID, filename string) (string, bool) {
	if c == nil || c.rdb == nil {
		return "", false
	}
	stored, err := c.rdb.Get(ctx, textCacheKey(chatbotID, filename)).Bytes()
	if err != nil {
		return "", false
	}
	text, err := utils.DecompressText(stored)
	if err != nil {
		logger.Warn("Failed to decompress cached transcript", "chatbot_id", chatbotID, "filename", filename, "error", err)
		return "", false
	}
	return text, true
}

func (c *TextCache) Set(ctx context.Context, chatbotID, filename, text string) {
	if c == nil || c.rdb == nil {
		return
	}
	compressed, err := utils.CompressText(text)
	if err != nil {
		logger.Warn("Failed to compress transcript for cache", "chatbot_id", chatbotID, "filename", filename, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, textCacheKey(chatbotID, filename), compressed, textCacheTTL).Err(); err != nil {
		logger.Warn("Failed to cache transcript", "chatbot_id", chatbotID, "filename", filename, "error", err)
	}
}

// Invalidate drops the cached transcript, used when a document is re-uploaded.
func (c *TextCache) Invalidate(ctx context.Context, chatbotID, filename string) {
	if c == nil || c.rdb == nil {
		return
	}
	c.rdb.Del(ctx, textCacheKey(chatbotID, filename))
}

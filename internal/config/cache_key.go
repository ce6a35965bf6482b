package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ExamSessionKey returns the cache key holding an owner's session snapshot
func (r *CacheKeyStruct) ExamSessionKey(ownerID string) string {
	return fmt.Sprintf("user:%s:exam_session", ownerID)
}

// ExamEventsChannel returns the Redis PubSub channel name for an owner's session events
func (r *CacheKeyStruct) ExamEventsChannel(ownerID string) string {
	return fmt.Sprintf("user:%s:exam_events", ownerID)
}

var CacheKey = NewCacheKeyStruct()

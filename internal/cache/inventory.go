package cache

import (
	"fmt"
	"time"
)

const (
	PostKeyPrefix     = "post:slug:%s"
	TrendingKeyPrefix = "posts:trending:%d"
	CategoriesKey     = "categories:all"
)

const (
	PostTTL       = 5 * time.Minute
	TrendingTTL   = 60 * time.Second
	CategoriesTTL = 10 * time.Minute
)

// PostKey caches the anonymous view of a published post.
func PostKey(slug string) string {
	return fmt.Sprintf(PostKeyPrefix, slug)
}

// TrendingKey caches one page size of the trending list.
func TrendingKey(limit int) string {
	return fmt.Sprintf(TrendingKeyPrefix, limit)
}

package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const listingKey = "catalog_listing"

// Listing describes how one catalog listing was served.
type Listing struct {
	Level    string
	CacheHit bool
	Count    int
	started  time.Time
}

// CatalogListing attaches a Listing to catalog requests. The level is the last
// static segment of the route, so /semesters/:semesterId/types is "types".
func CatalogListing() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(listingKey, &Listing{Level: routeLevel(c.FullPath()), started: time.Now()})
		c.Next()
	}
}

// RecordListing stores the cache outcome and size of the listing being served.
func RecordListing(c *gin.Context, hit bool, count int) {
	if l := listingFrom(c); l != nil {
		l.CacheHit = hit
		l.Count = count
	}
}

// ListingMeta renders the listing as response meta, or nil outside catalog routes.
func ListingMeta(c *gin.Context) map[string]interface{} {
	l := listingFrom(c)
	if l == nil {
		return nil
	}
	return map[string]interface{}{
		"level":              l.Level,
		"cache_hit":          l.CacheHit,
		"count":              l.Count,
		"processing_time_ms": time.Since(l.started).Milliseconds(),
	}
}

func listingFrom(c *gin.Context) *Listing {
	if c == nil {
		return nil
	}
	v, ok := c.Get(listingKey)
	if !ok {
		return nil
	}
	l, _ := v.(*Listing)
	return l
}

func routeLevel(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if s := segments[i]; s != "" && !strings.HasPrefix(s, ":") && !strings.HasPrefix(s, "*") {
			return s
		}
	}
	return ""
}

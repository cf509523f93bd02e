package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"lodge-push-backend/config"
	"lodge-push-backend/internal/dispatch"
	"lodge-push-backend/internal/mw"
	"lodge-push-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, webpushOptions *webpush.Options, d *dispatch.Dispatcher, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, webpushOptions, d)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst, cfg.RequestIPHeader)

	// The VAPID key never changes at runtime, so its response is cached.
	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	push := r.Group("/push")
	push.Use(rateLimiter)
	{
		push.GET("/vapid-key", caching, handler.GetVAPIDPublicKey)
		push.POST("/subscribe", handler.Subscribe)
		push.POST("/send", handler.Send)
	}

	return r
}

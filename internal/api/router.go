package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"rvm-status-backend/internal/mw"
	"rvm-status-backend/internal/notification"
	"rvm-status-backend/internal/store"
)

// RouterConfig carries the middleware knobs from the server configuration.
type RouterConfig struct {
	RateLimit       rate.Limit
	RateBurst       int
	RequestIPHeader string
	CacheTTL        time.Duration // 0 disables response caching
}

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, webpushOptions *webpush.Options, notifier *notification.WorkerPool, rc RouterConfig) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, webpushOptions, notifier)

	if rc.RateLimit <= 0 {
		rc.RateLimit = 10
	}
	if rc.RateBurst <= 0 {
		rc.RateBurst = 5
	}
	rateLimiter := mw.RateLimiter(rc.RateLimit, rc.RateBurst, rc.RequestIPHeader)

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		rvms := api.Group("/rvms")

		if rc.CacheTTL > 0 {
			cacheStore := cache.New(rc.CacheTTL, 2*rc.CacheTTL)
			caching := mw.Cache(cacheStore, rc.CacheTTL)
			rvms.GET("", caching, handler.ListRVMs)
			rvms.GET("/:id", caching, handler.GetRVM)
		} else {
			rvms.GET("", handler.ListRVMs)
			rvms.GET("/:id", handler.GetRVM)
		}

		rvms.POST("", handler.CreateRVM)
		rvms.PUT("/:id", handler.UpdateRVM)
		rvms.PATCH("/:id", handler.UpdateRVM)
		rvms.DELETE("/:id", handler.DeleteRVM)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}

package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS allows browser clients from a comma separated origin list. It
// returns nil when the list is empty.
func CORS(origins string) (gin.HandlerFunc, error) {
	var allowed []string
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed = append(allowed, o)
		}
	}
	if len(allowed) == 0 {
		return nil, nil
	}

	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", CorrelationIDHeader},
		ExposeHeaders: []string{CorrelationIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		MaxAge:        12 * time.Hour,
	}
	if len(allowed) == 1 && allowed[0] == "*" {
		cfg.AllowAllOrigins = true
	} else {
		for _, o := range allowed {
			if !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
				return nil, fmt.Errorf("invalid CORS origin %q", o)
			}
		}
		cfg.AllowOrigins = allowed
		cfg.AllowCredentials = true
	}
	return cors.New(cfg), nil
}

package main

import (
	"time"

	"github.com/sells-group/bcproxy/internal/config"
	"github.com/sells-group/bcproxy/internal/model"
	"github.com/sells-group/bcproxy/internal/simulated"
	"github.com/sells-group/bcproxy/internal/tagging"
	"github.com/sells-group/bcproxy/pkg/botconversa"
)

// backendFactory picks the backend implementation once, from config.
// Simulated backends share one store for the life of the process.
func backendFactory(c *config.Config, realMode bool) (model.Mode, tagging.BackendFactory) {
	if !realMode {
		return model.ModeSimulated, simulated.Factory(simulated.NewStore())
	}
	bc := c.BotConversa
	return model.ModeReal, tagging.RealFactory(
		botconversa.WithBaseURL(bc.BaseURL),
		botconversa.WithTimeout(time.Duration(bc.TimeoutSecs)*time.Second),
		botconversa.WithMaxAttempts(bc.MaxAttempts),
		botconversa.WithRateLimit(bc.RateLimitRPS),
	)
}

func bulkDelay(c *config.Config) time.Duration {
	return time.Duration(c.Bulk.DelayMS) * time.Millisecond
}

package cmd

import (
	"fmt"
	"time"

	"github.com/gravitrone/replydesk/internal/api"
	"github.com/gravitrone/replydesk/internal/config"
	"github.com/gravitrone/replydesk/internal/logging"
)

// tsLayout formats note and comment timestamps.
const tsLayout = "2006-01-02 15:04"

// loadClient reads the config and builds a logging API client from it.
func loadClient() (*api.Client, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	timeout, _ := cfg.Timeout()
	logger, err := logging.New(logging.Options{Path: cfg.LogFile})
	if err != nil {
		logger = logging.Nop()
	}
	return api.NewClient(cfg.BaseURL, timeout).WithLogger(logger), cfg, nil
}

// FormatMillis renders an epoch-millisecond timestamp in local time, or "" when
// unset.
func FormatMillis(ms *int64) string {
	if ms == nil || *ms == 0 {
		return ""
	}
	return time.UnixMilli(*ms).Local().Format(tsLayout)
}

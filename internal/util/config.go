package util

import (
	"runtime"

	"github.com/spf13/viper"
)

// GetWorkerCount returns the import worker pool size.
// An explicit "concurrency" setting wins; otherwise one worker per
// available CPU (GOMAXPROCS respects container limits), capped at limit.
func GetWorkerCount(limit int) int {
	if n := viper.GetInt("concurrency"); n > 0 {
		return n
	}

	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}
	return workers
}

package app

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

const testModeEnv = "FINBOARD_TEST_MODE"

var (
	testModeFlag atomic.Bool
	testModeOnce sync.Once
)

// detectTestMode reads FINBOARD_TEST_MODE once; any boolean spelling works.
func detectTestMode() {
	on, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(testModeEnv)))
	testModeFlag.Store(err == nil && on)
}

// InTestMode reports whether the binaries should skip runtime side effects
// such as dialing Postgres or Redis.
func InTestMode() bool {
	testModeOnce.Do(detectTestMode)
	return testModeFlag.Load()
}

// RefreshTestMode updates the cached flag after environment changes.
func RefreshTestMode() {
	testModeOnce.Do(func() {})
	detectTestMode()
}

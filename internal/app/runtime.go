package app

import (
	"os"
	"sync"
)

const testModeEnv = "AGORA_TEST_MODE"

var (
	testModeOnce sync.Once
	testMode     bool
)

// InTestMode reports whether the process runs under the test harness and
// should skip runtime side effects like binding sockets.
func InTestMode() bool {
	testModeOnce.Do(func() {
		testMode = os.Getenv(testModeEnv) == "1"
	})
	return testMode
}

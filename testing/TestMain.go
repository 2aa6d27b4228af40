// Package testing switches the binaries into test mode. Blank-import it from
// a main package's tests so calling main() returns before dialing Postgres
// or Redis.
package testing

import "os"

// TestModeEnv is read by app.InTestMode.
const TestModeEnv = "FINBOARD_TEST_MODE"

func init() {
	_ = os.Setenv(TestModeEnv, "1")
}

package app

import "testing"

func TestInTestModeFollowsEnvironment(t *testing.T) {
	for value, want := range map[string]bool{"1": true, "true": true, "0": false, "": false, "yes": false} {
		t.Setenv(testModeEnv, value)
		RefreshTestMode()
		if got := InTestMode(); got != want {
			t.Fatalf("%s=%q: expected %v, got %v", testModeEnv, value, want, got)
		}
	}
}

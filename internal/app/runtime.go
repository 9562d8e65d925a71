package app

import (
	"os"
	"strconv"
)

// TestModeEnv disables process startup in the binaries when set to a true value.
const TestModeEnv = "BACKOFFICE_TEST_MODE"

// InTestMode reports whether BACKOFFICE_TEST_MODE holds a value strconv.ParseBool accepts as true.
func InTestMode() bool {
	on, err := strconv.ParseBool(os.Getenv(TestModeEnv))
	return err == nil && on
}

// Package guard is blank-imported by tests that load the app packages. It marks
// the process as a test run and supplies the settings LoadConfig requires.
package guard

import "os"

var defaults = map[string]string{
	"BACKOFFICE_TEST_MODE": "1",
	"JWT_SECRET":           "test-secret",
	"APP_TIMEZONE":         "America/Sao_Paulo",
}

func init() {
	for key, value := range defaults {
		if _, ok := os.LookupEnv(key); !ok {
			_ = os.Setenv(key, value)
		}
	}
}

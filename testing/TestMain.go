package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

// directoryEnv points every Directory API endpoint at a closed port so tests
// never reach the hosted deployment.
var directoryEnv = []string{
	"DIRECTORY_LIST_URL",
	"DIRECTORY_CREATE_URL",
	"DIRECTORY_UPDATE_URL",
	"DIRECTORY_APPROVAL_URL",
}

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("SYNAPSE_TEST_MODE", "1")
		for _, key := range directoryEnv {
			if os.Getenv(key) == "" {
				_ = os.Setenv(key, "http://127.0.0.1:0")
			}
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}

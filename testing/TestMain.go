package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

// ensureTestMode disables runtime side effects such as the Gotenberg ping and
// background invalidation listeners for every package importing this one.
func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("TABLERO_TEST_MODE", "1")
		_ = os.Unsetenv("GOTENBERG_URL")
		_ = os.Unsetenv("REDIS_ADDR")
		_ = os.Unsetenv("PG_DSN")
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}

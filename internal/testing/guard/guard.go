package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("CONTRACTNEST_TEST_MODE") == "" {
			_ = os.Setenv("CONTRACTNEST_TEST_MODE", "1")
		}
	})
}

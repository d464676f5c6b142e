package statsapi_test

import "github.com/okian/seasonrank/pkg/logger"

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

package luapp

import (
	"log"
	"os"
)

type luappOptions struct {
	debug bool
}

var (
	options = luappOptions{}
	logger  = log.New(os.Stdout, "[luapp] ", log.LstdFlags)
)

// SetDebug enables internal debug logging.
func SetDebug(b bool) {
	options.debug = b
}

func logf(format string, items ...interface{}) {
	if options.debug {
		logger.Printf(format, items...)
	}
}

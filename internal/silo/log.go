package silo

import "log"

// Verbose enables debug logging process-wide. The CLI sets it from -v;
// the library never writes to it.
var Verbose bool

func debugf(format string, args ...any) {
	if Verbose {
		log.Printf(format, args...)
	}
}

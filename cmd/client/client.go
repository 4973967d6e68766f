package main

import (
	"os"

	"github.com/jessevdk/go-flags"

	h "netdrive/internel/hash"
	. "netdrive/internel/log"
)

func main() {
	// Logging starts inside each command, once --debug is known.
	if _, err := NewParser().Parse(); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

func setup() func() {
	InitLogger(GConf.Debug)
	h.StartHash()
	return func() {
		h.EndHash()
		Sync()
	}
}

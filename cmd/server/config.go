package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
)

type Config struct {
	Listen  string   `short:"l" long:"listen" default:":8189" description:"address the websocket endpoint listens on"`
	Storage string   `short:"s" long:"storage" default:"./storage" description:"directory holding one folder per user"`
	Users   []string `short:"u" long:"user" env:"NETDRIVE_USERS" env-delim:"," description:"user as email:password[:root], repeatable"`
	Workers int      `short:"w" long:"workers" default:"256" description:"maximum concurrent downloads"`
	Chunk   int      `long:"chunk-size" default:"30000000" description:"download chunk size in bytes"`
	Pprof   string   `long:"pprof" description:"optional pprof listen address, disabled when empty"`
	Debug   bool     `short:"d" long:"debug" description:"enable debug logging"`
}

var GConf *Config

func ParseConfig() {
	GConf = &Config{}
	if _, err := flags.Parse(GConf); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		os.Exit(1)
	}
	if len(GConf.Users) == 0 {
		fmt.Println("no users configured, nobody will be able to log in; use -u email:password")
	}
}

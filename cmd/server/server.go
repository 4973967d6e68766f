package main

import (
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"

	h "netdrive/internel/hash"
	. "netdrive/internel/log"
	"netdrive/internel/session"
	"netdrive/internel/shared"
)

const ApiPath = shared.ApiPrefix

func main() {
	ParseConfig()
	InitLogger(GConf.Debug)
	defer Sync()
	if GConf.Pprof != "" {
		go func() {
			log.Println(http.ListenAndServe(GConf.Pprof, nil))
		}()
	}
	h.StartHash()
	defer h.EndHash()

	storage, err := filepath.Abs(GConf.Storage)
	if err != nil {
		Log.Fatalln("Storage path:", err)
	}
	if err := os.MkdirAll(storage, 0o755); err != nil {
		Log.Fatalln("Storage create:", err)
	}
	users, err := LoadUsers(storage, GConf.Users)
	if err != nil {
		Log.Fatalln("Load users:", err)
	}

	srv, err := session.New(users, session.Options{
		Workers:   GConf.Workers,
		ChunkSize: GConf.Chunk,
	})
	if err != nil {
		Log.Fatalln("Start session server:", err)
	}
	defer srv.Close()

	Log.Infof("Start Server on %s, storage %s", GConf.Listen, storage)
	if err := http.ListenAndServe(GConf.Listen, Handler(srv)); err != nil {
		Log.Errorln("ListenAndServe:", err)
	}
}

package main

import (
	"net/http"
	"time"

	. "netdrive/internel/log"
	"netdrive/internel/session"
)

func Handler(srv *session.Server) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(ApiPath, func(w http.ResponseWriter, r *http.Request) {
		Log.Infoln("Session Start", r.RemoteAddr)
		ts := time.Now()
		srv.ServeHTTP(w, r)
		Log.Infof("Session End %s %v ms", r.RemoteAddr, time.Since(ts).Milliseconds())
	})
	return mux
}

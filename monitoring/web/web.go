// Package web holds the dashboard served by the monitor.
package web

import (
	"embed"
	"io/fs"
	"log"
	"net/http"
	"path"
	"strings"
)

// APIPrefix is the path under which the monitor serves its API. The
// dashboard never answers requests below it.
const APIPrefix = "/api/"

//go:embed dist/*
var dist embed.FS

// Assets returns the dashboard files. If dir is not empty, the files are read
// from dir instead, so that the page can be edited while the loop runs.
func Assets(dir string) http.FileSystem {
	if dir != "" {
		return http.Dir(dir)
	}

	sub, err := fs.Sub(dist, "dist")
	if err != nil {
		log.Panic(err)
	}

	return http.FS(sub)
}

// Handler serves the dashboard. Paths that match no file get index.html, so
// that views such as /timers/heartbeat can be reloaded in the browser.
func Handler(dir string) http.Handler {
	assets := Assets(dir)
	files := http.FileServer(assets)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := path.Clean("/" + r.URL.Path)

		if strings.HasPrefix(p+"/", APIPrefix) {
			http.NotFound(w, r)
			return
		}

		if !exists(assets, p) {
			r = r.Clone(r.Context())
			r.URL.Path = "/"
		}

		files.ServeHTTP(w, r)
	})
}

func exists(assets http.FileSystem, name string) bool {
	f, err := assets.Open(name)
	if err != nil {
		return false
	}

	f.Close()

	return true
}

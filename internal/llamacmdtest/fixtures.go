package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
)

// Files every work directory starts with. example.com exists on purpose:
// a dotted token naming a local file must be read rather than fetched.
var fixtureFiles = map[string]string{
	"README.md":   "hello",
	"notes.txt":   "first line\nsecond line\n",
	"example.com": "not a website\n",
	"TODO":        "buy milk\n",
}

func seedFixtures(dir string) error {
	for name, body := range fixtureFiles {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func fixtureHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /hello", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, "hello from the web\n")
	})
	mux.HandleFunc("GET /page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><head><title>Page</title></head><body><h1>Fixture</h1><p>Served locally.</p></body></html>\n")
	})
	mux.HandleFunc("GET /latin1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=iso-8859-1")
		w.Write([]byte("caf\xe9\n"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such fixture", http.StatusNotFound)
	})
	return mux
}

package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// faviconHandler serves <assetsDir>/favicon.gif.
func faviconHandler(assetsDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(assetsDir, "favicon.gif")
		if !isFile(path) {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/gif")
		http.ServeFile(w, r, path)
	}
}

// spaHandler serves the built frontend from dir. Unknown paths get index.html so
// client-side routes survive a reload. API paths never fall back.
func spaHandler(dir string) http.HandlerFunc {
	index := filepath.Join(dir, "index.html")

	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") || r.URL.Path == "/api" {
			writeJSON(w, http.StatusNotFound, errorResponse{Detail: "Not Found"})
			return
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Detail: "Method Not Allowed"})
			return
		}

		// Clean against a rooted path so ".." cannot escape dir.
		path := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
		if isFile(path) {
			http.ServeFile(w, r, path)
			return
		}
		if isFile(index) {
			http.ServeFile(w, r, index)
			return
		}
		writeJSON(w, http.StatusNotFound, errorResponse{Detail: "Not Found"})
	}
}

func notFoundJSON(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{Detail: "Not Found"})
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const etagCap = 64

// HandleTile serves locally cached basemap tiles.
// Path: /tiles/{basemap}/{z}/{x}/{y}.webp
func (s *ServerContext) HandleTile(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	// parts: tiles, basemap, z, x, y.webp
	if len(parts) != 5 {
		http.NotFound(w, r)
		return
	}

	name, z, x, y := parts[1], parts[2], parts[3], parts[4]

	var tilesDir string
	for i := range s.Config.Basemaps {
		if s.Config.Basemaps[i].Name == name {
			tilesDir = s.Config.Basemaps[i].TilesDir
			break
		}
	}
	if tilesDir == "" {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(tilesDir, z, x, y)
	if s.serveFile(w, r, path, "image/webp") {
		return
	}

	// missing tiles get the cached transparent one
	w.Header().Set("Content-Type", "image/webp")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(s.TransparentTile)
}

// serveFile tries to serve a file from disk with ETag generation.
// It returns true if the file was found and served (or 304).
func (s *ServerContext) serveFile(w http.ResponseWriter, r *http.Request, path string, contentType string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if info.IsDir() {
		return false
	}

	buf := make([]byte, 0, etagCap)
	buf = append(buf, '"')
	buf = strconv.AppendInt(buf, info.Size(), 16)
	buf = append(buf, '-')
	buf = strconv.AppendInt(buf, info.ModTime().UnixNano(), 16)
	buf = append(buf, '"')
	etag := string(buf)

	// check If-None-Match (client sent ETag)
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return true
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}

	http.ServeFile(w, r, path)
	return true
}

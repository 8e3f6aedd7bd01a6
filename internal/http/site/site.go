// Package site serves the built storefront behind the paid flag.
package site

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/diagnosis/spa-intake/pkg/logger"
)

const (
	cacheImmutable = "public, max-age=31536000, immutable"
	cacheNone      = "no-store, no-cache, must-revalidate, proxy-revalidate"

	indexPage       = "index.html"
	unavailablePage = "error.html"
)

type Config struct {
	Dir  string
	Paid bool
}

// Handler serves files from Dir. Unknown paths fall back to index.html so client-side
// routes resolve; when the site is unpaid every path but /robots.txt and /error.html
// gets the unavailable page.
type Handler struct {
	dir  string
	paid bool
}

func New(cfg Config) *Handler {
	return &Handler{dir: cfg.Dir, paid: cfg.Paid}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p := path.Clean("/" + r.URL.Path)

	if !h.paid && p != "/robots.txt" && p != "/"+unavailablePage {
		h.serve(w, r, unavailablePage, cacheNone)
		return
	}

	name := strings.TrimPrefix(p, "/")
	if name != "" && h.isFile(name) {
		cache := cacheImmutable
		if path.Base(name) == indexPage {
			cache = cacheNone
		}
		h.serve(w, r, name, cache)
		return
	}

	if !h.paid {
		h.serve(w, r, unavailablePage, cacheNone)
		return
	}
	h.serve(w, r, indexPage, cacheNone)
}

func (h *Handler) isFile(name string) bool {
	fi, err := os.Stat(filepath.Join(h.dir, filepath.FromSlash(name)))
	return err == nil && fi.Mode().IsRegular()
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, name, cache string) {
	f, err := os.Open(filepath.Join(h.dir, filepath.FromSlash(name)))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.ErrorContext(r.Context(), "Failed to open static file", "file", name, "error", err)
		}
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil || fi.IsDir() {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", cache)
	http.ServeContent(w, r, fi.Name(), fi.ModTime(), f)
}

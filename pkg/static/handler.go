package static

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/arborfs/arborfs/internal/logger"
)

// assetHandler serves files from the root directory under /static/.
//
// The request path is cleaned against a virtual root before joining, so
// ".." segments can never escape the asset directory. Directories and
// missing files answer 404; the response carries the MIME type guessed
// from the extension, an explicit Content-Length, and the configured
// Cache-Control max-age. HEAD sends the same headers without a body.
func assetHandler(root string, cacheMaxAge int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rel, err := url.PathUnescape(chi.URLParam(r, "*"))
		if err != nil {
			http.NotFound(w, r)
			return
		}

		// Rooted clean: leading ".." segments collapse into "/" instead of
		// escaping, so the join below always lands inside root.
		name := filepath.Join(root, filepath.FromSlash(path.Clean("/"+rel)))

		file, err := os.Open(name)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		defer func() { _ = file.Close() }()

		info, err := file.Stat()
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}

		contentType := mime.TypeByExtension(filepath.Ext(name))
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", fmt.Sprintf("max-age=%d", cacheMaxAge))
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))

		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusOK)
			return
		}

		w.WriteHeader(http.StatusOK)
		if _, err := io.Copy(w, file); err != nil {
			logger.Debug("Static send aborted: path=%s error=%v", r.URL.Path, err)
		}
	}
}

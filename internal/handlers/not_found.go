package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// NotFoundHandler answers unmatched routes. API paths get a JSON 404. Other
// GET requests are served from the public directory, falling back to the
// single page app's index.html.
type NotFoundHandler struct {
	publicDir string
}

func NewNotFoundHandler(publicDir string) *NotFoundHandler {
	return &NotFoundHandler{publicDir: publicDir}
}

// NotFound handles requests that matched no route
func (h *NotFoundHandler) NotFound(c *gin.Context) {
	path := c.Request.URL.Path
	if h.publicDir == "" || c.Request.Method != http.MethodGet || path == "/api" || strings.HasPrefix(path, "/api/") {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "path": path})
		return
	}

	// Clean against a rooted path so the result cannot escape publicDir
	asset := filepath.Join(h.publicDir, filepath.FromSlash(filepath.Clean("/"+path)))
	if info, err := os.Stat(asset); err == nil && !info.IsDir() {
		c.File(asset)
		return
	}

	index := filepath.Join(h.publicDir, "index.html")
	if _, err := os.Stat(index); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "path": path})
		return
	}

	c.File(index)
}

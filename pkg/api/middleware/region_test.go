package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/LENAX/grocery-core/pkg/shell"
)

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery())

	nav := r.Group("/nav", Region(shell.RegionNavigation))
	nav.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "nav") })

	modal := r.Group("/modal", Region(shell.RegionModal))
	modal.GET("/boom", func(c *gin.Context) { panic("modal render failed") })

	r.GET("/crash", func(c *gin.Context) { panic("outside any region") })
	return r
}

func serve(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestRegion_PanicIsContained(t *testing.T) {
	r := newEngine()

	w := serve(r, "/modal/boom")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "region unavailable")
	assert.Contains(t, w.Body.String(), `"region":"modal"`)

	// 另一个区域不受影响
	w = serve(r, "/nav/ok")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nav", w.Body.String())
}

func TestRecovery_OutsideRegions(t *testing.T) {
	w := serve(newEngine(), "/crash")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal Server Error")
}

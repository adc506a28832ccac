package cli

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xtd/internal/server"
)

func TestServeDefaultsAnswerJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cmd := NewRootCommand()
	serve, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)

	opts := &RootOptions{EnvFile: "", LogLevel: "warn", LogFormat: "text", format: "ddl"}
	require.NoError(t, opts.resolve(serve))
	require.Equal(t, "ddl", opts.Config.Inference.Format)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/infer", strings.NewReader(`<r><a x="1"/></r>`))
	server.NewRouter(opts.Config.Inference).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json"), rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"prk_r_id"`)
}

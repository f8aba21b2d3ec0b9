package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRandomsRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/randoms", Randoms)
	return r
}

func TestRandomsWithCount(t *testing.T) {
	r := newRandomsRouter()

	w := get(r, "/api/randoms?cant=5", "")
	require.Equal(t, http.StatusOK, w.Code)

	var nums []float64
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &nums))
	assert.Len(t, nums, 5)
}

func TestRandomsRejectsBadCount(t *testing.T) {
	r := newRandomsRouter()

	for _, q := range []string{"cant=-1", "cant=nope"} {
		w := get(r, "/api/randoms?"+q, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestRandomsZeroCount(t *testing.T) {
	r := newRandomsRouter()

	w := get(r, "/api/randoms?cant=0", "")
	require.Equal(t, http.StatusOK, w.Code)

	var nums []float64
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &nums))
	assert.Empty(t, nums)
}

package handler

import (
	"math/rand"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// defaultRandomCount is what you get when ?cant is missing.
const defaultRandomCount = 10_000_000

// maxRandomCount caps the response size; the unbounded original could be
// asked for arbitrarily large arrays.
const maxRandomCount = 50_000_000

// Randoms answers GET /api/randoms?cant=N with N random floats.
func Randoms(c *gin.Context) {
	count := defaultRandomCount
	if raw := c.Query("cant"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "cant must be a non-negative integer"})
			return
		}
		count = n
	}
	if count > maxRandomCount {
		count = maxRandomCount
	}

	nums := make([]float64, count)
	for i := range nums {
		nums[i] = rand.Float64()
	}
	c.JSON(http.StatusOK, nums)
}

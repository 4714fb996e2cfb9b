package utils

import "github.com/gin-gonic/gin"

// Fail writes the error body every failed request returns.
func Fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

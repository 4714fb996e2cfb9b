package utils

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"Next_Express/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobTokenRoundTrip(t *testing.T) {
	secret := []byte("s3cret")
	token, err := SignBlobToken(secret, "bkt", "files/a", time.Minute)
	require.NoError(t, err)

	claims, err := ParseBlobToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "bkt", claims.Bucket)
	assert.Equal(t, "files/a", claims.Key)

	_, err = ParseBlobToken([]byte("other"), token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := SignBlobToken(secret, "bkt", "files/a", -time.Minute)
	require.NoError(t, err)
	_, err = ParseBlobToken(secret, expired)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	config.AppConfig.SessionSecret = "session"
	token, err := GenerateToken("ops", time.Minute)
	require.NoError(t, err)
	claims, err := VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)

	_, err = VerifyToken(token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "report.pdf", SanitizeObjectName("report.pdf"))
	assert.Equal(t, "my_file__1_.txt", SanitizeObjectName("my file (1).txt"))
	assert.Equal(t, "passwd", SanitizeObjectName("../../etc/passwd"))
	assert.Equal(t, "evil.exe", SanitizeObjectName(`C:\tmp\evil.exe`))
	assert.Equal(t, "file", SanitizeObjectName(" .. "))

	assert.Equal(t, "download", SanitizeHeaderFilename("  "))
	assert.Equal(t, "ab.txt", SanitizeHeaderFilename("a\r\n\"b.txt"))
}

func TestContentTypeByName(t *testing.T) {
	assert.Equal(t, "image/png", ContentTypeByName("ME.PNG"))
	assert.Equal(t, "application/pdf", ContentTypeByName("a.pdf"))
	assert.Equal(t, "application/octet-stream", ContentTypeByName("noext"))
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	cache := NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	key := BuildCacheKey(CacheKeyFileRecord, "relational", "1")
	assert.Equal(t, "file:record:relational:1", key)

	var got string
	assert.ErrorIs(t, cache.Get(ctx, key, &got), ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, key, "files/a.txt", time.Minute))
	require.NoError(t, cache.Get(ctx, key, &got))
	assert.Equal(t, "files/a.txt", got)

	mr.FastForward(2 * time.Minute)
	ok, err := cache.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	config.AppConfig.SessionSecret = "session"

	newEngine := func(required bool) *gin.Engine {
		r := gin.New()
		r.POST("/x", AuthMiddleware(required), func(c *gin.Context) {
			c.String(http.StatusOK, c.GetString("subject"))
		})
		return r
	}
	call := func(r *gin.Engine, header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/x", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, call(newEngine(true), "").Code)
	assert.Equal(t, http.StatusOK, call(newEngine(false), "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(newEngine(false), "Bearer nope").Code)

	token, err := GenerateToken("ops", time.Minute)
	require.NoError(t, err)
	rec := call(newEngine(true), "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ops", rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware([]string{"http://localhost:3000"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.test")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skillsync/skillsync/api/middleware"
	"github.com/skillsync/skillsync/models"
	"github.com/skillsync/skillsync/pkg/cache"
	"github.com/skillsync/skillsync/pkg/chat"
	"github.com/skillsync/skillsync/pkg/filter"
	"github.com/skillsync/skillsync/pkg/matching"
	"github.com/skillsync/skillsync/pkg/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	db        *memDB
	router    *gin.Engine
	tokens    *utils.JWTManager
	cache     *cache.MemoryCache
	hub       *chat.Hub
	study     *StudyHandler
	uploadDir string
}

func newTestEnv(t *testing.T, opts ...matching.Option) *testEnv {
	t.Helper()
	log := zap.NewNop()

	env := &testEnv{
		db:        newMemDB(),
		tokens:    utils.NewJWTManager("test-secret", 1),
		cache:     cache.NewMemoryCache(100, time.Minute),
		hub:       chat.NewHub(log),
		uploadDir: t.TempDir(),
	}
	t.Cleanup(func() {
		env.cache.Close()
		env.hub.Close()
	})

	moderator, err := filter.New([]string{"casino"}, nil)
	require.NoError(t, err)
	svc := chat.NewService(memMessages{env.db}, env.db, moderator, env.hub, log)

	r := gin.New()
	public := r.Group("/api")
	authorized := r.Group("/api")
	authorized.Use(middleware.Auth(env.tokens, env.db))

	NewUserHandler(env.db, env.tokens, matching.NewMatcher(opts...), env.cache, 100,
		Uploads{Dir: env.uploadDir, MaxBytes: 5 << 20}, log).RegisterRoutes(public, authorized)
	NewConnectionHandler(memConnections{env.db}, env.db, log).RegisterRoutes(authorized)
	NewMessageHandler(memMessages{env.db}, env.db, svc, []string{"*"}, log).RegisterRoutes(authorized)
	env.study = NewStudyHandler(memStudy{env.db}, env.db, log)
	env.study.RegisterRoutes(authorized)

	env.router = r
	return env
}

func (e *testEnv) createUser(t *testing.T, name string, skills, goals []string) *models.User {
	t.Helper()
	hashed, err := utils.HashPassword("password")
	require.NoError(t, err)
	u := &models.User{
		Name:     name,
		Email:    name + "@example.com",
		Password: hashed,
		Skills:   skills,
		Goals:    goals,
		Mode:     models.ModeOnline,
	}
	require.NoError(t, e.db.Create(context.Background(), u))
	return u
}

func (e *testEnv) token(t *testing.T, userID uint) string {
	t.Helper()
	token, err := e.tokens.GenerateToken(userID)
	require.NoError(t, err)
	return token
}

// do 发送 JSON 请求，userID 为0时不带令牌
func (e *testEnv) do(t *testing.T, method, path string, body any, userID uint) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			data, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(data)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.send(t, req, userID)
}

func (e *testEnv) send(t *testing.T, req *http.Request, userID uint) *httptest.ResponseRecorder {
	t.Helper()
	if userID != 0 {
		req.Header.Set("Authorization", "Bearer "+e.token(t, userID))
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/skillsync/skillsync/api/middleware"
	"github.com/skillsync/skillsync/database"
	"github.com/skillsync/skillsync/models"
	"github.com/skillsync/skillsync/pkg/cache"
	"github.com/skillsync/skillsync/pkg/matching"
	"github.com/skillsync/skillsync/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxSuggestionLimit 单次请求最多返回的推荐数量
const maxSuggestionLimit = 50

// UserRepository 用户存储
type UserRepository interface {
	UserFinder
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Candidates(ctx context.Context, excludeID uint, limit int) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// TokenIssuer 签发JWT令牌
type TokenIssuer interface {
	GenerateToken(userID uint) (string, error)
}

// Uploads 头像上传配置
type Uploads struct {
	Dir       string
	URLPrefix string
	MaxBytes  int64
}

// UserHandler 用户、资料和匹配推荐
type UserHandler struct {
	users         UserRepository
	tokens        TokenIssuer
	matcher       *matching.Matcher
	cache         cache.Store
	candidatePool int
	uploads       Uploads
	logger        *zap.Logger
}

// NewUserHandler 创建用户处理器
func NewUserHandler(users UserRepository, tokens TokenIssuer, matcher *matching.Matcher, store cache.Store,
	candidatePool int, uploads Uploads, logger *zap.Logger) *UserHandler {
	if uploads.URLPrefix == "" {
		uploads.URLPrefix = "/uploads"
	}
	return &UserHandler{
		users:         users,
		tokens:        tokens,
		matcher:       matcher,
		cache:         store,
		candidatePool: candidatePool,
		uploads:       uploads,
		logger:        logger,
	}
}

// RegisterRoutes 注册路由
func (h *UserHandler) RegisterRoutes(public, authorized *gin.RouterGroup) {
	public.POST("/users/signup", h.Signup)
	public.POST("/users/login", h.Login)
	public.GET("/users", h.List)

	authorized.GET("/users/profile", h.Profile)
	authorized.POST("/users/profile/update", h.UpdateProfile)
	authorized.GET("/users/match-suggestions", h.MatchSuggestions)
}

// Signup 用户注册
func (h *UserHandler) Signup(c *gin.Context) {
	var req models.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 哈希密码
	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		internalError(c, h.logger, "Failed to hash password", err)
		return
	}

	user := models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    normalizeEmail(req.Email),
		Password: hashedPassword,
		Mode:     models.ModeOnline,
		Skills:   []string{},
		Goals:    []string{},
	}

	if err := h.users.Create(c.Request.Context(), &user); err != nil {
		if errors.Is(err, database.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
			return
		}
		internalError(c, h.logger, "Failed to create user", err)
		return
	}

	h.respondWithToken(c, http.StatusCreated, &user)
}

// Login 用户登录
func (h *UserHandler) Login(c *gin.Context) {
	var req models.CredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.FindByEmail(c.Request.Context(), normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		internalError(c, h.logger, "Database error", err)
		return
	}

	// 验证密码
	if !utils.CheckPassword(user.Password, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	h.respondWithToken(c, http.StatusOK, user)
}

func (h *UserHandler) respondWithToken(c *gin.Context, status int, user *models.User) {
	// 生成JWT令牌
	token, err := h.tokens.GenerateToken(user.ID)
	if err != nil {
		internalError(c, h.logger, "Failed to generate token", err)
		return
	}

	c.JSON(status, gin.H{
		"token": token,
		"user":  user.ToResponse(),
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// List 列出所有用户
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		internalError(c, h.logger, "Failed to fetch users", err)
		return
	}

	resp := make([]models.UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, users[i].ToResponse())
	}
	c.JSON(http.StatusOK, resp)
}

// Profile 获取当前用户信息
func (h *UserHandler) Profile(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user.ToResponse()})
}

// UpdateProfile 更新用户资料
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	current := middleware.CurrentUser(c)
	if current == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	in, err := bindProfileInput(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated := *current
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Name cannot be empty"})
			return
		}
		updated.Name = name
	}
	if in.Skills != nil {
		updated.Skills = in.Skills
	}
	if in.Goals != nil {
		updated.Goals = in.Goals
	}
	if in.Mode != nil {
		mode := models.Mode(strings.TrimSpace(*in.Mode))
		if !mode.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Mode must be one of Online, Offline, Hybrid"})
			return
		}
		updated.Mode = mode
	}
	if in.Availability != nil {
		updated.Availability = strings.TrimSpace(*in.Availability)
	}
	if in.Picture != nil {
		url, err := h.saveProfilePicture(c, in.Picture)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		updated.ProfilePicture = url
	}

	ctx := c.Request.Context()
	staleKey := h.suggestionKey(current, h.matcher.Limit())
	if err := h.users.Update(ctx, &updated); err != nil {
		internalError(c, h.logger, "Failed to update profile", err)
		return
	}
	if err := h.cache.Delete(ctx, staleKey); err != nil {
		h.logger.Warn("failed to invalidate suggestions", zap.Uint("user_id", updated.ID), zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    updated.ToResponse(),
	})
}

// saveProfilePicture 校验并保存头像，返回访问路径
func (h *UserHandler) saveProfilePicture(c *gin.Context, fh *multipart.FileHeader) (string, error) {
	if h.uploads.MaxBytes > 0 && fh.Size > h.uploads.MaxBytes {
		return "", fmt.Errorf("profile picture must be at most %d MB", h.uploads.MaxBytes>>20)
	}
	if !strings.HasPrefix(fh.Header.Get("Content-Type"), "image/") {
		return "", errors.New("only image files are allowed")
	}

	sniffed, err := sniffContentType(fh)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(sniffed, "image/") {
		return "", errors.New("only image files are allowed")
	}

	if err := os.MkdirAll(h.uploads.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	name := uuid.NewString() + strings.ToLower(filepath.Ext(fh.Filename))
	if err := c.SaveUploadedFile(fh, filepath.Join(h.uploads.Dir, name)); err != nil {
		return "", fmt.Errorf("save profile picture: %w", err)
	}
	return h.uploads.URLPrefix + "/" + name, nil
}

func sniffContentType(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}

// suggestionResponse 推荐用户及其匹配分数
type suggestionResponse struct {
	models.UserResponse
	MatchScore        int      `json:"matchScore"`
	OverlappingSkills []string `json:"overlappingSkills"`
	OverlappingGoals  []string `json:"overlappingGoals"`
}

// MatchSuggestions 获取推荐的学习伙伴
func (h *UserHandler) MatchSuggestions(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		limit = h.matcher.Limit()
	}
	if limit > maxSuggestionLimit {
		limit = maxSuggestionLimit
	}

	suggestions, err := h.suggestions(c.Request.Context(), user, limit)
	if err != nil {
		internalError(c, h.logger, "Failed to compute suggestions", err)
		return
	}

	// 按目标过滤
	if goal := strings.TrimSpace(c.Query("goal")); goal != "" {
		filtered := make([]suggestionResponse, 0, len(suggestions))
		for _, s := range suggestions {
			if matching.MatchesGoal(s.Goals, goal) {
				filtered = append(filtered, s)
			}
		}
		suggestions = filtered
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// suggestions 先查缓存，未命中时运行匹配引擎并写入缓存
func (h *UserHandler) suggestions(ctx context.Context, user *models.User, limit int) ([]suggestionResponse, error) {
	key := h.suggestionKey(user, limit)

	if data, ok, err := h.cache.Get(ctx, key); err != nil {
		h.logger.Warn("suggestion cache read failed", zap.Error(err))
	} else if ok {
		var cached []suggestionResponse
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	candidates, err := h.users.Candidates(ctx, user.ID, h.candidatePool)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]*models.User, len(candidates))
	profiles := make([]matching.Profile, 0, len(candidates))
	for i := range candidates {
		p := candidates[i].MatchProfile()
		byKey[p.ID] = &candidates[i]
		profiles = append(profiles, p)
	}

	ranked := h.matcher.Rank(user.MatchProfile(), profiles, limit)
	result := make([]suggestionResponse, 0, len(ranked))
	for _, s := range ranked {
		candidate, ok := byKey[s.CandidateID]
		if !ok {
			continue
		}
		result = append(result, suggestionResponse{
			UserResponse:      candidate.ToResponse(),
			MatchScore:        s.MatchScore,
			OverlappingSkills: nonNil(s.OverlappingSkills),
			OverlappingGoals:  nonNil(s.OverlappingGoals),
		})
	}

	if data, err := json.Marshal(result); err == nil {
		if err := h.cache.Set(ctx, key, data); err != nil {
			h.logger.Warn("suggestion cache write failed", zap.Error(err))
		}
	}
	return result, nil
}

// suggestionKey 缓存键：用户、画像指纹、策略和数量
func (h *UserHandler) suggestionKey(user *models.User, limit int) string {
	fingerprint := append([]string{"skills"}, user.Skills...)
	fingerprint = append(fingerprint, "goals")
	fingerprint = append(fingerprint, user.Goals...)

	return cache.Key("suggestions",
		models.UserKey(user.ID),
		cache.Key(fingerprint...),
		string(h.matcher.Strategy()),
		strconv.Itoa(limit))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

package filter

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// ErrRejected 消息未通过内容审核
var ErrRejected = errors.New("message rejected by content filter")

// FilterResult 过滤结果
type FilterResult struct {
	IsClean    bool            `json:"is_clean"`
	Score      float64         `json:"score"`
	Categories map[string]bool `json:"categories"`
	Reason     string          `json:"reason"`
}

// ContentFilterService 私信内容过滤服务
type ContentFilterService struct {
	sensitiveWords []string
	regexPatterns  []*regexp.Regexp
	mu             sync.RWMutex
}

// NewContentFilterService 创建新的内容过滤服务
func NewContentFilterService() *ContentFilterService {
	return &ContentFilterService{}
}

// New 根据敏感词和正则表达式创建过滤服务
func New(words, patterns []string) (*ContentFilterService, error) {
	s := NewContentFilterService()
	s.LoadSensitiveWords(words)
	for _, p := range patterns {
		if err := s.AddRegexPattern(p); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// LoadSensitiveWords 加载敏感词列表
func (s *ContentFilterService) LoadSensitiveWords(words []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := make(map[string]struct{}, len(s.sensitiveWords)+len(words))
	for _, w := range s.sensitiveWords {
		set[w] = struct{}{}
	}
	for _, word := range words {
		if w := strings.ToLower(strings.TrimSpace(word)); w != "" {
			set[w] = struct{}{}
		}
	}

	s.sensitiveWords = s.sensitiveWords[:0]
	for w := range set {
		s.sensitiveWords = append(s.sensitiveWords, w)
	}
	sort.Strings(s.sensitiveWords)
}

// AddRegexPattern 添加正则表达式模式
func (s *ContentFilterService) AddRegexPattern(pattern string) error {
	regex, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid regex pattern: %v", err)
	}

	s.mu.Lock()
	s.regexPatterns = append(s.regexPatterns, regex)
	s.mu.Unlock()

	return nil
}

// Filter 过滤内容
func (s *ContentFilterService) Filter(ctx context.Context, content string) (*FilterResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 1. 基础敏感词过滤
	if found, word := s.checkSensitiveWords(content); found {
		return &FilterResult{
			IsClean:    false,
			Score:      1.0,
			Categories: map[string]bool{"sensitive_words": true},
			Reason:     fmt.Sprintf("contains sensitive word: %s", word),
		}, nil
	}

	// 2. 正则表达式匹配
	if found, pattern := s.checkRegexPatterns(content); found {
		return &FilterResult{
			IsClean:    false,
			Score:      0.8,
			Categories: map[string]bool{"pattern_match": true},
			Reason:     fmt.Sprintf("matches forbidden pattern: %s", pattern),
		}, nil
	}

	return &FilterResult{IsClean: true, Categories: map[string]bool{}}, nil
}

// Check 内容不合规时返回包装了 ErrRejected 的错误
func (s *ContentFilterService) Check(ctx context.Context, content string) error {
	result, err := s.Filter(ctx, content)
	if err != nil {
		return err
	}
	if !result.IsClean {
		return fmt.Errorf("%w: %s", ErrRejected, result.Reason)
	}
	return nil
}

// checkSensitiveWords 检查敏感词
func (s *ContentFilterService) checkSensitiveWords(content string) (bool, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	content = strings.ToLower(content)
	for _, word := range s.sensitiveWords {
		if strings.Contains(content, word) {
			return true, word
		}
	}
	return false, ""
}

// checkRegexPatterns 检查正则表达式模式
func (s *ContentFilterService) checkRegexPatterns(content string) (bool, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, pattern := range s.regexPatterns {
		if pattern.MatchString(content) {
			return true, pattern.String()
		}
	}
	return false, ""
}

package matching

import (
	"sort"
	"strings"
)

// 停用词：学习类描述里常见但不携带技能信息的词
var stopWords = map[string]struct{}{
	"learn": {}, "learning": {}, "to": {}, "the": {}, "and": {}, "a": {}, "an": {},
	"for": {}, "with": {}, "in": {}, "on": {}, "of": {}, "about": {},
	"become": {}, "build": {}, "improve": {}, "master": {},
}

// 允许的短技术词（长度小于3但仍保留）
var shortTerms = map[string]struct{}{
	"go": {}, "js": {}, "ai": {}, "ml": {}, "ui": {}, "ux": {}, "db": {}, "c": {},
}

const minTokenLen = 3

// TokenSet 规范化后的词集合
type TokenSet map[string]struct{}

// NewTokenSet 创建词集合
func NewTokenSet(tokens ...string) TokenSet {
	s := make(TokenSet, len(tokens))
	for _, t := range tokens {
		s[t] = struct{}{}
	}
	return s
}

// Add 添加词
func (s TokenSet) Add(token string) {
	s[token] = struct{}{}
}

// Has 判断是否包含
func (s TokenSet) Has(token string) bool {
	_, ok := s[token]
	return ok
}

// Len 集合大小
func (s TokenSet) Len() int {
	return len(s)
}

// Intersect 返回两个集合的交集
func (s TokenSet) Intersect(other TokenSet) TokenSet {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(TokenSet)
	for t := range small {
		if large.Has(t) {
			out.Add(t)
		}
	}
	return out
}

// Sorted 按字典序返回所有词
func (s TokenSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Normalize 转小写并去除首尾空白
func Normalize(phrase string) string {
	return strings.ToLower(strings.TrimSpace(phrase))
}

func isTokenChar(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '+' || r == '#'
}

// Tokenize 按 [a-z0-9+#] 以外的字符切分短语
func Tokenize(phrase string) []string {
	return strings.FieldsFunc(Normalize(phrase), func(r rune) bool {
		return !isTokenChar(r)
	})
}

// KeepToken 判断词是否保留：非停用词，且长度>=3或属于短技术词
func KeepToken(token string) bool {
	if _, stop := stopWords[token]; stop {
		return false
	}
	if len(token) < minTokenLen {
		_, ok := shortTerms[token]
		return ok
	}
	return true
}

func filteredTokens(phrase string) []string {
	var kept []string
	for _, t := range Tokenize(phrase) {
		if KeepToken(t) {
			kept = append(kept, t)
		}
	}
	return kept
}

// ExtractTokensAndJoins 提取短语集合中的词，多词短语额外生成拼接词（如 "go lang" -> "golang"）
func ExtractTokensAndJoins(phrases []string) TokenSet {
	set := make(TokenSet)
	for _, phrase := range phrases {
		tokens := filteredTokens(phrase)
		for _, t := range tokens {
			set.Add(t)
		}
		if len(tokens) >= 2 {
			if joined := strings.Join(tokens, ""); KeepToken(joined) {
				set.Add(joined)
			}
		}
	}
	return set
}

// compact 去掉 [a-z0-9+#] 以外的所有字符，用于目标筛选
func compact(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if isTokenChar(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

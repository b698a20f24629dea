package matching

import (
	"fmt"
	"sort"
	"strings"
)

// Strategy 评分策略
type Strategy string

const (
	// StrategyOverlap 基于词重叠（含同义词和拼接词）的评分，默认策略
	StrategyOverlap Strategy = "overlap"
	// StrategyComplementary 基于互补关系（我能教/我想学）的短语评分
	StrategyComplementary Strategy = "complementary"
)

// DefaultLimit 默认返回的推荐数量
const DefaultLimit = 10

// ParseStrategy 解析策略名，空字符串返回默认策略
func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(name))) {
	case "", StrategyOverlap:
		return StrategyOverlap, nil
	case StrategyComplementary:
		return StrategyComplementary, nil
	default:
		return "", fmt.Errorf("unknown matching strategy: %q", name)
	}
}

// Profile 参与匹配的用户画像
type Profile struct {
	ID     string   `json:"id" yaml:"id"`
	Skills []string `json:"skills" yaml:"skills"`
	Goals  []string `json:"goals" yaml:"goals"`
}

// IsEmpty 技能和目标都为空
func (p Profile) IsEmpty() bool {
	return len(p.Skills) == 0 && len(p.Goals) == 0
}

// Result 单个候选人的评分结果
type Result struct {
	MatchScore        int
	OverlappingSkills []string
	OverlappingGoals  []string
	SharedSkills      []string
	SharedGoals       []string
}

// Suggestion 推荐结果
type Suggestion struct {
	CandidateID       string   `json:"candidateId"`
	MatchScore        int      `json:"matchScore"`
	OverlappingSkills []string `json:"overlappingSkills,omitempty"`
	OverlappingGoals  []string `json:"overlappingGoals,omitempty"`
	SharedSkills      []string `json:"sharedSkills,omitempty"`
	SharedGoals       []string `json:"sharedGoals,omitempty"`
}

// Option 匹配器配置项
type Option func(*Matcher)

// WithStrategy 设置评分策略
func WithStrategy(s Strategy) Option {
	return func(m *Matcher) {
		if s != "" {
			m.strategy = s
		}
	}
}

// WithLimit 设置默认返回数量
func WithLimit(limit int) Option {
	return func(m *Matcher) {
		if limit > 0 {
			m.limit = limit
		}
	}
}

// Matcher 学习伙伴匹配器，创建后不可变，可并发使用
type Matcher struct {
	strategy Strategy
	limit    int

	// 词重叠策略权重
	overlap struct {
		skillTokens int
		goalTokens  int
		exactSkills int
		exactGoals  int
	}

	// 互补策略权重
	complementary struct {
		teach        int
		learn        int
		sharedGoals  int
		sharedSkills int
	}
}

// NewMatcher 创建新的匹配器实例
func NewMatcher(opts ...Option) *Matcher {
	m := &Matcher{
		strategy: StrategyOverlap,
		limit:    DefaultLimit,
	}
	m.overlap.skillTokens = 2
	m.overlap.goalTokens = 1
	m.overlap.exactSkills = 1
	m.overlap.exactGoals = 1

	m.complementary.teach = 50
	m.complementary.learn = 50
	m.complementary.sharedGoals = 30
	m.complementary.sharedSkills = 20

	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Strategy 当前策略
func (m *Matcher) Strategy() Strategy {
	return m.strategy
}

// Limit 默认返回数量
func (m *Matcher) Limit() int {
	return m.limit
}

type analyzedProfile struct {
	Profile
	skills TokenSet
	goals  TokenSet
	all    TokenSet
}

func analyze(p Profile) analyzedProfile {
	return analyzedProfile{
		Profile: p,
		skills:  AddSynonyms(ExtractTokensAndJoins(p.Skills)),
		goals:   AddSynonyms(ExtractTokensAndJoins(p.Goals)),
		all:     AddSynonyms(ExtractTokensAndJoins(append(append([]string{}, p.Skills...), p.Goals...))),
	}
}

// Score 计算请求者与候选人之间的匹配分数
func (m *Matcher) Score(requester, candidate Profile) Result {
	if requester.IsEmpty() {
		return Result{}
	}
	return m.score(analyze(requester), analyze(candidate))
}

func (m *Matcher) score(req, cand analyzedProfile) Result {
	if m.strategy == StrategyComplementary {
		return m.complementaryScore(req, cand)
	}
	return m.overlapScore(req, cand)
}

func (m *Matcher) overlapScore(req, cand analyzedProfile) Result {
	skillTokens := req.all.Intersect(cand.skills)
	goalTokens := req.all.Intersect(cand.goals)
	exactSkills := exactOverlap(req.Skills, cand.Skills)
	exactGoals := exactOverlap(req.Goals, cand.Goals)

	return Result{
		MatchScore: m.overlap.skillTokens*skillTokens.Len() +
			m.overlap.goalTokens*goalTokens.Len() +
			m.overlap.exactSkills*len(exactSkills) +
			m.overlap.exactGoals*len(exactGoals),
		OverlappingSkills: skillTokens.Sorted(),
		OverlappingGoals:  goalTokens.Sorted(),
		SharedSkills:      exactSkills,
		SharedGoals:       exactGoals,
	}
}

// complementaryScore 我能教他的(我的技能∩他的目标)与他能教我的(我的目标∩他的技能)权重最高
func (m *Matcher) complementaryScore(req, cand analyzedProfile) Result {
	teach := containedPhrases(req.Skills, cand.Goals)
	learn := containedPhrases(req.Goals, cand.Skills)
	sharedGoals := containedPhrases(req.Goals, cand.Goals)
	sharedSkills := containedPhrases(req.Skills, cand.Skills)

	return Result{
		MatchScore: m.complementary.teach*len(teach) +
			m.complementary.learn*len(learn) +
			m.complementary.sharedGoals*len(sharedGoals) +
			m.complementary.sharedSkills*len(sharedSkills),
		OverlappingSkills: learn,
		OverlappingGoals:  teach,
		SharedSkills:      sharedSkills,
		SharedGoals:       sharedGoals,
	}
}

// exactOverlap 字面完全相等的短语交集（区分大小写，去重，排序）
func exactOverlap(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	other := NewTokenSet(b...)
	seen := make(TokenSet)
	for _, p := range a {
		if other.Has(p) {
			seen.Add(p)
		}
	}
	if seen.Len() == 0 {
		return nil
	}
	return seen.Sorted()
}

// containedPhrases 返回 a 中与 b 任一短语存在包含关系（规范化后）的短语
func containedPhrases(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	var targets []string
	for _, p := range b {
		if n := Normalize(p); n != "" {
			targets = append(targets, n)
		}
	}
	found := make(TokenSet)
	for _, p := range a {
		n := Normalize(p)
		if n == "" || found.Has(n) {
			continue
		}
		for _, t := range targets {
			if strings.Contains(n, t) || strings.Contains(t, n) {
				found.Add(n)
				break
			}
		}
	}
	if found.Len() == 0 {
		return nil
	}
	return found.Sorted()
}

// Rank 对候选人评分、过滤零分、按分数降序（同分保持输入顺序）并截断到 limit
func (m *Matcher) Rank(requester Profile, candidates []Profile, limit int) []Suggestion {
	if limit <= 0 {
		limit = m.limit
	}
	suggestions := make([]Suggestion, 0)
	if requester.IsEmpty() {
		return suggestions
	}

	req := analyze(requester)
	for _, candidate := range candidates {
		if requester.ID != "" && candidate.ID == requester.ID {
			continue
		}
		result := m.score(req, analyze(candidate))
		if result.MatchScore == 0 {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			CandidateID:       candidate.ID,
			MatchScore:        result.MatchScore,
			OverlappingSkills: result.OverlappingSkills,
			OverlappingGoals:  result.OverlappingGoals,
			SharedSkills:      result.SharedSkills,
			SharedGoals:       result.SharedGoals,
		})
	}

	// 按分数降序排序
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].MatchScore > suggestions[j].MatchScore
	})

	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions
}

var defaultMatcher = NewMatcher()

// Score 使用默认匹配器评分
func Score(requester, candidate Profile) Result {
	return defaultMatcher.Score(requester, candidate)
}

// Rank 使用默认匹配器排序
func Rank(requester Profile, candidates []Profile, limit int) []Suggestion {
	return defaultMatcher.Rank(requester, candidates, limit)
}

package matching

// 同义词表（对称），只做一层展开
var synonymTable = map[string][]string{
	"golang":     {"go"},
	"go":         {"golang"},
	"javascript": {"js"},
	"js":         {"javascript"},
	"typescript": {"ts"},
	"ts":         {"typescript"},
}

// Synonyms 返回词的同义词副本
func Synonyms(token string) []string {
	syns := synonymTable[token]
	out := make([]string, len(syns))
	copy(out, syns)
	return out
}

// AddSynonyms 返回加入同义词后的新集合，不修改入参
func AddSynonyms(tokens TokenSet) TokenSet {
	out := make(TokenSet, len(tokens))
	for t := range tokens {
		out.Add(t)
		for _, syn := range synonymTable[t] {
			out.Add(syn)
		}
	}
	return out
}

// MatchesGoal 判断目标列表中是否有与筛选词（含同义词）一致的目标，筛选词为空时总是匹配
func MatchesGoal(goals []string, filter string) bool {
	key := compact(filter)
	if key == "" {
		return true
	}
	wanted := NewTokenSet(key)
	for _, syn := range synonymTable[key] {
		wanted.Add(syn)
	}
	for _, g := range goals {
		if wanted.Has(compact(g)) {
			return true
		}
	}
	return false
}

package models

import "strconv"

// UserKey 用户ID的字符串形式（匹配引擎和缓存键使用）
func UserKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseUserKey 解析字符串形式的用户ID
func ParseUserKey(key string) (uint, error) {
	id, err := strconv.ParseUint(key, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

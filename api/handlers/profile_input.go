package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const multipartMemory = 8 << 20

// profileInput 资料更新请求，nil 表示未提交该字段
type profileInput struct {
	Name         *string
	Skills       []string
	Goals        []string
	Mode         *string
	Availability *string
	Picture      *multipart.FileHeader
}

type profileJSON struct {
	Name         *string         `json:"name"`
	Skills       json.RawMessage `json:"skills"`
	Goals        json.RawMessage `json:"goals"`
	Mode         *string         `json:"mode"`
	Availability *string         `json:"availability"`
}

// bindProfileInput 从 JSON 或表单（含 multipart）读取资料更新
func bindProfileInput(c *gin.Context) (profileInput, error) {
	var in profileInput

	switch c.ContentType() {
	case gin.MIMEMultipartPOSTForm, gin.MIMEPOSTForm:
		if c.ContentType() == gin.MIMEMultipartPOSTForm {
			if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
				return in, err
			}
			fh, err := c.FormFile("profilePicture")
			switch {
			case err == nil:
				in.Picture = fh
			case !errors.Is(err, http.ErrMissingFile):
				return in, err
			}
		}
		in.Name = formValue(c, "name")
		in.Mode = formValue(c, "mode")
		in.Availability = formValue(c, "availability")
		in.Skills = formList(c, "skills")
		in.Goals = formList(c, "goals")
		return in, nil
	}

	var body profileJSON
	if err := c.ShouldBindJSON(&body); err != nil {
		return in, err
	}
	skills, err := decodeList(body.Skills)
	if err != nil {
		return in, errors.New("skills must be an array or a comma-separated string")
	}
	goals, err := decodeList(body.Goals)
	if err != nil {
		return in, errors.New("goals must be an array or a comma-separated string")
	}
	in.Name = body.Name
	in.Mode = body.Mode
	in.Availability = body.Availability
	in.Skills = skills
	in.Goals = goals
	return in, nil
}

func formValue(c *gin.Context, key string) *string {
	if v, ok := c.GetPostForm(key); ok {
		return &v
	}
	return nil
}

// formList 读取 key 或 key[]，单个值按字符串列表解析
func formList(c *gin.Context, key string) []string {
	values, ok := c.GetPostFormArray(key)
	if !ok {
		values, ok = c.GetPostFormArray(key + "[]")
	}
	if !ok {
		return nil
	}
	if len(values) == 1 {
		return parseList(values[0])
	}
	return cleanList(values)
}

// decodeList 接受字符串数组、JSON 编码的数组字符串或逗号分隔字符串；未提交返回 nil
func decodeList(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	switch raw[0] {
	case 'n':
		return []string{}, nil
	case '[':
		var items []string
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		return cleanList(items), nil
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return parseList(s), nil
	}
	return nil, errors.New("unsupported list encoding")
}

// parseList 解析 JSON 数组字符串或逗号分隔字符串
func parseList(s string) []string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		var items []string
		if err := json.Unmarshal([]byte(s), &items); err == nil {
			return cleanList(items)
		}
	}
	return cleanList(strings.Split(s, ","))
}

// cleanList 去除空白、空项和重复项（忽略大小写），保持原顺序
func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

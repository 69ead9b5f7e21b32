package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSON 通用 JSON 对象列（多语言标题、设置值等）
type JSON map[string]interface{}

// Value 实现 driver.Valuer 接口
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	raw, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan 实现 sql.Scanner 接口，兼容 sqlite 返回 string 与 postgres 返回 []byte
func (j *JSON) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = make(JSON)
		return nil
	case []byte:
		if len(v) == 0 {
			*j = make(JSON)
			return nil
		}
		return json.Unmarshal(v, j)
	case string:
		if v == "" {
			*j = make(JSON)
			return nil
		}
		return json.Unmarshal([]byte(v), j)
	default:
		return fmt.Errorf("unsupported json column type %T", value)
	}
}

// LocalizedText 按语言取文本，缺失时依次回退 zh-CN、en-US、任意非空值
func (j JSON) LocalizedText(locale string) string {
	if len(j) == 0 {
		return ""
	}
	for _, key := range []string{locale, "zh-CN", "en-US"} {
		if key == "" {
			continue
		}
		if text, ok := j[key].(string); ok && text != "" {
			return text
		}
	}
	for _, value := range j {
		if text, ok := value.(string); ok && text != "" {
			return text
		}
	}
	return ""
}

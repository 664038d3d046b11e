// Package slug 由标题或名称生成 URL 安全的标识
// 只负责生成，唯一性由存储层的唯一索引保证
package slug

import (
	"github.com/gosimple/slug"
)

// MaxLength slug 最大长度，超出部分在单词边界截断
const MaxLength = 120

// Make 生成小写 ASCII slug，非拉丁文字（如中文）会先音译
// 相同输入总是得到相同输出；无法生成有效字符时返回空串
func Make(text string) string {
	return slug.MakeLang(text, "en")
}

func init() {
	slug.MaxLength = MaxLength
	slug.EnableSmartTruncate = true
}

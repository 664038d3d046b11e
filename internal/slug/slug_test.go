package slug

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple title", "Hello World", "hello-world"},
		{"category name", "Tech", "tech"},
		{"punctuation", "Go, Rust & C++!", "go-rust-and-c"},
		{"surrounding spaces", "  Spaced   Out  ", "spaced-out"},
		{"diacritics", "Café Crème", "cafe-creme"},
		{"chinese", "你好世界", "ni-hao-shi-jie"},
		{"empty", "", ""},
		{"only symbols", "!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Make(tt.in))
		})
	}
}

func TestMake_Deterministic(t *testing.T) {
	assert.Equal(t, Make("Go 并发编程"), Make("Go 并发编程"))
	// 不同标题可能得到同一个 slug，唯一性由存储层判定
	assert.Equal(t, Make("Hello World"), Make("hello  world!"))
}

func TestMake_TruncatesLongTitles(t *testing.T) {
	long := strings.Repeat("word ", 60)
	got := Make(long)
	assert.LessOrEqual(t, len(got), MaxLength)
	assert.False(t, strings.HasSuffix(got, "-"))
}

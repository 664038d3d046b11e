package upload

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"terminal-terrace/sse-blog/packages/response"
)

// 允许上传的图片扩展名
var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// ImageStore 图片存储，由服务在事务提交后调用
type ImageStore interface {
	Save(r io.Reader, ext string) (string, error)
	Remove(name string) error
}

// LocalStore 本地磁盘图片存储
type LocalStore struct {
	dir     string
	maxSize int64
}

func NewLocalStore(dir string, maxSize int64) *LocalStore {
	return &LocalStore{dir: dir, maxSize: maxSize}
}

// Save 以 uuid 文件名保存图片，返回相对于存储目录的文件名
func (s *LocalStore) Save(r io.Reader, ext string) (string, error) {
	ext = strings.ToLower(ext)
	if !allowedExt[ext] {
		return "", response.InvalidParameterError("不支持的图片格式: " + ext)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", errors.Wrap(err, "创建上传目录失败")
	}

	name := uuid.NewString() + ext
	path := filepath.Join(s.dir, name)
	dst, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "创建目标文件失败")
	}

	src := r
	if s.maxSize > 0 {
		src = io.LimitReader(r, s.maxSize+1)
	}
	n, err := io.Copy(dst, src)
	dst.Close()
	if err != nil {
		os.Remove(path)
		return "", errors.Wrap(err, "写入文件失败")
	}
	if s.maxSize > 0 && n > s.maxSize {
		os.Remove(path)
		return "", response.InvalidParameterError("图片超过大小限制")
	}

	return name, nil
}

// Remove 删除图片，文件不存在视为成功
func (s *LocalStore) Remove(name string) error {
	if name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "删除文件失败")
	}
	return nil
}

// Path 返回文件在磁盘上的完整路径
func (s *LocalStore) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

const serviceName = "sse-blog"

// 全局日志入口
var (
	logger *logrus.Logger
	Log    *logrus.Entry
)

// 测试没有经过 main，这里先给一个默认配置
func init() {
	Init("info", "text")
}

// Init 按配置初始化日志级别与格式
func Init(level, format string) {
	logger = logrus.New()
	logger.SetOutput(os.Stderr)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	Log = logger.WithField("service", serviceName)
}

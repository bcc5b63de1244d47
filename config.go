package amortize

import (
	"time"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"
)

// Clock 提供可替换的时间源
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Config 运行时配置
type Config struct {
	Logger *zap.Logger
	// Round 只用于展示和导出，计算过程保持全精度
	Round RoundStrategy
	Clock Clock
}

var cfg = withDefaults(Config{})

func withDefaults(c Config) Config {
	if c.Clock == nil {
		c.Clock = systemClock{}
	}
	if c.Round == nil {
		c.Round = BankRound
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

// Start 初始化运行时配置与默认依赖。
func Start(c Config) error {
	cfg = withDefaults(c)
	return nil
}

// Today 按注入的 Clock 返回当天日期
func Today() civil.Date {
	return civil.DateOf(cfg.Clock.Now())
}

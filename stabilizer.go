package fim

import (
	"context"
	"time"
)

const (
	// DefaultStabilizeRetries 默认的哈希尝试次数
	DefaultStabilizeRetries = 2
	// DefaultStabilizeDelay 默认的两次尝试之间的间隔
	DefaultStabilizeDelay = 100 * time.Millisecond
)

// Stabilizer 对可能正在写入的文件反复计算哈希，直到连续两次结果相同
//
// Retries：最多尝试次数（<1 时按 1 处理）
// Delay：两次尝试之间的固定等待时间
//
// 这是有界的重试：最多 Retries 次，从不无限等待。
// 如果始终没有稳定下来，则返回最后一次成功的哈希（尽力而为）。
type Stabilizer struct {
	Retries int
	Delay   time.Duration

	hash func(path string) (string, bool, error)
}

// NewStabilizer 创建 Stabilizer，retries<=0 或 delay<0 时使用默认值
func NewStabilizer(retries int, delay time.Duration) *Stabilizer {
	if retries <= 0 {
		retries = DefaultStabilizeRetries
	}
	if delay < 0 {
		delay = DefaultStabilizeDelay
	}
	return &Stabilizer{Retries: retries, Delay: delay, hash: HashFile}
}

// Stabilize 返回文件的"稳定"哈希
//
// ok=false 表示所有尝试都没能读到文件（文件消失或不可读）。
// 等待期间 ctx 被取消时，返回目前为止得到的哈希以及 ctx.Err()。
func (s *Stabilizer) Stabilize(ctx context.Context, path string) (string, bool, error) {
	hash := s.hash
	if hash == nil {
		hash = HashFile
	}
	retries := s.Retries
	if retries < 1 {
		retries = 1
	}

	var last string
	have := false
	for attempt := 0; attempt < retries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, s.Delay); err != nil {
				return last, have, err
			}
		}

		h, ok, err := hash(path)
		if err != nil {
			return "", false, err
		}
		if !ok {
			continue
		}
		if have && h == last {
			return h, true, nil
		}
		last, have = h, true
	}
	return last, have, nil
}

// sleepCtx 等待 d，或在 ctx 结束时提前返回 ctx.Err()
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

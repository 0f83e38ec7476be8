package fim

import "time"

// EventKind 变更类型
type EventKind int

const (
	// EventNew 基线中没有的新文件
	EventNew EventKind = iota
	// EventModified 内容哈希与基线不同
	EventModified
	// EventDeleted 基线中的文件已不在磁盘上
	EventDeleted
)

// String 返回 NEW / MODIFIED / DELETED
func (k EventKind) String() string {
	switch k {
	case EventNew:
		return "NEW"
	case EventModified:
		return "MODIFIED"
	case EventDeleted:
		return "DELETED"
	default:
		return "UNKNOWN"
	}
}

// Event 一次轮询中对某个路径的分类结果
//
// Time：检测到的时间
// Kind：变更类型
// Path：文件的绝对路径
// Digest：新的哈希（DELETED 时为空）
type Event struct {
	Time   time.Time
	Kind   EventKind
	Path   string
	Digest string
}

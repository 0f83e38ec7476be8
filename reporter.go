package fim

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss/v2"
)

// Reporter 接收监控循环产生的事件
type Reporter interface {
	Report(ev Event)
}

// ReporterFunc 把函数适配为 Reporter
type ReporterFunc func(ev Event)

// Report 调用 f(ev)
func (f ReporterFunc) Report(ev Event) { f(ev) }

// eventTimeLayout 控制台事件的时间格式
const eventTimeLayout = "2006-01-02 15:04:05.000"

var (
	newStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	modifiedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	deletedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	timeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// ConsoleReporter 把事件逐行写到终端
//
// Out：输出目标
// Color：是否使用 lipgloss 着色（非终端时应关闭）
type ConsoleReporter struct {
	Out   io.Writer
	Color bool

	mu sync.Mutex
}

// NewConsoleReporter 创建控制台 Reporter
func NewConsoleReporter(out io.Writer, color bool) *ConsoleReporter {
	return &ConsoleReporter{Out: out, Color: color}
}

// Report 输出形如 "[时间] FILE CHANGED: /abs/path" 的一行
func (r *ConsoleReporter) Report(ev Event) {
	label, style := eventLabel(ev.Kind)
	ts := "[" + ev.Time.Format(eventTimeLayout) + "]"
	if r.Color {
		ts = timeStyle.Render(ts)
		label = style.Render(label)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.Out, "%s %s: %s\n", ts, label, ev.Path)
}

func eventLabel(k EventKind) (string, lipgloss.Style) {
	switch k {
	case EventNew:
		return "NEW FILE DETECTED", newStyle
	case EventModified:
		return "FILE CHANGED", modifiedStyle
	case EventDeleted:
		return "FILE DELETED", deletedStyle
	default:
		return k.String(), lipgloss.NewStyle()
	}
}

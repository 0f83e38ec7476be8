package fim

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ExampleMonitor 展示最简使用场景：建立基线，然后执行几轮检查
//
// 运行示例命令: go test -v -run=ExampleMonitor
func ExampleMonitor() {
	// 在临时目录中演示
	testDir, err := os.MkdirTemp("", "fim-example-")
	if err != nil {
		fmt.Println("Error creating dir:", err)
		return
	}
	defer os.RemoveAll(testDir) // 演示结束后删除

	// 配置
	cfg := DefaultConfig()
	cfg.Root = testDir
	cfg.Baseline = filepath.Join(testDir, DefaultBaselineFile)
	cfg.Delay = time.Millisecond

	excl, err := cfg.Exclusions()
	if err != nil {
		fmt.Println("Error compiling exclusions:", err)
		return
	}
	store, err := cfg.OpenStore(excl)
	if err != nil {
		fmt.Println("Error opening store:", err)
		return
	}

	// 只打印事件类型和文件名
	report := ReporterFunc(func(ev Event) {
		fmt.Printf("Event: %s %s\n", ev.Kind, filepath.Base(ev.Path))
	})
	m := NewMonitor(cfg.MonitorConfig(excl), store, WithReporter(report))
	ctx := context.Background()

	// 建立基线
	_ = os.WriteFile(filepath.Join(testDir, "notes.txt"), []byte("v1"), 0644)
	b, err := m.CreateBaseline(ctx)
	if err != nil {
		fmt.Println("Error creating baseline:", err)
		return
	}
	fmt.Printf("Baseline: %d files\n", len(b))

	// 修改、新增、删除，每一步之后执行一轮检查
	baseline, _ := store.Load()
	_ = os.WriteFile(filepath.Join(testDir, "notes.txt"), []byte("v2"), 0644)
	_ = os.WriteFile(filepath.Join(testDir, "todo.txt"), []byte("milk"), 0644)
	_, _ = m.Cycle(ctx, baseline)

	_ = os.Remove(filepath.Join(testDir, "notes.txt"))
	_, _ = m.Cycle(ctx, baseline)

	// Output:
	// Baseline: 1 files
	// Event: MODIFIED notes.txt
	// Event: NEW todo.txt
	// Event: DELETED notes.txt
}

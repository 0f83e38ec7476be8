package fim

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultExcludedDirs 默认跳过的工具产物目录（隐藏目录总是被跳过）
var DefaultExcludedDirs = []string{".venv", "__pycache__"}

// tempSuffix TextStore 原子保存时临时文件名中的标记
const tempSuffix = ".tmp-"

// Exclusions 遍历时使用的排除规则
//
// 规则只作用于名称（base name），不会持久化：
//   - 以 "." 开头的目录（隐藏目录，例如 .git）
//   - DefaultExcludedDirs 以及额外指定的目录名
//   - patterns 中的 glob 模式，同时作用于目录和文件
//   - self 中的文件名：监控程序自身和基线文件，避免工具不停地报告自己的产物
//
// nil *Exclusions 只跳过隐藏目录。
type Exclusions struct {
	dirs     map[string]struct{}
	self     map[string]struct{}
	matchers []glob.Glob
}

// NewExclusions 编译排除规则
//
// dirNames 是在 DefaultExcludedDirs 之外额外跳过的目录名，默认目录总是被跳过；
// selfNames 中的路径只取 base name。
func NewExclusions(dirNames, patterns, selfNames []string) (*Exclusions, error) {
	e := &Exclusions{
		dirs: make(map[string]struct{}, len(DefaultExcludedDirs)+len(dirNames)),
		self: make(map[string]struct{}, len(selfNames)),
	}
	for _, d := range append(append([]string(nil), DefaultExcludedDirs...), dirNames...) {
		if d = strings.TrimSpace(d); d != "" {
			e.dirs[d] = struct{}{}
		}
	}
	for _, s := range selfNames {
		if s = strings.TrimSpace(s); s != "" {
			e.self[filepath.Base(s)] = struct{}{}
		}
	}
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		e.matchers = append(e.matchers, g)
	}
	return e, nil
}

// SkipDir 判断子目录是否应被剪掉（不再递归）
func (e *Exclusions) SkipDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	if e == nil {
		return false
	}
	if _, ok := e.dirs[name]; ok {
		return true
	}
	return e.matches(name)
}

// SkipFile 判断文件是否应被忽略
func (e *Exclusions) SkipFile(name string) bool {
	if e == nil {
		return false
	}
	return e.IsSelf(name) || e.matches(name)
}

// IsSelf 判断名称是否属于监控程序自身的文件
//
// 原子保存时产生的临时文件（"<自身文件名>.tmp-*"）也算作自身文件。
func (e *Exclusions) IsSelf(name string) bool {
	if e == nil {
		return false
	}
	base := filepath.Base(name)
	if _, ok := e.self[base]; ok {
		return true
	}
	if i := strings.LastIndex(base, tempSuffix); i > 0 {
		_, ok := e.self[base[:i]]
		return ok
	}
	return false
}

func (e *Exclusions) matches(name string) bool {
	for _, m := range e.matchers {
		if m.Match(name) {
			return true
		}
	}
	return false
}

package fim

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrBaselineNotFound 基线尚未创建
//
// 与"空基线"不同：空目录会得到一个合法的空映射，而缺失的基线是一个前置条件失败。
var ErrBaselineNotFound = errors.New("baseline not found")

// recordSep 基线记录中路径与哈希之间的分隔符，路径本身不能包含它
const recordSep = "|"

// Baseline 绝对路径 -> 十六进制哈希
type Baseline map[string]string

// Paths 返回排序后的路径列表
func (b Baseline) Paths() []string {
	out := make([]string, 0, len(b))
	for p := range b {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Store 基线的持久化
type Store interface {
	// Save 用给定映射覆盖已持久化的基线
	Save(b Baseline) error
	// Load 读取基线；基线不存在时返回 ErrBaselineNotFound
	Load() (Baseline, error)
	// Path 返回基线文件位置
	Path() string
}

// TextStore 以文本文件保存基线，每行一条 "绝对路径|哈希"
//
// path：基线文件路径
// exclude：保存时跳过监控程序自身的文件（程序本身与基线文件）
type TextStore struct {
	path    string
	exclude *Exclusions
}

// NewTextStore 创建文本基线存储
func NewTextStore(path string, exclude *Exclusions) *TextStore {
	return &TextStore{path: path, exclude: exclude}
}

// Path 返回基线文件路径
func (s *TextStore) Path() string { return s.path }

// Save 写入基线
//
// 先写入同目录下的临时文件再 rename 覆盖目标，崩溃时不会留下半截的基线文件。
func (s *TextStore) Save(b Baseline) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+tempSuffix+"*")
	if err != nil {
		return fmt.Errorf("create temp baseline: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	w := bufio.NewWriter(tmp)
	for _, p := range b.Paths() {
		if s.exclude.IsSelf(p) {
			continue
		}
		abs, err := absPath(p)
		if err != nil {
			tmp.Close()
			return err
		}
		if _, err := fmt.Fprintf(w, "%s%s%s\n", abs, recordSep, b[p]); err != nil {
			tmp.Close()
			return fmt.Errorf("write baseline: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush baseline: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync baseline: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close baseline: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replace baseline %s: %w", s.path, err)
	}
	return nil
}

// Load 读取基线
//
// 没有分隔符的行被静默跳过；相对路径按当前工作目录转换为绝对路径，
// 保证与扫描得到的绝对路径可比较。
func (s *TextStore) Load() (Baseline, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrBaselineNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open baseline %s: %w", s.path, err)
	}
	defer f.Close()

	b := make(Baseline)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		path, digest, ok := parseRecord(sc.Text())
		if !ok {
			continue
		}
		abs, err := absPath(path)
		if err != nil {
			return nil, err
		}
		b[abs] = digest
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read baseline %s: %w", s.path, err)
	}
	return b, nil
}

// parseRecord 拆分一行记录，在第一个分隔符处切开
func parseRecord(line string) (path, digest string, ok bool) {
	line = strings.TrimSpace(line)
	path, digest, ok = strings.Cut(line, recordSep)
	return path, digest, ok
}

func absPath(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", p, err)
	}
	return abs, nil
}

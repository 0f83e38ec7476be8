package fim

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrEmptyRoot 未指定监控根目录
var ErrEmptyRoot = errors.New("root path cannot be empty")

// WalkFunc 在进入每个目录时被调用
//
// dir：当前目录（绝对路径）
// subdirs：子目录名列表，可以原地过滤以阻止递归进入
// files：当前目录下的普通文件名
type WalkFunc func(dir string, subdirs *[]string, files []string)

// Scanner 遍历目录树并列出需要监控的文件
type Scanner struct {
	Root    string
	Exclude *Exclusions
}

// Walk 自顶向下遍历 Root
//
// 不跟随指向目录的符号链接；只把普通文件（或指向普通文件的符号链接）放入 files，
// FIFO、socket、设备文件被忽略，这样哈希时不会阻塞。无法读取的子目录被跳过。
// 根目录本身无法读取时返回错误。
func (s *Scanner) Walk(fn WalkFunc) error {
	if s.Root == "" {
		return ErrEmptyRoot
	}
	root, err := filepath.Abs(s.Root)
	if err != nil {
		return fmt.Errorf("resolve root %s: %w", s.Root, err)
	}
	subdirs, files, err := readDir(root)
	if err != nil {
		return fmt.Errorf("read root %s: %w", root, err)
	}
	s.walk(root, subdirs, files, fn)
	return nil
}

func (s *Scanner) walk(dir string, subdirs, files []string, fn WalkFunc) {
	fn(dir, &subdirs, files)
	for _, name := range subdirs {
		child := filepath.Join(dir, name)
		cd, cf, err := readDir(child)
		if err != nil {
			continue
		}
		s.walk(child, cd, cf, fn)
	}
}

// readDir 把目录项分成子目录和普通文件（os.ReadDir 已按名称排序）
func readDir(dir string) (subdirs, files []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	for _, ent := range entries {
		mode := ent.Type()
		switch {
		case mode.IsDir():
			subdirs = append(subdirs, ent.Name())
		case mode.IsRegular():
			files = append(files, ent.Name())
		case mode&os.ModeSymlink != 0:
			// 指向普通文件的链接按文件处理；指向目录的链接不跟随
			fi, err := os.Stat(filepath.Join(dir, ent.Name()))
			if err == nil && fi.Mode().IsRegular() {
				files = append(files, ent.Name())
			}
		}
	}
	return subdirs, files, nil
}

// Files 返回需要监控的全部文件的绝对路径
//
// 被排除的目录不会被进入，自身文件和匹配排除模式的文件不会出现在结果中。
func (s *Scanner) Files() ([]string, error) {
	var out []string
	err := s.Walk(func(dir string, subdirs *[]string, files []string) {
		kept := (*subdirs)[:0]
		for _, d := range *subdirs {
			if !s.Exclude.SkipDir(d) {
				kept = append(kept, d)
			}
		}
		*subdirs = kept

		for _, f := range files {
			if s.Exclude.SkipFile(f) {
				continue
			}
			out = append(out, filepath.Join(dir, f))
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

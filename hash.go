package fim

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// hashChunkSize 每次读取的块大小，保证内存占用与文件大小无关
const hashChunkSize = 4096

// HashFile 计算文件内容的SHA-256哈希（十六进制小写）
//
// 文件按 hashChunkSize 分块顺序读取，不会一次性加载到内存。
// 文件不存在或无权限时返回 ok=false、err=nil：这在活动的文件系统中属于正常的瞬时情况。
// 其它I/O错误原样（包装路径后）返回。
func HashFile(path string) (digest string, ok bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		if isBenign(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, hashChunkSize)
	if _, err := io.CopyBuffer(h, onlyReader{f}, buf); err != nil {
		if isBenign(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), true, nil
}

// isBenign 只有"不存在"和"无权限"两种错误被视为可恢复
func isBenign(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission)
}

// onlyReader 隐藏 *os.File 的 WriterTo，使 io.CopyBuffer 真正使用给定的缓冲区
type onlyReader struct {
	r io.Reader
}

func (o onlyReader) Read(p []byte) (int, error) {
	return o.r.Read(p)
}

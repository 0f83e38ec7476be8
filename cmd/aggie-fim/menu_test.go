package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMenu 无效选项 -> 无基线时监控 -> 创建基线 -> 退出
func TestMenu(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0o644))

	out, err := execute(t, context.Background(), "9\n2\n1\n3\n", dirArgs(root)...)
	require.NoError(t, err)

	assert.Equal(t, 4, strings.Count(out, "--- AGGIE FILE INTEGRITY MONITOR ---"))
	assert.Contains(t, out, "Invalid choice.")
	assert.Contains(t, out, "Error: Baseline not found!")
	assert.Contains(t, out, "Wrote 1 files. Ready to monitor!")

	_, err = os.Stat(filepath.Join(root, "baseline.txt"))
	assert.NoError(t, err)
}

func TestMenu_EOFExits(t *testing.T) {
	out, err := execute(t, context.Background(), "", dirArgs(t.TempDir())...)
	require.NoError(t, err)
	assert.Contains(t, out, "Enter choice (1/2/3): ")
}

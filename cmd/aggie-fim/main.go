// Command aggie-fim 是文件完整性监控的命令行入口。
//
// 不带子命令运行时进入交互菜单；也可以直接使用 baseline / monitor / check 子命令。
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

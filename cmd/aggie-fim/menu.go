package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	fim "github.com/Blu3Stone/Aggie-File-Integrity-Monitoring"
	"github.com/spf13/cobra"
)

const menuText = `
--- AGGIE FILE INTEGRITY MONITOR ---
1) Create new baseline (Make sure directory is clean!)
2) Start Monitoring
3) Exit
`

// runMenu 交互菜单：除了当前选择外不保存任何状态
//
// 选项1、2的错误会打印出来并回到菜单；读到 EOF 等同于退出。
func runMenu(cmd *cobra.Command, opts *options) error {
	in := bufio.NewScanner(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	for {
		fmt.Fprint(out, menuText)
		fmt.Fprint(out, "\nEnter choice (1/2/3): ")
		if !in.Scan() {
			fmt.Fprintln(out)
			return in.Err()
		}

		var err error
		switch strings.TrimSpace(in.Text()) {
		case "1":
			err = createBaseline(cmd, opts)
		case "2":
			err = startMonitoring(cmd, opts)
			if errors.Is(err, fim.ErrBaselineNotFound) {
				err = nil
			}
		case "3":
			return nil
		default:
			fmt.Fprintln(out, "Invalid choice.")
		}
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
}

// Command ledgerctl 從命令列登入 pocket-ledger API 並管理本機保存的 token。
package main

import (
	"fmt"
	"os"
)

var exitFunc = os.Exit

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		exitFunc(1)
	}
}

// gatepassctl GatePass 运维命令行
package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"gatepass/backend/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

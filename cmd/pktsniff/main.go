package main

import (
	"fmt"
	"os"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cmd := newRootCmd()
	cmd.SetArgs(listAlias(args))
	return cmd.Execute()
}

// listAlias 只给出 -i/--interface 而不带网卡名时等同于不带参数，列出网卡
func listAlias(args []string) []string {
	if len(args) == 1 && (args[0] == "-i" || args[0] == "--interface") {
		return []string{}
	}
	return args
}

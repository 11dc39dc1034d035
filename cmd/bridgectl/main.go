// cmd/bridgectl/main.go
//
// bridgectl はデプロイ済みブリッジプログラムを RPC 経由で操作する運用 CLI です。
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

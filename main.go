/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package main

import (
	"github.com/wtthornton/LocalMCP/cmd"
	"github.com/wtthornton/LocalMCP/internal/logger"
)

func main() {
	defer logger.HandlePanic()
	cmd.Execute()
}

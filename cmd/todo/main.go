package main

import (
	"os"

	"github.com/goliatone/go-todo-cache/cmd/todo/cmd"
)

func main() {
	os.Exit(cmd.Execute(os.Args[1:], os.Stdout, os.Stderr))
}

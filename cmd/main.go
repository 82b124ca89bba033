package main

import "pdf-rag/internal/cli"

func main() {
	cli.Execute()
}

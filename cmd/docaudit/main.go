package main

import "github.com/yorozuya-cybersecurity/docaudit/pkg/cli"

func main() {
	cli.Execute()
}

package main

import "github.com/newsmill/blog-ingest/cmd"

func main() {
	cmd.Execute()
}

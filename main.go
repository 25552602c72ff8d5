package main

import "github.com/video-stream/transcript-studio/internal/cli"

func main() {
	cli.Execute()
}

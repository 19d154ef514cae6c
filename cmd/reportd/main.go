package main

import (
	"os"

	"github.com/GemadaoOficial/megajuLive-sub001/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}

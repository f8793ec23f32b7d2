package main

import (
	"github.com/JonMunkholm/coverage/internal/cli"
	"github.com/joho/godotenv"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	// Environment variables take precedence over .env
	_ = godotenv.Load()

	cli.SetVersionInfo(version, commit)
	cli.Execute()
}

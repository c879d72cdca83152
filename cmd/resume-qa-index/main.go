// Package main is the entry point for the offline resume indexer.
package main

import (
	"github.com/joho/godotenv"
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/resume-qa/cmd/resume-qa-index/app"
)

func main() {
	_ = godotenv.Load()

	app.NewApp().Run()
}

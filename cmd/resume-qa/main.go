// Package main is the entry point for the resume question-answering server.
package main

import (
	"github.com/joho/godotenv"
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/resume-qa/cmd/resume-qa/app"
)

func main() {
	// .env is optional; variables already set in the environment win.
	_ = godotenv.Load()

	app.NewApp().Run()
}

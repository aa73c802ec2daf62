package main

import (
	"os"

	"github.com/GoHR-Admin/GoHR-Admin/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}

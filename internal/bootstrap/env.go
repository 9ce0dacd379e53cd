package bootstrap

import (
	"log"

	"github.com/joho/godotenv"
)

// Loadenv reads a .env file into the process environment when one is present.
// It runs before the structured logger exists.
func Loadenv() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
}

package initializers

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
)

// LoadEnv pulls variables from the .env file into the process environment.
func LoadEnv() error {
	if err := godotenv.Load(); err != nil {
		log.Println("env not loading")
		return fmt.Errorf("env not loading: %w", err)
	}
	log.Println("Env loaded successfully")
	return nil
}

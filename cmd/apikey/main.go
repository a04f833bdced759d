package main

import (
	"fmt"
	"log"
	"os"

	"gorm.io/gorm"

	"github.com/greenlean/greenlean/app/models"
	"github.com/greenlean/greenlean/internal/pkg/database"
	"github.com/greenlean/greenlean/internal/pkg/env"
)

// apikey provisions API consumers: it creates accounts and issues or revokes
// the API keys that gate the v1 endpoints. Raw keys are printed exactly once;
// only the hash is stored.
func main() {
	env.SetupEnvFile()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	database.SetupDatabase()
	db := database.GetDB()

	switch os.Args[1] {
	case "create":
		if len(os.Args) < 5 {
			log.Fatalf("Usage: apikey create <name> <email> <password>")
		}
		createAccount(db, os.Args[2], os.Args[3], os.Args[4])

	case "issue":
		if len(os.Args) < 4 {
			log.Fatalf("Usage: apikey issue <email> <password>")
		}
		issueKey(db, os.Args[2], os.Args[3])

	case "revoke":
		if len(os.Args) < 3 {
			log.Fatalf("Usage: apikey revoke <email>")
		}
		revokeKey(db, os.Args[2])

	default:
		printUsage()
		os.Exit(1)
	}
}

func createAccount(db *gorm.DB, name, email, password string) {
	user, err := models.CreateUser(name, email, password)
	if err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}
	user.Status = models.STATUS_ACTIVE

	if err := db.Create(user).Error; err != nil {
		log.Fatalf("Failed to store user: %v", err)
	}

	settings, err := models.GetOrCreateUserSettings(db, user.ID)
	if err != nil {
		log.Fatalf("Failed to create user settings: %v", err)
	}

	rawKey, err := settings.IssueAPIKey()
	if err != nil {
		log.Fatalf("Failed to issue API key: %v", err)
	}
	if err := db.Save(settings).Error; err != nil {
		log.Fatalf("Failed to store API key: %v", err)
	}

	fmt.Printf("User %d created (%s)\n", user.ID, user.Email)
	fmt.Printf("API key (shown once): %s\n", rawKey)
}

func issueKey(db *gorm.DB, email, password string) {
	user := findUser(db, email)

	if !models.CheckPasswordHash(password, user.Password) {
		log.Fatalf("Password verification failed for %s", email)
	}

	settings, err := models.GetOrCreateUserSettings(db, user.ID)
	if err != nil {
		log.Fatalf("Failed to load user settings: %v", err)
	}

	rawKey, err := settings.IssueAPIKey()
	if err != nil {
		log.Fatalf("Failed to issue API key: %v", err)
	}
	if err := db.Save(settings).Error; err != nil {
		log.Fatalf("Failed to store API key: %v", err)
	}

	fmt.Printf("New API key for %s (shown once): %s\n", email, rawKey)
}

func revokeKey(db *gorm.DB, email string) {
	user := findUser(db, email)

	settings, err := models.GetOrCreateUserSettings(db, user.ID)
	if err != nil {
		log.Fatalf("Failed to load user settings: %v", err)
	}

	settings.RevokeAPIKey()
	if err := db.Save(settings).Error; err != nil {
		log.Fatalf("Failed to store revocation: %v", err)
	}

	fmt.Printf("API key revoked for %s\n", email)
}

func findUser(db *gorm.DB, email string) *models.User {
	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		log.Fatalf("User %s not found: %v", email, err)
	}
	return &user
}

func printUsage() {
	fmt.Println("Usage: apikey <command> [args]")
	fmt.Println("Commands:")
	fmt.Println("  create <name> <email> <password>  Create an account and issue its first API key")
	fmt.Println("  issue <email> <password>          Rotate the API key (requires the password)")
	fmt.Println("  revoke <email>                    Revoke the current API key")
}

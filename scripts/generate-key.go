// Package main is a development utility for seeding a local environment: it
// generates a random JWT signing secret for CMT_JWT_SECRET plus a test
// password with its bcrypt hash pre-computed, and prints a ready-to-run SQL
// UPDATE statement so developers can quickly reset a usable login in a local
// database without running the full server flow. Do not use generated values
// in production — set CMT_JWT_SECRET from a secret manager and create accounts
// through the signup endpoint.
package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	// Generate a JWT signing secret: 48 random bytes, base64url-encoded
	secretBytes := make([]byte, 48)
	if _, err := rand.Read(secretBytes); err != nil {
		log.Fatal(err)
	}
	jwtSecret := base64.RawURLEncoding.EncodeToString(secretBytes)

	// Generate a random test password
	passwordBytes := make([]byte, 12)
	if _, err := rand.Read(passwordBytes); err != nil {
		log.Fatal(err)
	}
	password := "dev_" + base64.RawURLEncoding.EncodeToString(passwordBytes)

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("==========================================================")
	fmt.Println("Development Credentials Generated")
	fmt.Println("==========================================================")
	fmt.Printf("\nCMT_JWT_SECRET: %s\n", jwtSecret)
	fmt.Printf("\nTest Password: %s\n", password)
	fmt.Printf("\nPassword Hash: %s\n", string(hashBytes))
	fmt.Println("\n==========================================================")
	fmt.Println("SQL Update:")
	fmt.Println("==========================================================")
	fmt.Printf(`
UPDATE users
SET password_hash = '%s'
WHERE email = 'admin@dev.local';
`, string(hashBytes))
	fmt.Println("\n==========================================================")
}

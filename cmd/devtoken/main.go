// Command devtoken prints a signed bearer token for local testing against a
// server running with AUTH_MODE=jwt.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/5-07/sweeten/internal"
	"github.com/5-07/sweeten/internal/auth"
	"github.com/joho/godotenv"
)

func main() {
	id := flag.String("user", "u1", "user id (token subject)")
	name := flag.String("name", "Demo User", "display name")
	email := flag.String("email", "", "email")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	token, err := auth.IssueToken(secret, internal.User{ID: *id, Name: *name, Email: *email}, *ttl)
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}
	fmt.Println(token)
}

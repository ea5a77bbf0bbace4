// Command admin-token mints a signed admin JWT for local development and
// operational use, e.g. driving the hero-update endpoints from curl.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/emberquest/api/pkg/jwt"
)

func main() {
	var (
		keyPath = flag.String("key", "./keys/private.pem", "path to the JWT private key")
		userID  = flag.String("user", "user:admin", "user ID claim")
		email   = flag.String("email", "admin@emberquest.dev", "email claim")
		issuer  = flag.String("issuer", "api.emberquest.dev", "token issuer")
		expMins = flag.Int("exp", 60*24*7, "token lifetime in minutes")
		asJSON  = flag.Bool("json", false, "print machine-readable JSON instead of text")
	)
	flag.Parse()

	svc, err := jwt.NewService(jwt.Config{
		PrivateKeyPath: *keyPath,
		Issuer:         *issuer,
		ExpirationMins: *expMins,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating JWT service: %v\n", err)
		fmt.Fprintln(os.Stderr, "\ngenerate a key pair first: make keys-generate")
		os.Exit(1)
	}

	token, err := svc.Sign(jwt.Claims{
		Subject:  *userID,
		UserID:   *userID,
		Email:    *email,
		Username: "Admin",
		Role:     "admin",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error signing token: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]any{
			"access_token": token,
			"token_type":   "Bearer",
			"expires_in":   *expMins * 60,
			"user_id":      *userID,
			"email":        *email,
			"role":         "admin",
		})
		return
	}

	expires := time.Now().Add(time.Duration(*expMins) * time.Minute)
	fmt.Println("Admin Token Generated")
	fmt.Println("=====================")
	fmt.Printf("User ID:  %s\n", *userID)
	fmt.Printf("Email:    %s\n", *email)
	fmt.Printf("Role:     admin\n")
	fmt.Printf("Expires:  %s\n", expires.Format(time.RFC3339))
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  curl -H 'Authorization: Bearer %s' http://localhost:8080/v1/hall/heroes/user:some-id\n", token[:50]+"...")
}

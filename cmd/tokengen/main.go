// Package main mints development credentials for the ledger API: bearer
// tokens for principals and service keys for the internal surface. The
// defaults match the server's dev fallbacks and will NOT pass validation
// against a production deployment.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"doceo/internal/jwtauth"
	id "doceo/pkg/domain"
	"doceo/pkg/secrets"
)

// Matches the config fallback used when JWT_SIGNING_KEY is unset.
const devSigningKey = "dev-secret-key-change-in-production"

const (
	defaultIssuer   = "doceo"
	defaultAudience = "doceo-ledger"
	defaultTokenTTL = time.Hour
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "token":
		tokenCommand(os.Args[2:])
	case "servicekey":
		serviceKeyCommand(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		printUsage()
		fatalf("\nUnknown command: %s", os.Args[1])
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func printUsage() {
	fmt.Println(`tokengen - Generate test credentials for the ledger API

WARNING: These credentials use dev signing keys and will NOT work in
         production. Only use for local development and testing.

Usage:
  tokengen <command> [flags]

Commands:
  token       Generate a bearer token (JWT) for a principal
  servicekey  Generate a service API key and its bcrypt hash

Examples:
  # Generate a token for the default test tutor
  tokengen token

  # Generate a token for a specific principal with a custom TTL
  tokengen token -principal "platform-admin" -ttl 8h

  # Generate a service key for the internal endpoints
  tokengen servicekey

  # Output as JSON
  tokengen token -json

Use "tokengen <command> -h" for more information about a command.`)
}

type tokenOutput struct {
	Token     string            `json:"token"`
	Type      string            `json:"type"`
	ExpiresIn string            `json:"expires_in"`
	Claims    map[string]any    `json:"claims,omitempty"`
	Usage     map[string]string `json:"usage"`
}

func tokenCommand(args []string) {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	principal := fs.String("principal", "tutor-1", "Principal the token authenticates")
	signingKey := fs.String("signing-key", devSigningKey, "JWT signing key the server was started with")
	ttl := fs.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	asJSON := fs.Bool("json", false, "Output as JSON")
	fs.Parse(args)

	p, err := id.ParsePrincipal(*principal)
	if err != nil {
		fatalf("Invalid principal %q: %v", *principal, err)
	}

	svc := jwtauth.NewService(*signingKey, defaultIssuer, defaultAudience, *ttl)
	token, err := svc.GenerateToken(context.Background(), p)
	if err != nil {
		fatalf("Error generating token: %v", err)
	}

	if *asJSON {
		printJSON(tokenOutput{
			Token:     token,
			Type:      "bearer",
			ExpiresIn: ttl.String(),
			Claims: map[string]any{
				"sub": p.String(),
				"iss": defaultIssuer,
				"aud": defaultAudience,
			},
			Usage: map[string]string{
				"header": "Authorization: Bearer <token>",
			},
		})
		return
	}

	fmt.Printf(`Bearer Token (JWT)
==================
Principal:  %s
Expires In: %s

Token:
%s

Usage:
  curl -H "Authorization: Bearer <token>" http://localhost:8080/v1/...
`, p, *ttl, token)
}

type serviceKeyOutput struct {
	Key   string            `json:"key"`
	Hash  string            `json:"hash"`
	Usage map[string]string `json:"usage"`
}

func serviceKeyCommand(args []string) {
	fs := flag.NewFlagSet("servicekey", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "Output as JSON")
	fs.Parse(args)

	key, err := secrets.Generate()
	if err != nil {
		fatalf("Error generating key: %v", err)
	}
	hash, err := secrets.Hash(key)
	if err != nil {
		fatalf("Error hashing key: %v", err)
	}

	if *asJSON {
		printJSON(serviceKeyOutput{
			Key:  key,
			Hash: hash,
			Usage: map[string]string{
				"header": "X-Service-Key: <key>",
				"env":    "SERVICE_KEY_HASHES=<hash>",
			},
		})
		return
	}

	fmt.Printf(`Service API Key
===============
Key:  %s
Hash: %s

Usage:
  Start the server with the hash:
    SERVICE_KEY_HASHES="<hash>" ./server
  Call internal endpoints with the key:
    curl -H "X-Service-Key: <key>" -H "X-Service-Name: my-service" http://localhost:8080/internal/...
`, key, hash)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fatalf("Error encoding JSON: %v", err)
	}
}

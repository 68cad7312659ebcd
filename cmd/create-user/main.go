// CLI tool to add a user to the tracker document with a bcrypt-hashed password
// and default calorie settings. Writes directly to the primary store.
// Usage: go run ./cmd/create-user (from the repository root)
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const (
	collection = "appData"
	documentID = "mainData"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, os.Getenv("DB_URL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	reader := bufio.NewReader(os.Stdin)
	username := prompt(reader, "Username: ")
	password := prompt(reader, "Password: ")
	if len(username) < 3 || len(password) < 4 {
		fmt.Fprintln(os.Stderr, "Username needs at least 3 characters and password at least 4")
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error hashing password: %v\n", err)
		os.Exit(1)
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting transaction: %v\n", err)
		os.Exit(1)
	}
	defer tx.Rollback(ctx)

	// Lock the row so a concurrent server write cannot interleave.
	var body string
	err = tx.QueryRow(ctx,
		"SELECT body::text FROM app_documents WHERE collection = $1 AND id = $2 FOR UPDATE",
		collection, documentID).Scan(&body)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		fmt.Fprintf(os.Stderr, "Error reading document: %v\n", err)
		os.Exit(1)
	}

	updated, err := addUser([]byte(body), username, string(hash))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating user: %v\n", err)
		os.Exit(1)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO app_documents (collection, id, body) VALUES ($1, $2, $3::jsonb)
		 ON CONFLICT (collection, id) DO UPDATE SET body = EXCLUDED.body, updated_at = now()`,
		collection, documentID, string(updated)); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing document: %v\n", err)
		os.Exit(1)
	}
	if err := tx.Commit(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error committing: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nUser created successfully!\n")
	fmt.Printf("  Username: %s\n", username)
}

func prompt(r *bufio.Reader, label string) string {
	fmt.Print(label)
	s, _ := r.ReadString('\n')
	return strings.TrimSpace(s)
}

// addUser sets the credential for username in the raw document and gives the
// user default settings if they have no data yet. Fields it does not touch are
// kept as-is. An empty body starts a new document.
func addUser(body []byte, username, credential string) ([]byte, error) {
	doc := map[string]json.RawMessage{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
	}

	users := map[string]string{}
	if raw, ok := doc["users"]; ok {
		if err := json.Unmarshal(raw, &users); err != nil {
			return nil, fmt.Errorf("decode users: %w", err)
		}
	}
	if _, exists := users[username]; exists {
		return nil, fmt.Errorf("username %q already exists", username)
	}
	users[username] = credential

	userData := map[string]json.RawMessage{}
	if raw, ok := doc["userData"]; ok {
		if err := json.Unmarshal(raw, &userData); err != nil {
			return nil, fmt.Errorf("decode userData: %w", err)
		}
	}
	if _, ok := userData[username]; !ok {
		userData[username] = json.RawMessage(
			`{"settings":{"maintenanceCalories":2500,"targetCalories":1800},"entries":{}}`)
	}

	var err error
	if doc["users"], err = json.Marshal(users); err != nil {
		return nil, err
	}
	if doc["userData"], err = json.Marshal(userData); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

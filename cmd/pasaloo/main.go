// Command pasaloo is a small terminal client for the marketplace API. It
// maintains the same local session the web frontend keeps in browser
// storage: a bearer token, a cached profile, and per-user cart snapshots.
//
// Usage:
//
//	pasaloo login -email you@example.com -password secret
//	pasaloo me
//	pasaloo cart add -id 3 -name "Laptop" -price 999.99 -qty 2
//	pasaloo cart list
//	pasaloo logout
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/bishowshrestha9/code-fyp/internal/client"
	"github.com/bishowshrestha9/code-fyp/internal/model"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	_ = godotenv.Load()

	if len(args) == 0 {
		return fmt.Errorf("usage: pasaloo <login|me|cart|logout>")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	apiURL := os.Getenv("PASALOO_API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}

	storage, err := openStorage()
	if err != nil {
		return err
	}

	endpoints := client.NewEndpoints(apiURL)
	httpClient := &http.Client{Timeout: 15 * time.Second}
	session := client.NewSession(endpoints, storage, httpClient, logger)
	cart := client.NewCart(storage, session)

	ctx := context.Background()

	switch args[0] {
	case "login":
		return cmdLogin(ctx, endpoints, httpClient, session, args[1:])
	case "me":
		return cmdMe(ctx, session)
	case "logout":
		session.Logout(ctx)
		fmt.Println("Logged out.")
		return nil
	case "cart":
		// Cart keys follow the authenticated user, so restore the session
		// first. An offline cart still works: a failed check degrades to
		// the guest cart.
		_, _ = session.CheckAuth(ctx)
		return cmdCart(cart, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// openStorage places the session file under the user config directory,
// falling back to the working directory when none exists.
func openStorage() (client.Storage, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return client.NewFileStorage(filepath.Join(dir, "pasaloo", "session.json"))
}

func cmdLogin(ctx context.Context, endpoints client.Endpoints, httpClient *http.Client, session *client.Session, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return fmt.Errorf("login requires -email and -password")
	}

	body, err := json.Marshal(map[string]string{"email": *email, "password": *password})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoints.Login(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header = client.DefaultHeaders("")

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", client.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Message == "" {
			apiErr.Message = resp.Status
		}
		return fmt.Errorf("login failed: %s", apiErr.Message)
	}

	var result struct {
		AccessToken string        `json:"access_token"`
		User        model.Summary `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decoding login response: %w", err)
	}

	if err := session.Login(result.AccessToken, result.User); err != nil {
		return err
	}
	fmt.Printf("Logged in as %s <%s>\n", result.User.Name, result.User.Email)
	return nil
}

func cmdMe(ctx context.Context, session *client.Session) error {
	ok, err := session.CheckAuth(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("not logged in")
	}

	user := session.User()
	fmt.Printf("%s <%s> role=%s\n", user.Name, user.Email, user.Role)
	return nil
}

func cmdCart(cart *client.Cart, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: pasaloo cart <add|remove|list|count|clear>")
	}

	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("cart add", flag.ContinueOnError)
		id := fs.Int64("id", 0, "product id")
		name := fs.String("name", "", "product name")
		price := fs.Float64("price", 0, "unit price")
		storeID := fs.Int64("store", 0, "store id")
		qty := fs.Int("qty", 1, "quantity")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *id == 0 {
			return fmt.Errorf("cart add requires -id")
		}
		item := client.CartItem{ID: *id, Name: *name, Price: *price, StoreID: *storeID}
		if err := cart.Add(item, *qty); err != nil {
			return err
		}
		fmt.Printf("Added %d x %s\n", *qty, *name)
		return nil

	case "remove":
		fs := flag.NewFlagSet("cart remove", flag.ContinueOnError)
		id := fs.Int64("id", 0, "product id")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		return cart.Remove(*id)

	case "list":
		items := cart.Items()
		if len(items) == 0 {
			fmt.Println("Cart is empty.")
			return nil
		}
		total := 0.0
		for _, item := range items {
			fmt.Printf("%4d x %-30s %10.2f\n", item.Quantity, item.Name, item.Price*float64(item.Quantity))
			total += item.Price * float64(item.Quantity)
		}
		fmt.Printf("%37s %10.2f\n", "total", total)
		return nil

	case "count":
		fmt.Println(cart.Count())
		return nil

	case "clear":
		return cart.Clear()

	default:
		return fmt.Errorf("unknown cart command %q", args[0])
	}
}

// Package main is the GestiBat terminal client: an interactive shell over
// the authenticated API client and the per-resource stores.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/gestibat/gestibat/internal/api"
	"github.com/gestibat/gestibat/internal/models"
	"github.com/gestibat/gestibat/internal/session"
	"github.com/gestibat/gestibat/internal/store"
)

var (
	version   string
	buildDate string
)

// resourceCmds adapts one typed store to the untyped command surface the
// shell works with.
type resourceCmds struct {
	fetchAll   func(ctx context.Context) error
	items      func() any
	create     func(ctx context.Context, payload map[string]any) (any, error)
	createForm func(ctx context.Context, values url.Values, files []api.File) (any, error)
	update     func(ctx context.Context, id int64, payload map[string]any) (any, error)
	delete     func(ctx context.Context, id int64) error
}

func commandsFor[T models.Entity](s *store.Store[T]) *resourceCmds {
	return &resourceCmds{
		fetchAll: s.FetchAll,
		items:    func() any { return s.Items() },
		create: func(ctx context.Context, payload map[string]any) (any, error) {
			return s.Create(ctx, payload)
		},
		createForm: func(ctx context.Context, values url.Values, files []api.File) (any, error) {
			return s.CreateForm(ctx, values, files)
		},
		update: func(ctx context.Context, id int64, payload map[string]any) (any, error) {
			return s.Update(ctx, id, payload)
		},
		delete: s.Delete,
	}
}

// resourceTable maps shell names to store adapters.
func resourceTable(stores *store.Stores) map[string]*resourceCmds {
	return map[string]*resourceCmds{
		"clients":     commandsFor(stores.Clients),
		"employees":   commandsFor(stores.Employees),
		"contracts":   commandsFor(stores.Contracts),
		"chantiers":   commandsFor(stores.Chantiers),
		"assignments": commandsFor(stores.Assignments),
		"attendances": commandsFor(stores.Attendances),
		"quotes":      commandsFor(stores.Quotes),
		"po":          commandsFor(stores.PurchaseOrders),
		"invoices":    commandsFor(stores.Invoices),
		"payments":    commandsFor(stores.Payments),
	}
}

// parsePayload turns key=value arguments into a JSON-ready map. Integer
// values become numbers so foreign keys round-trip correctly.
func parsePayload(args []string) map[string]any {
	payload := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			continue
		}
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			payload[key] = n
			continue
		}
		payload[key] = value
	}
	return payload
}

// parseFormValues is parsePayload for multipart requests, where everything
// travels as strings.
func parseFormValues(args []string) url.Values {
	values := url.Values{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			continue
		}
		values.Add(key, value)
	}
	return values
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println("cannot render result:", err)
		return
	}
	fmt.Println(string(b))
}

// printError renders an API error: either its message or the per-field
// validation map.
func printError(err error) {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Kind == api.KindFields {
		fmt.Println("Validation failed:")
		for field, messages := range apiErr.Fields {
			fmt.Printf("  %s: %s\n", field, strings.Join(messages, "; "))
		}
		return
	}
	fmt.Println("Error:", err)
}

// repl runs the interactive shell loop, accepting commands to manage the
// business resources.
func repl(client *api.Client, stores *store.Stores) {
	ctx := context.Background()
	resources := resourceTable(stores)
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("gestibat> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "help":
			fmt.Println("Available commands: help, login <user> <password>, logout,")
			fmt.Println("  list <resource>, create <resource> k=v..., update <resource> <id> k=v...,")
			fmt.Println("  delete <resource> <id>, upload <resource> <field> <file> k=v..., exit")
			fmt.Println("Resources: clients, employees, contracts, chantiers, assignments,")
			fmt.Println("  attendances, quotes, po, invoices, payments")
		case "login":
			if len(args) < 3 {
				fmt.Println("Usage: login <user> <password>")
				continue
			}
			if err := client.Login(ctx, args[1], args[2]); err != nil {
				printError(err)
				continue
			}
			fmt.Println("Logged in")
		case "logout":
			if err := client.Logout(ctx); err != nil {
				printError(err)
				continue
			}
			fmt.Println("Logged out")
		case "list":
			if len(args) < 2 {
				fmt.Println("Usage: list <resource>")
				continue
			}
			res, ok := resources[args[1]]
			if !ok {
				fmt.Println("Unknown resource:", args[1])
				continue
			}
			if err := res.fetchAll(ctx); err != nil {
				printError(err)
				continue
			}
			printJSON(res.items())
		case "create":
			if len(args) < 3 {
				fmt.Println("Usage: create <resource> key=value ...")
				continue
			}
			res, ok := resources[args[1]]
			if !ok {
				fmt.Println("Unknown resource:", args[1])
				continue
			}
			created, err := res.create(ctx, parsePayload(args[2:]))
			if err != nil {
				printError(err)
				continue
			}
			printJSON(created)
		case "update":
			if len(args) < 4 {
				fmt.Println("Usage: update <resource> <id> key=value ...")
				continue
			}
			res, ok := resources[args[1]]
			if !ok {
				fmt.Println("Unknown resource:", args[1])
				continue
			}
			id, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				fmt.Println("Invalid id:", args[2])
				continue
			}
			updated, err := res.update(ctx, id, parsePayload(args[3:]))
			if err != nil {
				printError(err)
				continue
			}
			printJSON(updated)
		case "delete":
			if len(args) < 3 {
				fmt.Println("Usage: delete <resource> <id>")
				continue
			}
			res, ok := resources[args[1]]
			if !ok {
				fmt.Println("Unknown resource:", args[1])
				continue
			}
			id, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				fmt.Println("Invalid id:", args[2])
				continue
			}
			if err := res.delete(ctx, id); err != nil {
				printError(err)
				continue
			}
			fmt.Println("Deleted")
		case "upload":
			if len(args) < 4 {
				fmt.Println("Usage: upload <resource> <field> <file> key=value ...")
				continue
			}
			res, ok := resources[args[1]]
			if !ok {
				fmt.Println("Unknown resource:", args[1])
				continue
			}
			content, err := os.ReadFile(args[3])
			if err != nil {
				fmt.Println("Cannot read file:", err)
				continue
			}
			file := api.File{
				Field:       args[2],
				Name:        filepath.Base(args[3]),
				ContentType: "application/octet-stream",
				Content:     content,
			}
			created, err := res.createForm(ctx, parseFormValues(args[4:]), []api.File{file})
			if err != nil {
				printError(err)
				continue
			}
			printJSON(created)
		case "exit":
			fmt.Println("Bye")
			return
		default:
			fmt.Println("Unknown command. Type 'help' for a list of commands.")
		}
	}
}

// main parses command-line flags and starts the interactive shell.
func main() {
	var (
		baseURL string
		showVer bool
	)

	flag.StringVar(&baseURL, "url", "http://localhost:8080", "server base URL")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("GestiBat Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	sess := session.New(func(path string) {
		fmt.Println("Session expired, please log in again (" + path + ")")
	})

	client := api.New(baseURL, sess, zap.NewNop())
	stores := store.NewStores(client)

	repl(client, stores)
}

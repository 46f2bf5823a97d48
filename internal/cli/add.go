package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/onmir/booktracker/internal/domain/book"
	"github.com/onmir/booktracker/internal/entities"
	"github.com/onmir/booktracker/internal/googlebooks"
)

// AddCommand adds a book to the library, either typed in by hand or taken
// from a catalog search.
type AddCommand struct {
	store storeFlags

	Title     string
	Author    string
	PageCount int64
	Status    string

	Query   string
	Pick    int
	APIKey  string
	BaseURL string
}

func NewAddCommand() *AddCommand {
	return &AddCommand{}
}

func (cmd *AddCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	cmd.store.register(fs)

	fs.StringVar(&cmd.Title, "title", "", "Title of a book entered by hand")
	fs.StringVar(&cmd.Author, "author", "", "Author of a book entered by hand")
	fs.Int64Var(&cmd.PageCount, "pages", 0, "Page count of a book entered by hand")
	fs.StringVar(&cmd.Status, "status", "", "Reading status: TO_READ, READING or COMPLETED")
	fs.StringVar(&cmd.Query, "q", "", "Search the catalog and import a result instead")
	fs.IntVar(&cmd.Pick, "pick", 1, "Which search result to import (1-based)")
	fs.StringVar(&cmd.APIKey, "key", os.Getenv("GOOGLE_BOOKS_API_KEY"), "Google Books API key")
	fs.StringVar(&cmd.BaseURL, "base-url", googlebooks.DefaultBaseURL, "Google Books API base URL")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s add (-title <title> | -q <terms>) [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Add a book to the library.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s add -title Dune -author \"Frank Herbert\" -pages 412\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s add -q \"dune herbert\" -pick 2 -status READING\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd.Title = strings.TrimSpace(cmd.Title)
	cmd.Query = strings.TrimSpace(cmd.Query)
	if (cmd.Title == "") == (cmd.Query == "") {
		return fmt.Errorf("exactly one of -title or -q is required")
	}
	if cmd.Pick < 1 {
		return fmt.Errorf("-pick must be at least 1")
	}
	if cmd.Status != "" {
		if _, ok := entities.ParseBookStatus(cmd.Status); !ok {
			return fmt.Errorf("invalid -status %q", cmd.Status)
		}
	}

	return nil
}

func (cmd *AddCommand) Run() error {
	ctx := context.Background()

	manager, err := cmd.store.open()
	if err != nil {
		return fmt.Errorf("failed to open record store: %w", err)
	}
	defer manager.Close()

	if cmd.Query == "" {
		resp, err := book.NewCreateBook(manager).Execute(ctx, book.CreateRequest{
			Title:     cmd.Title,
			Author:    cmd.Author,
			PageCount: cmd.PageCount,
			Status:    entities.BookStatus(cmd.Status),
		})
		if err != nil {
			return err
		}
		fmt.Printf("Added %q (book %d)\n", cmd.Title, resp.BookID)
		return nil
	}

	client := googlebooks.NewClient(googlebooks.Config{BaseURL: cmd.BaseURL, APIKey: cmd.APIKey})
	results, err := client.SearchBooks(ctx, googlebooks.SearchRequest{
		Query:      cmd.Query,
		MaxResults: googlebooks.DefaultMaxResults,
	})
	if err != nil {
		return err
	}
	if cmd.Pick > len(results.Items) {
		return fmt.Errorf("search returned %d results, cannot pick %d", len(results.Items), cmd.Pick)
	}

	volume := results.Items[cmd.Pick-1]
	req := book.RequestFromVolume(volume)
	if cmd.Status != "" {
		req.Status = entities.BookStatus(cmd.Status)
	}

	resp, err := book.NewImportBook(manager).Execute(ctx, book.ImportRequest{Book: req})
	if err != nil {
		return err
	}
	if resp.Created {
		fmt.Printf("Imported %q (book %d)\n", req.Title, resp.BookID)
	} else {
		fmt.Printf("Refreshed %q (book %d)\n", req.Title, resp.BookID)
	}
	return nil
}

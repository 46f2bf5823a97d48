package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/onmir/booktracker/internal/domain/book"
	"github.com/onmir/booktracker/internal/entities"
)

// BooksCommand lists the library.
type BooksCommand struct {
	store storeFlags

	Status string
	Limit  int
}

func NewBooksCommand() *BooksCommand {
	return &BooksCommand{}
}

func (cmd *BooksCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("books", flag.ExitOnError)
	cmd.store.register(fs)

	fs.StringVar(&cmd.Status, "status", "", "Only books with this status; \"none\" for books without one")
	fs.IntVar(&cmd.Limit, "limit", 0, "Maximum number of books (0 = all)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s books [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "List books in the library.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Status != "" && cmd.Status != "none" {
		if _, ok := entities.ParseBookStatus(cmd.Status); !ok {
			return fmt.Errorf("invalid -status %q", cmd.Status)
		}
	}
	if cmd.Limit < 0 {
		return fmt.Errorf("-limit must not be negative")
	}

	return nil
}

func (cmd *BooksCommand) request() book.FetchRequest {
	req := book.FetchRequest{Limit: cmd.Limit}
	switch cmd.Status {
	case "":
	case "none":
		none := entities.BookStatus("")
		req.Status = &none
	default:
		status := entities.BookStatus(cmd.Status)
		req.Status = &status
	}
	return req
}

func (cmd *BooksCommand) Run() error {
	manager, err := cmd.store.open()
	if err != nil {
		return fmt.Errorf("failed to open record store: %w", err)
	}
	defer manager.Close()

	resp, err := book.NewFetchBooks(manager).Execute(context.Background(), cmd.request())
	if err != nil {
		return err
	}

	if len(resp.Books) == 0 {
		fmt.Println("No books found")
		return nil
	}

	for _, b := range resp.Books {
		author := b.Author
		if author == "" {
			author = "(no author)"
		}
		status := string(b.Status)
		if status == "" {
			status = "-"
		}
		fmt.Printf("%4d  %-10s %s by %s", b.ID, status, b.Title, author)
		if b.PageCount > 0 {
			fmt.Printf(" (%d pages)", b.PageCount)
		}
		fmt.Println()
	}
	fmt.Printf("\n%d books\n", len(resp.Books))
	return nil
}

package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/onmir/booktracker/internal/googlebooks"
)

// SearchCommand queries Google Books and prints the results page by page.
type SearchCommand struct {
	Query    string
	Order    string
	Pages    int
	PageSize int
	APIKey   string
	BaseURL  string
}

func NewSearchCommand() *SearchCommand {
	return &SearchCommand{}
}

func (cmd *SearchCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)

	fs.StringVar(&cmd.Query, "q", "", "Search terms (required)")
	fs.StringVar(&cmd.Order, "order", string(googlebooks.OrderByRelevance), "Result order: relevance or newest")
	fs.IntVar(&cmd.Pages, "pages", 1, "Number of pages to load")
	fs.IntVar(&cmd.PageSize, "page-size", googlebooks.DefaultMaxResults, "Results per page (1-40)")
	fs.StringVar(&cmd.APIKey, "key", os.Getenv("GOOGLE_BOOKS_API_KEY"), "Google Books API key")
	fs.StringVar(&cmd.BaseURL, "base-url", googlebooks.DefaultBaseURL, "Google Books API base URL")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s search -q <terms> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Search the Google Books catalog.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s search -q \"frank herbert dune\"\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s search -q dune -order newest -pages 3\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd.Query = strings.TrimSpace(cmd.Query)
	if cmd.Query == "" {
		return fmt.Errorf("required flag -q not provided")
	}
	if cmd.Order != string(googlebooks.OrderByRelevance) && cmd.Order != string(googlebooks.OrderByNewest) {
		return fmt.Errorf("invalid -order %q: must be relevance or newest", cmd.Order)
	}
	if cmd.Pages < 1 {
		return fmt.Errorf("-pages must be at least 1")
	}
	if cmd.PageSize < 1 || cmd.PageSize > googlebooks.MaxResultsLimit {
		return fmt.Errorf("-page-size must be between 1 and %d", googlebooks.MaxResultsLimit)
	}

	return nil
}

func (cmd *SearchCommand) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := googlebooks.NewClient(googlebooks.Config{BaseURL: cmd.BaseURL, APIKey: cmd.APIKey})
	paginator := googlebooks.NewPaginator(client, cmd.PageSize, googlebooks.OrderBy(cmd.Order))

	for page := 0; page < cmd.Pages; page++ {
		if _, err := paginator.Next(ctx, cmd.Query); err != nil {
			if googlebooks.IsCancelled(err) {
				fmt.Println("Search cancelled")
				return nil
			}
			return err
		}
		if !paginator.HasMore() {
			break
		}
	}

	volumes := paginator.Volumes()
	if len(volumes) == 0 {
		fmt.Println("No books found")
		return nil
	}

	fmt.Printf("Showing %d of %d results for %q\n\n", len(volumes), paginator.TotalItems(), cmd.Query)
	printVolumes(volumes)
	return nil
}

func printVolumes(volumes []googlebooks.Volume) {
	for i, v := range volumes {
		author := v.FirstAuthor()
		if author == "" {
			author = "(no author)"
		}
		fmt.Printf("%3d. %s by %s [%s]", i+1, v.VolumeInfo.Title, author, v.ID)
		if v.VolumeInfo.PublishedDate != "" {
			fmt.Printf(" %s", v.VolumeInfo.PublishedDate)
		}
		fmt.Println()
	}
}

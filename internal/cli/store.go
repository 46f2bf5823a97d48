package cli

import (
	"flag"
	"fmt"
	"path/filepath"

	"gorm.io/gorm/logger"

	"github.com/onmir/booktracker/internal/config"
	"github.com/onmir/booktracker/internal/database"
)

// storeFlags are shared by commands that open the record store.
type storeFlags struct {
	ContainerDir string
	DatabasePath string
}

func (f *storeFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.ContainerDir, "container", config.DefaultContainerDir, "App container directory holding the record store")
	fs.StringVar(&f.DatabasePath, "db", "", "Path to the store file (overrides -container)")
}

func (f *storeFlags) open() (*database.ContextManager, error) {
	opts := database.Options{LogLevel: logger.Silent}
	if f.DatabasePath != "" {
		abs, err := filepath.Abs(f.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for database: %w", err)
		}
		opts.Path = abs
	} else {
		abs, err := filepath.Abs(f.ContainerDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for container: %w", err)
		}
		opts.ContainerDir = abs
	}
	return database.Open(opts)
}

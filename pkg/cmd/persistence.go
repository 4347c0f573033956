// Package cmd wires shared infrastructure for the Workline binaries.
package cmd

import (
	"strings"

	"github.com/anilrana004/Workline/pkg/persistence"
	"github.com/anilrana004/Workline/pkg/persistence/file"
)

var supportedPersistenceProviders = []string{"file"}

// NewPersistence builds the persistence backend named by the database URL
// scheme. Only the file backend ships today; the scheme switch keeps the
// call sites stable when others land.
func NewPersistence(databaseURL string) persistence.Persistence {
	switch parsePersistenceProvider(databaseURL) {
	default:
		return file.NewPersistence(databaseURL)
	}
}

func parsePersistenceProvider(databaseURL string) string {
	provider, _, _ := strings.Cut(databaseURL, "://")

	for _, supported := range supportedPersistenceProviders {
		if provider == supported {
			return provider
		}
	}

	return "file"
}

package repository

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dcode-github/property_listing_search/models"
)

// LoadListingsFile reads a JSON array of listings into a memory repository.
func LoadListingsFile(path string) (*MemoryListingRepository, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	var listings []models.Listing
	if err := json.Unmarshal(raw, &listings); err != nil {
		return nil, fmt.Errorf("decoding seed file %s: %w", path, err)
	}

	repo := NewMemoryListingRepository()
	for _, l := range listings {
		if err := repo.Add(l); err != nil {
			return nil, err
		}
	}
	return repo, nil
}

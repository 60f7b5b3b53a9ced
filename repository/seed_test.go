package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dcode-github/property_listing_search/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadListingsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"id": "1", "slug": "karen-house", "title": "Karen house", "propertyType": "house", "status": "sale", "price": 42000000, "city": "Nairobi"},
		{"id": "2", "slug": "nyali-flat", "title": "Nyali flat", "propertyType": "apartment", "status": "rent", "price": 90000, "city": "Mombasa"}
	]`), 0o600))

	repo, err := LoadListingsFile(path)
	require.NoError(t, err)

	l, err := repo.FindBySlug(context.Background(), "nyali-flat")
	require.NoError(t, err)
	assert.Equal(t, models.TypeApartment, l.PropertyType)
	assert.Equal(t, int64(90000), l.Price)
}

func TestLoadListingsFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadListingsFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	dup := filepath.Join(dir, "dup.json")
	require.NoError(t, os.WriteFile(dup, []byte(`[{"id":"1","slug":"a"},{"id":"2","slug":"a"}]`), 0o600))
	_, err = LoadListingsFile(dup)
	assert.ErrorIs(t, err, models.ErrAlreadyExists)
}

package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tally/internal/core/entity"
)

type mockCatalog struct {
	entity.Catalog
	Symbol *string `db:"symbol" json:"symbol"`
	Places int     `db:"places" json:"places"`
	Loaded string  `db:"-" json:"-"`
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[mockCatalog]()

	expectedCols := []string{
		"id", "version", "code", "name", "active", "symbol", "places",
	}

	for _, expected := range expectedCols {
		assert.Contains(t, cols, expected)
	}
	assert.NotContains(t, cols, "-")
	assert.Len(t, cols, len(expectedCols))
}

func TestStructToMap(t *testing.T) {
	sym := "€"
	cat := mockCatalog{
		Catalog: entity.NewCatalog("EUR", "Euro"),
		Symbol:  &sym,
		Places:  2,
		Loaded:  "not persisted",
	}
	cat.ID = 7
	cat.Version = 5

	m := StructToMap(cat)

	assert.Equal(t, int64(7), m["id"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, "EUR", m["code"])
	assert.Equal(t, "Euro", m["name"])
	assert.Equal(t, true, m["active"])
	assert.Equal(t, &sym, m["symbol"])
	assert.Equal(t, 2, m["places"])
	assert.NotContains(t, m, "-")
}

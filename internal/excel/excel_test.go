package excel

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndReadRows(t *testing.T) {
	data, err := WriteSheet("Dati",
		[]string{"Nome", "Cognome", "Email"},
		[][]string{
			{"Mario", "Rossi", "mario@test.it"},
			{"Anna", "Verdi", ""},
		})
	require.NoError(t, err)

	rows, err := ReadRows(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Mario", rows[0]["Nome"])
	assert.Equal(t, "Rossi", rows[0]["Cognome"])
	assert.Equal(t, "", rows[1]["Email"])
}

func TestFieldAliasLookup(t *testing.T) {
	row := Row{"Codice Fiscale": "RSSMRA80A01H501U", "nome": "Mario"}

	// exact match wins
	assert.Equal(t, "RSSMRA80A01H501U", row.Field("Codice Fiscale"))
	// case-insensitive fallback
	assert.Equal(t, "Mario", row.Field("Nome"))
	// first non-empty alias
	assert.Equal(t, "RSSMRA80A01H501U", row.Field("CF", "Codice Fiscale"))
	assert.Equal(t, "", row.Field("Telefono"))
}

func TestReadRowsHeaderOnly(t *testing.T) {
	data, err := WriteSheet("Dati", []string{"Nome"}, nil)
	require.NoError(t, err)

	rows, err := ReadRows(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadRowsInvalidFile(t *testing.T) {
	_, err := ReadRows(bytes.NewReader([]byte("not an xlsx")))
	assert.Error(t, err)
}

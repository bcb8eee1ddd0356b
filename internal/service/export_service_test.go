package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"backend/internal/excel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportClientiCSV(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	pv := createPuntoVendita(t, db, "pv@test.it")
	agente1 := createAgente(t, db, "a1@test.it", pv.ID)
	agente2 := createAgente(t, db, "a2@test.it", pv.ID)
	createCliente(t, db, agente1.ID, "RSSMRA80A01H501U")
	createCliente(t, db, agente2.ID, "VRDNNA85B41H501X")

	svc := NewExportService(db)

	file, err := svc.Clienti(ctx, asCaller(agente1), "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Regexp(t, `^clienti_\d{4}-\d{2}-\d{2}\.csv$`, file.FileName)

	records, err := csv.NewReader(bytes.NewReader(file.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2) // header + the caller's single cliente
	assert.Equal(t, []string{"ID", "Nome", "Cognome", "Email", "Telefono", "Azienda", "Stato", "Data Registrazione"}, records[0])
	assert.Equal(t, "Rossi", records[1][2])
}

func TestExportClientiXLSX(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	pv := createPuntoVendita(t, db, "pv@test.it")
	agente := createAgente(t, db, "a1@test.it", pv.ID)
	createCliente(t, db, agente.ID, "RSSMRA80A01H501U")

	svc := NewExportService(db)

	file, err := svc.Clienti(ctx, asCaller(pv), "xlsx")
	require.NoError(t, err)
	assert.Regexp(t, `\.xlsx$`, file.FileName)

	rows, err := excel.ReadRows(bytes.NewReader(file.Data))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Mario", rows[0].Field("Nome"))
	assert.NotEmpty(t, rows[0].Field("ID"))
}

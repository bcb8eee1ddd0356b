package service

import (
	"context"
	"testing"

	"backend/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	pv := createPuntoVendita(t, db, "pv@test.it")
	agente1 := createAgente(t, db, "a1@test.it", pv.ID)
	agente2 := createAgente(t, db, "a2@test.it", pv.ID)
	inactive := createAgente(t, db, "a3@test.it", pv.ID)
	require.NoError(t, db.Model(inactive).Update("attivo", false).Error)

	c1 := createCliente(t, db, agente1.ID, "RSSMRA80A01H501U")
	createCliente(t, db, agente2.ID, "VRDNNA85B41H501X")
	createCliente(t, db, pv.ID, "BNCLCU70C01H501Y") // owned directly by the punto vendita

	require.NoError(t, db.Create(&model.Contratto{
		Numero: "CTR-001", ClienteID: c1.ID, AgenteID: agente1.ID,
		Tipo: "luce", Importo: decimal.NewFromInt(30), Stato: model.ContrattoAttivo,
	}).Error)
	require.NoError(t, db.Create(&model.Contratto{
		Numero: "CTR-002", ClienteID: c1.ID, AgenteID: agente1.ID,
		Tipo: "gas", Importo: decimal.NewFromInt(40), Stato: model.ContrattoScaduto,
	}).Error)

	svc := NewDashboardService(db)

	stats, err := svc.Stats(ctx, asCaller(pv))
	require.NoError(t, err)
	require.NotNil(t, stats.Agenti)
	assert.EqualValues(t, 2, *stats.Agenti) // inactive excluded
	assert.EqualValues(t, 3, stats.Clienti)
	assert.EqualValues(t, 1, stats.Contratti) // only attivo
	assert.Equal(t, "0", stats.Fatturato)

	stats, err = svc.Stats(ctx, asCaller(agente1))
	require.NoError(t, err)
	assert.Nil(t, stats.Agenti)
	assert.EqualValues(t, 1, stats.Clienti)
	assert.EqualValues(t, 1, stats.Contratti)
}

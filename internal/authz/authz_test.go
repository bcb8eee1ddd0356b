package authz

import (
	"context"
	"path/filepath"
	"testing"

	"backend/internal/database"
	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewConnection(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email, ruolo string, puntoVenditaID *uuid.UUID) *model.User {
	t.Helper()
	u := &model.User{
		Email:          email,
		Password:       "x",
		Ruolo:          ruolo,
		PuntoVenditaID: puntoVenditaID,
		Attivo:         true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func TestCanAccess(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	pv := seedUser(t, db, "pv@test.it", model.RuoloPuntoVendita, nil)
	otherPv := seedUser(t, db, "pv2@test.it", model.RuoloPuntoVendita, nil)
	agente := seedUser(t, db, "a1@test.it", model.RuoloAgente, &pv.ID)
	sibling := seedUser(t, db, "a2@test.it", model.RuoloAgente, &pv.ID)
	foreign := seedUser(t, db, "a3@test.it", model.RuoloAgente, &otherPv.ID)

	cases := []struct {
		name   string
		caller *model.User
		owner  uuid.UUID
		want   bool
	}{
		{"agente owns its rows", agente, agente.ID, true},
		{"agente cannot see a sibling's rows", agente, sibling.ID, false},
		{"agente cannot see its punto vendita's own rows", agente, pv.ID, false},
		{"punto vendita sees its own rows", pv, pv.ID, true},
		{"punto vendita sees its agenti's rows", pv, agente.ID, true},
		{"punto vendita cannot see a foreign agente", pv, foreign.ID, false},
		{"punto vendita cannot see another punto vendita", pv, otherPv.ID, false},
		{"owner id that does not exist", pv, uuid.New(), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CanAccess(ctx, db, CallerFrom(tc.caller), tc.owner)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

// OwnershipScope must select exactly the rows CanAccess would admit.
func TestOwnershipScopeMatchesCanAccess(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	pv := seedUser(t, db, "pv@test.it", model.RuoloPuntoVendita, nil)
	otherPv := seedUser(t, db, "pv2@test.it", model.RuoloPuntoVendita, nil)
	agente := seedUser(t, db, "a1@test.it", model.RuoloAgente, &pv.ID)
	sibling := seedUser(t, db, "a2@test.it", model.RuoloAgente, &pv.ID)
	foreign := seedUser(t, db, "a3@test.it", model.RuoloAgente, &otherPv.ID)

	owners := []*model.User{pv, agente, sibling, foreign}
	for i, owner := range owners {
		c := &model.Cliente{
			AgenteID:      owner.ID,
			Nome:          "Mario",
			Cognome:       "Rossi",
			CodiceFiscale: uuid.NewString()[:16],
		}
		require.NoError(t, db.Create(c).Error, i)
	}

	for _, who := range owners {
		caller := CallerFrom(who)

		var scoped []model.Cliente
		require.NoError(t, db.Scopes(OwnershipScope(caller, "agente_id")).Find(&scoped).Error)

		var all []model.Cliente
		require.NoError(t, db.Find(&all).Error)

		admitted := map[uuid.UUID]bool{}
		for _, c := range all {
			ok, err := CanAccess(ctx, db, caller, c.AgenteID)
			require.NoError(t, err)
			admitted[c.ID] = ok
		}

		assert.Len(t, scoped, countTrue(admitted), who.Email)
		for _, c := range scoped {
			assert.True(t, admitted[c.ID], "scope returned a row CanAccess denies for %s", who.Email)
		}
	}
}

func countTrue(m map[uuid.UUID]bool) int {
	n := 0
	for _, v := range m {
		if v {
			n++
		}
	}
	return n
}

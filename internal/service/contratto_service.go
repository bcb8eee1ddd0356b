package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"backend/internal/apperr"
	"backend/internal/authz"
	"backend/internal/excel"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ContrattoInput carries the (form-data) fields of a create/update call.
type ContrattoInput struct {
	Numero       string
	ClienteID    uuid.UUID
	Tipo         string
	TipoCliente  string
	DataInizio   time.Time
	DataScadenza time.Time
	Importo      decimal.Decimal
	Stato        string
	Note         string
}

// ContrattoService defines the business logic around contracts.
type ContrattoService interface {
	List(ctx context.Context, caller authz.Caller, offset, limit int) ([]repository.ContrattoWithCliente, int64, error)
	Get(ctx context.Context, caller authz.Caller, id uuid.UUID) (*model.Contratto, error)
	Create(ctx context.Context, caller authz.Caller, input ContrattoInput) (*model.Contratto, error)
	Update(ctx context.Context, caller authz.Caller, id uuid.UUID, input ContrattoInput) (*model.Contratto, error)
	Delete(ctx context.Context, caller authz.Caller, id uuid.UUID) error
	Import(ctx context.Context, caller authz.Caller, file io.Reader) (*ImportResult, error)
}

type contrattoService struct {
	db      *gorm.DB
	repo    repository.ContrattoRepository
	clienti repository.ClienteRepository
}

func NewContrattoService(db *gorm.DB, repo repository.ContrattoRepository, clienti repository.ClienteRepository) ContrattoService {
	return &contrattoService{db: db, repo: repo, clienti: clienti}
}

func (s *contrattoService) List(ctx context.Context, caller authz.Caller, offset, limit int) ([]repository.ContrattoWithCliente, int64, error) {
	rows, total, err := s.repo.List(ctx, caller, offset, limit)
	if err != nil {
		return nil, 0, apperr.Wrap(err, "Errore del server")
	}
	return rows, total, nil
}

func (s *contrattoService) getOwned(ctx context.Context, caller authz.Caller, id uuid.UUID) (*model.Contratto, error) {
	contratto, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "Contratto non trovato")
		}
		return nil, apperr.Wrap(err, "Errore del server")
	}
	ok, err := authz.CanAccess(ctx, s.db, caller, contratto.AgenteID)
	if err != nil {
		return nil, apperr.Wrap(err, "Errore del server")
	}
	if !ok {
		return nil, apperr.New(apperr.NotFound, "Contratto non trovato")
	}
	return contratto, nil
}

func (s *contrattoService) Get(ctx context.Context, caller authz.Caller, id uuid.UUID) (*model.Contratto, error) {
	return s.getOwned(ctx, caller, id)
}

func validateContratto(input ContrattoInput) error {
	if input.Numero == "" || input.ClienteID == uuid.Nil || input.Tipo == "" ||
		input.DataInizio.IsZero() || input.DataScadenza.IsZero() {
		return apperr.New(apperr.Validation, "Tutti i campi obbligatori devono essere compilati")
	}
	return nil
}

// resolveOwner authorizes the parent cliente and returns the agente the new
// contratto is stamped with: always the cliente's current owner.
func (s *contrattoService) resolveOwner(ctx context.Context, caller authz.Caller, clienteID uuid.UUID) (uuid.UUID, error) {
	cliente, err := s.clienti.GetByID(ctx, clienteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, apperr.New(apperr.NotFound, "Cliente non trovato")
		}
		return uuid.Nil, apperr.Wrap(err, "Errore del server")
	}
	ok, err := authz.CanAccess(ctx, s.db, caller, cliente.AgenteID)
	if err != nil {
		return uuid.Nil, apperr.Wrap(err, "Errore del server")
	}
	if !ok {
		return uuid.Nil, apperr.New(apperr.NotFound, "Cliente non trovato")
	}
	return cliente.AgenteID, nil
}

func (s *contrattoService) Create(ctx context.Context, caller authz.Caller, input ContrattoInput) (*model.Contratto, error) {
	if err := validateContratto(input); err != nil {
		return nil, err
	}
	agenteID, err := s.resolveOwner(ctx, caller, input.ClienteID)
	if err != nil {
		return nil, err
	}

	stato := input.Stato
	if stato == "" {
		stato = model.ContrattoAttivo
	}
	contratto := &model.Contratto{
		Numero:       input.Numero,
		ClienteID:    input.ClienteID,
		AgenteID:     agenteID,
		Tipo:         input.Tipo,
		TipoCliente:  input.TipoCliente,
		DataInizio:   input.DataInizio,
		DataScadenza: input.DataScadenza,
		Importo:      input.Importo,
		Stato:        stato,
		Note:         input.Note,
	}
	if err := s.repo.Create(ctx, contratto); err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.New(apperr.Validation, "Numero contratto già esistente")
		}
		return nil, apperr.Wrap(err, "Errore del server")
	}
	return contratto, nil
}

func (s *contrattoService) Update(ctx context.Context, caller authz.Caller, id uuid.UUID, input ContrattoInput) (*model.Contratto, error) {
	contratto, err := s.getOwned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := validateContratto(input); err != nil {
		return nil, err
	}
	if input.ClienteID != contratto.ClienteID {
		return nil, apperr.New(apperr.Validation, "Il cliente di un contratto non può essere modificato")
	}

	contratto.Numero = input.Numero
	contratto.Tipo = input.Tipo
	contratto.TipoCliente = input.TipoCliente
	contratto.DataInizio = input.DataInizio
	contratto.DataScadenza = input.DataScadenza
	contratto.Importo = input.Importo
	if input.Stato != "" {
		contratto.Stato = input.Stato
	}
	contratto.Note = input.Note

	if err := s.repo.Update(ctx, contratto); err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.New(apperr.Validation, "Numero contratto già esistente")
		}
		return nil, apperr.Wrap(err, "Errore del server")
	}
	return contratto, nil
}

func (s *contrattoService) Delete(ctx context.Context, caller authz.Caller, id uuid.UUID) error {
	if _, err := s.getOwned(ctx, caller, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperr.Wrap(err, "Errore del server")
	}
	return nil
}

// Import loads contratti from an xlsx sheet. Rows reference the cliente by
// id; each row re-checks ownership so a sheet cannot smuggle in contracts
// for somebody else's clients.
func (s *contrattoService) Import(ctx context.Context, caller authz.Caller, file io.Reader) (*ImportResult, error) {
	rows, err := excel.ReadRows(file)
	if err != nil {
		return nil, apperr.New(apperr.Validation, "File Excel non valido")
	}
	if len(rows) == 0 {
		return nil, apperr.New(apperr.Validation, "Il file Excel è vuoto")
	}

	result := &ImportResult{TotalRows: len(rows)}
	for i, row := range rows {
		rowNumber := i + 2

		numero := row.Field("Numero", "Numero Contratto")
		clienteRaw := row.Field("Cliente ID", "cliente_id", "ClienteId")
		tipo := row.Field("Tipo", "Tipo Contratto")
		dataInizioRaw := row.Field("Data Inizio", "data_inizio", "DataInizio")
		dataScadenzaRaw := row.Field("Data Scadenza", "data_scadenza", "DataScadenza")
		importoRaw := row.Field("Importo", "Importo Mensile")

		if numero == "" || clienteRaw == "" || tipo == "" || dataInizioRaw == "" || dataScadenzaRaw == "" || importoRaw == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("Riga %d: Campi obbligatori mancanti", rowNumber))
			continue
		}

		clienteID, err := uuid.Parse(clienteRaw)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Riga %d: Cliente ID non valido (%s)", rowNumber, clienteRaw))
			continue
		}
		importo, err := decimal.NewFromString(importoRaw)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Riga %d: Importo non valido (%s)", rowNumber, importoRaw))
			continue
		}
		dataInizio, err := parseImportDate(dataInizioRaw)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Riga %d: Data Inizio non valida (%s)", rowNumber, dataInizioRaw))
			continue
		}
		dataScadenza, err := parseImportDate(dataScadenzaRaw)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Riga %d: Data Scadenza non valida (%s)", rowNumber, dataScadenzaRaw))
			continue
		}

		_, err = s.Create(ctx, caller, ContrattoInput{
			Numero:       numero,
			ClienteID:    clienteID,
			Tipo:         tipo,
			TipoCliente:  row.Field("Tipo Cliente", "tipo_cliente"),
			DataInizio:   dataInizio,
			DataScadenza: dataScadenza,
			Importo:      importo,
			Stato:        row.Field("Stato"),
			Note:         row.Field("Note"),
		})
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Riga %d: %s", rowNumber, apperr.From(err).Message))
			continue
		}
		result.Imported++
	}
	return result, nil
}

var importDateLayouts = []string{"2006-01-02", "02/01/2006", "01-02-06"}

func parseImportDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range importDateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

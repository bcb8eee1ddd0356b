package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"backend/internal/apperr"
	"backend/internal/authz"
	"backend/internal/excel"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reassignment error codes, stable across API versions.
const (
	CodeForbiddenRole      = "FORBIDDEN_ROLE"
	CodeNotOwner           = "NOT_OWNER"
	CodeTargetNotFound     = "TARGET_NOT_FOUND"
	CodeTargetInactive     = "TARGET_INACTIVE"
	CodeCrossTenantDenied  = "CROSS_TENANT_DENIED"
	CodeSelfReassignDenied = "SELF_REASSIGN_DENIED"
)

// ClienteInput carries the (form-data) fields of a create/update call.
type ClienteInput struct {
	RagioneSociale     string
	Nome               string
	Cognome            string
	CodiceFiscale      string
	PIVA               string
	PEC                string
	CodiceDestinatario string
	NomePersonaFisica  string
	Email              string
	Cellulare          string
	CodiceAteco        string
	ModalitaPagamento  string
	IndirizzoResidenza string
	IBAN               string
	Stato              string
}

type ReferenteInput struct {
	Nome      string `json:"nome" binding:"required"`
	Cognome   string `json:"cognome" binding:"required"`
	Cellulare string `json:"cellulare"`
}

type FornituraInput struct {
	PodPdr             string  `json:"podPdr"`
	IndirizzoFornitura string  `json:"indirizzoFornitura"`
	ConsumoAnnuale     float64 `json:"consumoAnnuale"`
	TipologiaContratto string  `json:"tipologiaContratto"`
	Stato              string  `json:"stato"`
}

// ImportResult reports a partial-success bulk import: every input row is
// accounted for either in Imported or in Errors.
type ImportResult struct {
	Imported  int      `json:"imported"`
	TotalRows int      `json:"totalRows"`
	Errors    []string `json:"errors,omitempty"`
}

// ClienteService defines the business logic around clienti and their child
// records. Every operation authorizes through the shared authz predicate.
type ClienteService interface {
	List(ctx context.Context, caller authz.Caller, search string, offset, limit int) ([]model.Cliente, int64, error)
	Get(ctx context.Context, caller authz.Caller, id uuid.UUID) (*model.Cliente, error)
	Create(ctx context.Context, caller authz.Caller, input ClienteInput) (*model.Cliente, error)
	Update(ctx context.Context, caller authz.Caller, id uuid.UUID, input ClienteInput) (*model.Cliente, error)
	Delete(ctx context.Context, caller authz.Caller, id uuid.UUID) error
	Reassign(ctx context.Context, caller authz.Caller, clienteID, nuovoAgenteID uuid.UUID) error
	Import(ctx context.Context, caller authz.Caller, file io.Reader) (*ImportResult, error)

	ListReferenti(ctx context.Context, caller authz.Caller, clienteID uuid.UUID) ([]model.Referente, error)
	CreateReferente(ctx context.Context, caller authz.Caller, clienteID uuid.UUID, input ReferenteInput) (*model.Referente, error)
	UpdateReferente(ctx context.Context, caller authz.Caller, clienteID, referenteID uuid.UUID, input ReferenteInput) (*model.Referente, error)
	DeleteReferente(ctx context.Context, caller authz.Caller, clienteID, referenteID uuid.UUID) error

	ListForniture(ctx context.Context, caller authz.Caller, clienteID uuid.UUID) ([]model.Fornitura, error)
	CreateFornitura(ctx context.Context, caller authz.Caller, clienteID uuid.UUID, input FornituraInput) (*model.Fornitura, error)
	UpdateFornitura(ctx context.Context, caller authz.Caller, clienteID, fornituraID uuid.UUID, input FornituraInput) (*model.Fornitura, error)
	DeleteFornitura(ctx context.Context, caller authz.Caller, clienteID, fornituraID uuid.UUID) error
}

// ReassignListener is notified after a successful reassignment commit.
type ReassignListener func(cliente *model.Cliente, nuovoAgenteID uuid.UUID)

type clienteService struct {
	db         *gorm.DB
	repo       repository.ClienteRepository
	contratti  repository.ContrattoRepository
	fatture    repository.FatturaRepository
	documenti  DocumentoService
	users      repository.UserRepository
	txManager  repository.TransactionManager
	onReassign ReassignListener
}

func NewClienteService(
	db *gorm.DB,
	repo repository.ClienteRepository,
	contratti repository.ContrattoRepository,
	fatture repository.FatturaRepository,
	documenti DocumentoService,
	users repository.UserRepository,
	txManager repository.TransactionManager,
	onReassign ReassignListener,
) ClienteService {
	return &clienteService{
		db:         db,
		repo:       repo,
		contratti:  contratti,
		fatture:    fatture,
		documenti:  documenti,
		users:      users,
		txManager:  txManager,
		onReassign: onReassign,
	}
}

// getOwned fetches a cliente and verifies the caller may access it. A row
// outside the caller's scope is reported as not found, indistinguishable
// from an absent row.
func (s *clienteService) getOwned(ctx context.Context, caller authz.Caller, id uuid.UUID) (*model.Cliente, error) {
	cliente, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "Cliente non trovato")
		}
		return nil, apperr.Wrap(err, "Errore del server")
	}
	ok, err := authz.CanAccess(ctx, s.db, caller, cliente.AgenteID)
	if err != nil {
		return nil, apperr.Wrap(err, "Errore del server")
	}
	if !ok {
		return nil, apperr.New(apperr.NotFound, "Cliente non trovato")
	}
	return cliente, nil
}

func (s *clienteService) List(ctx context.Context, caller authz.Caller, search string, offset, limit int) ([]model.Cliente, int64, error) {
	clienti, total, err := s.repo.List(ctx, caller, search, offset, limit)
	if err != nil {
		return nil, 0, apperr.Wrap(err, "Errore del server")
	}
	return clienti, total, nil
}

// Get returns the detail view: the cliente with its referenti and forniture
// embedded.
func (s *clienteService) Get(ctx context.Context, caller authz.Caller, id uuid.UUID) (*model.Cliente, error) {
	if _, err := s.getOwned(ctx, caller, id); err != nil {
		return nil, err
	}
	cliente, err := s.repo.GetByIDWithChildren(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, "Errore del server")
	}
	return cliente, nil
}

func applyInput(c *model.Cliente, input ClienteInput) {
	c.RagioneSociale = input.RagioneSociale
	if c.RagioneSociale == "" {
		// domestic clients often have no company name
		c.RagioneSociale = input.Nome + " " + input.Cognome
	}
	c.Nome = input.Nome
	c.Cognome = input.Cognome
	c.CodiceFiscale = input.CodiceFiscale
	c.PIVA = input.PIVA
	c.PEC = input.PEC
	c.CodiceDestinatario = input.CodiceDestinatario
	c.NomePersonaFisica = input.NomePersonaFisica
	c.Email = input.Email
	c.Cellulare = input.Cellulare
	c.CodiceAteco = input.CodiceAteco
	c.ModalitaPagamento = input.ModalitaPagamento
	c.IndirizzoResidenza = strings.TrimSpace(input.IndirizzoResidenza)
	c.IBAN = strings.TrimSpace(input.IBAN)
	c.Stato = input.Stato
	if c.Stato == "" {
		c.Stato = model.ClienteAttivo
	}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint")
}

func (s *clienteService) Create(ctx context.Context, caller authz.Caller, input ClienteInput) (*model.Cliente, error) {
	if input.Nome == "" || input.Cognome == "" || input.CodiceFiscale == "" {
		return nil, apperr.New(apperr.Validation, "Nome, Cognome e Codice Fiscale sono obbligatori")
	}

	cliente := &model.Cliente{AgenteID: caller.ID}
	applyInput(cliente, input)

	if err := s.repo.Create(ctx, cliente); err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.New(apperr.Validation, "Cliente già esistente (CF o email duplicati)")
		}
		return nil, apperr.Wrap(err, "Errore del server")
	}
	return cliente, nil
}

func (s *clienteService) Update(ctx context.Context, caller authz.Caller, id uuid.UUID, input ClienteInput) (*model.Cliente, error) {
	cliente, err := s.getOwned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if input.Nome == "" || input.Cognome == "" || input.CodiceFiscale == "" {
		return nil, apperr.New(apperr.Validation, "Nome, Cognome e Codice Fiscale sono obbligatori")
	}

	applyInput(cliente, input)
	if err := s.repo.Update(ctx, cliente); err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.New(apperr.Validation, "Cliente già esistente (CF o email duplicati)")
		}
		return nil, apperr.Wrap(err, "Errore del server")
	}
	return cliente, nil
}

// Delete removes a cliente with its child records and documents. A cliente
// with contracts cannot be deleted. Stored blobs are removed before the
// database rows.
func (s *clienteService) Delete(ctx context.Context, caller authz.Caller, id uuid.UUID) error {
	cliente, err := s.getOwned(ctx, caller, id)
	if err != nil {
		return err
	}

	contratti, err := s.repo.CountContratti(ctx, cliente.ID)
	if err != nil {
		return apperr.Wrap(err, "Errore del server")
	}
	if contratti > 0 {
		return apperr.New(apperr.Validation, "Impossibile eliminare il cliente: esistono contratti collegati")
	}

	if err := s.documenti.DeleteByCliente(ctx, cliente.ID); err != nil {
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, cliente.ID); err != nil {
			return apperr.Wrap(err, "Errore del server")
		}
		return nil
	})
}

// Reassign transfers a cliente and all its contratti and fatture to another
// agente of the same punto vendita, atomically. Preconditions are evaluated
// in a fixed order; the first violated one determines the error.
func (s *clienteService) Reassign(ctx context.Context, caller authz.Caller, clienteID, nuovoAgenteID uuid.UUID) error {
	// 1. only agenti reassign their own clients
	if caller.Ruolo != model.RuoloAgente {
		return apperr.WithCode(apperr.Forbidden, CodeForbiddenRole, "Solo gli agenti possono riassegnare clienti")
	}

	cliente, err := s.repo.GetByID(ctx, clienteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.NotFound, "Cliente non trovato")
		}
		return apperr.Wrap(err, "Errore del server")
	}

	// 2. the caller must currently own the cliente
	if cliente.AgenteID != caller.ID {
		return apperr.WithCode(apperr.Forbidden, CodeNotOwner, "Non autorizzato: questo cliente non ti appartiene")
	}

	// 3. the target must exist and be an agente
	target, err := s.users.GetByID(ctx, nuovoAgenteID)
	if err != nil || target.Ruolo != model.RuoloAgente {
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Wrap(err, "Errore del server")
		}
		return apperr.WithCode(apperr.NotFound, CodeTargetNotFound, "Nuovo agente non trovato o non valido")
	}

	// 4. the target must be active
	if !target.Attivo {
		return apperr.WithCode(apperr.Validation, CodeTargetInactive, "Il nuovo agente non è attivo")
	}

	// 5. same punto vendita
	if caller.PuntoVenditaID == nil || target.PuntoVenditaID == nil || *target.PuntoVenditaID != *caller.PuntoVenditaID {
		return apperr.WithCode(apperr.Validation, CodeCrossTenantDenied, "Il nuovo agente deve appartenere allo stesso punto vendita")
	}

	// 6. no self-reassignment
	if nuovoAgenteID == caller.ID {
		return apperr.WithCode(apperr.Validation, CodeSelfReassignDenied, "Non puoi riassegnare il cliente a te stesso")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.UpdateAgente(txCtx, clienteID, nuovoAgenteID); err != nil {
			return err
		}
		if err := s.contratti.UpdateAgenteByCliente(txCtx, clienteID, nuovoAgenteID); err != nil {
			return err
		}
		return s.fatture.UpdateAgenteByCliente(txCtx, clienteID, nuovoAgenteID)
	})
	if err != nil {
		return apperr.Wrap(err, "Errore del server")
	}

	if s.onReassign != nil {
		s.onReassign(cliente, nuovoAgenteID)
	}
	return nil
}

// Import loads clienti from an xlsx sheet. Rows are independent: a failed
// row becomes an error entry and the rest continue.
func (s *clienteService) Import(ctx context.Context, caller authz.Caller, file io.Reader) (*ImportResult, error) {
	rows, err := excel.ReadRows(file)
	if err != nil {
		return nil, apperr.New(apperr.Validation, "File Excel non valido")
	}
	if len(rows) == 0 {
		return nil, apperr.New(apperr.Validation, "Il file Excel è vuoto o non contiene dati")
	}

	result := &ImportResult{TotalRows: len(rows)}
	for i, row := range rows {
		rowNumber := i + 2 // header is row 1

		nome := row.Field("Nome", "Name")
		cognome := row.Field("Cognome", "Surname", "Last Name", "lastname")
		codiceFiscale := row.Field("Codice Fiscale", "codice_fiscale", "CF", "CodiceFiscale")
		if nome == "" || cognome == "" || codiceFiscale == "" {
			var missing []string
			if nome == "" {
				missing = append(missing, "Nome")
			}
			if cognome == "" {
				missing = append(missing, "Cognome")
			}
			if codiceFiscale == "" {
				missing = append(missing, "Codice Fiscale")
			}
			result.Errors = append(result.Errors, fmt.Sprintf(
				"Riga %d: Campi obbligatori mancanti: %s. Colonne trovate: %s",
				rowNumber, strings.Join(missing, ", "), strings.Join(row.Columns(), ", ")))
			continue
		}

		cliente := &model.Cliente{AgenteID: caller.ID}
		applyInput(cliente, ClienteInput{
			Nome:              nome,
			Cognome:           cognome,
			CodiceFiscale:     codiceFiscale,
			Email:             row.Field("Email", "E-mail"),
			Cellulare:         row.Field("Cellulare", "Telefono", "Phone", "Mobile"),
			RagioneSociale:    row.Field("Ragione Sociale", "ragione_sociale", "Company", "Azienda"),
			PIVA:              row.Field("P.IVA", "PIVA", "Partita IVA", "partita_iva", "VAT"),
			PEC:               row.Field("PEC"),
			CodiceAteco:       row.Field("Codice ATECO", "codice_ateco", "ATECO"),
			ModalitaPagamento: row.Field("Modalità Pagamento", "modalita_pagamento", "Payment"),
			Stato:             row.Field("Stato", "Status"),
		})

		if err := s.repo.Create(ctx, cliente); err != nil {
			if isUniqueViolation(err) {
				result.Errors = append(result.Errors, fmt.Sprintf(
					"Riga %d: Cliente già esistente (%s %s - CF: %s)", rowNumber, nome, cognome, codiceFiscale))
			} else {
				result.Errors = append(result.Errors, fmt.Sprintf("Riga %d: Errore database - %v", rowNumber, err))
				log.Printf("import clienti: row %d failed: %v", rowNumber, err)
			}
			continue
		}
		result.Imported++
	}
	return result, nil
}

func (s *clienteService) ListReferenti(ctx context.Context, caller authz.Caller, clienteID uuid.UUID) ([]model.Referente, error) {
	if _, err := s.getOwned(ctx, caller, clienteID); err != nil {
		return nil, err
	}
	refs, err := s.repo.ListReferenti(ctx, clienteID)
	if err != nil {
		return nil, apperr.Wrap(err, "Errore del server")
	}
	return refs, nil
}

func (s *clienteService) CreateReferente(ctx context.Context, caller authz.Caller, clienteID uuid.UUID, input ReferenteInput) (*model.Referente, error) {
	if _, err := s.getOwned(ctx, caller, clienteID); err != nil {
		return nil, err
	}
	ref := &model.Referente{
		ClienteID: clienteID,
		Nome:      input.Nome,
		Cognome:   input.Cognome,
		Cellulare: input.Cellulare,
	}
	if err := s.repo.CreateReferente(ctx, ref); err != nil {
		return nil, apperr.Wrap(err, "Errore del server")
	}
	return ref, nil
}

func (s *clienteService) UpdateReferente(ctx context.Context, caller authz.Caller, clienteID, referenteID uuid.UUID, input ReferenteInput) (*model.Referente, error) {
	if _, err := s.getOwned(ctx, caller, clienteID); err != nil {
		return nil, err
	}
	ref, err := s.repo.GetReferente(ctx, clienteID, referenteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "Referente non trovato")
		}
		return nil, apperr.Wrap(err, "Errore del server")
	}
	ref.Nome = input.Nome
	ref.Cognome = input.Cognome
	ref.Cellulare = input.Cellulare
	if err := s.repo.UpdateReferente(ctx, ref); err != nil {
		return nil, apperr.Wrap(err, "Errore del server")
	}
	return ref, nil
}

func (s *clienteService) DeleteReferente(ctx context.Context, caller authz.Caller, clienteID, referenteID uuid.UUID) error {
	if _, err := s.getOwned(ctx, caller, clienteID); err != nil {
		return err
	}
	if _, err := s.repo.GetReferente(ctx, clienteID, referenteID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.NotFound, "Referente non trovato")
		}
		return apperr.Wrap(err, "Errore del server")
	}
	if err := s.repo.DeleteReferente(ctx, clienteID, referenteID); err != nil {
		return apperr.Wrap(err, "Errore del server")
	}
	return nil
}

func (s *clienteService) ListForniture(ctx context.Context, caller authz.Caller, clienteID uuid.UUID) ([]model.Fornitura, error) {
	if _, err := s.getOwned(ctx, caller, clienteID); err != nil {
		return nil, err
	}
	forniture, err := s.repo.ListForniture(ctx, clienteID)
	if err != nil {
		return nil, apperr.Wrap(err, "Errore del server")
	}
	return forniture, nil
}

func (s *clienteService) CreateFornitura(ctx context.Context, caller authz.Caller, clienteID uuid.UUID, input FornituraInput) (*model.Fornitura, error) {
	if _, err := s.getOwned(ctx, caller, clienteID); err != nil {
		return nil, err
	}
	f := &model.Fornitura{
		ClienteID:          clienteID,
		PodPdr:             input.PodPdr,
		IndirizzoFornitura: input.IndirizzoFornitura,
		ConsumoAnnuale:     input.ConsumoAnnuale,
		TipologiaContratto: input.TipologiaContratto,
		Stato:              input.Stato,
	}
	if f.TipologiaContratto == "" {
		f.TipologiaContratto = "Residenziale"
	}
	if f.Stato == "" {
		f.Stato = "Attivo"
	}
	if err := s.repo.CreateFornitura(ctx, f); err != nil {
		return nil, apperr.Wrap(err, "Errore del server")
	}
	return f, nil
}

func (s *clienteService) UpdateFornitura(ctx context.Context, caller authz.Caller, clienteID, fornituraID uuid.UUID, input FornituraInput) (*model.Fornitura, error) {
	if _, err := s.getOwned(ctx, caller, clienteID); err != nil {
		return nil, err
	}
	f, err := s.repo.GetFornitura(ctx, clienteID, fornituraID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "Fornitura non trovata")
		}
		return nil, apperr.Wrap(err, "Errore del server")
	}
	f.PodPdr = input.PodPdr
	f.IndirizzoFornitura = input.IndirizzoFornitura
	f.ConsumoAnnuale = input.ConsumoAnnuale
	if input.TipologiaContratto != "" {
		f.TipologiaContratto = input.TipologiaContratto
	}
	if input.Stato != "" {
		f.Stato = input.Stato
	}
	if err := s.repo.UpdateFornitura(ctx, f); err != nil {
		return nil, apperr.Wrap(err, "Errore del server")
	}
	return f, nil
}

func (s *clienteService) DeleteFornitura(ctx context.Context, caller authz.Caller, clienteID, fornituraID uuid.UUID) error {
	if _, err := s.getOwned(ctx, caller, clienteID); err != nil {
		return err
	}
	if _, err := s.repo.GetFornitura(ctx, clienteID, fornituraID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.NotFound, "Fornitura non trovata")
		}
		return apperr.Wrap(err, "Errore del server")
	}
	if err := s.repo.DeleteFornitura(ctx, clienteID, fornituraID); err != nil {
		return apperr.Wrap(err, "Errore del server")
	}
	return nil
}

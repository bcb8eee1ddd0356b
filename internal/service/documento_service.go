package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"path/filepath"

	"backend/internal/apperr"
	"backend/internal/authz"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Storage limits
const (
	MaxUploadSize  = 5 * 1024 * 1024   // 5MB per file
	MaxUserStorage = 500 * 1024 * 1024 // 500MB per user
)

var allowedFileTypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
	"image/jpg":       true,
}

// UploadInput carries one multipart file plus its links.
type UploadInput struct {
	FileName    string
	ContentType string
	Data        []byte
	ClienteID   *uuid.UUID
	ContrattoID *uuid.UUID
	Categoria   string
}

// DownloadResult is the streamed file with its metadata.
type DownloadResult struct {
	Nome string
	Tipo string
	Data []byte
}

// StorageStats reports a user's quota usage.
type StorageStats struct {
	Used               int64   `json:"used"`
	UsedFormatted      string  `json:"usedFormatted"`
	UsedMB             float64 `json:"usedMB"`
	Max                int64   `json:"max"`
	MaxFormatted       string  `json:"maxFormatted"`
	MaxMB              float64 `json:"maxMB"`
	Percentage         float64 `json:"percentage"`
	Available          int64   `json:"available"`
	AvailableFormatted string  `json:"availableFormatted"`
}

// DocumentoService defines the business logic around uploaded documents.
type DocumentoService interface {
	List(ctx context.Context, caller authz.Caller, filter repository.DocumentoFilter) ([]model.Documento, error)
	Upload(ctx context.Context, caller authz.Caller, input UploadInput) (*model.Documento, error)
	Download(ctx context.Context, caller authz.Caller, id uuid.UUID) (*DownloadResult, error)
	Delete(ctx context.Context, caller authz.Caller, id uuid.UUID) error
	DeleteByCliente(ctx context.Context, clienteID uuid.UUID) error
	CheckQuota(ctx context.Context, userID uuid.UUID, fileSize int64) error
	ValidateFileType(contentType string) error
	Stats(ctx context.Context, userID uuid.UUID) (*StorageStats, error)
}

type documentoService struct {
	db        *gorm.DB
	repo      repository.DocumentoRepository
	clienti   repository.ClienteRepository
	contratti repository.ContrattoRepository
	store     storage.Store
}

func NewDocumentoService(
	db *gorm.DB,
	repo repository.DocumentoRepository,
	clienti repository.ClienteRepository,
	contratti repository.ContrattoRepository,
	store storage.Store,
) DocumentoService {
	return &documentoService{db: db, repo: repo, clienti: clienti, contratti: contratti, store: store}
}

// FormatBytes renders a byte count in human-readable form.
func FormatBytes(bytes int64) string {
	if bytes == 0 {
		return "0 Bytes"
	}
	sizes := []string{"Bytes", "KB", "MB", "GB"}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(sizes) {
		i = len(sizes) - 1
	}
	value := math.Round(float64(bytes)/math.Pow(1024, float64(i))*100) / 100
	return fmt.Sprintf("%g %s", value, sizes[i])
}

// ValidateFileType accepts only the portal's document formats.
func (s *documentoService) ValidateFileType(contentType string) error {
	if !allowedFileTypes[contentType] {
		return apperr.New(apperr.Validation, "Formato file non supportato. Usa PDF, PNG, JPG o JPEG")
	}
	return nil
}

// CheckQuota enforces the per-file and cumulative per-user limits. Both
// violations report the amounts involved, not a bare refusal.
func (s *documentoService) CheckQuota(ctx context.Context, userID uuid.UUID, fileSize int64) error {
	if fileSize > MaxUploadSize {
		return apperr.New(apperr.Validation, fmt.Sprintf(
			"File troppo grande. Dimensione massima consentita: %dMB", MaxUploadSize/(1024*1024)))
	}

	used, err := s.repo.SumBytesByUser(ctx, userID)
	if err != nil {
		return apperr.Wrap(err, "Errore del server")
	}
	if used+fileSize > MaxUserStorage {
		return apperr.New(apperr.Validation, fmt.Sprintf(
			"Spazio insufficiente. Spazio utilizzato: %.2fMB / %dMB",
			float64(used)/(1024*1024), MaxUserStorage/(1024*1024)))
	}
	return nil
}

// authorizeParent verifies the caller owns the linked cliente or contratto.
// Documents have no ownership of their own.
func (s *documentoService) authorizeParent(ctx context.Context, caller authz.Caller, clienteID, contrattoID *uuid.UUID) error {
	if clienteID == nil && contrattoID == nil {
		return apperr.New(apperr.Validation, "Devi specificare un cliente o un contratto")
	}

	if clienteID != nil {
		cliente, err := s.clienti.GetByID(ctx, *clienteID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.NotFound, "Cliente non trovato")
			}
			return apperr.Wrap(err, "Errore del server")
		}
		ok, err := authz.CanAccess(ctx, s.db, caller, cliente.AgenteID)
		if err != nil {
			return apperr.Wrap(err, "Errore del server")
		}
		if !ok {
			return apperr.New(apperr.NotFound, "Cliente non trovato")
		}
	}

	if contrattoID != nil {
		contratto, err := s.contratti.GetByID(ctx, *contrattoID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.NotFound, "Contratto non trovato")
			}
			return apperr.Wrap(err, "Errore del server")
		}
		ok, err := authz.CanAccess(ctx, s.db, caller, contratto.AgenteID)
		if err != nil {
			return apperr.Wrap(err, "Errore del server")
		}
		if !ok {
			return apperr.New(apperr.NotFound, "Contratto non trovato")
		}
	}
	return nil
}

func (s *documentoService) List(ctx context.Context, caller authz.Caller, filter repository.DocumentoFilter) ([]model.Documento, error) {
	docs, err := s.repo.List(ctx, caller, filter)
	if err != nil {
		return nil, apperr.Wrap(err, "Errore del server")
	}
	return docs, nil
}

// Upload stores the bytes (S3 when configured, local disk otherwise) and
// creates the document row. The quota is checked before anything persists,
// so a rejected upload leaves no file and no row behind.
func (s *documentoService) Upload(ctx context.Context, caller authz.Caller, input UploadInput) (*model.Documento, error) {
	if len(input.Data) == 0 {
		return nil, apperr.New(apperr.Validation, "Nessun file selezionato")
	}
	if err := s.ValidateFileType(input.ContentType); err != nil {
		return nil, err
	}
	if err := s.CheckQuota(ctx, caller.ID, int64(len(input.Data))); err != nil {
		return nil, err
	}
	if err := s.authorizeParent(ctx, caller, input.ClienteID, input.ContrattoID); err != nil {
		return nil, err
	}

	key := uuid.New().String() + filepath.Ext(input.FileName)
	path, err := s.store.Upload(ctx, key, input.Data, input.ContentType)
	if err != nil {
		return nil, apperr.Wrap(err, "Errore durante il caricamento del file")
	}

	categoria := input.Categoria
	if categoria == "" {
		categoria = "Altro"
	}
	doc := &model.Documento{
		UserID:          caller.ID,
		ClienteID:       input.ClienteID,
		ContrattoID:     input.ContrattoID,
		Nome:            input.FileName,
		Tipo:            input.ContentType,
		Categoria:       categoria,
		DimensioneBytes: int64(len(input.Data)),
		Path:            path,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		// keep storage consistent with the failed row
		if delErr := s.store.Delete(ctx, path); delErr != nil {
			log.Println("orphan blob cleanup failed:", delErr)
		}
		return nil, apperr.Wrap(err, "Errore del server")
	}
	return doc, nil
}

func (s *documentoService) getAuthorized(ctx context.Context, caller authz.Caller, id uuid.UUID) (*model.Documento, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "Documento non trovato")
		}
		return nil, apperr.Wrap(err, "Errore del server")
	}
	if err := s.authorizeParent(ctx, caller, doc.ClienteID, doc.ContrattoID); err != nil {
		// hide the document entirely when the parent is out of scope
		return nil, apperr.New(apperr.NotFound, "Documento non trovato")
	}
	return doc, nil
}

func (s *documentoService) Download(ctx context.Context, caller authz.Caller, id uuid.UUID) (*DownloadResult, error) {
	doc, err := s.getAuthorized(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	data, err := s.store.Download(ctx, doc.Path)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.New(apperr.NotFound, "File non trovato")
		}
		return nil, apperr.Wrap(err, "Errore durante il download")
	}
	return &DownloadResult{Nome: doc.Nome, Tipo: doc.Tipo, Data: data}, nil
}

// Delete removes the stored blob first, then the row.
func (s *documentoService) Delete(ctx context.Context, caller authz.Caller, id uuid.UUID) error {
	doc, err := s.getAuthorized(ctx, caller, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, doc.Path); err != nil {
		return apperr.Wrap(err, "Errore durante l'eliminazione del file")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperr.Wrap(err, "Errore del server")
	}
	return nil
}

// DeleteByCliente removes every document of a cliente, blobs before rows.
// Used by the cliente deletion flow, which authorizes the parent itself.
func (s *documentoService) DeleteByCliente(ctx context.Context, clienteID uuid.UUID) error {
	docs, err := s.repo.ListByCliente(ctx, clienteID)
	if err != nil {
		return apperr.Wrap(err, "Errore del server")
	}
	for _, doc := range docs {
		if err := s.store.Delete(ctx, doc.Path); err != nil {
			return apperr.Wrap(err, "Errore durante l'eliminazione del file")
		}
	}
	return s.repo.DeleteByCliente(ctx, clienteID)
}

func (s *documentoService) Stats(ctx context.Context, userID uuid.UUID) (*StorageStats, error) {
	used, err := s.repo.SumBytesByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(err, "Errore del server")
	}
	return &StorageStats{
		Used:               used,
		UsedFormatted:      FormatBytes(used),
		UsedMB:             math.Round(float64(used)/(1024*1024)*100) / 100,
		Max:                MaxUserStorage,
		MaxFormatted:       FormatBytes(MaxUserStorage),
		MaxMB:              MaxUserStorage / (1024 * 1024),
		Percentage:         math.Round(float64(used)/float64(MaxUserStorage)*1000) / 10,
		Available:          MaxUserStorage - used,
		AvailableFormatted: FormatBytes(MaxUserStorage - used),
	}, nil
}

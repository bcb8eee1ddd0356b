package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"backend/internal/apperr"
	"backend/internal/authz"
	"backend/internal/excel"
	"backend/internal/model"

	"gorm.io/gorm"
)

// ExportFile is a generated download: bytes plus the headers to serve them.
type ExportFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ExportService renders ownership-scoped data as downloadable files.
type ExportService interface {
	Clienti(ctx context.Context, caller authz.Caller, format string) (*ExportFile, error)
}

type exportService struct {
	db *gorm.DB
}

func NewExportService(db *gorm.DB) ExportService {
	return &exportService{db: db}
}

var clientiExportHeader = []string{"ID", "Nome", "Cognome", "Email", "Telefono", "Azienda", "Stato", "Data Registrazione"}

func clientiExportRow(c model.Cliente) []string {
	return []string{
		c.ID.String(),
		c.Nome,
		c.Cognome,
		c.Email,
		c.Cellulare,
		c.RagioneSociale,
		c.Stato,
		c.DataRegistrazione.Format("2006-01-02"),
	}
}

// Clienti exports the caller's visible clienti as csv (default) or xlsx.
func (s *exportService) Clienti(ctx context.Context, caller authz.Caller, format string) (*ExportFile, error) {
	var clienti []model.Cliente
	err := s.db.WithContext(ctx).
		Scopes(authz.OwnershipScope(caller, "agente_id")).
		Order("created_at DESC").
		Find(&clienti).Error
	if err != nil {
		return nil, apperr.Wrap(err, "Errore del server")
	}

	date := time.Now().Format("2006-01-02")

	if format == "xlsx" {
		rows := make([][]string, 0, len(clienti))
		for _, c := range clienti {
			rows = append(rows, clientiExportRow(c))
		}
		data, err := excel.WriteSheet("Clienti", clientiExportHeader, rows)
		if err != nil {
			return nil, apperr.Wrap(err, "Errore del server")
		}
		return &ExportFile{
			FileName:    fmt.Sprintf("clienti_%s.xlsx", date),
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        data,
		}, nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(clientiExportHeader); err != nil {
		return nil, apperr.Wrap(err, "Errore del server")
	}
	for _, c := range clienti {
		if err := w.Write(clientiExportRow(c)); err != nil {
			return nil, apperr.Wrap(err, "Errore del server")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, apperr.Wrap(err, "Errore del server")
	}
	return &ExportFile{
		FileName:    fmt.Sprintf("clienti_%s.csv", date),
		ContentType: "text/csv",
		Data:        buf.Bytes(),
	}, nil
}

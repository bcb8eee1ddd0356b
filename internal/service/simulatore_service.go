package service

import (
	"math/rand"
	"strconv"
	"strings"

	"backend/internal/apperr"
)

// Offerta is one fabricated supplier offer in the simulator response.
type Offerta struct {
	ID                   string   `json:"id"`
	Fornitore            string   `json:"fornitore"`
	Nome                 string   `json:"nome"`
	PrezzoMensile        float64  `json:"prezzoMensile"`
	RisparmioAnnuale     float64  `json:"risparmioAnnuale"`
	RisparmioPercentuale int      `json:"risparmioPercentuale"`
	Caratteristiche      []string `json:"caratteristiche"`
}

// Analisi is the simulator's fabricated bill analysis.
type Analisi struct {
	ConsumoAnnuale  int       `json:"consumoAnnuale"`
	CostoAttuale    float64   `json:"costoAttuale"`
	CostoMensile    float64   `json:"costoMensile"`
	TipoBolletta    string    `json:"tipoBolletta"`
	Offerte         []Offerta `json:"offerte"`
	MiglioreOfferta Offerta   `json:"miglioreOfferta"`
}

// SimulatoreService is the mock bill analyzer. It does no real parsing: the
// bill type is guessed from the filename and the numbers are randomized
// within plausible ranges. A real OCR/AI backend can replace Analyze later
// without touching the handler.
type SimulatoreService interface {
	Analyze(fileName, contentType string, fileSize int64) (*Analisi, error)
}

type simulatoreService struct{}

func NewSimulatoreService() SimulatoreService {
	return &simulatoreService{}
}

type offerTemplate struct {
	fornitore       string
	nome            string
	fattore         float64
	risparmio       int
	caratteristiche []string
}

var offerTemplates = []offerTemplate{
	{"Enel Energia", "Enel Luce Verde", 0.82, 18,
		[]string{"Energia 100% rinnovabile", "Prezzo bloccato 12 mesi", "Nessun costo nascosto"}},
	{"Iren", "Iren Smart", 0.79, 21,
		[]string{"Prezzo fisso 24 mesi", "App mobile inclusa", "Assistenza 24/7"}},
	{"Edison", "Edison Next", 0.86, 14,
		[]string{"Prezzo variabile", "Bonus fedeltà", "Servizio clienti dedicato"}},
	{"Eni Plenitude", "Eni Plenitude Luce", 0.84, 16,
		[]string{"Energia verde", "Prezzo fisso 18 mesi", "Sconti su altri servizi"}},
}

func (s *simulatoreService) Analyze(fileName, contentType string, fileSize int64) (*Analisi, error) {
	if !allowedFileTypes[contentType] {
		return nil, apperr.New(apperr.Validation, "Formato file non supportato. Usa PDF, JPEG o PNG")
	}
	if fileSize > MaxUploadSize {
		return nil, apperr.New(apperr.Validation, "File troppo grande. Massimo 5MB")
	}

	tipoBolletta := "luce"
	if strings.Contains(strings.ToLower(fileName), "gas") {
		tipoBolletta = "gas"
	}

	var consumoAnnuale int
	var costoMensile float64
	if tipoBolletta == "luce" {
		consumoAnnuale = rand.Intn(2000) + 1500 // kWh
		costoMensile = rand.Float64()*40 + 50   // €50-90
	} else {
		consumoAnnuale = rand.Intn(1000) + 500 // smc
		costoMensile = rand.Float64()*30 + 40  // €40-70
	}
	costoAttuale := costoMensile * 12

	offerte := make([]Offerta, 0, len(offerTemplates))
	for i, tmpl := range offerTemplates {
		prezzo := costoMensile * tmpl.fattore
		offerte = append(offerte, Offerta{
			ID:                   strconv.Itoa(i + 1),
			Fornitore:            tmpl.fornitore,
			Nome:                 tmpl.nome,
			PrezzoMensile:        prezzo,
			RisparmioAnnuale:     costoAttuale - prezzo*12,
			RisparmioPercentuale: tmpl.risparmio,
			Caratteristiche:      tmpl.caratteristiche,
		})
	}

	migliore := offerte[0]
	for _, o := range offerte[1:] {
		if o.RisparmioAnnuale > migliore.RisparmioAnnuale {
			migliore = o
		}
	}

	return &Analisi{
		ConsumoAnnuale:  consumoAnnuale,
		CostoAttuale:    costoAttuale,
		CostoMensile:    costoMensile,
		TipoBolletta:    tipoBolletta,
		Offerte:         offerte,
		MiglioreOfferta: migliore,
	}, nil
}

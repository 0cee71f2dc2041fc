package inventory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"stock-backend/internal/apperror"
	"stock-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Spreadsheet columns, matched against the header row case-insensitively.
var importColumns = []string{"code", "nom", "prixht", "prixttc", "numlot", "quantite", "prixunitaire", "dateexpiration"}

var importDateLayouts = []string{"2006-01-02", "02/01/2006", "01-02-06", "2006-01-02 15:04:05"}

type ImportRowError struct {
	Row     int    `json:"ligne"`
	Message string `json:"message"`
}

type ImportResult struct {
	ArticlesCreated int              `json:"articlesCrees"`
	ArticlesUpdated int              `json:"articlesMisAJour"`
	LotsCreated     int              `json:"lotsCrees"`
	LotsUpdated     int              `json:"lotsMisAJour"`
	Errors          []ImportRowError `json:"erreurs"`
}

type importRow struct {
	line      int
	code      string
	name      string
	priceHT   decimal.Decimal
	priceTTC  decimal.Decimal
	lotNumber string
	qty       int
	unitPrice decimal.Decimal
	expiresAt *time.Time
}

// ImportArticles reads the first sheet of an xlsx workbook and upserts
// articles by code and lots by number. Invalid rows are reported and skipped.
func (s *ArticleService) ImportArticles(ctx context.Context, r io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperror.NewValidation("Fichier Excel illisible").WithCause(err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperror.NewValidation("Le classeur ne contient aucune feuille")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperror.NewValidation("Feuille illisible").WithCause(err)
	}
	if len(rows) == 0 {
		return nil, apperror.NewValidation("Le fichier est vide")
	}

	index, start := headerIndex(rows[0])
	res := &ImportResult{Errors: []ImportRowError{}}

	for i := start; i < len(rows); i++ {
		line := i + 1
		if isBlank(rows[i]) {
			continue
		}
		row, err := parseImportRow(rows[i], index, line)
		if err != nil {
			res.Errors = append(res.Errors, ImportRowError{Row: line, Message: err.Error()})
			continue
		}
		// counters only move when the row commits
		var delta ImportResult
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return applyImportRow(tx, row, &delta)
		})
		if err != nil {
			res.Errors = append(res.Errors, ImportRowError{Row: line, Message: err.Error()})
			continue
		}
		res.ArticlesCreated += delta.ArticlesCreated
		res.ArticlesUpdated += delta.ArticlesUpdated
		res.LotsCreated += delta.LotsCreated
		res.LotsUpdated += delta.LotsUpdated
	}
	return res, nil
}

// headerIndex maps column names to positions. Without a recognizable header
// the default column order is assumed and the first row is data.
func headerIndex(first []string) (map[string]int, int) {
	index := make(map[string]int, len(importColumns))
	for i, cell := range first {
		key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(cell), " ", ""))
		for _, col := range importColumns {
			if key == col {
				index[col] = i
			}
		}
	}
	if _, ok := index["code"]; ok {
		return index, 1
	}
	for i, col := range importColumns {
		index[col] = i
	}
	return index, 0
}

func cell(row []string, index map[string]int, col string) string {
	i, ok := index[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseImportRow(row []string, index map[string]int, line int) (*importRow, error) {
	out := &importRow{
		line:      line,
		code:      cell(row, index, "code"),
		name:      cell(row, index, "nom"),
		lotNumber: cell(row, index, "numlot"),
	}
	if out.code == "" {
		return nil, errors.New("code article manquant")
	}
	if out.name == "" {
		return nil, errors.New("nom manquant")
	}

	var err error
	if out.priceHT, err = parseDecimal(cell(row, index, "prixht")); err != nil {
		return nil, fmt.Errorf("prixHT invalide: %w", err)
	}
	if out.priceTTC, err = parseDecimal(cell(row, index, "prixttc")); err != nil {
		return nil, fmt.Errorf("prixTTC invalide: %w", err)
	}
	if out.unitPrice, err = parseDecimal(cell(row, index, "prixunitaire")); err != nil {
		return nil, fmt.Errorf("prixUnitaire invalide: %w", err)
	}
	if q := cell(row, index, "quantite"); q != "" {
		if out.qty, err = strconv.Atoi(q); err != nil || out.qty < 0 {
			return nil, fmt.Errorf("quantité invalide: %q", q)
		}
	}
	if d := cell(row, index, "dateexpiration"); d != "" {
		t, err := parseDate(d)
		if err != nil {
			return nil, err
		}
		out.expiresAt = &t
	}
	if out.priceHT.IsNegative() || out.priceTTC.IsNegative() || out.unitPrice.IsNegative() {
		return nil, errors.New("les prix doivent être positifs ou nuls")
	}
	if out.lotNumber == "" && (out.qty != 0 || out.expiresAt != nil) {
		return nil, errors.New("numéro de lot manquant")
	}
	return out, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range importDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("date d'expiration invalide: %q", s)
}

func applyImportRow(tx *gorm.DB, row *importRow, res *ImportResult) error {
	var article models.Article
	err := tx.Where("code = ?", row.code).First(&article).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		article = models.Article{Name: row.name, Code: row.code, PriceHT: row.priceHT, PriceTTC: row.priceTTC}
		if err := tx.Create(&article).Error; err != nil {
			return err
		}
		res.ArticlesCreated++
	case err != nil:
		return err
	default:
		if err := tx.Model(&article).Updates(map[string]any{
			"name":      row.name,
			"price_ht":  row.priceHT,
			"price_ttc": row.priceTTC,
		}).Error; err != nil {
			return err
		}
		res.ArticlesUpdated++
	}

	if row.lotNumber == "" {
		return nil
	}

	var lot models.Lot
	err = tx.Where("article_id = ? AND number = ?", article.ID, row.lotNumber).First(&lot).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		lot = models.Lot{
			ArticleID:    article.ID,
			Number:       row.lotNumber,
			AvailableQty: row.qty,
			UnitPrice:    row.unitPrice,
			ExpiresAt:    row.expiresAt,
		}
		if err := tx.Create(&lot).Error; err != nil {
			return err
		}
		res.LotsCreated++
	case err != nil:
		return err
	default:
		if err := tx.Model(&lot).Updates(map[string]any{
			"available_qty": row.qty,
			"unit_price":    row.unitPrice,
			"expires_at":    row.expiresAt,
		}).Error; err != nil {
			return err
		}
		res.LotsUpdated++
	}
	return nil
}

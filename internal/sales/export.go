package sales

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"stock-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Ventes"

var exportHeader = []any{"ID", "Date", "Société", "Article", "Lot", "Quantité", "Prix unitaire", "Prix total"}

// ExportFilter bounds an export. Zero values mean no bound.
type ExportFilter struct {
	From      *time.Time
	To        *time.Time
	SocieteID *uint
}

// ExportVentes writes the matching sales to an xlsx workbook, one row per
// sale followed by a total row.
func (s *VenteService) ExportVentes(ctx context.Context, f ExportFilter) ([]byte, error) {
	q := s.db.WithContext(ctx).Preload("Societe").Order("date, id")
	if f.From != nil {
		q = q.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("date <= ?", *f.To)
	}
	if f.SocieteID != nil {
		q = q.Where("societe_id = ?", *f.SocieteID)
	}
	var ventes []models.Vente
	if err := q.Find(&ventes).Error; err != nil {
		return nil, fmt.Errorf("ventes à exporter: %w", err)
	}

	wb := excelize.NewFile()
	defer wb.Close()

	if err := wb.SetSheetName(wb.GetSheetName(0), exportSheet); err != nil {
		return nil, fmt.Errorf("feuille export: %w", err)
	}
	bold, err := wb.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("style export: %w", err)
	}

	if err := wb.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return nil, fmt.Errorf("entête export: %w", err)
	}

	qty := 0
	total := decimal.Zero
	for i, v := range ventes {
		societe := ""
		if v.Societe != nil {
			societe = v.Societe.Name
		}
		row := []any{
			v.ID,
			v.Date.Format("2006-01-02 15:04"),
			societe,
			v.Article,
			v.Lot,
			v.Qty,
			v.UnitPrice.InexactFloat64(),
			v.TotalPrice.InexactFloat64(),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("cellule export: %w", err)
		}
		if err := wb.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("ligne export: %w", err)
		}
		qty += v.Qty
		total = total.Add(v.TotalPrice)
	}

	last := len(ventes) + 2
	totalRow := []any{"Total", "", "", "", "", qty, "", total.InexactFloat64()}
	cell, err := excelize.CoordinatesToCellName(1, last)
	if err != nil {
		return nil, fmt.Errorf("cellule total: %w", err)
	}
	if err := wb.SetSheetRow(exportSheet, cell, &totalRow); err != nil {
		return nil, fmt.Errorf("total export: %w", err)
	}
	end, err := excelize.CoordinatesToCellName(len(exportHeader), last)
	if err != nil {
		return nil, fmt.Errorf("cellule total: %w", err)
	}
	if err := wb.SetCellStyle(exportSheet, "A1", "H1", bold); err != nil {
		return nil, fmt.Errorf("style en-tête: %w", err)
	}
	if err := wb.SetCellStyle(exportSheet, cell, end, bold); err != nil {
		return nil, fmt.Errorf("style total: %w", err)
	}
	if err := wb.SetColWidth(exportSheet, "B", "D", 20); err != nil {
		return nil, fmt.Errorf("largeur colonnes: %w", err)
	}

	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		return nil, fmt.Errorf("écriture export: %w", err)
	}
	return buf.Bytes(), nil
}

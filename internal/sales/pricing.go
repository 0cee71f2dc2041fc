package sales

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SaleRequest is the body of the priced sale endpoints. Updates ignore
// PrintTickets.
type SaleRequest struct {
	SocieteID     uint             `json:"societeId"`
	ArticleCode   string           `json:"codeArticle"`
	LotNumber     string           `json:"numLot"`
	Qty           int              `json:"quantite"`
	PrintTickets  *bool            `json:"imprimerTicket"`
	SaleDate      *time.Time       `json:"dateVente"`
	SuppliedPrice *decimal.Decimal `json:"prixUnitaireFourni"`
}

// Validate returns every problem found, empty when the request is usable.
func (r *SaleRequest) Validate() []string {
	r.ArticleCode = strings.TrimSpace(r.ArticleCode)
	r.LotNumber = strings.TrimSpace(r.LotNumber)

	var errs []string
	if r.SocieteID == 0 {
		errs = append(errs, "L'ID de la société est requis et doit être positif.")
	}
	if r.ArticleCode == "" {
		errs = append(errs, "Le code article est requis.")
	}
	if r.LotNumber == "" {
		errs = append(errs, "Le numéro de lot est requis.")
	}
	if r.Qty <= 0 {
		errs = append(errs, "La quantité doit être supérieure à zéro.")
	}
	if r.SuppliedPrice != nil && r.SuppliedPrice.IsNegative() {
		errs = append(errs, "Le prix unitaire ne peut pas être négatif.")
	}
	return errs
}

// WantsTickets defaults to true when the flag is absent.
func (r *SaleRequest) WantsTickets() bool {
	return r.PrintTickets == nil || *r.PrintTickets
}

// ComputePrice uses the supplied unit price when present, the lot price
// otherwise. The total is rounded to cents.
func ComputePrice(supplied *decimal.Decimal, lotPrice decimal.Decimal, qty int) (unit, total decimal.Decimal) {
	unit = lotPrice
	if supplied != nil {
		unit = *supplied
	}
	total = unit.Mul(decimal.NewFromInt(int64(qty))).Round(2)
	return unit, total
}

const ticketTimeLayout = "20060102150405"

// TicketBarcode builds the barcode of the n-th ticket (1-based) of a sale.
func TicketBarcode(articleCode, lotNumber string, at time.Time, n int) string {
	var b strings.Builder
	b.WriteString(articleCode)
	b.WriteByte('-')
	b.WriteString(lotNumber)
	b.WriteByte('-')
	b.WriteString(at.Format(ticketTimeLayout))
	b.WriteByte('-')
	b.WriteString(strconv.Itoa(n))
	return b.String()
}

package sales

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSaleRequest_Validate(t *testing.T) {
	neg := dec("-0.01")
	zero := dec("0")

	tests := []struct {
		name string
		req  SaleRequest
		want int
	}{
		{"valid", SaleRequest{SocieteID: 1, ArticleCode: "A", LotNumber: "L", Qty: 1}, 0},
		{"free sale allowed", SaleRequest{SocieteID: 1, ArticleCode: "A", LotNumber: "L", Qty: 1, SuppliedPrice: &zero}, 0},
		{"everything missing", SaleRequest{}, 4},
		{"blank strings", SaleRequest{SocieteID: 1, ArticleCode: "  ", LotNumber: "\t", Qty: 2}, 2},
		{"negative price", SaleRequest{SocieteID: 1, ArticleCode: "A", LotNumber: "L", Qty: 1, SuppliedPrice: &neg}, 1},
		{"negative qty", SaleRequest{SocieteID: 1, ArticleCode: "A", LotNumber: "L", Qty: -3}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, tt.req.Validate(), tt.want)
		})
	}
}

func TestSaleRequest_WantsTickets(t *testing.T) {
	no := false
	yes := true
	assert.True(t, (&SaleRequest{}).WantsTickets())
	assert.True(t, (&SaleRequest{PrintTickets: &yes}).WantsTickets())
	assert.False(t, (&SaleRequest{PrintTickets: &no}).WantsTickets())
}

func TestComputePrice(t *testing.T) {
	supplied := dec("1.10")

	unit, total := ComputePrice(nil, dec("2.35"), 3)
	assert.True(t, unit.Equal(dec("2.35")))
	assert.True(t, total.Equal(dec("7.05")))

	unit, total = ComputePrice(&supplied, dec("2.35"), 4)
	assert.True(t, unit.Equal(dec("1.10")))
	assert.True(t, total.Equal(dec("4.40")))
}

func TestTicketBarcode(t *testing.T) {
	at := time.Date(2025, 3, 9, 14, 5, 7, 0, time.UTC)
	assert.Equal(t, "DOL500-L42-20250309140507-3", TicketBarcode("DOL500", "L42", at, 3))
}

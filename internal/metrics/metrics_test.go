package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordSale(t *testing.T) {
	beforeQty := testutil.ToFloat64(QuantitySold)
	beforeTickets := testutil.ToFloat64(TicketsIssued)
	beforeVentes := testutil.ToFloat64(VentesCreated.WithLabelValues("calcul"))

	RecordSale("calcul", 3, 3)

	assert.Equal(t, beforeQty+3, testutil.ToFloat64(QuantitySold))
	assert.Equal(t, beforeTickets+3, testutil.ToFloat64(TicketsIssued))
	assert.Equal(t, beforeVentes+1, testutil.ToFloat64(VentesCreated.WithLabelValues("calcul")))
}

func TestRecordSale_NoTickets(t *testing.T) {
	before := testutil.ToFloat64(TicketsIssued)

	RecordSale("legacy", 0, 0)

	assert.Equal(t, before, testutil.ToFloat64(TicketsIssued))
}

package order_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/afyapos/compliance/internal/domain/order"
)

var (
	otc        = &order.Product{ID: "para-500", Name: "Paracetamol 500mg", Schedule: order.ScheduleOTC, IsPharmaceutical: true}
	rxOnly     = &order.Product{ID: "amox-500", Name: "Amoxicillin 500mg", Schedule: order.SchedulePrescription, IsPharmaceutical: true}
	controlled = &order.Product{ID: "morph-10", Name: "Morphine 10mg", Schedule: order.ScheduleControlled1, IsPharmaceutical: true}
)

func TestRequiresPrescription(t *testing.T) {
	testCases := []struct {
		name    string
		product *order.Product
		want    bool
	}{
		{name: "nil product", product: nil, want: false},
		{name: "zero value product", product: &order.Product{}, want: false},
		{name: "otc", product: otc, want: false},
		{name: "prescription only", product: rxOnly, want: true},
		{name: "controlled schedule 1", product: controlled, want: true},
		{name: "flag without schedule", product: &order.Product{RequiresPrescription: true}, want: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, order.RequiresPrescription(tc.product))
		})
	}
}

func TestIsControlledSubstance(t *testing.T) {
	assert.False(t, order.IsControlledSubstance(nil))
	assert.False(t, order.IsControlledSubstance(otc))
	assert.False(t, order.IsControlledSubstance(rxOnly))
	assert.True(t, order.IsControlledSubstance(controlled))
	assert.True(t, order.IsControlledSubstance(&order.Product{IsControlledSubstance: true}))
}

func TestOrderPredicatesFollowLineChanges(t *testing.T) {
	o := &order.Order{ID: "o-1", Lines: []order.Line{
		{Product: otc, Quantity: 1},
	}}

	assert.False(t, order.HasControlledSubstances(o))
	assert.False(t, order.HasPrescriptionItems(o))

	// Adding a controlled line flips both predicates.
	o.Lines = append(o.Lines, order.Line{Product: controlled, Quantity: 1})
	assert.True(t, order.HasControlledSubstances(o))
	assert.True(t, order.HasPrescriptionItems(o))

	// Removing it returns them to their prior value.
	o.Lines = o.Lines[:1]
	assert.False(t, order.HasControlledSubstances(o))
	assert.False(t, order.HasPrescriptionItems(o))
}

func TestControlledLines(t *testing.T) {
	o := &order.Order{Lines: []order.Line{
		{Product: otc, Quantity: 2},
		{Product: controlled, Quantity: 1},
		{Product: rxOnly, Quantity: 3},
	}}

	lines := order.ControlledLines(o)
	assert.Len(t, lines, 1)
	assert.Equal(t, "morph-10", lines[0].Product.ID)
}

func TestOrderTotal(t *testing.T) {
	o := &order.Order{Lines: []order.Line{
		{Product: otc, Quantity: 2, UnitPrice: 50},
		{Product: rxOnly, Quantity: 1, UnitPrice: 320},
	}}
	assert.Equal(t, 420.0, o.Total())
}

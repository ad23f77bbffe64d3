package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/tour-booking/internal/model"
)

func TestTotal(t *testing.T) {
	p := model.Pricing{
		Adult:   model.CategoryRate{PriceCents: 100000},
		Child:   model.CategoryRate{PriceCents: 50000},
		Toddler: model.CategoryRate{PriceCents: 25000},
		Baby:    model.CategoryRate{PriceCents: 0},
	}

	cases := []struct {
		name string
		q    model.Quantities
		want uint64
	}{
		{"adults only", model.Quantities{Adults: 2}, 200000},
		{"mixed party", model.Quantities{Adults: 2, Children: 3, Toddlers: 1}, 375000},
		{"babies are free", model.Quantities{Adults: 1, Babies: 4}, 100000},
		{"empty", model.Quantities{}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Total(p, tc.q))
		})
	}
}

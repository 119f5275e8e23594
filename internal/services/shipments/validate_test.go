package shipments

import (
	"encoding/json"
	"testing"

	"github.com/BearBump/CargoTrack/internal/models"
	"github.com/stretchr/testify/require"
)

func validInput() map[string]any {
	return map[string]any{
		"origin":            "Lagos",
		"destination":       "London",
		"weight":            json.Number("10"),
		"dimensions":        map[string]any{"length": json.Number("50"), "width": "40", "height": 30.0},
		"preferredShipDate": "25/12/2024",
		"cargoType":         "Electronics",
		"fullName":          "  Jane Roe ",
		"email":             "Jane@Example.com",
		"phone":             "+234 800 000",
	}
}

func TestEstimateCost(t *testing.T) {
	d := models.Dimensions{Length: 50, Width: 40, Height: 30}
	// 5 + 20 + 60 = 85
	require.Equal(t, 85.0, EstimateCost(10, d, "Lagos", "lagos"))
	require.Equal(t, 127.5, EstimateCost(10, d, "Lagos", "London"))
	require.Equal(t, 5.2, EstimateCost(0.1, models.Dimensions{Length: 1, Width: 1, Height: 1}, "A", "a"))
}

func TestApplyInput_Create(t *testing.T) {
	var sh models.Shipment
	require.NoError(t, applyInput(&sh, validInput(), false))
	require.Equal(t, "Jane Roe", sh.FullName)
	require.Equal(t, "jane@example.com", sh.Email)
	require.Equal(t, models.Dimensions{Length: 50, Width: 40, Height: 30}, sh.Dimensions)
	require.Equal(t, 2024, sh.PreferredShipDate.Year())
	require.Equal(t, 25, sh.PreferredShipDate.Day())
}

func TestApplyInput_CreateRejects(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(m map[string]any)
		field string
	}{
		{"missing origin", func(m map[string]any) { delete(m, "origin") }, "origin"},
		{"blank phone", func(m map[string]any) { m["phone"] = "  " }, "phone"},
		{"light weight", func(m map[string]any) { m["weight"] = json.Number("0.05") }, "weight"},
		{"missing height", func(m map[string]any) { m["dimensions"] = map[string]any{"length": 1, "width": 1} }, "dimensions.height"},
		{"zero width", func(m map[string]any) {
			m["dimensions"] = map[string]any{"length": 1, "width": 0, "height": 1}
		}, "dimensions.width"},
		{"bad date", func(m map[string]any) { m["preferredShipDate"] = "soon" }, "preferredShipDate"},
		{"unknown cargo", func(m map[string]any) { m["cargoType"] = "Livestock" }, "cargoType"},
		{"bad email", func(m map[string]any) { m["email"] = "jane@" }, "email"},
		{"numeric notes", func(m map[string]any) { m["notes"] = 5 }, "notes"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.edit(in)
			var sh models.Shipment
			err := applyInput(&sh, in, false)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			require.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestApplyInput_PartialKeepsOtherFields(t *testing.T) {
	sh := models.Shipment{
		Origin: "Lagos", Destination: "London", Weight: 10,
		Dimensions: models.Dimensions{Length: 1, Width: 2, Height: 3},
		Status:     models.ShipmentStatusPending,
	}
	err := applyInput(&sh, map[string]any{
		"dimensions": map[string]any{"height": 9},
		"status":     "Confirmed",
		"actualCost": "99.5",
		"origin":     nil,
	}, true)
	require.NoError(t, err)
	require.Equal(t, "Lagos", sh.Origin)
	require.Equal(t, models.Dimensions{Length: 1, Width: 2, Height: 9}, sh.Dimensions)
	require.Equal(t, models.ShipmentStatusConfirmed, sh.Status)
	require.Equal(t, 99.5, *sh.ActualCost)

	err = applyInput(&sh, map[string]any{"status": "Lost"}, true)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "status", ve.Field)
}

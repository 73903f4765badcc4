package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siding-takeoff/core/engine"
	"siding-takeoff/core/lineitem"
	"siding-takeoff/core/measurement"
	"siding-takeoff/core/rules"
)

func sampleTakeoff() *engine.Takeoff {
	return &engine.Takeoff{
		ID:        "t-1",
		ProjectID: "proj-1",
		Context:   map[string]float64{"facade_sqft": 2000},
		Items: []lineitem.LineItem{
			{
				Key: "HOUSEWRAP", Description: "House Wrap", SKU: "TYVEK-9X150", Category: "accessories", Unit: "ROLL",
				Quantity: decimal.NewFromInt(2), MaterialExtended: decimal.RequireFromString("300.00"),
				Source: lineitem.SourceRule, RuleIDs: []string{"wrap"},
			},
			{
				Key: "HARDIE-PLANK", Description: "HardiePlank 8.25", SKU: "HARDIE-PLANK-825", Category: "siding", Unit: "SQ",
				Quantity: decimal.NewFromInt(14), MaterialExtended: decimal.RequireFromString("4200.00"),
				LaborExtended: decimal.RequireFromString("1400.00"), Source: lineitem.SourceMixed,
				RuleIDs: []string{"plank-waste"}, AssignmentIDs: []string{"a1"},
			},
			{
				Key: "Z-FLASH", Description: "Z Flashing", SKU: "z-flash", Category: "flashing", Unit: "LF",
				Quantity: decimal.NewFromInt(11), Source: lineitem.SourceRule, RuleIDs: []string{"zflash"}, MissingPricing: true,
			},
		},
		Summary: engine.Summary{
			Material: decimal.RequireFromString("4500.00"),
			Labor:    decimal.RequireFromString("1400.00"),
			Subtotal: decimal.RequireFromString("5900.00"),
			Overhead: decimal.RequireFromString("590.00"),
			Markup:   decimal.RequireFromString("973.50"),
			Total:    decimal.RequireFromString("7463.50"),
		},
		Diagnostics: engine.Diagnostics{
			MeasurementSource: measurement.SourceStored,
			RulesOrigin:       rules.OriginCache,
			RulesEvaluated:    4,
			RulesTriggered:    3,
			Manufacturers:     []string{"James Hardie"},
			MissingPricing:    []lineitem.Missing{{Key: "Z-FLASH", Source: lineitem.SourceRule, Reference: "zflash"}},
			Skips: []engine.Skip{
				{RuleID: "flash", RuleName: "Window Flashing", Kind: engine.SkipTriggerNotMet, Reason: "openings=0 < 1"},
			},
		},
	}
}

func TestGet(t *testing.T) {
	f, err := Get(" JSON ")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f.Format())

	_, err = Get("xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "available: json, table")
	assert.Equal(t, []string{"json", "table"}, Available())
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Render(&buf, sampleTakeoff()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "t-1", decoded["id"])

	summary := decoded["summary"].(map[string]any)
	assert.Equal(t, "7463.5", summary["total"], "decimals encode as strings")

	items := decoded["items"].([]any)
	require.Len(t, items, 3)
	assert.Equal(t, "mixed", items[1].(map[string]any)["source"])
}

func TestTableFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TableFormatter{NoColor: true, ShowSkips: true}).Render(&buf, sampleTakeoff()))
	out := buf.String()

	assert.NotContains(t, out, "\033[", "no escape codes without color")
	assert.Contains(t, out, "━━━ Line Items ━━━")
	assert.Contains(t, out, "HardiePlank 8.25")
	assert.Contains(t, out, "$4,200.00")
	assert.Contains(t, out, "$7,463.50")
	assert.Contains(t, out, "mixed (1 rules, 1 assigned)")
	assert.Contains(t, out, "Z Flashing (unpriced)")
	assert.Contains(t, out, "! no pricing for Z-FLASH (rule zflash)")
	assert.Contains(t, out, "measurements: stored   rules: cache   evaluated: 4   triggered: 3")
	assert.Contains(t, out, "manufacturers: James Hardie")
	assert.Contains(t, out, "━━━ Skipped Rules ━━━")
	assert.Contains(t, out, "openings=0 < 1")

	buf.Reset()
	require.NoError(t, (&TableFormatter{NoColor: true}).Render(&buf, sampleTakeoff()))
	assert.NotContains(t, buf.String(), "Skipped Rules")
}

func TestTable_Alignment(t *testing.T) {
	var buf bytes.Buffer
	tbl := newTable("A", "LONG HEADER")
	tbl.addRow("wider cell", "x")
	tbl.addRow("y")
	tbl.render(&printer{out: &buf, noColor: true})

	assert.Equal(t,
		"A          │ LONG HEADER\n"+
			"───────────┼────────────\n"+
			"wider cell │ x\n"+
			"y          │\n",
		buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed pipe") }

func TestTableFormatter_WriteError(t *testing.T) {
	err := (&TableFormatter{NoColor: true}).Render(failingWriter{}, sampleTakeoff())
	assert.EqualError(t, err, "closed pipe")
}

package dataset

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/predcompare-cli/internal/analysis"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "step5.csv", "rm_id,predicted_weight\nRM1,0\nRM2,1520.5\nRM3,87\n")

	ds, err := Load("Step 5", p, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "Step 5", ds.Label)
	assert.Equal(t, []float64{0, 1520.5, 87}, ds.Values)
	assert.False(t, ds.Keyed())
	assert.Equal(t, 3, ds.Len())
}

func TestLoadCSV_KeysAndBlankLines(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "keyed.csv", "\ufeffRM_ID, Predicted_Weight\nRM1, 10\n\nRM2, 20\n")

	opt := DefaultOptions()
	opt.IDColumn = "rm_id"
	ds, err := Load("keyed", p, opt)
	require.NoError(t, err)
	assert.Equal(t, []string{"RM1", "RM2"}, ds.Keys)
	assert.Equal(t, []float64{10, 20}, ds.Values)
}

func TestLoadTSV_LocaleNumbers(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "preds.tsv", "id\tpredicted_weight\na\t1.234,5\nb\t0,25\n")

	ds, err := Load("tsv", p, DefaultOptions())
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1234.5, 0.25}, ds.Values, 1e-9)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load("missing", filepath.Join(dir, "nope.csv"), DefaultOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	p := writeFile(t, dir, "nocol.csv", "id,weight\n1,2\n")
	_, err = Load("nocol", p, DefaultOptions())
	assert.ErrorIs(t, err, ErrColumnNotFound)

	p = writeFile(t, dir, "neg.csv", "predicted_weight\n5\n-1\n")
	_, err = Load("neg", p, DefaultOptions())
	var pe *ParseError
	require.True(t, errors.As(err, &pe), "got %v", err)
	assert.Equal(t, 2, pe.Row)
	assert.Equal(t, "negative prediction", pe.Reason)

	p = writeFile(t, dir, "text.csv", "predicted_weight\nheavy\n")
	_, err = Load("text", p, DefaultOptions())
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "not a number", pe.Reason)

	p = writeFile(t, dir, "empty_cell.csv", "id,predicted_weight\nx,\n")
	_, err = Load("empty", p, DefaultOptions())
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "missing value", pe.Reason)

	opt := DefaultOptions()
	opt.IDColumn = "id"
	p = writeFile(t, dir, "dup.csv", "id,predicted_weight\nx,1\nx,2\n")
	_, err = Load("dup", p, opt)
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestLoadXLSX(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "preds.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"rm_id", "predicted_weight"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"RM1", 12.5}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"RM2", 0}))
	require.NoError(t, f.SaveAs(p))
	require.NoError(t, f.Close())

	ds, err := Load("xlsx", p, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []float64{12.5, 0}, ds.Values)

	opt := DefaultOptions()
	opt.Sheet = "Missing"
	_, err = Load("xlsx", p, opt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Available sheets: Sheet1")
}

func TestAlign_Positional(t *testing.T) {
	a := &Dataset{Label: "a", Values: []float64{1, 2, 3}}
	b := &Dataset{Label: "b", Values: []float64{1, 2}}

	_, _, _, err := Align(a, b)
	require.Error(t, err)
	assert.ErrorIs(t, err, analysis.ErrLengthMismatch)

	b.Values = []float64{3, 2, 1}
	x, y, st, err := Align(a, b)
	require.NoError(t, err)
	assert.False(t, st.ByKey)
	assert.Equal(t, 3, st.Matched)
	assert.Equal(t, a.Values, x)
	assert.Equal(t, b.Values, y)
}

func TestAlign_ByKey(t *testing.T) {
	a := &Dataset{Label: "a", Keys: []string{"r1", "r2", "r3"}, Values: []float64{1, 2, 3}}
	b := &Dataset{Label: "b", Keys: []string{"r3", "r4", "r1"}, Values: []float64{30, 40, 10}}

	x, y, st, err := Align(a, b)
	require.NoError(t, err)
	assert.True(t, st.ByKey)
	assert.Equal(t, []float64{1, 3}, x)
	assert.Equal(t, []float64{10, 30}, y)
	assert.Equal(t, AlignStats{ByKey: true, Matched: 2, OnlyBase: 1, OnlyCand: 1}, st)
}

func TestAlign_ByKeyWithHeaderOnlyFile(t *testing.T) {
	dir := t.TempDir()
	opt := DefaultOptions()
	opt.IDColumn = "rm_id"

	a, err := Load("a", writeFile(t, dir, "a.csv", "rm_id,predicted_weight\nRM1,1\nRM2,2\n"), opt)
	require.NoError(t, err)
	b, err := Load("b", writeFile(t, dir, "b.csv", "rm_id,predicted_weight\n"), opt)
	require.NoError(t, err)
	assert.True(t, b.Keyed())
	assert.Equal(t, 0, b.Len())

	x, y, st, err := Align(a, b)
	require.NoError(t, err)
	assert.Empty(t, x)
	assert.Empty(t, y)
	assert.Equal(t, AlignStats{ByKey: true, Matched: 0, OnlyBase: 2, OnlyCand: 0}, st)
}

func TestParseNumeric_Separators(t *testing.T) {
	tests := []struct {
		name string
		in   string
		opt  Options
		want float64
		err  error
	}{
		{name: "plain", in: "1520.5", want: 1520.5},
		{name: "decimal comma", in: "0,25", want: 0.25},
		{name: "grouped and decimal", in: "1.234,5", want: 1234.5},
		{name: "repeated commas group", in: "1,234,567", want: 1234567},
		{name: "lone comma before three digits", in: "12,345", err: errAmbiguousComma},
		{name: "explicit decimal comma", in: "12,345", opt: Options{DecimalSeparator: ','}, want: 12.345},
		{name: "explicit decimal dot", in: "12,345", opt: Options{DecimalSeparator: '.'}, want: 12345},
		{name: "explicit thousands comma", in: "12,345", opt: Options{ThousandsSeparator: ','}, want: 12345},
		{name: "text", in: "heavy", err: errNotNumber},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseNumeric(tt.in, tt.opt)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestLoad_AmbiguousCommaIsRejected(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "us.tsv", "predicted_weight\n12,345\n")

	_, err := Load("us", p, DefaultOptions())
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 1, pe.Row)
	assert.Contains(t, pe.Reason, "ambiguous comma")

	opt := DefaultOptions()
	opt.ThousandsSeparator = ','
	ds, err := Load("us", p, opt)
	require.NoError(t, err)
	assert.Equal(t, []float64{12345}, ds.Values)
}

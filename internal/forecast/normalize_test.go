package forecast

import (
	"errors"
	"strings"
	"testing"

	"github.com/lox/evdemand/internal/models"
	"github.com/lox/evdemand/internal/table"
)

func mustRead(t *testing.T, s string) *table.Table {
	t.Helper()
	tbl, err := table.Read(strings.NewReader(s))
	if err != nil {
		t.Fatalf("table.Read: %v", err)
	}
	return tbl
}

func TestNormalize_Prophet(t *testing.T) {
	tbl := mustRead(t, `ds,trend,yhat,yhat_lower,yhat_upper
2023,1,100,90,110
2024,1,120,108,132
2025,1,140,125,155
2026,1,165,146,184
2027,1,190,168,212
`)
	got, err := Normalize(tbl, SchemaProphet)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	wantYears := []int{2025, 2026, 2027}
	for i, rec := range got {
		if rec.Year != wantYears[i] {
			t.Errorf("got[%d].Year = %d, want %d", i, rec.Year, wantYears[i])
		}
		if rec.LowerBound == nil || rec.UpperBound == nil {
			t.Fatalf("got[%d] missing bounds", i)
		}
	}
	if got[0].Forecast != 140 || *got[0].LowerBound != 125 || *got[0].UpperBound != 155 {
		t.Errorf("got[0] = %+v", got[0])
	}
}

func TestNormalize_ARIMA(t *testing.T) {
	tbl := mustRead(t, "Year,Forecast\n2024,50\n2025,55\n2026,61.5\n")
	got, err := Normalize(tbl, SchemaARIMA)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	for _, rec := range got {
		if rec.LowerBound != nil || rec.UpperBound != nil {
			t.Errorf("ARIMA record has bounds: %+v", rec)
		}
	}
	if got[1].Year != 2026 || got[1].Forecast != 61.5 {
		t.Errorf("got[1] = %+v", got[1])
	}
}

func TestNormalize_AllHistorical(t *testing.T) {
	tbl := mustRead(t, "Year,Forecast\n2022,1\n2024,2\n")
	got, err := Normalize(tbl, SchemaARIMA)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty non-nil slice", got)
	}
}

func TestNormalize_PreservesOrder(t *testing.T) {
	tbl := mustRead(t, "Year,Forecast\n2027,3\n2025,1\n2026,2\n")
	got, err := Normalize(tbl, SchemaARIMA)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got[0].Year != 2027 || got[1].Year != 2025 || got[2].Year != 2026 {
		t.Errorf("order changed: %+v", got)
	}
}

func TestNormalize_MissingColumn(t *testing.T) {
	tbl := mustRead(t, "ds,yhat\n2025,1\n")
	if _, err := Normalize(tbl, SchemaProphet); err == nil {
		t.Fatal("expected error for missing yhat_lower")
	}
	tbl = mustRead(t, "Year,Value\n2025,1\n")
	if _, err := Normalize(tbl, SchemaARIMA); err == nil {
		t.Fatal("expected error for missing Forecast")
	}
}

func TestNormalize_EmptyBound(t *testing.T) {
	tbl := mustRead(t, "ds,yhat,yhat_lower,yhat_upper\n2025,10,,12\n")
	got, err := Normalize(tbl, SchemaProphet)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got[0].LowerBound != nil {
		t.Errorf("LowerBound = %v, want nil", *got[0].LowerBound)
	}
	if got[0].UpperBound == nil || *got[0].UpperBound != 12 {
		t.Errorf("UpperBound = %v", got[0].UpperBound)
	}
}

func TestSchemaFor(t *testing.T) {
	if SchemaFor(models.Prophet) != SchemaProphet {
		t.Error("Prophet should use the Prophet schema")
	}
	if SchemaFor(models.ARIMA) != SchemaARIMA {
		t.Error("ARIMA should use the ARIMA schema")
	}
}

func TestToTable(t *testing.T) {
	lo, hi := 9.5, 11.25
	recs := []Record{{Year: 2025, Forecast: 10, LowerBound: &lo, UpperBound: &hi}}

	tbl := ToTable(recs, SchemaProphet)
	if strings.Join(tbl.Columns, "|") != "Year|Forecast|Lower Bound|Upper Bound" {
		t.Errorf("Columns = %v", tbl.Columns)
	}
	if strings.Join(tbl.Rows[0], "|") != "2025|10|9.5|11.25" {
		t.Errorf("Rows[0] = %v", tbl.Rows[0])
	}

	tbl = ToTable([]Record{{Year: 2026, Forecast: 4.5}}, SchemaARIMA)
	if len(tbl.Columns) != 2 || strings.Join(tbl.Rows[0], "|") != "2026|4.5" {
		t.Errorf("ARIMA table = %+v", tbl)
	}
}

func TestTotal(t *testing.T) {
	recs := []Record{{Forecast: 1.5}, {Forecast: 2.5}, {Forecast: 6}}
	if got := Total(recs); got != 10 {
		t.Errorf("Total = %v, want 10", got)
	}
	if got := Total(nil); got != 0 {
		t.Errorf("Total(nil) = %v, want 0", got)
	}
}

func TestNormalize_NonFiniteKey(t *testing.T) {
	for _, key := range []string{"NaN", "Inf", "-Infinity", "1e300", "0"} {
		tbl := mustRead(t, "Year,Forecast\n"+key+",1\n2025,3\n")
		got, err := Normalize(tbl, SchemaARIMA)
		if !errors.Is(err, ErrBadKey) {
			t.Errorf("key %s: got %+v, %v; want ErrBadKey", key, got, err)
		}
	}
}

func TestNormalize_DateKeyed(t *testing.T) {
	tbl := mustRead(t, `ds,y,yhat,yhat_lower,yhat_upper
2024-12-01,5,5.1,4.9,5.3
2025-01-01,,6,5.5,6.5
2025-02-01 00:00:00,,7,6.2,7.8
`)
	got, err := Normalize(tbl, SchemaProphet)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Year != 2025 || got[0].Date != "2025-01-01" || got[1].Date != "2025-02-01" {
		t.Errorf("got = %+v", got)
	}

	out := ToTable(got, SchemaProphet)
	if out.Columns[0] != "Date" || out.Rows[1][0] != "2025-02-01" {
		t.Errorf("dated table = %+v", out)
	}
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		raw      string
		wantYear int
		wantDate string
		wantErr  bool
	}{
		{"2025", 2025, "", false},
		{" 2026.0 ", 2026, "", false},
		{"2025-07-02", 2025, "2025-07-02", false},
		{"2025-07-02T10:00:00Z", 2025, "2025-07-02", false},
		{"NaN", 0, "", true},
		{"+Inf", 0, "", true},
		{"soon", 0, "", true},
		{"", 0, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			k, err := ParseKey(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseKey(%q) = %+v, want error", tt.raw, k)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseKey(%q): %v", tt.raw, err)
			}
			if k.Year != tt.wantYear || k.Date != tt.wantDate {
				t.Errorf("ParseKey(%q) = %+v", tt.raw, k)
			}
		})
	}

	jan, _ := ParseKey("2025-01-01")
	jul, _ := ParseKey("2025-07-02")
	if jan.X != 2025 || jul.X <= 2025.4 || jul.X >= 2025.6 {
		t.Errorf("fractional years: jan=%v jul=%v", jan.X, jul.X)
	}
}

const datedProphet = `ds,y,yhat,yhat_lower,yhat_upper
2023-01-01,4,4.2,3.9,4.5
2024-01-01,5,5.1,4.9,5.3
2025-01-01,,6,5.5,6.5
2026-01-01,nan,7,6.2,7.8
`

func TestLine_IncludesHistory(t *testing.T) {
	pts, err := Line(mustRead(t, datedProphet), SchemaProphet)
	if err != nil {
		t.Fatalf("Line: %v", err)
	}
	if len(pts) != 4 {
		t.Fatalf("len = %d, want every row", len(pts))
	}
	if pts[0].Key.Year != 2023 || pts[3].Value != 7 {
		t.Errorf("pts = %+v", pts)
	}
}

func TestObserved(t *testing.T) {
	tbl := mustRead(t, datedProphet)
	pts, err := Observed(tbl)
	if err != nil {
		t.Fatalf("Observed: %v", err)
	}
	if len(pts) != 2 || pts[1].Value != 5 {
		t.Errorf("pts = %+v", pts)
	}

	hist, err := ObservedTable(tbl)
	if err != nil {
		t.Fatalf("ObservedTable: %v", err)
	}
	if strings.Join(hist.Columns, "|") != "Date|Historical Demand" || len(hist.Rows) != 2 {
		t.Errorf("hist = %+v", hist)
	}
	if strings.Join(hist.Rows[0], "|") != "2023-01-01|4" {
		t.Errorf("Rows[0] = %v", hist.Rows[0])
	}

	_, err = Observed(mustRead(t, "ds,yhat,yhat_lower,yhat_upper\n2025,1,1,1\n"))
	if !errors.Is(err, ErrNoObserved) {
		t.Errorf("err = %v, want ErrNoObserved", err)
	}
}

package artifact

import (
	"io/fs"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/evdemand/internal/config"
	"github.com/lox/evdemand/internal/models"
)

func dashboardLayout(t *testing.T) config.Layout {
	t.Helper()
	l, err := config.Preset("dashboard")
	require.NoError(t, err)
	return l
}

func platformLayout(t *testing.T) config.Layout {
	t.Helper()
	l, err := config.Preset("platform")
	require.NoError(t, err)
	return l
}

// countingFS records every Open so tests can assert absent artifacts are
// never opened.
type countingFS struct {
	fstest.MapFS
	opens []string
}

func (c *countingFS) Open(name string) (fs.File, error) {
	c.opens = append(c.opens, name)
	return c.MapFS.Open(name)
}

func (c *countingFS) Stat(name string) (fs.FileInfo, error) {
	return c.MapFS.Stat(name)
}

func TestFileName(t *testing.T) {
	dash := dashboardLayout(t)
	plat := platformLayout(t)

	tests := []struct {
		name   string
		layout config.Layout
		kind   Kind
		sel    models.Selection
		want   string
	}{
		{"prophet table", dash, KindForecastTable, models.Selection{City: models.Seattle, Model: models.Prophet}, "prophet_forecast_seattle.csv"},
		{"arima image", dash, KindForecastImage, models.Selection{City: models.Vancouver, Model: models.ARIMA}, "arima_forecast_vancouver.png"},
		{"multi-word city", dash, KindForecastTable, models.Selection{City: models.SanDiego, Model: models.Prophet}, "prophet_forecast_san_diego.csv"},
		{"platform joins words", plat, KindForecastTable, models.Selection{City: models.SanDiego, Model: models.Prophet}, "prophet_forecast_sandiego.csv"},
		{"fixed timeseries", dash, KindTimeSeries, models.Selection{City: models.SanDiego, Model: models.ARIMA}, "ev_demand_timeseries.csv"},
		{"fixed summary", dash, KindSummary, models.DefaultSelection, "ev_summary_tableau.csv"},
		{"fixed schedule", plat, KindSchedule, models.DefaultSelection, "optimized_charging_schedule.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(tt.layout, tt.kind, tt.sel))
		})
	}
}

func TestResolvePath_Deterministic(t *testing.T) {
	layout := dashboardLayout(t)
	for _, city := range models.Cities {
		for _, model := range models.Models {
			sel := models.Selection{City: city, Model: model}
			for _, kind := range Kinds {
				first := ResolvePath("/data", layout, kind, sel)
				second := ResolvePath("/data", layout, kind, sel)
				assert.Equal(t, first, second, "%s %s", kind, sel)
				assert.Equal(t, "/data", filepath.Dir(first))
			}
		}
	}
}

func TestFileName_UnknownKindPanics(t *testing.T) {
	layout := dashboardLayout(t)
	assert.Panics(t, func() {
		FileName(layout, Kind(42), models.DefaultSelection)
	})
}

func TestLoadOptionalTable_Absent(t *testing.T) {
	fsys := &countingFS{MapFS: fstest.MapFS{}}

	tbl, ok, err := LoadOptionalTable(fsys, "missing.csv")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, tbl)
	assert.Empty(t, fsys.opens, "absent artifact must not be opened")
}

func TestLoadOptionalTable_Present(t *testing.T) {
	fsys := &countingFS{MapFS: fstest.MapFS{
		"summary.csv": {Data: []byte("City,State\nSeattle,WA\n")},
	}}

	tbl, ok, err := LoadOptionalTable(fsys, "summary.csv")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"City", "State"}, tbl.Columns)
	assert.Equal(t, 1, tbl.Len())
	assert.Equal(t, []string{"summary.csv"}, fsys.opens)
}

func TestLoadOptionalTable_Directory(t *testing.T) {
	fsys := fstest.MapFS{
		"dir/file.csv": {Data: []byte("a\n1\n")},
	}
	_, ok, err := LoadOptionalTable(fsys, "dir")
	require.Error(t, err)
	assert.False(t, ok)
}

func TestLoadOptionalTable_Malformed(t *testing.T) {
	fsys := fstest.MapFS{
		"bad.csv": {Data: []byte("a,b\n\"unterminated,1\n")},
	}
	_, _, err := LoadOptionalTable(fsys, "bad.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse bad.csv")
}

func TestResolver_Load(t *testing.T) {
	fsys := fstest.MapFS{
		"arima_forecast_san_diego.csv": {Data: []byte("Year,Forecast\n2025,10\n")},
	}
	r := New(fsys, "/exports", dashboardLayout(t))
	sel := models.Selection{City: models.SanDiego, Model: models.ARIMA}

	lookup, err := r.Load(KindForecastTable, sel)
	require.NoError(t, err)
	assert.False(t, lookup.Absent())
	assert.Equal(t, filepath.Join("/exports", "arima_forecast_san_diego.csv"), lookup.Path)

	lookup, err = r.Load(KindSchedule, sel)
	require.NoError(t, err)
	assert.True(t, lookup.Absent())
	assert.Equal(t, filepath.Join("/exports", "optimized_charging_schedule.csv"), lookup.Path)
}

func TestResolver_Inventory(t *testing.T) {
	fsys := fstest.MapFS{
		"ev_demand_timeseries.csv":     {Data: []byte("City,Year\n")},
		"prophet_forecast_seattle.png": {Data: []byte{0x89, 'P', 'N', 'G'}},
	}
	r := New(fsys, "data", dashboardLayout(t))

	inv, err := r.Inventory(models.DefaultSelection)
	require.NoError(t, err)
	require.Len(t, inv, len(Kinds))

	present := map[string]bool{}
	for _, st := range inv {
		present[st.Name] = st.Present
	}
	assert.True(t, present["timeseries"])
	assert.True(t, present["forecast-image"])
	assert.False(t, present["summary"])
	assert.False(t, present["schedule"])
	assert.False(t, present["forecast-table"])
}

func TestResolver_ReadBlob(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	fsys := &countingFS{MapFS: fstest.MapFS{
		"prophet_forecast_seattle.png": {Data: png},
	}}
	r := New(fsys, "data", dashboardLayout(t))

	data, ok, err := r.ReadBlob(KindForecastImage, models.DefaultSelection)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, png, data)

	fsys.opens = nil
	_, ok, err = r.ReadBlob(KindForecastImage, models.Selection{City: models.Vancouver, Model: models.ARIMA})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, fsys.opens)
}

// Package artifact maps a city/model selection onto the files an external
// forecasting and optimisation run leaves behind, and loads them.
//
// Missing files are an expected state, not a failure: every lookup reports
// absence to the caller, who decides how to show it. Only unreadable or
// unparseable files produce errors.
package artifact

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lox/evdemand/internal/config"
	"github.com/lox/evdemand/internal/metrics"
	"github.com/lox/evdemand/internal/models"
	"github.com/lox/evdemand/internal/table"
)

type Kind int

const (
	KindTimeSeries Kind = iota
	KindSummary
	KindSchedule
	KindForecastTable
	KindForecastImage
)

// Kinds lists every artifact kind in display order.
var Kinds = []Kind{KindTimeSeries, KindSummary, KindSchedule, KindForecastTable, KindForecastImage}

func (k Kind) String() string {
	switch k {
	case KindTimeSeries:
		return "timeseries"
	case KindSummary:
		return "summary"
	case KindSchedule:
		return "schedule"
	case KindForecastTable:
		return "forecast-table"
	case KindForecastImage:
		return "forecast-image"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// template returns the file name template for kind. An unknown kind is a bug
// in the caller.
func template(files config.Files, kind Kind) string {
	switch kind {
	case KindTimeSeries:
		return files.TimeSeries
	case KindSummary:
		return files.Summary
	case KindSchedule:
		return files.Schedule
	case KindForecastTable:
		return files.ForecastTable
	case KindForecastImage:
		return files.ForecastImage
	}
	panic(fmt.Sprintf("artifact: unknown kind %d", int(kind)))
}

// FileName derives the artifact file name for kind and sel: the model name
// lower-cased, the city lower-cased with spaces replaced by the layout's
// separator, both substituted into the kind's template.
func FileName(layout config.Layout, kind Kind, sel models.Selection) string {
	model := strings.ToLower(string(sel.Model))
	city := strings.ReplaceAll(strings.ToLower(string(sel.City)), " ", layout.CitySeparator)
	return strings.NewReplacer("{model}", model, "{city}", city).Replace(template(layout.Files, kind))
}

// ResolvePath joins the base directory with the artifact file name.
func ResolvePath(base string, layout config.Layout, kind Kind, sel models.Selection) string {
	return filepath.Join(base, FileName(layout, kind, sel))
}

// LoadOptionalTable reads the CSV at name from fsys. It stats the file first
// and never opens a path that does not exist: absence is reported as
// ok == false with a nil error.
func LoadOptionalTable(fsys fs.FS, name string) (t *table.Table, ok bool, err error) {
	info, err := fs.Stat(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("stat %s: %w", name, err)
	}
	if info.IsDir() {
		return nil, false, fmt.Errorf("%s is a directory", name)
	}

	f, err := fsys.Open(name)
	if err != nil {
		return nil, false, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	t, err = table.Read(f)
	if err != nil {
		return nil, false, fmt.Errorf("parse %s: %w", name, err)
	}
	return t, true, nil
}

// Lookup is the outcome of resolving and loading one table artifact.
type Lookup struct {
	Kind  Kind
	Path  string
	Table *table.Table // nil when the artifact is absent
}

func (l Lookup) Absent() bool {
	return l.Table == nil
}

// Status reports whether one artifact exists, for inventories.
type Status struct {
	Kind    Kind      `json:"-"`
	Name    string    `json:"kind"`
	Path    string    `json:"path"`
	Present bool      `json:"present"`
	ModTime time.Time `json:"mod_time,omitempty"`
	Size    int64     `json:"size,omitempty"`
}

// Resolver resolves artifacts for one base location and naming layout.
type Resolver struct {
	fsys   fs.FS
	base   string
	layout config.Layout
}

// New returns a resolver reading from fsys. base is only used to report
// paths to users; lookups go through fsys.
func New(fsys fs.FS, base string, layout config.Layout) *Resolver {
	return &Resolver{fsys: fsys, base: base, layout: layout}
}

// NewDir returns a resolver over a directory on disk.
func NewDir(dir string, layout config.Layout) *Resolver {
	return New(os.DirFS(dir), dir, layout)
}

func (r *Resolver) Layout() config.Layout {
	return r.layout
}

func (r *Resolver) Base() string {
	return r.base
}

// Name returns the artifact file name relative to the resolver's filesystem.
func (r *Resolver) Name(kind Kind, sel models.Selection) string {
	return FileName(r.layout, kind, sel)
}

// Path returns the artifact location as shown to users.
func (r *Resolver) Path(kind Kind, sel models.Selection) string {
	return ResolvePath(r.base, r.layout, kind, sel)
}

// Load resolves and reads a table artifact. A missing file yields a Lookup
// with a nil Table and no error.
func (r *Resolver) Load(kind Kind, sel models.Selection) (Lookup, error) {
	start := time.Now()
	lookup := Lookup{Kind: kind, Path: r.Path(kind, sel)}

	t, ok, err := LoadOptionalTable(r.fsys, r.Name(kind, sel))
	metrics.ArtifactLoadLatency.WithLabelValues(kind.String()).Observe(time.Since(start).Seconds())
	switch {
	case err != nil:
		metrics.ArtifactLoads.WithLabelValues(kind.String(), "error").Inc()
		return lookup, err
	case !ok:
		metrics.ArtifactLoads.WithLabelValues(kind.String(), "absent").Inc()
		return lookup, nil
	}
	metrics.ArtifactLoads.WithLabelValues(kind.String(), "found").Inc()
	lookup.Table = t
	return lookup, nil
}

// Stat reports whether an artifact exists without reading it.
func (r *Resolver) Stat(kind Kind, sel models.Selection) (Status, error) {
	st := Status{Kind: kind, Name: kind.String(), Path: r.Path(kind, sel)}
	info, err := fs.Stat(r.fsys, r.Name(kind, sel))
	if errors.Is(err, fs.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return st, fmt.Errorf("stat %s: %w", st.Path, err)
	}
	st.Present = !info.IsDir()
	if st.Present {
		st.ModTime = info.ModTime()
		st.Size = info.Size()
	}
	return st, nil
}

// Inventory stats every artifact kind for sel.
func (r *Resolver) Inventory(sel models.Selection) ([]Status, error) {
	out := make([]Status, 0, len(Kinds))
	for _, kind := range Kinds {
		st, err := r.Stat(kind, sel)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// ReadBlob returns the raw bytes of an opaque artifact such as the forecast
// image. Like Load, absence is ok == false with a nil error.
func (r *Resolver) ReadBlob(kind Kind, sel models.Selection) (data []byte, ok bool, err error) {
	name := r.Name(kind, sel)
	if _, err := fs.Stat(r.fsys, name); errors.Is(err, fs.ErrNotExist) {
		metrics.ArtifactLoads.WithLabelValues(kind.String(), "absent").Inc()
		return nil, false, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("stat %s: %w", name, err)
	}

	f, err := r.fsys.Open(name)
	if err != nil {
		metrics.ArtifactLoads.WithLabelValues(kind.String(), "error").Inc()
		return nil, false, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	data, err = io.ReadAll(f)
	if err != nil {
		metrics.ArtifactLoads.WithLabelValues(kind.String(), "error").Inc()
		return nil, false, fmt.Errorf("read %s: %w", name, err)
	}
	metrics.ArtifactLoads.WithLabelValues(kind.String(), "found").Inc()
	return data, true, nil
}

package pipeline

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/covid-pivot-etl/internal/domain"
	"github.com/couchcryptid/covid-pivot-etl/internal/observability"
)

// Output frame names, also used as metric labels.
const (
	StateFrame  = "state_pivot"
	CountyFrame = "county_pivot"
	MapFrame    = "county_map"
)

// ErrNoCountyCodes is returned when the county pivot is enabled but no input
// record carries a region code.
var ErrNoCountyCodes = errors.New("no records carry a fips_code")

// ObservationSource reads the input table.
type ObservationSource interface {
	ReadObservations(ctx context.Context, path string, withFIPS bool) ([]domain.Observation, error)
}

// FrameWriter persists a frame to path.
type FrameWriter interface {
	WriteFrame(ctx context.Context, frame domain.Frame, path string) error
}

// GeometrySource reads county boundaries.
type GeometrySource interface {
	ReadCounties(ctx context.Context, path string) ([]domain.CountyGeometry, error)
}

// Notifier announces a finished refresh.
type Notifier interface {
	NotifyRefresh(ctx context.Context, event domain.RefreshEvent) error
}

// Settings are the paths and switches of one run.
type Settings struct {
	InputPath        string
	StateOutputPath  string
	CountyOutputPath string
	CountyPivot      bool
	FillMissing      bool
	GeoShapefilePath string
	MapOutputPath    string
	WorkbookPath     string
}

// Option configures optional stages.
type Option func(*Pipeline)

// WithGeometry enables the county geometry join.
func WithGeometry(src GeometrySource) Option {
	return func(p *Pipeline) { p.geometry = src }
}

// WithWorkbook enables the spreadsheet copy of the state table.
func WithWorkbook(w FrameWriter) Option {
	return func(p *Pipeline) { p.workbook = w }
}

// WithNotifier publishes a refresh event after all outputs are written.
func WithNotifier(n Notifier) Option {
	return func(p *Pipeline) { p.notifier = n }
}

// Pipeline runs the load, derive, pivot and write stages once.
type Pipeline struct {
	settings Settings
	source   ObservationSource
	writer   FrameWriter
	geometry GeometrySource
	workbook FrameWriter
	notifier Notifier
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// New creates a Pipeline reading from source and writing Parquet through writer.
func New(settings Settings, source ObservationSource, writer FrameWriter, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		settings: settings,
		source:   source,
		writer:   writer,
		logger:   logger,
		metrics:  metrics,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the whole job and returns the refresh event describing its outputs.
// Any error aborts the run; outputs already written are left in place.
func (p *Pipeline) Run(ctx context.Context) (domain.RefreshEvent, error) {
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	logger.Info("pivot run started", "input", p.settings.InputPath)

	event, err := p.run(ctx, runID, logger)
	if err != nil {
		p.metrics.RunFailures.Inc()
		logger.Error("pivot run failed", "error", err)
		return domain.RefreshEvent{}, err
	}

	p.metrics.LastSuccess.Set(float64(event.GeneratedAt.Unix()))
	logger.Info("pivot run finished", "outputs", len(event.Outputs))
	return event, nil
}

func (p *Pipeline) run(ctx context.Context, runID string, logger *slog.Logger) (domain.RefreshEvent, error) {
	var obs []domain.Observation
	err := p.stage(logger, "load", func() (err error) {
		obs, err = p.source.ReadObservations(ctx, p.settings.InputPath, p.settings.CountyPivot)
		return err
	})
	if err != nil {
		return domain.RefreshEvent{}, fmt.Errorf("load observations: %w", err)
	}
	p.metrics.ObservationsLoaded.Set(float64(len(obs)))
	logger.Info("observations loaded", "rows", len(obs))

	var outputs []domain.OutputSummary

	state, err := p.stateTable(logger, obs)
	if err != nil {
		return domain.RefreshEvent{}, err
	}
	if err := p.write(ctx, logger, state, p.settings.StateOutputPath, &outputs); err != nil {
		return domain.RefreshEvent{}, err
	}
	if p.workbook != nil && p.settings.WorkbookPath != "" {
		err := p.stage(logger, "workbook", func() error {
			return p.workbook.WriteFrame(ctx, state, p.settings.WorkbookPath)
		})
		if err != nil {
			return domain.RefreshEvent{}, fmt.Errorf("write workbook: %w", err)
		}
		logger.Info("workbook written", "path", p.settings.WorkbookPath)
	}

	if p.settings.CountyPivot {
		county, err := p.countyTable(logger, obs)
		if err != nil {
			return domain.RefreshEvent{}, err
		}
		if err := p.write(ctx, logger, county.Frame(CountyFrame), p.settings.CountyOutputPath, &outputs); err != nil {
			return domain.RefreshEvent{}, err
		}
		if err := p.geoJoin(ctx, logger, county, &outputs); err != nil {
			return domain.RefreshEvent{}, err
		}
	}

	event := domain.NewRefreshEvent(runID, p.settings.InputPath, outputs)
	if p.notifier != nil {
		err := p.stage(logger, "notify", func() error { return p.notifier.NotifyRefresh(ctx, event) })
		if err != nil {
			return domain.RefreshEvent{}, fmt.Errorf("notify refresh: %w", err)
		}
	}
	return event, nil
}

// stateTable derives state statistics plus the national rollup and pivots
// them into one row per date.
func (p *Pipeline) stateTable(logger *slog.Logger, obs []domain.Observation) (domain.Frame, error) {
	var frame domain.Frame
	err := p.stage(logger, "state", func() error {
		rows := domain.Aggregate(obs, domain.StateKey)
		p.metrics.RegionsDerived.WithLabelValues("state").Set(float64(countRegions(rows)))
		rows = domain.AppendRollup(rows, domain.NationalRegion)

		records := fill(p.settings.FillMissing, domain.Derive(rows))
		wide := domain.Pivot("date", domain.Cells(records, domain.PivotStatistics, domain.ByDate[string]))
		frame = wide.Frame(StateFrame)
		return nil
	})
	return frame, err
}

// countyTable derives county statistics and pivots them into one row per region code.
func (p *Pipeline) countyTable(logger *slog.Logger, obs []domain.Observation) (domain.Wide[int64, domain.Day], error) {
	var wide domain.Wide[int64, domain.Day]
	err := p.stage(logger, "county", func() error {
		rows := domain.Aggregate(obs, domain.CountyKey)
		if len(rows) == 0 {
			return ErrNoCountyCodes
		}
		p.metrics.RegionsDerived.WithLabelValues("county").Set(float64(countRegions(rows)))

		records := fill(p.settings.FillMissing, domain.Derive(rows))
		wide = domain.Pivot("fips_code", domain.Cells(records, domain.PivotStatistics, domain.ByRegion[int64]))
		return nil
	})
	return wide, err
}

// geoJoin attaches county metrics to their boundaries. The join runs whenever
// a shapefile is configured; the result is written only when a map path is set.
func (p *Pipeline) geoJoin(ctx context.Context, logger *slog.Logger, county domain.Wide[int64, domain.Day], outputs *[]domain.OutputSummary) error {
	if p.geometry == nil || p.settings.GeoShapefilePath == "" {
		return nil
	}

	var joined domain.Frame
	err := p.stage(logger, "geo", func() error {
		geoms, err := p.geometry.ReadCounties(ctx, p.settings.GeoShapefilePath)
		if err != nil {
			return err
		}
		joined, err = domain.JoinGeometry(MapFrame, geoms, county)
		return err
	})
	if err != nil {
		return fmt.Errorf("join geometry: %w", err)
	}
	logger.Info("geometry joined", "regions", joined.Len())

	if p.settings.MapOutputPath == "" {
		return nil
	}
	return p.write(ctx, logger, joined, p.settings.MapOutputPath, outputs)
}

func (p *Pipeline) write(ctx context.Context, logger *slog.Logger, frame domain.Frame, path string, outputs *[]domain.OutputSummary) error {
	err := p.stage(logger, "write_"+frame.Name, func() error {
		return p.writer.WriteFrame(ctx, frame, path)
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", frame.Name, err)
	}

	summary := domain.Summarize(frame, path)
	p.metrics.OutputRows.WithLabelValues(frame.Name).Set(float64(summary.Rows))
	p.metrics.OutputColumns.WithLabelValues(frame.Name).Set(float64(summary.Columns))
	*outputs = append(*outputs, summary)

	logger.Info("output written",
		"name", frame.Name,
		"path", path,
		"rows", summary.Rows,
		"columns", summary.Columns,
	)
	return nil
}

func fill[K cmp.Ordered](enabled bool, records []domain.Record[K]) []domain.Record[K] {
	if !enabled {
		return records
	}
	return domain.FillMissing(records)
}

// stage runs fn, records its duration and logs the outcome.
func (p *Pipeline) stage(logger *slog.Logger, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	p.metrics.StageDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	logger.Debug("stage finished", "stage", name, "duration", elapsed, "ok", err == nil)
	return err
}

func countRegions[K cmp.Ordered](rows []domain.RegionDay[K]) int {
	seen := make(map[K]struct{})
	for _, r := range rows {
		seen[r.Region] = struct{}{}
	}
	return len(seen)
}

package resolver

import (
	"context"
	"errors"
	"os"
	"path"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/bmex-dev/leveldensity/internal/export"
	"github.com/bmex-dev/leveldensity/internal/isotope"
	"github.com/bmex-dev/leveldensity/internal/metrics"
	"github.com/bmex-dev/leveldensity/pkg/logger"
)

const PromptMissingInput = "Please enter an A and Z"

type Config struct {
	// IndexFile is relative to the root of the data file system.
	IndexFile string
	Labels    Labels
}

// Resolver looks up the data of an isotope on a file system laid out as
// "{Z}_{A}/*.csv" folders next to a global index CSV.
type Resolver struct {
	fs        afero.Fs
	indexFile string
	labels    Labels
}

type SkippedFile struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

type Result struct {
	Isotope      *isotope.Isotope `json:"isotope,omitempty"`
	Prompt       string           `json:"prompt,omitempty"`
	FolderFound  bool             `json:"folder_found"`
	Measurements []MeasurementSet `json:"measurements"`
	Index        IndexTable       `json:"index"`
	Skipped      []SkippedFile    `json:"skipped,omitempty"`
	Labels       Labels           `json:"labels"`
	LatencyMS    int64            `json:"latency_ms"`
}

func NewResolver(fs afero.Fs, cfg Config) *Resolver {
	if cfg.Labels == (Labels{}) {
		cfg.Labels = StandardLabels
	}
	return &Resolver{
		fs:        fs,
		indexFile: cfg.IndexFile,
		labels:    cfg.Labels,
	}
}

func (r *Resolver) Labels() Labels {
	return r.labels
}

// Resolve loads the measurement files and index rows of the isotope named by
// params. Missing input yields a prompt and missing or malformed data yields
// an empty or partial result; the only error is a cancelled context.
func (r *Resolver) Resolve(ctx context.Context, params isotope.Params) (*Result, error) {
	start := time.Now()
	defer func() { metrics.ResolveDuration.Observe(time.Since(start).Seconds()) }()

	iso, ok := params.Isotope()
	if !ok {
		metrics.ResolveTotal.WithLabelValues(metrics.OutcomePrompt).Inc()
		return &Result{
			Prompt:       PromptMissingInput,
			Measurements: []MeasurementSet{},
			Index:        IndexTable{Columns: []string{}, Records: []IndexRecord{}},
			Labels:       r.labels,
		}, nil
	}

	result := &Result{
		Isotope:      &iso,
		Measurements: []MeasurementSet{},
		Labels:       r.labels,
	}

	if err := r.loadMeasurements(ctx, iso, result); err != nil {
		return nil, err
	}
	result.Index = r.loadIndex(iso)

	if result.FolderFound {
		metrics.ResolveTotal.WithLabelValues(metrics.OutcomeResolved).Inc()
	} else {
		metrics.ResolveTotal.WithLabelValues(metrics.OutcomeNoFolder).Inc()
	}
	result.LatencyMS = time.Since(start).Milliseconds()

	logger.Debug("Isotope resolved",
		zap.String("isotope", iso.FolderKey()),
		zap.Bool("folder_found", result.FolderFound),
		zap.Int("files", len(result.Measurements)),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int("index_rows", len(result.Index.Records)),
	)

	return result, nil
}

func (r *Resolver) loadMeasurements(ctx context.Context, iso isotope.Isotope, result *Result) error {
	folder := iso.FolderKey()

	entries, err := afero.ReadDir(r.fs, folder)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("Failed to list isotope folder", zap.String("folder", folder), zap.Error(err))
		}
		return nil
	}
	result.FolderFound = true

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}

		name := path.Join(folder, entry.Name())
		points, err := r.readMeasurementFile(name)
		if err != nil {
			metrics.FilesParsed.WithLabelValues(metrics.StatusMalformed).Inc()
			logger.Warn("Skipping measurement file", zap.String("file", name), zap.Error(err))
			result.Skipped = append(result.Skipped, SkippedFile{File: entry.Name(), Reason: err.Error()})
			continue
		}
		metrics.FilesParsed.WithLabelValues(metrics.StatusOK).Inc()

		result.Measurements = append(result.Measurements, MeasurementSet{
			File:    entry.Name(),
			Columns: r.labels.Columns(),
			Points:  points,
		})
	}

	return nil
}

func (r *Resolver) readMeasurementFile(name string) ([]Point, error) {
	file, err := r.fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return parseMeasurements(file)
}

func (r *Resolver) loadIndex(iso isotope.Isotope) IndexTable {
	empty := IndexTable{Columns: []string{}, Records: []IndexRecord{}}

	file, err := r.fs.Open(r.indexFile)
	if err != nil {
		logger.Warn("Failed to open index file", zap.String("file", r.indexFile), zap.Error(err))
		return empty
	}
	defer file.Close()

	table, err := parseIndex(file, iso)
	if err != nil {
		logger.Warn("Failed to parse index file", zap.String("file", r.indexFile), zap.Error(err))
		return empty
	}
	return table
}

// Table concatenates all measurement sets in enumeration order. It returns
// nil for a prompt result.
func (res *Result) Table() *export.Table {
	if res.Prompt != "" {
		return nil
	}
	table := &export.Table{Columns: res.Labels.Columns(), Rows: [][]string{}}
	for _, set := range res.Measurements {
		table.Rows = append(table.Rows, set.Rows()...)
	}
	return table
}

func (res *Result) Resolved() bool {
	return res.Prompt == ""
}

func (res *Result) PointCount() int {
	n := 0
	for _, set := range res.Measurements {
		n += len(set.Points)
	}
	return n
}

package usecase

import (
	"fmt"
	"time"

	"fuzzydex/config"
	"fuzzydex/internal/adapter/analyzer"
	"fuzzydex/internal/adapter/fuzzyindex"
	"fuzzydex/internal/adapter/multidex"
	"fuzzydex/internal/domain"
	"fuzzydex/internal/logging"
	"fuzzydex/internal/port"
)

// BuildUseCase builds a multidimensional index from the catalog.
type BuildUseCase struct {
	catalog port.FactCatalog
	cfg     *config.Config
	log     *logging.Logger
}

// NewBuildUseCase creates a new build use case.
func NewBuildUseCase(catalog port.FactCatalog, cfg *config.Config, log *logging.Logger) *BuildUseCase {
	if log == nil {
		log = logging.Discard()
	}
	return &BuildUseCase{
		catalog: catalog,
		cfg:     cfg,
		log:     log,
	}
}

// BuildResult contains the results of a build.
type BuildResult struct {
	FactsIndexed      int
	AliasesIndexed    int
	FactsSkipped      int
	AttributesIgnored int
	Duration          time.Duration
}

// NewDimension creates the fuzzy index described by dc.
func NewDimension(dc config.DimensionConfig) (port.MutableIndex[string], error) {
	switch dc.Kind {
	case "scan", "":
		idx := fuzzyindex.NewScanIndex[string]()
		if err := idx.SetTolerance(dc.Tolerance); err != nil {
			return nil, err
		}
		idx.SetWeight(dc.Weight)
		return idx, nil
	case "bucket":
		enc, err := analyzer.NewEncoder(dc.Encoder)
		if err != nil {
			return nil, err
		}
		idx := fuzzyindex.NewBucketIndex[string](enc)
		if err := idx.SetTolerance(dc.Tolerance); err != nil {
			return nil, err
		}
		idx.SetWeight(dc.Weight)
		return idx, nil
	default:
		return nil, fmt.Errorf("%w: unknown dimension kind %q", domain.ErrValidation, dc.Kind)
	}
}

// Build reads every catalog record into a new index. With no configured
// dimensions each attribute name seen becomes a scan dimension; otherwise
// attributes outside the configured dimensions are ignored. Records the
// index rejects are skipped and logged. progress, when set, is called after
// each record.
func (u *BuildUseCase) Build(progress func(done, total int)) (*multidex.Index[string], *BuildResult, error) {
	start := time.Now()
	result := &BuildResult{}

	idx := multidex.New[string]()
	if !u.cfg.Index.ValidateFacts {
		idx.DisableFactValidation()
	}

	auto := len(u.cfg.Index.Dimensions) == 0
	for _, dc := range u.cfg.Index.Dimensions {
		if err := u.addDimension(idx, dc.Name); err != nil {
			return nil, nil, err
		}
	}

	records, err := u.catalog.ListRecords()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list records: %w", err)
	}

	known := func(name string) bool {
		_, err := idx.Index(name)
		return err == nil
	}
	keep := func(attrs []domain.Attribute) ([]domain.Attribute, error) {
		out := make([]domain.Attribute, 0, len(attrs))
		for _, a := range attrs {
			if !known(a.Name) {
				if !auto {
					result.AttributesIgnored++
					continue
				}
				if err := u.addDimension(idx, a.Name); err != nil {
					return nil, err
				}
			}
			out = append(out, a)
		}
		return out, nil
	}

	for i, rec := range records {
		attrs, err := keep(rec.Attributes)
		if err != nil {
			return nil, nil, err
		}
		aliases, err := keep(rec.Aliases)
		if err != nil {
			return nil, nil, err
		}

		if err := idx.AddFact(rec.ID, attrs...); err != nil {
			u.log.Warnf("skipping fact %s: %v", rec.ID, err)
			result.FactsSkipped++
		} else {
			result.FactsIndexed++
			if len(aliases) > 0 {
				if err := idx.AddIndexMembersForExistingFact(rec.ID, aliases...); err != nil {
					u.log.Warnf("skipping aliases of %s: %v", rec.ID, err)
				} else {
					result.AliasesIndexed += len(aliases)
				}
			}
		}

		if progress != nil {
			progress(i+1, len(records))
		}
	}

	result.Duration = time.Since(start)
	u.log.Debugf("built index of %d facts over %d dimensions in %v", result.FactsIndexed, len(idx.Dimensions()), result.Duration)
	return idx, result, nil
}

func (u *BuildUseCase) addDimension(idx *multidex.Index[string], name string) error {
	dim, err := NewDimension(u.cfg.Dimension(name))
	if err != nil {
		return fmt.Errorf("dimension %s: %w", name, err)
	}
	return idx.AddDimension(name, dim)
}

package indicator

import (
	"fmt"
	"sync"

	"github.com/mohamedkhairy/ohlcv-indicators/internal/models"
	indicatorpkg "github.com/mohamedkhairy/ohlcv-indicators/pkg/indicator"
)

// StudyMetadata contains information about a registered study
type StudyMetadata struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
	Category    string // "trend", "momentum", "volatility"
}

// ColumnInfo describes one output column produced by a study
type ColumnInfo struct {
	Name       string `json:"name"`
	Study      string `json:"study"`
	FirstIndex int    `json:"first_index"` // first 0-indexed row holding a value
}

// Study binds a calculator to the output columns its series fill. Columns
// are matched positionally with Calculator.Outputs(); an empty column name
// drops that output.
type Study struct {
	Calculator indicatorpkg.Calculator
	Columns    []ColumnInfo
	Metadata   StudyMetadata
}

// IndicatorRegistry manages the studies the engine runs, in registration order
type IndicatorRegistry struct {
	mu      sync.RWMutex
	studies []Study
	byName  map[string]int
	columns map[string]string // column -> study name
}

// NewIndicatorRegistry creates a new indicator registry
func NewIndicatorRegistry() *IndicatorRegistry {
	return &IndicatorRegistry{
		byName:  make(map[string]int),
		columns: make(map[string]string),
	}
}

// Register registers a study. Study names and column names must be unique,
// and every column must exist on models.IndicatorRow.
func (r *IndicatorRegistry) Register(study Study) error {
	if study.Calculator == nil {
		return fmt.Errorf("study calculator cannot be nil")
	}
	name := study.Calculator.Name()
	if len(study.Columns) != len(study.Calculator.Outputs()) {
		return fmt.Errorf("study %q maps %d columns to %d outputs",
			name, len(study.Columns), len(study.Calculator.Outputs()))
	}

	var row models.IndicatorRow
	seen := make(map[string]bool, len(study.Columns))
	for _, col := range study.Columns {
		if col.Name == "" {
			continue
		}
		if _, err := row.Get(col.Name); err != nil {
			return fmt.Errorf("study %q: %w", name, err)
		}
		if seen[col.Name] {
			return fmt.Errorf("study %q maps column %q twice", name, col.Name)
		}
		seen[col.Name] = true
	}

	// the caller keeps its own Columns slice
	study.Columns = append([]ColumnInfo(nil), study.Columns...)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("study %q already registered", name)
	}
	for _, col := range study.Columns {
		if owner, taken := r.columns[col.Name]; taken && col.Name != "" {
			return fmt.Errorf("column %q already produced by study %q", col.Name, owner)
		}
	}

	for i := range study.Columns {
		study.Columns[i].Study = name
		if study.Columns[i].Name != "" {
			r.columns[study.Columns[i].Name] = name
		}
	}
	r.byName[name] = len(r.studies)
	r.studies = append(r.studies, study)
	return nil
}

// Studies returns the registered studies in registration order
func (r *IndicatorRegistry) Studies() []Study {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Study, len(r.studies))
	copy(result, r.studies)
	return result
}

// GetStudy returns a study by calculator name
func (r *IndicatorRegistry) GetStudy(name string) (Study, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, exists := r.byName[name]
	if !exists {
		return Study{}, false
	}
	return r.studies[i], true
}

// Columns returns every produced column in registration order
func (r *IndicatorRegistry) Columns() []ColumnInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []ColumnInfo
	for _, s := range r.studies {
		for _, col := range s.Columns {
			if col.Name != "" {
				result = append(result, col)
			}
		}
	}
	return result
}

// ListAvailable returns all registered study names
func (r *IndicatorRegistry) ListAvailable() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.studies))
	for _, s := range r.studies {
		names = append(names, s.Calculator.Name())
	}
	return names
}

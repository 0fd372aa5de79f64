package evaluation

import (
	"time"

	"claimsift/domain/core"
)

// RunSummary is the persisted record of one end-to-end selection run
type RunSummary struct {
	ID          core.RunID `json:"id"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt time.Time  `json:"completed_at"`
	Source      string     `json:"source"`

	RecordCount     int       `json:"record_count"`
	FixedAges       int       `json:"fixed_ages"`
	FeatureCount    int       `json:"feature_count"`
	RemovedFeatures []string  `json:"removed_features"`
	FitMode         string    `json:"fit_mode"`
	MatrixHash      core.Hash `json:"matrix_hash"`
	AgeMin          float64   `json:"age_min"`
	AgeMax          float64   `json:"age_max"`

	TrainSize      int   `json:"train_size"`
	TestSize       int   `json:"test_size"`
	TrainPositives int   `json:"train_positives"`
	TestPositives  int   `json:"test_positives"`
	Folds          int   `json:"folds"`
	SplitSeed      int64 `json:"split_seed"`

	// Screening ranks the training features by association with the label
	Screening []FeatureScreen `json:"screening,omitempty"`

	Families []FamilySummary `json:"families"`
}

// FamilySummary is the selection outcome of one classifier family
type FamilySummary struct {
	Family     string         `json:"family"`
	Found      bool           `json:"found"`
	Best       *Configuration `json:"best,omitempty"`
	CVRecall   float64        `json:"cv_recall"`
	CVAccuracy float64        `json:"cv_accuracy"`
	Test       *Metrics       `json:"test,omitempty"`
	Cells      []GridCell     `json:"cells"`
}

// Family returns the summary for a family name
func (s *RunSummary) Family(name string) (*FamilySummary, bool) {
	for i := range s.Families {
		if s.Families[i].Family == name {
			return &s.Families[i], true
		}
	}
	return nil, false
}

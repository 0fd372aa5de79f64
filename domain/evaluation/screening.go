package evaluation

// SenseResult is one statistical test of a feature against the fraud label
type SenseResult struct {
	Sense      string  `json:"sense"`
	Statistic  float64 `json:"statistic"`
	PValue     float64 `json:"p_value"`
	EffectSize float64 `json:"effect_size"`
	Signal     string  `json:"signal"` // weak, moderate, strong or very_strong
}

// FeatureScreen is the univariate association profile of one encoded feature
type FeatureScreen struct {
	Feature string `json:"feature"`

	// MutualInformation in bits between the feature and the label; screens
	// are ranked by it
	MutualInformation float64       `json:"mutual_information"`
	Results           []SenseResult `json:"results"`
}

// Result returns the outcome of a named sense
func (f FeatureScreen) Result(sense string) (SenseResult, bool) {
	for _, r := range f.Results {
		if r.Sense == sense {
			return r, true
		}
	}
	return SenseResult{}, false
}

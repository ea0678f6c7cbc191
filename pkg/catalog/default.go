package catalog

// DefaultDefinitions returns the stock Free/Plus/Pro tier table.
// Applications with custom tiers should build their own definitions
// and pass them to New.
func DefaultDefinitions() []TierDefinition {
	return []TierDefinition{
		{
			ID:          TierFree,
			Ordinal:     0,
			Name:        "Free",
			Description: "Get started with the basics",
			Features: []FeatureID{
				FeatureResumeBuilder,
			},
			Limits: map[MetricID]int64{
				MetricExportsPerMonth:      3,
				MetricJobSearchesPerMonth:  10,
				MetricAISuggestionsPerDay:  0,
				MetricResumes:              1,
				MetricApplicationsPerMonth: 5,
			},
			Public: true,
		},
		{
			ID:          TierPlus,
			Ordinal:     1,
			Name:        "Plus",
			Description: "For active job seekers",
			Features: []FeatureID{
				FeatureResumeBuilder,
				FeatureExport,
				FeatureJobSearch,
			},
			Limits: map[MetricID]int64{
				MetricExportsPerMonth:      10,
				MetricJobSearchesPerMonth:  100,
				MetricAISuggestionsPerDay:  20,
				MetricResumes:              5,
				MetricApplicationsPerMonth: 50,
			},
			Price:     Money{Amount: 900, Currency: "USD"},
			TrialDays: 7,
			Public:    true,
		},
		{
			ID:          TierPro,
			Ordinal:     2,
			Name:        "Pro",
			Description: "Everything, without limits",
			Features: []FeatureID{
				FeatureResumeBuilder,
				FeatureExport,
				FeatureJobSearch,
				FeatureAIAssist,
				FeatureCustomTemplates,
				FeaturePrioritySupport,
			},
			Limits: map[MetricID]int64{
				MetricExportsPerMonth:      Unlimited,
				MetricJobSearchesPerMonth:  Unlimited,
				MetricAISuggestionsPerDay:  100,
				MetricResumes:              Unlimited,
				MetricApplicationsPerMonth: Unlimited,
			},
			Price:     Money{Amount: 1900, Currency: "USD"},
			TrialDays: 14,
			Public:    true,
		},
	}
}

// DefaultFeatureGate returns the stock minimum-tier table matching
// DefaultDefinitions.
func DefaultFeatureGate() FeatureGate {
	return FeatureGate{
		FeatureResumeBuilder:   TierFree,
		FeatureExport:          TierPlus,
		FeatureJobSearch:       TierPlus,
		FeatureAIAssist:        TierPro,
		FeatureCustomTemplates: TierPro,
		FeaturePrioritySupport: TierPro,
	}
}

// Default builds the stock catalog. Panics only on a programming error
// in the stock tables themselves.
func Default() *Catalog {
	return MustNew(DefaultDefinitions(), DefaultFeatureGate())
}

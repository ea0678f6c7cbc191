package catalog

// Tier is an ordered entitlement level. Ordering is defined by the
// TierDefinition ordinals in the Catalog, not by the string values.
type Tier string

const (
	TierFree Tier = "free"
	TierPlus Tier = "plus"
	TierPro  Tier = "pro"
)

// FeatureID names a gated capability.
type FeatureID string

const (
	FeatureResumeBuilder   FeatureID = "resume_builder"
	FeatureExport          FeatureID = "export"
	FeatureJobSearch       FeatureID = "job_search"
	FeatureAIAssist        FeatureID = "ai_assist"
	FeatureCustomTemplates FeatureID = "custom_templates"
	FeaturePrioritySupport FeatureID = "priority_support"
)

// MetricID names a metered resource.
type MetricID string

const (
	MetricExportsPerMonth      MetricID = "exports_per_month"
	MetricJobSearchesPerMonth  MetricID = "job_searches_per_month"
	MetricAISuggestionsPerDay  MetricID = "ai_suggestions_per_day"
	MetricResumes              MetricID = "resumes"
	MetricApplicationsPerMonth MetricID = "applications_per_month"
)

const (
	// Unlimited indicates no limit for a metric (-1 chosen for SQL compatibility).
	Unlimited int64 = -1
)

// Money represents a monetary amount in the smallest currency unit.
// For example, $10.99 USD would be Amount: 1099, Currency: "USD".
type Money struct {
	Amount   int64
	Currency string
}

// BillingCycle represents the billing frequency for a paid tier.
type BillingCycle string

const (
	CycleNone    BillingCycle = "none" // free tier, no billing
	CycleMonthly BillingCycle = "monthly"
	CycleAnnual  BillingCycle = "annual"
)

// TierDefinition describes a tier, its position in the tier order, and
// the feature set and usage limits it grants.
type TierDefinition struct {
	ID          Tier
	Ordinal     int // defines the <= comparison used for gating
	Name        string
	Description string
	Features    []FeatureID
	Limits      map[MetricID]int64 // Unlimited (-1) means uncapped
	Price       Money              // monthly price; zero for free tier
	TrialDays   int
	Public      bool // available for self-service signup
}

// FeatureGate maps a feature to the minimum tier required to use it.
type FeatureGate map[FeatureID]Tier

package entity

import "time"

type ABTest struct {
	ID        int       `json:"id"`
	TestName  string    `json:"testName"`
	Variants  []string  `json:"variants"`
	StartDate time.Time `json:"startDate"`
	IsActive  bool      `json:"isActive"`
}

// ABTestResult holds the counters of one (test, variant, session) triple.
type ABTestResult struct {
	ID          int    `json:"id"`
	TestID      int    `json:"testId"`
	VariantName string `json:"variantName"`
	SessionID   string `json:"sessionId"`
	Impressions int    `json:"impressions"`
	Conversions int    `json:"conversions"`
}

// VariantStats aggregates results across sessions.
type VariantStats struct {
	VariantName    string  `json:"variantName"`
	Sessions       int     `json:"sessions"`
	Impressions    int     `json:"impressions"`
	Conversions    int     `json:"conversions"`
	ConversionRate float64 `json:"conversionRate"`
}

type ABTestReport struct {
	Test     ABTest         `json:"test"`
	Variants []VariantStats `json:"variants"`
}

// Assignment maps a test dimension to the variant a session sees.
type Assignment map[string]string

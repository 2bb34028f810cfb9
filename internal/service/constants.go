package service

// Report periods
const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodCustom  = "custom"
)

// Output formats
const (
	FormatMarkdown = "markdown"
	FormatTerminal = "terminal"
)

// ImportBatchSize is the number of stress or heart rate samples saved per call
const ImportBatchSize = 500

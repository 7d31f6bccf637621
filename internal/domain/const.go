package domain

const (
	// DefaultInlineMaxBytes is the default ceiling for storing normalized JSON in the database
	DefaultInlineMaxBytes = 1024 * 1024

	// ConverterNone is the converter label recorded when no converter handles a resource
	ConverterNone = "(none)"

	// CategoryKeyTotal is the category key of the total column fact
	CategoryKeyTotal = "Ind_Total"
	// CategoryNameTotal is the category label of the total column fact
	CategoryNameTotal = "總計"
)

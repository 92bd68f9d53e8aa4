package indicator

// Calculator is the interface for computing technical indicators over a
// complete price series. Implementations are stateless: the same Source
// always yields the same output, and the Source is never modified.
type Calculator interface {
	// Name returns the unique name of this indicator (e.g., "rsi_14", "macd_12_26_9")
	Name() string

	// Outputs returns the names of the series produced by Calculate, in order
	Outputs() []string

	// Calculate computes every output series, each the same length as src
	Calculate(src *Source) []Series

	// WindowSize returns the number of rows required before the first
	// defined value (first defined index + 1)
	WindowSize() int
}

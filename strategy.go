package swc

// Strategy defines what a transport does after counting a request.
type Strategy int

const (
	// CountOnly counts the request and lets it through.
	CountOnly Strategy = iota
	// LogOnly also runs anomaly detection, logs anomalies and calls the
	// OnAnomaly callback, but lets the request through.
	LogOnly
	// Block behaves like LogOnly and rejects the request with an
	// *AnomalyError when the count is anomalously high.
	Block
)

func (s Strategy) String() string {
	switch s {
	case CountOnly:
		return "CountOnly"
	case LogOnly:
		return "LogOnly"
	case Block:
		return "Block"
	default:
		return "Unknown"
	}
}

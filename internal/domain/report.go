package domain

// RestartReport is the outcome of one restart batch as carried on the wire.
type RestartReport struct {
	Count int      `json:"count"`
	Names []string `json:"names"`
}

// NewRestartReport builds a report whose count always matches its names.
func NewRestartReport(names []string) RestartReport {
	cp := make([]string, len(names))
	copy(cp, names)
	return RestartReport{
		Count: len(cp),
		Names: cp,
	}
}

// Empty reports whether the batch restarted nothing
func (r RestartReport) Empty() bool {
	return len(r.Names) == 0
}

package mag

// Sample represents a single raw magnetometer reading.
type Sample struct {
	Mx int16 `json:"mx"` // counts
	My int16 `json:"my"`
	Mz int16 `json:"mz"`

	TempRaw int16 `json:"temp_raw"`
}

type Source interface {
	Next() (Sample, error)
}

package networth

import "fmt"

// Percent is a rate expressed in percent (5 means 5%).
type Percent float64

func (p Percent) Equal(q Percent) bool {
	// rates come from decimal input, compare them with some precision
	const precision = 0.0001
	diff := p - q
	if diff < 0 {
		diff = -diff
	}
	return diff < precision
}

func (p Percent) String() string {
	return fmt.Sprintf("%.2f%%", float64(p))
}

package model

// Kind identifies how a series drives a simulation.
// Keep these values stable; they are written to CSV and JSON output.
type Kind string

const (
	KindPrice Kind = "PRICE"
	KindRate  Kind = "RATE"
)

func (k Kind) Valid() bool {
	return k == KindPrice || k == KindRate
}

package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ErrDegeneratePath is returned when a path would contain the same asset twice in a row.
var ErrDegeneratePath = errors.New("degenerate swap path")

// SwapPath is the ordered token route handed to the router and the sponsor registry.
type SwapPath []common.Address

// BuildPath resolves native endpoints to the routing asset and inserts the routing
// asset as the hop when neither endpoint already is it. Endpoints that resolve to
// the same address are rejected.
func BuildPath(in, out Asset, routing common.Address) (SwapPath, error) {
	from := in.Resolve(routing)
	to := out.Resolve(routing)
	if from == to {
		return nil, fmt.Errorf("%s -> %s: %w", in, out, ErrDegeneratePath)
	}

	var path SwapPath
	if from != routing && to != routing {
		path = SwapPath{from, routing, to}
	} else {
		path = SwapPath{from, to}
	}

	if err := path.Validate(); err != nil {
		return nil, fmt.Errorf("%s -> %s: %w", in, out, err)
	}
	return path, nil
}

// Validate checks the path has at least two entries and no equal neighbours.
func (p SwapPath) Validate() error {
	if len(p) < 2 {
		return fmt.Errorf("%w: %d entries", ErrDegeneratePath, len(p))
	}
	for i := 1; i < len(p); i++ {
		if p[i] == p[i-1] {
			return fmt.Errorf("%w: %s repeated at %d", ErrDegeneratePath, p[i].Hex(), i)
		}
	}
	return nil
}

func (p SwapPath) Input() common.Address  { return p[0] }
func (p SwapPath) Output() common.Address { return p[len(p)-1] }

// Reversed returns the path walked from output to input.
func (p SwapPath) Reversed() SwapPath {
	r := make(SwapPath, len(p))
	for i, a := range p {
		r[len(p)-1-i] = a
	}
	return r
}

func (p SwapPath) String() string {
	parts := make([]string, len(p))
	for i, a := range p {
		parts[i] = a.Hex()
	}
	return strings.Join(parts, " -> ")
}

package commands

import (
	"fmt"
	"strings"

	"github.com/nathoo/kingdomcore/engine/state"
	"github.com/nathoo/kingdomcore/types"
)

// Allocation is the share of a conversion placed in one settlement.
type Allocation struct {
	SettlementID   string
	SettlementName string
	Amount         int
}

// Conversion is a frozen unrest-to-imprisoned plan.
type Conversion struct {
	Requested     int
	Converted     int
	TotalCapacity int
	Allocations   []Allocation

	NothingToImprison bool
	NoCapacity        bool
}

// ConvertUnrest converts min(requested, unrest, total free capacity) and
// allocates it greedily across settlements in listed order.
func ConvertUnrest(requested, unrest int, settlements []types.Settlement) Conversion {
	c := Conversion{Requested: requested}
	for _, st := range settlements {
		if free := st.PrisonCapacity - st.Imprisoned; free > 0 {
			c.TotalCapacity += free
		}
	}
	if unrest <= 0 {
		c.NothingToImprison = true
		return c
	}
	if c.TotalCapacity == 0 {
		c.NoCapacity = true
		return c
	}
	c.Converted = min(requested, unrest, c.TotalCapacity)
	if c.Converted < 0 {
		c.Converted = 0
	}
	left := c.Converted
	for _, st := range settlements {
		if left == 0 {
			break
		}
		free := st.PrisonCapacity - st.Imprisoned
		if free <= 0 {
			continue
		}
		n := min(free, left)
		c.Allocations = append(c.Allocations, Allocation{st.ID, st.Name, n})
		left -= n
	}
	return c
}

// Describe renders the allocation, e.g. "3 in Anvilgate, 1 in Oldport".
func (c Conversion) Describe() string {
	parts := make([]string, 0, len(c.Allocations))
	for _, a := range c.Allocations {
		parts = append(parts, fmt.Sprintf("%d in %s", a.Amount, a.SettlementName))
	}
	return strings.Join(parts, ", ")
}

func prepareImprisonUnrest(req types.CommandRequest, ctx Context) (*Prepared, error) {
	requested, formula, err := countParam(req, ctx, "amount", 1)
	if err != nil {
		return nil, err
	}
	if requested <= 0 {
		return nil, nil
	}
	conv := ConvertUnrest(requested, ctx.Kingdom.Resources["unrest"], ctx.Kingdom.Settlements)
	switch {
	case conv.NothingToImprison:
		p := NewPrepared(req.Type, nil, types.Badge{Icon: "lock", Text: "No unrest to imprison", Variant: "neutral"})
		p.Metadata["conversion"] = conv
		return p, nil
	case conv.NoCapacity:
		p := NewPrepared(req.Type, nil, types.Badge{Icon: "lock", Text: "No prisons available", Variant: "neutral"})
		p.Metadata["conversion"] = conv
		return p, nil
	}
	p := NewPrepared(req.Type, func(s *state.Store) error {
		for _, a := range conv.Allocations {
			st, err := s.Settlement(a.SettlementID)
			if err != nil {
				return err
			}
			st.Imprisoned += a.Amount
		}
		s.AdjustResource("unrest", -conv.Converted)
		return nil
	}, types.Badge{
		Icon:    "lock",
		Text:    fmt.Sprintf("Imprison %d unrest (%s)%s", conv.Converted, conv.Describe(), rolledSuffix(formula, requested)),
		Variant: "positive",
	})
	p.Metadata["conversion"] = conv
	return p, nil
}

// prepareAddImprisoned adds imprisoned population without touching unrest,
// still bounded by free prison capacity.
func prepareAddImprisoned(req types.CommandRequest, ctx Context) (*Prepared, error) {
	requested, formula, err := countParam(req, ctx, "amount", 1)
	if err != nil || requested <= 0 {
		return nil, err
	}
	conv := ConvertUnrest(requested, requested, ctx.Kingdom.Settlements)
	if conv.NoCapacity {
		return NewPrepared(req.Type, nil, types.Badge{Icon: "lock", Text: "No prisons available", Variant: "neutral"}), nil
	}
	p := NewPrepared(req.Type, func(s *state.Store) error {
		for _, a := range conv.Allocations {
			st, err := s.Settlement(a.SettlementID)
			if err != nil {
				return err
			}
			st.Imprisoned += a.Amount
		}
		return nil
	}, types.Badge{
		Icon:    "lock",
		Text:    fmt.Sprintf("%d prisoners taken (%s)%s", conv.Converted, conv.Describe(), rolledSuffix(formula, requested)),
		Variant: "neutral",
	})
	p.Metadata["conversion"] = conv
	return p, nil
}

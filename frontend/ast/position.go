package ast

import (
	"fmt"
	"go/token"
)

// Positioner allows finding the location in the original source file.
type Positioner interface {
	Pos() token.Pos // position of first character belonging to the node
	End() token.Pos // position of first character immediately after the node
}

// Range represents a range of positions in the source code.
type Range struct {
	PosStart token.Pos
	PosEnd   token.Pos
}

func (r Range) Pos() token.Pos { return r.PosStart }
func (r Range) End() token.Pos { return r.PosEnd }

func (r Range) String() string {
	if r.PosStart == r.PosEnd {
		return fmt.Sprintf("%v", r.PosStart)
	}
	return fmt.Sprintf("%v-%v", r.PosStart, r.PosEnd)
}

// At is a Range covering a single position
func At(pos token.Pos) Range {
	return Range{pos, pos}
}

// RangeBetween creates a Range spanning from fst to snd.
func RangeBetween(fst, snd Positioner) Range {
	return Range{fst.Pos(), snd.End()}
}

// RangeOf creates a Range from a Positioner.
func RangeOf(p Positioner) Range {
	if p == nil {
		return Range{}
	}
	if asRange, ok := p.(Range); ok {
		return asRange
	}
	return Range{p.Pos(), p.End()}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
)

// Unit is a presentation unit that monetary figures are rescaled into.
type Unit string

const (
	UnitHundred  Unit = "Hundred"
	UnitThousand Unit = "Thousand"
	UnitLakhs    Unit = "Lakhs"
	UnitCrore    Unit = "Crore"
)

// Units lists the supported units, largest first, in the order they are
// offered to users.
var Units = []Unit{UnitCrore, UnitLakhs, UnitThousand, UnitHundred}

var unitFactors = map[Unit]float64{
	UnitHundred:  100,
	UnitThousand: 1000,
	UnitLakhs:    100000,
	UnitCrore:    10000000,
}

var unitAliases = map[string]Unit{
	"hundred":   UnitHundred,
	"hundreds":  UnitHundred,
	"thousand":  UnitThousand,
	"thousands": UnitThousand,
	"k":         UnitThousand,
	"lakh":      UnitLakhs,
	"lakhs":     UnitLakhs,
	"lac":       UnitLakhs,
	"lacs":      UnitLakhs,
	"crore":     UnitCrore,
	"crores":    UnitCrore,
	"cr":        UnitCrore,
}

// ParseUnit maps a case-insensitive unit name or common alias to a Unit.
func ParseUnit(s string) (Unit, error) {
	u, ok := unitAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown unit %q (want one of Crore, Lakhs, Thousand, Hundred)", s)
	}
	return u, nil
}

// Factor returns the divisor for u. Unknown units return 1.
func (u Unit) Factor() float64 {
	if f, ok := unitFactors[u]; ok {
		return f
	}
	return 1
}

// Label returns the annotation text written above converted columns.
func (u Unit) Label() string {
	return "(in " + string(u) + ")"
}

func (u Unit) String() string { return string(u) }

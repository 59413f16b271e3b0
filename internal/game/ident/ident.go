// Package ident defines the opaque identifier used to key every content and
// runtime table in the simulation core.
package ident

import (
	"math"
	"strconv"
)

// ID is a small unsigned key into a per-category table (units, weapons,
// modifiers, terrain, ...).
type ID uint16

// None is the distinguished "uninitialized" identifier.
const None ID = math.MaxUint16

// Valid reports whether id refers to a table entry.
//
// Postcondition: Returns true iff id != None.
func (id ID) Valid() bool { return id != None }

// String returns the decimal form of id, or "none".
func (id ID) String() string {
	if id == None {
		return "none"
	}
	return strconv.Itoa(int(id))
}

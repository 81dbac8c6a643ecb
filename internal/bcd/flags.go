package bcd

import (
	"fmt"
	"strings"
)

// Flags is the category/collide bitset of a collision proxy. The layout comes
// from the physics layer of the game client; bits this package has no name
// for are kept as-is and reported by Unknown.
type Flags uint32

const (
	FlagObject       Flags = 1 << 0
	FlagWalkable     Flags = 1 << 1
	FlagHitscan      Flags = 1 << 3
	FlagLocalPlayer  Flags = 1 << 4
	FlagWater        Flags = 1 << 6
	FlagClientObject Flags = 1 << 7
	FlagTrigger      Flags = 1 << 8
	FlagFog          Flags = 1 << 9
	FlagGoo          Flags = 1 << 10
	FlagFish         Flags = 1 << 11
	FlagMuck         Flags = 1 << 12
	FlagTar          Flags = 1 << 13
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagObject, "OBJECT"},
	{FlagWalkable, "WALKABLE"},
	{FlagHitscan, "HITSCAN"},
	{FlagLocalPlayer, "LOCAL_PLAYER"},
	{FlagWater, "WATER"},
	{FlagClientObject, "CLIENT_OBJECT"},
	{FlagTrigger, "TRIGGER"},
	{FlagFog, "FOG"},
	{FlagGoo, "GOO"},
	{FlagFish, "FISH"},
	{FlagMuck, "MUCK"},
	{FlagTar, "TAR"},
}

// knownFlags is the union of every named bit.
const knownFlags = FlagObject | FlagWalkable | FlagHitscan | FlagLocalPlayer |
	FlagWater | FlagClientObject | FlagTrigger | FlagFog | FlagGoo | FlagFish |
	FlagMuck | FlagTar

// Has reports whether every bit of m is set.
func (f Flags) Has(m Flags) bool { return m != 0 && f&m == m }

func (f Flags) Object() bool       { return f.Has(FlagObject) }
func (f Flags) Walkable() bool     { return f.Has(FlagWalkable) }
func (f Flags) Hitscan() bool      { return f.Has(FlagHitscan) }
func (f Flags) LocalPlayer() bool  { return f.Has(FlagLocalPlayer) }
func (f Flags) Water() bool        { return f.Has(FlagWater) }
func (f Flags) ClientObject() bool { return f.Has(FlagClientObject) }
func (f Flags) Trigger() bool      { return f.Has(FlagTrigger) }
func (f Flags) Fog() bool          { return f.Has(FlagFog) }
func (f Flags) Goo() bool          { return f.Has(FlagGoo) }
func (f Flags) Fish() bool         { return f.Has(FlagFish) }
func (f Flags) Muck() bool         { return f.Has(FlagMuck) }
func (f Flags) Tar() bool          { return f.Has(FlagTar) }

// Unknown returns the set bits that have no name yet.
func (f Flags) Unknown() Flags { return f &^ knownFlags }

// PrimaryName returns the single layer name the game's XML exporter uses,
// picked by fixed priority when several bits are set.
func (f Flags) PrimaryName() string {
	switch {
	case f.Walkable():
		return "CT_Walkable"
	case f.Water():
		return "CT_Water"
	case f.Trigger():
		return "CT_Trigger"
	case f.Object():
		return "CT_Object"
	case f.LocalPlayer():
		return "CT_LocalPlayer"
	case f.Hitscan():
		return "CT_Hitscan"
	case f.Fog():
		return "CT_Fog"
	case f.ClientObject():
		return "CT_ClientObject"
	case f.Goo():
		return "CT_Goo"
	case f.Fish():
		return "CT_Fish"
	case f.Muck():
		return "CT_Muck"
	case f.Tar():
		return "CT_Tar"
	default:
		return "CT_None"
	}
}

// String renders the bitset as NAME|NAME|0x.. with unknown bits in hex.
func (f Flags) String() string {
	if f == 0 {
		return "NONE"
	}
	var parts []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			parts = append(parts, fn.name)
		}
	}
	if u := f.Unknown(); u != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(u)))
	}
	return strings.Join(parts, "|")
}

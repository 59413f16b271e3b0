package content

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/tactics/internal/game/effect"
	"github.com/cory-johannsen/tactics/internal/game/grid"
	"github.com/cory-johannsen/tactics/internal/game/ident"
	"github.com/cory-johannsen/tactics/internal/game/stat"
	"github.com/cory-johannsen/tactics/internal/game/unit"
)

var tableFiles = []string{
	TerrainsFile, CitiesFile, ModifiersFile, EffectsFile, AttributesFile,
	StatusesFile, WeaponsFile, SkillsFile, MagicsFile, UnitsFile,
}

// LoadDir reads every table file in dir.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a fully resolved Registry or a non-nil error naming
// every problem found.
func LoadDir(dir string) (*Registry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("reading content dir %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content dir %q is not a directory", dir)
	}
	return LoadFS(os.DirFS(dir))
}

// LoadFS reads every table file at the root of fsys.
//
// Postcondition: Returns a fully resolved Registry or a non-nil error naming
// every problem found.
func LoadFS(fsys fs.FS) (*Registry, error) {
	var all yamlTables
	for _, name := range tableFiles {
		data, err := fs.ReadFile(fsys, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", name, err)
		}
		var t yamlTables
		if err := decodeStrict(data, &t); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", name, err)
		}
		all.merge(t)
	}
	return build(all)
}

// decodeStrict decodes YAML rejecting unknown fields. An empty document
// leaves v untouched.
func decodeStrict(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (t *yamlTables) merge(o yamlTables) {
	t.Terrains = append(t.Terrains, o.Terrains...)
	t.Cities = append(t.Cities, o.Cities...)
	t.Modifiers = append(t.Modifiers, o.Modifiers...)
	t.Effects = append(t.Effects, o.Effects...)
	t.Attributes = append(t.Attributes, o.Attributes...)
	t.Statuses = append(t.Statuses, o.Statuses...)
	t.Weapons = append(t.Weapons, o.Weapons...)
	t.Skills = append(t.Skills, o.Skills...)
	t.Magics = append(t.Magics, o.Magics...)
	t.Units = append(t.Units, o.Units...)
}

// builder converts parsed tables into a Registry, collecting every error.
type builder struct {
	r    *Registry
	errs []error
}

func (b *builder) fail(format string, args ...any) {
	b.errs = append(b.errs, fmt.Errorf(format, args...))
}

// ref resolves key in table on behalf of owner; "" resolves to ident.None.
func (b *builder) ref(table Table, key, owner string) ident.ID {
	if key == "" {
		return ident.None
	}
	id, ok := b.r.ID(table, key)
	if !ok {
		b.fail("%s: unknown %s %q", owner, table, key)
		return ident.None
	}
	return id
}

func (b *builder) refs(table Table, keys []string, owner string) []ident.ID {
	out := make([]ident.ID, 0, len(keys))
	for _, k := range keys {
		if id := b.ref(table, k, owner); id.Valid() {
			out = append(out, id)
		}
	}
	return out
}

func (b *builder) assignAll(table Table, keys []string) {
	for _, k := range keys {
		if _, err := b.r.assign(table, k); err != nil {
			b.errs = append(b.errs, err)
		}
	}
}

func keysOf[T any](rows []T, key func(T) string) []string {
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = key(row)
	}
	return out
}

func build(t yamlTables) (*Registry, error) {
	b := &builder{r: newRegistry()}
	b.assignAll(Terrains, keysOf(t.Terrains, func(v yamlTerrain) string { return v.Key }))
	b.assignAll(Cities, keysOf(t.Cities, func(v yamlCity) string { return v.Key }))
	b.assignAll(Modifiers, keysOf(t.Modifiers, func(v yamlModifier) string { return v.Key }))
	b.assignAll(Effects, keysOf(t.Effects, func(v yamlEffect) string { return v.Key }))
	b.assignAll(Attributes, keysOf(t.Attributes, func(v yamlAttribute) string { return v.Key }))
	b.assignAll(Statuses, keysOf(t.Statuses, func(v yamlStatus) string { return v.Key }))
	b.assignAll(Weapons, keysOf(t.Weapons, func(v yamlWeapon) string { return v.Key }))
	b.assignAll(Skills, keysOf(t.Skills, func(v yamlSkill) string { return v.Key }))
	b.assignAll(Magics, keysOf(t.Magics, func(v yamlMagic) string { return v.Key }))
	b.assignAll(Units, keysOf(t.Units, func(v yamlUnit) string { return v.Key }))
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}

	for i, v := range t.Modifiers {
		owner := "modifier " + v.Key
		b.r.modifiers = append(b.r.modifiers, effect.Modifier{
			ID:          ident.ID(i),
			Adjustments: v.Adjustments,
			Stack:       v.Stack,
			Duration:    v.Duration.duration(),
			Next:        b.ref(Modifiers, v.Next, owner),
		})
		b.adjustments(owner, v.Adjustments)
	}
	for i, v := range t.Effects {
		b.r.effects = append(b.r.effects, effect.Effect{ID: ident.ID(i), Adjustments: v.Adjustments, Flat: v.Flat})
		b.adjustments("effect "+v.Key, v.Adjustments)
	}
	for i, v := range t.Attributes {
		owner := "attribute " + v.Key
		p := b.payload(owner, v.Payload)
		if p.Kind == effect.PayloadAttribute {
			b.fail("%s: payload must be a modifier or an effect", owner)
		}
		b.r.attributes = append(b.r.attributes, effect.Attribute{
			ID:       ident.ID(i),
			Trigger:  v.Trigger,
			Payload:  p,
			Duration: v.Duration.duration(),
			Next:     b.ref(Attributes, v.Next, owner),
		})
	}
	for i, v := range t.Statuses {
		owner := "status " + v.Key
		p := b.payload(owner, v.Payload)
		if p.Kind == effect.PayloadEffect {
			b.fail("%s: payload must be a modifier or an attribute", owner)
		}
		b.r.statuses = append(b.r.statuses, effect.Status{
			ID:       ident.ID(i),
			Payload:  p,
			Duration: v.Duration.duration(),
			Next:     b.ref(Statuses, v.Next, owner),
		})
	}
	for i, v := range t.Terrains {
		owner := "terrain " + v.Key
		if v.Cost > grid.MaxTileCost {
			b.fail("%s: cost %d exceeds %d", owner, v.Cost, grid.MaxTileCost)
		}
		b.r.terrains = append(b.r.terrains, grid.Terrain{
			ID:        ident.ID(i),
			Name:      nameOr(v.Name, v.Key),
			Cost:      v.Cost,
			Modifier:  b.ref(Modifiers, v.Modifier, owner),
			Elevation: v.Elevation,
		})
	}
	for i, v := range t.Weapons {
		owner := "weapon " + v.Key
		attr := b.ref(Attributes, v.Attribute, owner)
		b.trigger(owner, attr, effect.OnAttack)
		b.area(owner, v.Area)
		b.r.weapons = append(b.r.weapons, unit.WeaponDef{
			ID:        ident.ID(i),
			Name:      nameOr(v.Name, v.Key),
			Stats:     v.Stats,
			Area:      v.Area,
			Range:     v.Range,
			Attribute: attr,
		})
	}
	for i, v := range t.Skills {
		owner := "skill " + v.Key
		st := b.ref(Statuses, v.Status, owner)
		if !st.Valid() {
			b.fail("%s: status is required", owner)
		}
		if v.Kind == unit.SkillPassive && v.Radius <= 0 {
			b.fail("%s: passive skills need a positive radius", owner)
		}
		b.r.skills = append(b.r.skills, unit.SkillDef{
			ID:       ident.ID(i),
			Name:     nameOr(v.Name, v.Key),
			Kind:     v.Kind,
			Status:   st,
			Cooldown: v.Cooldown,
			Radius:   v.Radius,
		})
	}
	for i, v := range t.Magics {
		owner := "magic " + v.Key
		eff := b.ref(Effects, v.Effect, owner)
		st := b.ref(Statuses, v.Status, owner)
		if v.Effect == "" && v.Status == "" {
			b.fail("%s: needs an effect or a status", owner)
		}
		b.area(owner, v.Area)
		b.r.magics = append(b.r.magics, unit.MagicDef{
			ID:     ident.ID(i),
			Name:   nameOr(v.Name, v.Key),
			Cost:   v.Cost,
			Area:   v.Area,
			Range:  v.Range,
			Effect: eff,
			Status: st,
		})
	}
	for i, v := range t.Units {
		owner := "unit " + v.Key
		if len(v.Weapons) == 0 {
			b.fail("%s: at least one weapon is required", owner)
		}
		b.values(owner, v.Stats)
		onHit := b.ref(Attributes, v.OnHit, owner)
		b.trigger(owner, onHit, effect.OnHit)
		b.r.units = append(b.r.units, unit.Def{
			ID:      ident.ID(i),
			Name:    nameOr(v.Name, v.Key),
			Stats:   v.Stats,
			Weapons: b.refs(Weapons, v.Weapons, owner),
			Skills:  b.refs(Skills, v.Skills, owner),
			Magics:  b.refs(Magics, v.Magics, owner),
			OnHit:   onHit,
		})
	}
	for i, v := range t.Cities {
		b.r.cities = append(b.r.cities, grid.City{
			ID:         ident.ID(i),
			Name:       nameOr(v.Name, v.Key),
			Population: v.Population,
			Factories:  v.Factories,
			Farms:      v.Farms,
			Recruit:    b.ref(Units, v.Recruit, "city "+v.Key),
		})
	}
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	return b.r, nil
}

func (b *builder) payload(owner string, p yamlPayload) effect.Payload {
	var out []effect.Payload
	if p.Modifier != "" {
		out = append(out, effect.Payload{Kind: effect.PayloadModifier, ID: b.ref(Modifiers, p.Modifier, owner)})
	}
	if p.Effect != "" {
		out = append(out, effect.Payload{Kind: effect.PayloadEffect, ID: b.ref(Effects, p.Effect, owner)})
	}
	if p.Attribute != "" {
		out = append(out, effect.Payload{Kind: effect.PayloadAttribute, ID: b.ref(Attributes, p.Attribute, owner)})
	}
	if len(out) != 1 {
		b.fail("%s: payload must name exactly one of modifier, effect or attribute", owner)
		return effect.Payload{Kind: effect.PayloadModifier, ID: ident.None}
	}
	return out[0]
}

// trigger checks that attribute id, when set, fires on want. Attributes are
// converted before weapons and units, so the table is complete here.
func (b *builder) trigger(owner string, id ident.ID, want effect.Trigger) {
	if !id.Valid() {
		return
	}
	if got := b.r.attributes[id].Trigger; got != want {
		b.fail("%s: attribute %q has trigger %s, need %s", owner, b.r.Key(Attributes, id), got, want)
	}
}

func (b *builder) adjustments(owner string, adj []effect.Adjustment) {
	for _, a := range adj {
		if int(a.Stat) >= len(stat.Names) {
			b.fail("%s: unknown statistic %d", owner, uint8(a.Stat))
		}
	}
}

func (b *builder) area(owner string, a grid.Area) {
	if a.Radius < 0 || a.Width < 0 || a.Range < 0 {
		b.fail("%s: area dimensions must not be negative", owner)
	}
	if a.Shape == grid.Path && a.Range == 0 {
		b.fail("%s: path areas need a range", owner)
	}
}

var statLimits = map[stat.Name]uint32{
	stat.MRL: stat.Permille,
	stat.SPL: stat.Permille,
	stat.ORG: stat.Permille,
	stat.ATK: stat.MaxATK,
	stat.DEF: stat.MaxDEF,
	stat.MAG: stat.MaxMAG,
	stat.MOV: stat.MaxMOV,
}

func (b *builder) values(owner string, v stat.Values) {
	s := stat.New(v)
	for _, n := range stat.Names {
		limit, bounded := statLimits[n]
		if raw := rawValue(v, n); bounded && raw > limit {
			b.fail("%s: %s %d exceeds %d", owner, n, raw, limit)
		}
	}
	if !s.Alive() {
		b.fail("%s: starts dead (hlt and mrl must be positive)", owner)
	}
}

func rawValue(v stat.Values, n stat.Name) uint32 {
	switch n {
	case stat.MRL:
		return v.MRL
	case stat.HLT:
		return v.HLT
	case stat.SPL:
		return v.SPL
	case stat.ATK:
		return v.ATK
	case stat.DEF:
		return v.DEF
	case stat.MAG:
		return v.MAG
	case stat.MOV:
		return v.MOV
	case stat.ORG:
		return v.ORG
	default:
		panic(fmt.Sprintf("content: rawValue: unknown statistic %d", uint8(n)))
	}
}

func nameOr(name, key string) string {
	if name != "" {
		return name
	}
	return key
}

// Package ai implements the Hierarchical Task Network (HTN) planner that
// drives computer-controlled units.
//
// HTN planning decomposes abstract tasks into primitive operators via ordered
// methods. Method preconditions are built-in predicates over the WorldState
// or, failing that, Lua hooks; operators map to battle actions.
package ai

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// Task is an abstract goal that can be decomposed by methods.
//
// Precondition: ID must be non-empty.
type Task struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
}

// Method decomposes a task into an ordered list of subtasks or operator IDs.
//
// Precondition: TaskID, ID, and Subtasks must be non-empty.
type Method struct {
	TaskID string `yaml:"task"`
	ID     string `yaml:"id"`
	// Precondition names a predicate, optionally negated with a leading "!".
	// Empty means always applicable.
	Precondition string   `yaml:"precondition"`
	Subtasks     []string `yaml:"subtasks"`
}

// Operator is a primitive action that maps directly to a battle action.
//
// Precondition: ID and Action must be non-empty.
type Operator struct {
	ID     string `yaml:"id"`
	Action string `yaml:"action"` // one of Actions
	Target string `yaml:"target"` // "nearest_enemy", "weakest_enemy", "self" or empty
}

// Actions lists the operator actions the controller can realise.
var Actions = []string{"attack", "magic", "skill", "switch", "approach", "retreat", "wait"}

var targetTokens = []string{"", "nearest_enemy", "weakest_enemy", "self"}

// Domain holds the full HTN domain loaded from a YAML file.
//
// Invariant: all Task, Method, and Operator IDs are unique within their slice.
type Domain struct {
	ID          string      `yaml:"id"`
	Description string      `yaml:"description"`
	Tasks       []*Task     `yaml:"tasks"`
	Methods     []*Method   `yaml:"methods"`
	Operators   []*Operator `yaml:"operators"`
}

// RootTask is the task every plan starts from.
const RootTask = "behave"

// Validate checks required fields and cross references, reporting every
// problem at once.
//
// Postcondition: nil return guarantees unique non-empty IDs, a RootTask,
// known operator actions and targets, and that every subtask names a task or
// an operator.
func (d *Domain) Validate() error {
	if d.ID == "" {
		return errors.New("ai.Domain: ID must not be empty")
	}
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("ai.Domain %q: "+format, append([]any{d.ID}, args...)...))
	}
	names := make(map[string]string)
	claim := func(kind, id string) {
		if id == "" {
			fail("%s has empty ID", kind)
			return
		}
		if prev, dup := names[id]; dup {
			fail("%s ID %q already used by a %s", kind, id, prev)
			return
		}
		names[id] = kind
	}
	for _, t := range d.Tasks {
		claim("task", t.ID)
	}
	for _, op := range d.Operators {
		claim("operator", op.ID)
		if !contains(Actions, op.Action) {
			fail("operator %q: unknown action %q", op.ID, op.Action)
		}
		if !contains(targetTokens, op.Target) {
			fail("operator %q: unknown target %q", op.ID, op.Target)
		}
	}
	methods := make(map[string]struct{})
	for _, m := range d.Methods {
		if _, dup := methods[m.ID]; dup || m.ID == "" {
			fail("method ID %q is empty or duplicated", m.ID)
		}
		methods[m.ID] = struct{}{}
		if names[m.TaskID] != "task" {
			fail("method %q: TaskID %q references unknown task", m.ID, m.TaskID)
		}
		if len(m.Subtasks) == 0 {
			fail("method %q: subtasks must not be empty", m.ID)
		}
		for _, sub := range m.Subtasks {
			if _, ok := names[sub]; !ok {
				fail("method %q: subtask %q is neither a task nor an operator", m.ID, sub)
			}
		}
	}
	if names[RootTask] != "task" {
		fail("missing root task %q", RootTask)
	}
	return errors.Join(errs...)
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// OperatorByID returns the operator with the given ID, or false if not found.
func (d *Domain) OperatorByID(id string) (*Operator, bool) {
	for _, op := range d.Operators {
		if op.ID == id {
			return op, true
		}
	}
	return nil, false
}

// MethodsForTask returns all methods that decompose taskID, in declaration order.
func (d *Domain) MethodsForTask(taskID string) []*Method {
	var out []*Method
	for _, m := range d.Methods {
		if m.TaskID == taskID {
			out = append(out, m)
		}
	}
	return out
}

// yamlDomainFile wraps the YAML top-level key.
type yamlDomainFile struct {
	Domain *Domain `yaml:"domain"`
}

// LoadDomains reads all *.yaml files from dir and returns parsed Domains.
//
// Precondition: dir must be a readable directory.
// Postcondition: returns error if any YAML file fails to parse or validate.
func LoadDomains(dir string) ([]*Domain, error) {
	return LoadDomainsFS(os.DirFS(dir))
}

// LoadDomainsFS is LoadDomains over the root of fsys.
func LoadDomainsFS(fsys fs.FS) ([]*Domain, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("ai.LoadDomains: reading domains: %w", err)
	}
	var domains []*Domain
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		data, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, fmt.Errorf("ai.LoadDomains: reading %s: %w", e.Name(), err)
		}
		d, err := ParseDomain(data)
		if err != nil {
			return nil, fmt.Errorf("ai.LoadDomains: %s: %w", e.Name(), err)
		}
		domains = append(domains, d)
	}
	return domains, nil
}

// ParseDomain decodes and validates one domain document.
func ParseDomain(data []byte) (*Domain, error) {
	var f yamlDomainFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing domain: %w", err)
	}
	if f.Domain == nil {
		return nil, errors.New("missing top-level 'domain' key")
	}
	if err := f.Domain.Validate(); err != nil {
		return nil, err
	}
	return f.Domain, nil
}

//go:embed data/*.yaml
var builtin embed.FS

// DefaultDomain returns the domain shipped with the module.
func DefaultDomain() *Domain {
	data, err := builtin.ReadFile(path.Join("data", "default.yaml"))
	if err != nil {
		panic("ai.DefaultDomain: " + err.Error())
	}
	d, err := ParseDomain(data)
	if err != nil {
		panic("ai.DefaultDomain: " + err.Error())
	}
	return d
}

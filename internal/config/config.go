package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownOperation = errors.New("unknown operation")
	ErrScenarioNotFound = errors.New("scenario not found")
)

// Operation identifies one of the fintech endpoints served by the mock.
type Operation string

const (
	OpRegister Operation = "register"
	OpBalance  Operation = "balance"
	OpTransfer Operation = "transfer"
)

// Operations lists every known operation in a stable order.
var Operations = []Operation{OpRegister, OpBalance, OpTransfer}

func (o Operation) Valid() bool {
	switch o {
	case OpRegister, OpBalance, OpTransfer:
		return true
	}
	return false
}

// Scenario is the value sent in the x-mock-response-name header. The names
// are the contract with the hosted mock provider and must match it exactly.
type Scenario string

const (
	ScenarioRegisterSuccess       Scenario = "Cadastro Sucesso 201"
	ScenarioRegisterDuplicateCPF  Scenario = "Cadastro Falha CPF Duplicado 409"
	ScenarioBalanceFound          Scenario = "Saldo Encontrado 200"
	ScenarioBalanceNotFound       Scenario = "Saldo Nao Encontrado 404"
	ScenarioTransferSuccess       Scenario = "Transferencia Sucesso 200"
	ScenarioTransferInsufficient  Scenario = "Falha Saldo Insuficiente 400"
	ScenarioTransferUnknownTarget Scenario = "Conta Destino Invalida 404"
)

func (s Scenario) String() string { return string(s) }

// Fixture is one canned response of the mock server.
type Fixture struct {
	Operation Operation      `yaml:"operation"`
	Name      Scenario       `yaml:"name"`
	Status    int            `yaml:"status"`
	Default   bool           `yaml:"default"`
	Body      map[string]any `yaml:"body"`
}

type fixtureKey struct {
	op   Operation
	name Scenario
}

// Catalog maps (operation, scenario) to a fixed response fixture.
type Catalog struct {
	fixtures map[fixtureKey]Fixture
	defaults map[Operation]Scenario
	flagged  map[Operation]bool
}

func NewCatalog(fixtures ...Fixture) (*Catalog, error) {
	c := &Catalog{
		fixtures: make(map[fixtureKey]Fixture),
		defaults: make(map[Operation]Scenario),
		flagged:  make(map[Operation]bool),
	}
	for _, f := range fixtures {
		if err := c.add(f); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) add(f Fixture) error {
	if !f.Operation.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownOperation, f.Operation)
	}
	if f.Name == "" {
		return fmt.Errorf("scenario without name for operation %s", f.Operation)
	}
	if f.Status < 100 || f.Status > 599 {
		return fmt.Errorf("scenario %q: invalid status %d", f.Name, f.Status)
	}
	k := fixtureKey{f.Operation, f.Name}
	if _, dup := c.fixtures[k]; dup {
		return fmt.Errorf("duplicate scenario %q for operation %s", f.Name, f.Operation)
	}
	if f.Default && c.flagged[f.Operation] {
		return fmt.Errorf("scenario %q: operation %s already has default %q", f.Name, f.Operation, c.defaults[f.Operation])
	}
	c.fixtures[k] = f

	// first scenario of an operation is its default unless one is flagged
	if _, ok := c.defaults[f.Operation]; !ok || f.Default {
		c.defaults[f.Operation] = f.Name
	}
	if f.Default {
		c.flagged[f.Operation] = true
	}
	return nil
}

// Lookup returns the fixture registered for op and name.
func (c *Catalog) Lookup(op Operation, name Scenario) (Fixture, error) {
	if !op.Valid() {
		return Fixture{}, fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}
	f, ok := c.fixtures[fixtureKey{op, name}]
	if !ok {
		return Fixture{}, fmt.Errorf("%w: %s/%q", ErrScenarioNotFound, op, name)
	}
	return f, nil
}

// Default returns the fixture served when no scenario header is sent.
func (c *Catalog) Default(op Operation) (Fixture, error) {
	name, ok := c.defaults[op]
	if !ok {
		return Fixture{}, fmt.Errorf("%w: no default for %s", ErrScenarioNotFound, op)
	}
	return c.Lookup(op, name)
}

// Scenarios returns the scenario names of op, sorted.
func (c *Catalog) Scenarios(op Operation) []Scenario {
	var out []Scenario
	for k := range c.fixtures {
		if k.op == op {
			out = append(out, k.name)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Complete reports whether every operation has at least one scenario.
func (c *Catalog) Complete() bool {
	if c == nil {
		return false
	}
	for _, op := range Operations {
		if _, ok := c.defaults[op]; !ok {
			return false
		}
	}
	return true
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.fixtures)
}

// LoadCatalog reads every *.yaml / *.yml file in dir.
func LoadCatalog(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading scenarios dir: %w", err)
	}

	var fixtures []Fixture
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var raw struct {
			Scenarios []Fixture `yaml:"scenarios"`
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		fixtures = append(fixtures, raw.Scenarios...)
	}

	c, err := NewCatalog(fixtures...)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", dir, err)
	}
	return c, nil
}

package rest

import (
	"reflect"
	"strings"
)

// Contract is a data-first description of a service's operations. Go
// reflection cannot recover parameter names or per-operation attributes
// from a plain interface type, so a Contract is built explicitly with a
// small fluent builder and then fed to both the server and client binders.
type Contract struct {
	Name  string
	Style Style

	RootPath    string
	rootPathSet bool

	Operations []*Operation
}

// NewContract creates a Contract named name, whose non-overridden paths are
// stylised with style.
func NewContract(name string, style Style) *Contract {
	return &Contract{Name: name, Style: style}
}

func (c *Contract) style() Style { return c.Style }

// WithRootPath sets an explicit root-path override. Passing "" still
// counts as "present but empty": the contract mounts at
// "/<stylised-name>/" rather than "/".
func (c *Contract) WithRootPath(path string) *Contract {
	c.RootPath = path
	c.rootPathSet = true
	return c
}

// Operation declares a new operation named id (the identifier the mapping
// rules run against) and returns it for further configuration.
func (c *Contract) Operation(id string) *Operation {
	op := &Operation{ID: id, GoMethod: capitalizeFirst(id), contract: c}
	c.Operations = append(c.Operations, op)
	return op
}

// ParamKind classifies how a Param's value is extracted from an incoming
// request (server) or placed into an outgoing one (client).
type ParamKind int

const (
	// ParamBody is read from the query string (GET/HEAD) or the JSON
	// request body (other verbs), keyed by Param.Name.
	ParamBody ParamKind = iota
	// ParamPath is read from a router path placeholder named
	// Param.Name without its leading underscore.
	ParamPath
	// ParamLegacyID is read from an automatically injected :id path
	// placeholder; Param.Name is literally "id".
	ParamLegacyID
)

// Param describes one operation parameter.
type Param struct {
	Name       string
	Type       reflect.Type
	HasDefault bool
	Default    any
}

// Kind classifies p.
func (p Param) Kind() ParamKind {
	switch {
	case p.Name == "id":
		return ParamLegacyID
	case strings.HasPrefix(p.Name, "_"):
		return ParamPath
	default:
		return ParamBody
	}
}

// PathName is the router placeholder name for a ParamPath parameter: the
// parameter name with its leading underscore stripped.
func (p Param) PathName() string {
	return strings.TrimPrefix(p.Name, "_")
}

// Operation is one named, typed operation of a [Contract].
type Operation struct {
	ID       string
	GoMethod string
	contract *Contract

	Params     []Param
	ReturnType reflect.Type
	Sub        *Contract // non-nil when the return type is itself a contract

	MethodOverride HttpMethod
	PathOverride   string

	IsGetter bool
	IsSetter bool
}

// Param appends a required parameter named name with the given type.
func (op *Operation) Param(name string, typ reflect.Type) *Operation {
	op.Params = append(op.Params, Param{Name: name, Type: typ})
	return op
}

// ParamDefault appends a parameter with a default value, substituted when
// the caller omits it.
func (op *Operation) ParamDefault(name string, typ reflect.Type, def any) *Operation {
	op.Params = append(op.Params, Param{Name: name, Type: typ, HasDefault: true, Default: def})
	return op
}

// Returns sets op's return type. Passing nil declares a void operation.
func (op *Operation) Returns(typ reflect.Type) *Operation {
	op.ReturnType = typ
	return op
}

// SubContract marks op's return value as itself a [Contract], mounted
// hierarchically under op's own derived path. Such operations must take no
// parameters.
func (op *Operation) SubContract(c *Contract) *Operation {
	op.Sub = c
	return op
}

// Method sets an explicit HTTP verb override.
func (op *Operation) Method(m HttpMethod) *Operation {
	op.MethodOverride = m
	return op
}

// Path sets an explicit relative-path override.
func (op *Operation) Path(p string) *Operation {
	op.PathOverride = p
	return op
}

// Getter marks op as a property-getter: defaults to GET at op's identifier
// absent any other override.
func (op *Operation) Getter() *Operation {
	op.IsGetter = true
	return op
}

// Setter marks op as a property-setter: defaults to PUT at op's identifier
// absent any other override.
func (op *Operation) Setter() *Operation {
	op.IsSetter = true
	return op
}

// Go overrides the Go method name invoked via reflection; by default it is
// the capitalized operation identifier.
func (op *Operation) Go(methodName string) *Operation {
	op.GoMethod = methodName
	return op
}

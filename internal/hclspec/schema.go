package hclspec

import (
	"github.com/hashicorp/hcl/v2"
)

// classBlock declares a finite state class.
type classBlock struct {
	Name    string   `hcl:"name,label"`
	Values  []string `hcl:"values"`
	Initial string   `hcl:"initial,optional"`
}

// fieldBlock binds one object field: a scalar value of a state class, a
// reference to another object, or none.
type fieldBlock struct {
	Name  string `hcl:"name,label"`
	Class string `hcl:"class,optional"`
	Value string `hcl:"value,optional"`
	Ref   string `hcl:"ref,optional"`
	None  bool   `hcl:"none,optional"`
}

// objectBlock declares an instance of a class.
type objectBlock struct {
	Name   string        `hcl:"name,label"`
	Class  string        `hcl:"class"`
	Fields []*fieldBlock `hcl:"field,block"`
}

// paramBlock declares a typed method parameter.
type paramBlock struct {
	Name  string `hcl:"name,label"`
	Class string `hcl:"class"`
}

// conditionBlock is a method precondition; at defaults to "start".
type conditionBlock struct {
	At     string `hcl:"at,optional"`
	Path   string `hcl:"path"`
	Equals string `hcl:"equals"`
}

// effectBlock is a method effect; at defaults to "end".
type effectBlock struct {
	At    string `hcl:"at,optional"`
	Path  string `hcl:"path"`
	Value string `hcl:"value"`
}

// methodBlock declares a primitive method of a class. Duration stays an
// expression so the inf keyword can be evaluated against our context.
// Transition is the "pre => post" shorthand.
type methodBlock struct {
	Name          string            `hcl:"name,label"`
	Class         string            `hcl:"class"`
	Duration      hcl.Expression    `hcl:"duration"`
	Transition    []string          `hcl:"transition,optional"`
	Params        []*paramBlock     `hcl:"param,block"`
	Preconditions []*conditionBlock `hcl:"precondition,block"`
	Effects       []*effectBlock    `hcl:"effect,block"`
}

// planBlock holds the composition expression; its body follows the
// recursive grammar and is traversed manually.
type planBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// fileRoot decodes all top-level blocks of a source file.
type fileRoot struct {
	Classes []*classBlock  `hcl:"class,block"`
	Objects []*objectBlock `hcl:"object,block"`
	Methods []*methodBlock `hcl:"method,block"`
	Plans   []*planBlock   `hcl:"plan,block"`
}

// compositionSchema is the body schema shared by every composition
// block. Legality of a block type inside a given parent (an invariant
// outside parallel, a constraint outside constrained) is enforced by the
// decoder, not the schema.
var compositionSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "bound"},
		{Name: "label"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "sequence"},
		{Type: "parallel"},
		{Type: "choose"},
		{Type: "choose_probabilistic"},
		{Type: "constrained"},
		{Type: "step"},
		{Type: "goal"},
		{Type: "invariant"},
		{Type: "constraint"},
		{Type: "outcome", LabelNames: []string{"name"}},
	},
}

// stepSchema covers one method invocation.
var stepSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "method", Required: true},
		{Name: "on", Required: true},
		{Name: "bind"},
		{Name: "label"},
	},
}

// goalSchema covers a zero-duration state check. Goals are episodes, so
// they may carry a label for startof/endof references.
var goalSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "path", Required: true},
		{Name: "equals", Required: true},
		{Name: "label"},
	},
}

// invariantSchema covers a boolean assertion inside a parallel block.
// Assertions are not episodes and have no time points to label.
var invariantSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "path", Required: true},
		{Name: "equals", Required: true},
	},
}

// constraintSchema covers one cross-branch temporal constraint.
var constraintSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "from", Required: true},
		{Name: "to", Required: true},
		{Name: "bound", Required: true},
	},
}

// outcomeSchema extends the composition schema with the outcome's
// probability.
var outcomeSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "probability", Required: true},
		{Name: "bound"},
		{Name: "label"},
	},
	Blocks: compositionSchema.Blocks,
}

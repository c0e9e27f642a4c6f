// Package hclspec is the HCL front-end: it parses class, object, method,
// and plan blocks from source files and assembles the resolved action
// model plus the root composition episode. Flat declaration blocks decode
// through gohcl tag structs; the recursive plan grammar is traversed
// manually over hcl.BodyContent.
package hclspec

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/tempoplan/internal/ctxlog"
	"github.com/vk/tempoplan/internal/episode"
	"github.com/vk/tempoplan/internal/interval"
	"github.com/vk/tempoplan/internal/model"
)

// Document is the decoded and resolved content of a set of plan sources.
type Document struct {
	Model *model.Model
	Plan  *episode.Episode
}

// Loader parses HCL plan sources into a Document.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader creates a new plan source loader.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// evalCtx is the expression context for bound and probability literals.
// It exposes the inf keyword for unbounded upper limits.
var evalCtx = &hcl.EvalContext{
	Variables: map[string]cty.Value{
		"inf": cty.PositiveInfinity,
	},
}

// Load parses every given file, merges their declarations, resolves the
// model, and decodes the plan composition. Declarations may be spread
// over any number of files, but exactly one plan block must exist.
func (l *Loader) Load(ctx context.Context, paths ...string) (*Document, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading plan sources.", "count", len(paths))

	roots := make([]*fileRoot, 0, len(paths))
	for _, path := range paths {
		file, diags := l.parser.ParseHCLFile(path)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse %s: %w", path, diags)
		}
		root, err := decodeRoot(file.Body, path)
		if err != nil {
			return nil, err
		}
		roots = append(roots, root)
	}
	return l.assemble(ctx, roots)
}

// LoadSource parses a single in-memory source. Used by tests and by
// callers that already hold the plan text.
func (l *Loader) LoadSource(ctx context.Context, filename string, src []byte) (*Document, error) {
	file, diags := l.parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, diags)
	}
	root, err := decodeRoot(file.Body, filename)
	if err != nil {
		return nil, err
	}
	return l.assemble(ctx, []*fileRoot{root})
}

func decodeRoot(body hcl.Body, name string) (*fileRoot, error) {
	var root fileRoot
	if diags := gohcl.DecodeBody(body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode %s: %w", name, diags)
	}
	return &root, nil
}

// assemble merges the file roots into one resolved model and decodes the
// plan body against it.
func (l *Loader) assemble(ctx context.Context, roots []*fileRoot) (*Document, error) {
	logger := ctxlog.FromContext(ctx)

	var (
		classes []*model.Class
		objects []*model.Object
		methods []*model.Method
		plans   []*planBlock
	)
	for _, root := range roots {
		for _, c := range root.Classes {
			classes = append(classes, translateClass(c))
		}
		for _, o := range root.Objects {
			objects = append(objects, translateObject(o))
		}
		for _, mb := range root.Methods {
			mth, err := translateMethod(mb)
			if err != nil {
				return nil, err
			}
			methods = append(methods, mth)
		}
		plans = append(plans, root.Plans...)
	}

	m := model.New(classes, objects, methods)
	if err := m.Resolve(); err != nil {
		return nil, err
	}
	logger.Debug("Model resolved.", "classes", len(classes), "objects", len(objects), "methods", len(methods))

	if len(plans) != 1 {
		return nil, fmt.Errorf("expected exactly one plan block, found %d", len(plans))
	}
	d := &planDecoder{model: m}
	plan, err := d.decodePlan(plans[0])
	if err != nil {
		return nil, err
	}
	logger.Debug("Plan composition decoded.", "root", plan.Kind.String())
	return &Document{Model: m, Plan: plan}, nil
}

func translateClass(c *classBlock) *model.Class {
	cls := &model.Class{Name: c.Name, Values: c.Values}
	if c.Initial != "" {
		cls.Initials = []string{c.Initial}
	}
	return cls
}

func translateObject(o *objectBlock) *model.Object {
	obj := &model.Object{Name: o.Name, Class: o.Class}
	for _, f := range o.Fields {
		obj.Fields = append(obj.Fields, &model.Field{
			Name:  f.Name,
			Class: f.Class,
			Value: f.Value,
			Ref:   f.Ref,
			None:  f.None,
		})
	}
	return obj
}

func translateMethod(mb *methodBlock) (*model.Method, error) {
	name := mb.Class + "." + mb.Name
	dur, err := evalInterval(mb.Duration)
	if err != nil {
		return nil, fmt.Errorf("method %s: %w", name, err)
	}
	mth := &model.Method{Name: mb.Name, Class: mb.Class, Duration: dur}
	for _, p := range mb.Params {
		mth.Params = append(mth.Params, &model.Param{Name: p.Name, Class: p.Class})
	}
	if len(mb.Transition) > 0 {
		if len(mb.Transition) != 2 {
			return nil, fmt.Errorf("method %s: transition wants [pre, post], got %d values", name, len(mb.Transition))
		}
		mth.Transition(mb.Transition[0], mb.Transition[1])
	}
	for _, c := range mb.Preconditions {
		when, err := parseWhen(c.At, model.AtStart)
		if err != nil {
			return nil, fmt.Errorf("method %s: %w", name, err)
		}
		mth.Preconditions = append(mth.Preconditions, &model.Condition{When: when, Path: c.Path, Equals: c.Equals})
	}
	for _, e := range mb.Effects {
		when, err := parseWhen(e.At, model.AtEnd)
		if err != nil {
			return nil, fmt.Errorf("method %s: %w", name, err)
		}
		mth.Effects = append(mth.Effects, &model.Effect{When: when, Path: e.Path, Value: e.Value})
	}
	return mth, nil
}

func parseWhen(at string, def model.When) (model.When, error) {
	switch at {
	case "":
		return def, nil
	case "start":
		return model.AtStart, nil
	case "end":
		return model.AtEnd, nil
	}
	return 0, fmt.Errorf("invalid event %q, want start or end", at)
}

// planDecoder walks the recursive composition grammar against a resolved
// model.
type planDecoder struct {
	model *model.Model
}

func (d *planDecoder) decodePlan(pb *planBlock) (*episode.Episode, error) {
	content, diags := pb.Body.Content(compositionSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid plan block: %w", diags)
	}
	if len(content.Blocks) != 1 {
		return nil, fmt.Errorf("plan wants exactly one composition block, found %d", len(content.Blocks))
	}
	return d.decodeBlock(content.Blocks[0])
}

func (d *planDecoder) decodeBlock(block *hcl.Block) (*episode.Episode, error) {
	switch block.Type {
	case "step":
		return d.decodeStep(block)
	case "goal":
		return d.decodeGoal(block)
	case "sequence", "parallel", "choose":
		return d.decodeComposite(block)
	case "choose_probabilistic":
		return d.decodeProbabilistic(block)
	case "constrained":
		return d.decodeConstrained(block)
	}
	return nil, fmt.Errorf("%s: block %q is not a composition", block.DefRange, block.Type)
}

func (d *planDecoder) decodeComposite(block *hcl.Block) (*episode.Episode, error) {
	content, diags := block.Body.Content(compositionSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid %s block: %w", block.Type, diags)
	}

	var children []*episode.Episode
	var invariants []episode.Guard
	for _, child := range content.Blocks {
		switch child.Type {
		case "invariant":
			if block.Type != "parallel" {
				return nil, fmt.Errorf("%s: invariant blocks only belong in parallel", child.DefRange)
			}
			g, _, err := d.decodeCondition(child, invariantSchema)
			if err != nil {
				return nil, err
			}
			invariants = append(invariants, g)
		case "constraint", "outcome":
			return nil, fmt.Errorf("%s: block %q not allowed in %s", child.DefRange, child.Type, block.Type)
		default:
			ep, err := d.decodeBlock(child)
			if err != nil {
				return nil, err
			}
			children = append(children, ep)
		}
	}

	var ep *episode.Episode
	var err error
	switch block.Type {
	case "sequence":
		ep, err = episode.Sequence(children...)
	case "parallel":
		ep, err = episode.Parallel(children...)
	case "choose":
		ep, err = episode.Choose(children...)
	}
	if err != nil {
		return nil, err
	}
	for _, g := range invariants {
		if _, err := ep.WithInvariant(g); err != nil {
			return nil, err
		}
	}
	return d.applyCommon(ep, content.Attributes)
}

func (d *planDecoder) decodeProbabilistic(block *hcl.Block) (*episode.Episode, error) {
	content, diags := block.Body.Content(compositionSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid choose_probabilistic block: %w", diags)
	}

	var children []*episode.Episode
	var probs []float64
	for _, oc := range content.Blocks {
		if oc.Type != "outcome" {
			return nil, fmt.Errorf("%s: choose_probabilistic wants outcome blocks, found %q", oc.DefRange, oc.Type)
		}
		ocContent, diags := oc.Body.Content(outcomeSchema)
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid outcome %q: %w", oc.Labels[0], diags)
		}
		p, err := evalFloat(ocContent.Attributes["probability"])
		if err != nil {
			return nil, fmt.Errorf("outcome %q: %w", oc.Labels[0], err)
		}
		if len(ocContent.Blocks) != 1 {
			return nil, fmt.Errorf("outcome %q wants exactly one composition block, found %d", oc.Labels[0], len(ocContent.Blocks))
		}
		child, err := d.decodeBlock(ocContent.Blocks[0])
		if err != nil {
			return nil, err
		}
		child, err = d.applyCommon(child, ocContent.Attributes)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
		probs = append(probs, p)
	}

	ep, err := episode.ChooseProbabilistic(children, probs)
	if err != nil {
		return nil, err
	}
	return d.applyCommon(ep, content.Attributes)
}

func (d *planDecoder) decodeConstrained(block *hcl.Block) (*episode.Episode, error) {
	content, diags := block.Body.Content(compositionSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid constrained block: %w", diags)
	}

	var inner *episode.Episode
	var constraints []episode.Constraint
	for _, child := range content.Blocks {
		if child.Type == "constraint" {
			c, err := d.decodeConstraint(child)
			if err != nil {
				return nil, err
			}
			constraints = append(constraints, c)
			continue
		}
		if inner != nil {
			return nil, fmt.Errorf("%s: constrained wants exactly one inner composition", child.DefRange)
		}
		ep, err := d.decodeBlock(child)
		if err != nil {
			return nil, err
		}
		inner = ep
	}
	if inner == nil {
		return nil, fmt.Errorf("%s: constrained wants exactly one inner composition", block.DefRange)
	}

	ep, err := episode.Constrained(inner, constraints...)
	if err != nil {
		return nil, err
	}
	return d.applyCommon(ep, content.Attributes)
}

func (d *planDecoder) decodeConstraint(block *hcl.Block) (episode.Constraint, error) {
	content, diags := block.Body.Content(constraintSchema)
	if diags.HasErrors() {
		return episode.Constraint{}, fmt.Errorf("invalid constraint block: %w", diags)
	}
	from, err := parseEndpoint(content.Attributes["from"])
	if err != nil {
		return episode.Constraint{}, err
	}
	to, err := parseEndpoint(content.Attributes["to"])
	if err != nil {
		return episode.Constraint{}, err
	}
	bound, err := evalInterval(content.Attributes["bound"].Expr)
	if err != nil {
		return episode.Constraint{}, fmt.Errorf("%s: %w", block.DefRange, err)
	}
	return episode.Constraint{From: from, To: to, Bound: bound}, nil
}

func (d *planDecoder) decodeStep(block *hcl.Block) (*episode.Episode, error) {
	content, diags := block.Body.Content(stepSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid step block: %w", diags)
	}
	methodName, err := evalString(content.Attributes["method"])
	if err != nil {
		return nil, err
	}
	owner, err := evalString(content.Attributes["on"])
	if err != nil {
		return nil, err
	}
	bindings, err := evalBindings(content.Attributes["bind"])
	if err != nil {
		return nil, err
	}

	obj := d.model.Object(owner)
	if obj == nil {
		return nil, &model.UnresolvedReferenceError{Kind: "object", Name: owner, Context: "step at " + block.DefRange.String()}
	}
	mth := d.model.Method(obj.Class, methodName)
	if mth == nil {
		return nil, &model.UnresolvedReferenceError{Kind: "method", Name: methodName, Context: "class " + obj.Class}
	}
	ep, err := episode.Instantiate(d.model, mth, owner, bindings)
	if err != nil {
		return nil, err
	}
	return d.applyCommon(ep, content.Attributes)
}

func (d *planDecoder) decodeGoal(block *hcl.Block) (*episode.Episode, error) {
	g, attrs, err := d.decodeCondition(block, goalSchema)
	if err != nil {
		return nil, err
	}
	return d.applyCommon(episode.Assert(g), attrs)
}

// decodeCondition reads a path/equals pair into an equality guard and
// validates the literal against the path's state class. The remaining
// attributes are returned for the caller's schema extras.
func (d *planDecoder) decodeCondition(block *hcl.Block, schema *hcl.BodySchema) (episode.Guard, hcl.Attributes, error) {
	content, diags := block.Body.Content(schema)
	if diags.HasErrors() {
		return episode.Guard{}, nil, fmt.Errorf("invalid %s block: %w", block.Type, diags)
	}
	path, err := evalString(content.Attributes["path"])
	if err != nil {
		return episode.Guard{}, nil, err
	}
	value, err := evalString(content.Attributes["equals"])
	if err != nil {
		return episode.Guard{}, nil, err
	}
	cls, err := d.model.ClassOfPath(path)
	if err != nil {
		return episode.Guard{}, nil, err
	}
	if cls != "" && !d.model.Class(cls).Contains(value) {
		return episode.Guard{}, nil, &model.UnresolvedReferenceError{Kind: "value", Name: value, Context: block.Type + " on " + path}
	}
	return episode.Eq(path, value), content.Attributes, nil
}

// applyCommon applies the label and bound attributes shared by every
// composition block.
func (d *planDecoder) applyCommon(ep *episode.Episode, attrs hcl.Attributes) (*episode.Episode, error) {
	if attr, ok := attrs["label"]; ok {
		label, err := evalString(attr)
		if err != nil {
			return nil, err
		}
		ep.WithLabel(label)
	}
	if attr, ok := attrs["bound"]; ok {
		bound, err := evalInterval(attr.Expr)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", attr.Range, err)
		}
		if _, err := ep.WithBound(bound); err != nil {
			return nil, err
		}
	}
	return ep, nil
}

// parseEndpoint reads a time-point reference: start, end, startof(label),
// or endof(label). The bare forms refer to the constrained composition
// itself.
func parseEndpoint(attr *hcl.Attribute) (episode.Endpoint, error) {
	s, err := evalString(attr)
	if err != nil {
		return episode.Endpoint{}, err
	}
	switch {
	case s == "start":
		return episode.Endpoint{}, nil
	case s == "end":
		return episode.Endpoint{AtEnd: true}, nil
	case strings.HasPrefix(s, "startof(") && strings.HasSuffix(s, ")"):
		return episode.Endpoint{Label: s[len("startof(") : len(s)-1]}, nil
	case strings.HasPrefix(s, "endof(") && strings.HasSuffix(s, ")"):
		return episode.Endpoint{Label: s[len("endof(") : len(s)-1], AtEnd: true}, nil
	}
	return episode.Endpoint{}, fmt.Errorf("%s: invalid time point %q, want start, end, startof(label), or endof(label)", attr.Range, s)
}

// evalInterval evaluates a [lo, hi] expression; hi may be the inf
// keyword.
func evalInterval(expr hcl.Expression) (interval.Interval, error) {
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return interval.Interval{}, fmt.Errorf("invalid bound: %w", diags)
	}
	if !val.Type().IsTupleType() || val.LengthInt() != 2 {
		return interval.Interval{}, fmt.Errorf("bound wants [lo, hi], got %s", val.Type().FriendlyName())
	}
	vals := val.AsValueSlice()
	lo, err := ctyFloat(vals[0])
	if err != nil {
		return interval.Interval{}, err
	}
	hi, err := ctyFloat(vals[1])
	if err != nil {
		return interval.Interval{}, err
	}
	iv := interval.New(lo, hi)
	if !iv.Valid() {
		return interval.Interval{}, fmt.Errorf("invalid bound %s", iv)
	}
	return iv, nil
}

func evalString(attr *hcl.Attribute) (string, error) {
	val, diags := attr.Expr.Value(evalCtx)
	if diags.HasErrors() {
		return "", fmt.Errorf("invalid %s: %w", attr.Name, diags)
	}
	val, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", fmt.Errorf("invalid %s: %w", attr.Name, err)
	}
	return val.AsString(), nil
}

func evalFloat(attr *hcl.Attribute) (float64, error) {
	val, diags := attr.Expr.Value(evalCtx)
	if diags.HasErrors() {
		return 0, fmt.Errorf("invalid %s: %w", attr.Name, diags)
	}
	return ctyFloat(val)
}

func ctyFloat(val cty.Value) (float64, error) {
	val, err := convert.Convert(val, cty.Number)
	if err != nil {
		return 0, err
	}
	f, _ := val.AsBigFloat().Float64()
	return f, nil
}

// evalBindings reads the optional bind map of a step.
func evalBindings(attr *hcl.Attribute) (map[string]string, error) {
	if attr == nil {
		return nil, nil
	}
	val, diags := attr.Expr.Value(evalCtx)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid bind: %w", diags)
	}
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil, fmt.Errorf("bind wants a map of parameter to object, got %s", val.Type().FriendlyName())
	}
	bindings := make(map[string]string)
	for name, v := range val.AsValueMap() {
		v, err := convert.Convert(v, cty.String)
		if err != nil {
			return nil, fmt.Errorf("bind %s: %w", name, err)
		}
		bindings[name] = v.AsString()
	}
	return bindings, nil
}

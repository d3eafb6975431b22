package compiler

import (
	"io"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/relgraph/internal/ir"
)

// Recognised option-tail keys. Other keys are kept in Association.Options.
const (
	OptionForeignKey  = "foreignKey"
	OptionTargetKey   = "targetKey"
	OptionConstraints = "constraints"
)

// Registry resolves entity names. internal/registry provides the standard
// implementation.
type Registry interface {
	Lookup(name string) (*ir.Entity, bool)
}

// Parser turns DSL text into an association graph.
type Parser struct {
	registry  Registry
	hooks     Hooks
	registrar Registrar
	logger    *slog.Logger

	associations []ir.Association
}

// Option configures a Parser.
type Option func(*Parser)

// WithHooks overrides any subset of the relationship hooks.
func WithHooks(h Hooks) Option {
	return func(p *Parser) { p.hooks = h }
}

// WithRegistrar sets the collaborator used by the default hooks.
func WithRegistrar(r Registrar) Option {
	return func(p *Parser) { p.registrar = r }
}

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) { p.logger = l }
}

// NewParser creates a parser resolving entities through reg.
func NewParser(reg Registry, opts ...Option) *Parser {
	p := &Parser{registry: reg}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	p.hooks = p.hooks.merge(DefaultHooks(p.registrar))
	return p
}

// Parse parses every declaration of text, in order, into a graph.
//
// Links accumulate per source entity in declaration order. The first error
// aborts the parse: the error is returned and no graph is exposed.
func (p *Parser) Parse(text string) (*ir.AssociationGraph, error) {
	graph := ir.NewGraph()
	var records []ir.Association

	text = norm.NFC.String(text)
	p.logger.Debug("parsing associations", "bytes", len(text))

	for i, raw := range strings.Split(text, "\n") {
		lineNo := i + 1
		line := strings.TrimSpace(raw)
		if isComment(line) {
			continue
		}

		info, err := p.parseLine(line, lineNo)
		if err != nil {
			p.logger.Error("[KO]", "line", lineNo, "text", raw, "error", err)
			return nil, err
		}
		p.logger.Debug("[OK]", "line", lineNo, "text", raw)

		graph.Add(info.Source, info.Link())
		records = append(records, info)
	}

	p.associations = records
	return graph, nil
}

// ParseLine parses a single declaration. Errors carry line number 0.
func (p *Parser) ParseLine(line string) (ir.Association, error) {
	return p.parseLine(strings.TrimSpace(norm.NFC.String(line)), 0)
}

// Associations returns the records produced by the last successful Parse,
// in declaration order.
func (p *Parser) Associations() []ir.Association {
	out := make([]ir.Association, len(p.associations))
	copy(out, p.associations)
	return out
}

func (p *Parser) parseLine(line string, lineNo int) (ir.Association, error) {
	decl, err := tokenize(line, lineNo)
	if err != nil {
		return ir.Association{}, err
	}

	switch decl.kind {
	case ir.HasMany:
		return p.createHasMany(decl, lineNo)
	case ir.BelongsTo:
		return p.createBelongsTo(decl, lineNo)
	default:
		return p.createBelongsToMany(decl, lineNo)
	}
}

func (p *Parser) createHasMany(decl *declaration, lineNo int) (ir.Association, error) {
	info, err := p.resolve(decl, lineNo)
	if err != nil {
		return info, err
	}
	if info.ForeignKey == "" {
		info.ForeignKey = p.hooks.EntityNameToForeignKey(decl.sourceName)
	}

	p.logger.Debug("hasMany",
		"source", info.Source.Name,
		"target", info.Target.Name,
		"as", info.Alias,
		"foreignKey", info.ForeignKey)
	return p.runHook(p.hooks.HasMany, info, lineNo)
}

func (p *Parser) createBelongsTo(decl *declaration, lineNo int) (ir.Association, error) {
	info, err := p.resolve(decl, lineNo)
	if err != nil {
		return info, err
	}
	if info.Alias == "" {
		info.Alias = p.hooks.EntityNameToAlias(decl.targetName)
	}

	p.logger.Debug("belongsTo",
		"source", info.Source.Name,
		"target", info.Target.Name,
		"as", info.Alias,
		"constraints", info.Constraints,
		"foreignKey", info.ForeignKey,
		"targetKey", info.TargetKey)
	return p.runHook(p.hooks.BelongsTo, info, lineNo)
}

func (p *Parser) createBelongsToMany(decl *declaration, lineNo int) (ir.Association, error) {
	info, err := p.resolve(decl, lineNo)
	if err != nil {
		return info, err
	}
	if info.ForeignKey == "" {
		info.ForeignKey = p.hooks.EntityNameToForeignKey(decl.sourceName)
	}

	p.logger.Debug("belongsToMany",
		"source", info.Source.Name,
		"target", info.Target.Name,
		"through", info.Liaison.Name,
		"as", info.Alias,
		"foreignKey", info.ForeignKey)
	return p.runHook(p.hooks.BelongsToMany, info, lineNo)
}

// resolve looks up the declaration's entities (source, then target, then
// liaison) and applies the recognised options.
func (p *Parser) resolve(decl *declaration, lineNo int) (ir.Association, error) {
	info := ir.Association{
		Kind:  decl.kind,
		Alias: decl.alias,
		Line:  lineNo,
	}

	var err error
	if info.Source, err = p.lookup(decl.sourceName, RoleSource, lineNo); err != nil {
		return info, err
	}
	if info.Target, err = p.lookup(decl.targetName, RoleTarget, lineNo); err != nil {
		return info, err
	}
	if decl.kind == ir.BelongsToMany {
		if info.Liaison, err = p.lookup(decl.liaisonName, RoleLiaison, lineNo); err != nil {
			return info, err
		}
	}

	for key, value := range decl.options {
		switch key {
		case OptionForeignKey:
			info.ForeignKey = value
		case OptionTargetKey:
			info.TargetKey = value
		case OptionConstraints:
			b, perr := strconv.ParseBool(value)
			if perr != nil {
				return info, &MalformedOptionsTailError{
					Line:   lineNo,
					Tail:   decl.tail,
					Entry:  key + keyValueSep + value,
					Reason: "constraints must be true or false",
				}
			}
			info.Constraints = b
		default:
			if info.Options == nil {
				info.Options = make(map[string]string)
			}
			info.Options[key] = value
		}
	}
	return info, nil
}

func (p *Parser) lookup(name, role string, lineNo int) (*ir.Entity, error) {
	if p.registry != nil {
		if e, ok := p.registry.Lookup(name); ok && e != nil {
			return e, nil
		}
	}
	return nil, &UnknownEntityError{Name: name, Role: role, Line: lineNo}
}

func (p *Parser) runHook(hook AssociationHook, info ir.Association, lineNo int) (ir.Association, error) {
	out, err := hook(info)
	if err != nil {
		return out, &HookError{Line: lineNo, Kind: string(info.Kind), Err: err}
	}
	return out, nil
}

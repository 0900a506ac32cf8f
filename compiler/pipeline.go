package compiler

import (
	"fmt"

	"github.com/shibukawa/snaphaml"
	"github.com/shibukawa/snaphaml/explang"
	"github.com/shibukawa/snaphaml/filter"
	"github.com/shibukawa/snaphaml/intermediate"
	"github.com/shibukawa/snaphaml/parser"
)

// Result holds both trees of one compiled template
type Result struct {
	Document *parser.Document
	Tree     *intermediate.Multi
}

// Instructions flattens the tree
func (r *Result) Instructions(format snaphaml.Format) []intermediate.Instruction {
	return intermediate.Flatten(r.Tree, intermediate.FlattenOptions{XHTML: format.IsXHTML()})
}

// Option customizes Compile
type Option func(*config)

type config struct {
	filters   *filter.Registry
	validator explang.Validator
}

// WithFilters replaces the built-in filter registry
func WithFilters(filters *filter.Registry) Option {
	return func(c *config) {
		c.filters = filters
	}
}

// WithValidator replaces the CEL based syntax validator
func WithValidator(validator explang.Validator) Option {
	return func(c *config) {
		c.validator = validator
	}
}

// Compile parses src and lowers it into the intermediate tree
func Compile(src string, opts snaphaml.Options, options ...Option) (*Result, error) {
	cfg := &config{}
	for _, option := range options {
		option(cfg)
	}

	if cfg.filters == nil {
		cfg.filters = filter.DefaultRegistry()
	}

	if cfg.validator == nil {
		validator, err := explang.NewCELValidator()
		if err != nil {
			return nil, fmt.Errorf("failed to create expression validator: %w", err)
		}

		cfg.validator = validator
	}

	doc, err := parser.Parse(src, opts, cfg.filters)
	if err != nil {
		return nil, err
	}

	tree, err := NewTreeCompiler(opts, cfg.filters, cfg.validator).Compile(doc)
	if err != nil {
		return nil, err
	}

	opts.Log().Debug("compiled template",
		"lines", doc.LastLine(),
		"newlines", intermediate.CountNewlines(tree),
	)

	return &Result{Document: doc, Tree: tree}, nil
}

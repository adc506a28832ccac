// Package infer runs the schema inference passes in order over one document:
// walk, arity inversion, disambiguation, collision inspection, optional
// validation of a second document and the relation closure.
package infer

import (
	"fmt"
	"io"
	"os"

	"xtd/internal/introspect"
	"xtd/internal/logger"
	"xtd/internal/schema"
	"xtd/internal/xmltree"
	"xtd/pkg/config"
)

// Options selects the passes to run.
type Options struct {
	SuppressAttributes bool
	// Threshold enables arity inversion when set.
	Threshold          *int
	SkipDisambiguation bool
	Relations          bool
	// ValidatePath names a second document that must fit into the inferred schema.
	ValidatePath string
}

// OptionsFrom maps the inference section of the configuration onto Options.
func OptionsFrom(c config.InferenceConfig) Options {
	return Options{
		SuppressAttributes: c.NoAttributes,
		Threshold:          c.Etc,
		SkipDisambiguation: c.NoDisambiguation,
		Relations:          c.Relations,
		ValidatePath:       c.IsValid,
	}
}

// IOError reports a file the pipeline could not open.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("cannot open %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Result is the final model handed to the emitters.
type Result struct {
	Registry  *schema.Registry
	Namespace string
	// Graph is nil unless relations were requested.
	Graph *schema.Graph
}

// Schema lays the result out for the emitters, namespace stripped.
func (r *Result) Schema() introspect.Schema {
	s := introspect.FromRegistry(r.Registry, r.Namespace)
	if r.Graph != nil {
		s = s.WithRelations(r.Graph, r.Namespace)
	}
	return s
}

// Run parses in and runs the pipeline on it.
func Run(in io.Reader, opts Options) (*Result, error) {
	root, err := xmltree.Parse(in)
	if err != nil {
		return nil, err
	}
	return RunTree(root, opts)
}

// RunTree runs the pipeline on an already parsed document.
func RunTree(root *xmltree.Node, opts Options) (*Result, error) {
	reg := schema.NewRegistry()
	schema.Walk(root, reg, schema.WalkOptions{SuppressAttributes: opts.SuppressAttributes})
	logger.Debug("walk found %d tables", reg.Len())

	if opts.Threshold != nil {
		if err := schema.InvertArity(reg, *opts.Threshold); err != nil {
			return nil, err
		}
	}

	var unsplit *schema.Registry
	if !opts.SkipDisambiguation {
		unsplit = schema.Disambiguate(reg)
	}

	if err := schema.Inspect(reg); err != nil {
		return nil, err
	}

	if opts.ValidatePath != "" {
		doc, err := parseFile(opts.ValidatePath)
		if err != nil {
			return nil, err
		}
		if err := validateTree(doc, reg, opts); err != nil {
			return nil, err
		}
		logger.Info("%s fits the inferred schema", opts.ValidatePath)
	}

	res := &Result{Registry: reg, Namespace: xmltree.Namespace(root)}
	if opts.Relations {
		if unsplit != nil {
			res.Registry = unsplit
		}
		res.Graph = schema.Relations(res.Registry)
		logger.Debug("relation closure holds %d edges", res.Graph.Size())
	}
	return res, nil
}

// Check infers the schema of reference and validates candidate against it.
// Relations and ValidatePath in opts are ignored.
func Check(reference, candidate *xmltree.Node, opts Options) error {
	opts.Relations = false
	opts.ValidatePath = ""
	res, err := RunTree(reference, opts)
	if err != nil {
		return err
	}
	return validateTree(candidate, res.Registry, opts)
}

func validateTree(doc *xmltree.Node, reference *schema.Registry, opts Options) error {
	_, err := schema.Validate(doc, reference, schema.ValidateOptions{
		SuppressAttributes: opts.SuppressAttributes,
		Disambiguate:       !opts.SkipDisambiguation,
	})
	return err
}

// CheckAgainst infers the schema of root the same way Run does and checks
// that it fits into reference, a registry rebuilt from a database schema.
// Names are compared without the document's namespace.
func CheckAgainst(root *xmltree.Node, reference *schema.Registry, opts Options) error {
	candidate := schema.NewRegistry()
	schema.Walk(root, candidate, schema.WalkOptions{SuppressAttributes: opts.SuppressAttributes})
	if !opts.SkipDisambiguation {
		schema.Disambiguate(candidate)
	}
	plain := introspect.ToRegistry(introspect.FromRegistry(candidate, xmltree.Namespace(root)))
	return schema.Compare(plain, reference)
}

func parseFile(path string) (*xmltree.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	defer f.Close()
	return xmltree.Parse(f)
}

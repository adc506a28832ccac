package infer

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xtd/internal/introspect"
	"xtd/internal/schema"
	"xtd/internal/xmltree"
	"xtd/pkg/config"
)

const ordersDoc = `<shop>
  <order id="1" paid="true"><line qty="2">Pen</line><line qty="1">Ink</line></order>
  <order id="2" paid="false"><line qty="5">Pad</line></order>
</shop>`

func run(t *testing.T, doc string, opts Options) (*Result, error) {
	t.Helper()
	return Run(strings.NewReader(doc), opts)
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.xml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func foreignKeys(t *testing.T, reg *schema.Registry, table string) []string {
	t.Helper()
	tab, ok := reg.Table(table)
	require.True(t, ok, "table %q missing", table)
	return tab.ForeignKeys()
}

func TestRunDefaultSplitsKeys(t *testing.T) {
	res, err := run(t, ordersDoc, Options{})
	require.NoError(t, err)

	assert.Nil(t, res.Graph)
	assert.Equal(t, []string{"order1", "order2"}, foreignKeys(t, res.Registry, "shop"))
	assert.Equal(t, []string{"line1", "line2"}, foreignKeys(t, res.Registry, "order"))
}

func TestRunSkipDisambiguation(t *testing.T) {
	res, err := run(t, ordersDoc, Options{SkipDisambiguation: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"order"}, foreignKeys(t, res.Registry, "shop"))
}

func TestRunThreshold(t *testing.T) {
	one := 1
	res, err := run(t, ordersDoc, Options{Threshold: &one})
	require.NoError(t, err)

	assert.Empty(t, foreignKeys(t, res.Registry, "shop"))
	assert.Equal(t, []string{"shop"}, foreignKeys(t, res.Registry, "order"))
	assert.Equal(t, []string{"order"}, foreignKeys(t, res.Registry, "line"))
}

func TestRunThresholdKeepsSplitBelowLimit(t *testing.T) {
	two := 2
	res, err := run(t, `<r><a/><a/><b/><b/><b/></r>`, Options{Threshold: &two})
	require.NoError(t, err)

	assert.Equal(t, []string{"a1", "a2"}, foreignKeys(t, res.Registry, "r"))
	assert.Equal(t, []string{"r"}, foreignKeys(t, res.Registry, "b"))
}

func TestRunRelationsUseUnsplitNames(t *testing.T) {
	res, err := run(t, ordersDoc, Options{Relations: true})
	require.NoError(t, err)
	require.NotNil(t, res.Graph)

	assert.Equal(t, []string{"order"}, foreignKeys(t, res.Registry, "shop"))
	e, ok := res.Graph.Edge("shop", "order")
	require.True(t, ok)
	assert.Equal(t, "N:1", e.Label())
	e, ok = res.Graph.Edge("shop", "line")
	require.True(t, ok)
	assert.Equal(t, "N:1", e.Label())

	s := res.Schema()
	assert.NotEmpty(t, s.Relations)
	assert.Equal(t, introspect.Relation{From: "shop", To: "shop", Type: "1:1"}, s.Relations[0])
}

func TestRunCollision(t *testing.T) {
	_, err := run(t, `<r line_id="7"><line/></r>`, Options{})
	var collision *schema.NamingCollisionError
	require.True(t, errors.As(err, &collision), "got %v", err)
}

func TestRunCollisionAfterSplit(t *testing.T) {
	// a1_id only exists once a is split
	_, err := run(t, `<r a1_id="7"><a/><a/></r>`, Options{})
	var collision *schema.NamingCollisionError
	require.True(t, errors.As(err, &collision), "got %v", err)

	_, err = run(t, `<r a1_id="7"><a/><a/></r>`, Options{SkipDisambiguation: true})
	assert.NoError(t, err)
}

func TestRunRelationConflict(t *testing.T) {
	zero := 0
	_, err := run(t, `<a><b><a/></b></a>`, Options{Threshold: &zero})
	var conflict *schema.RelationConflictError
	require.True(t, errors.As(err, &conflict), "got %v", err)
}

func TestRunParseError(t *testing.T) {
	_, err := run(t, `<a><b></a>`, Options{})
	var perr *xmltree.ParseError
	assert.True(t, errors.As(err, &perr), "got %v", err)
}

func TestRunValidate(t *testing.T) {
	var tests = []struct {
		name    string
		doc     string
		wantErr interface{}
	}{
		{"same document", ordersDoc, nil},
		{"fewer attributes", `<shop><order id="3"><line qty="1">x</line><line qty="0"/></order><order/></shop>`, nil},
		{"wider attribute", `<shop><order id="x"><line/><line/></order><order/></shop>`, &schema.SchemaValidationError{}},
		{"unsplit key", `<shop><order id="3"/></shop>`, &schema.SchemaValidationError{}},
		{"not well-formed", `<shop>`, &xmltree.ParseError{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, ordersDoc, Options{ValidatePath: writeFile(t, tt.doc)})
			switch want := tt.wantErr.(type) {
			case nil:
				assert.NoError(t, err)
			case *schema.SchemaValidationError:
				assert.True(t, errors.As(err, &want), "got %v", err)
			case *xmltree.ParseError:
				assert.True(t, errors.As(err, &want), "got %v", err)
			}
		})
	}
}

func TestRunValidateMissingFile(t *testing.T) {
	_, err := run(t, ordersDoc, Options{ValidatePath: filepath.Join(t.TempDir(), "missing.xml")})
	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr), "got %v", err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestCheckAgainst(t *testing.T) {
	root, err := xmltree.Parse(strings.NewReader(`<n:shop xmlns:n="urn:shop"><n:order id="1"/></n:shop>`))
	require.NoError(t, err)

	reference := introspect.ToRegistry(introspect.Schema{
		Tables: []introspect.Table{
			{Name: "shop", Columns: []introspect.Column{
				{Name: "prk_shop_id", Type: "INTEGER", PK: true},
				{Name: "order_id", Type: "INTEGER"},
			}},
			{Name: "order", Columns: []introspect.Column{
				{Name: "prk_order_id", Type: "INTEGER", PK: true},
				{Name: "id", Type: "integer"},
			}},
		},
	})
	assert.NoError(t, CheckAgainst(root, reference, Options{}))

	narrow := introspect.ToRegistry(introspect.Schema{
		Tables: []introspect.Table{
			{Name: "shop", Columns: []introspect.Column{{Name: "order_id", Type: "INTEGER"}}},
			{Name: "order", Columns: []introspect.Column{{Name: "id", Type: "bit"}}},
		},
	})
	assert.NoError(t, CheckAgainst(root, narrow, Options{}), "BIT holds 1")

	root, err = xmltree.Parse(strings.NewReader(`<shop><order id="17"/></shop>`))
	require.NoError(t, err)
	var verr *schema.SchemaValidationError
	require.True(t, errors.As(CheckAgainst(root, narrow, Options{}), &verr))
	assert.Equal(t, schema.IncompatibleType, verr.Kind)
}

func TestOptionsFrom(t *testing.T) {
	three := 3
	opts := OptionsFrom(config.InferenceConfig{
		NoAttributes: true, Etc: &three, Relations: true, IsValid: "v.xml",
	})
	assert.Equal(t, Options{
		SuppressAttributes: true, Threshold: &three, Relations: true, ValidatePath: "v.xml",
	}, opts)
}

func TestCheck(t *testing.T) {
	parse := func(doc string) *xmltree.Node {
		root, err := xmltree.Parse(strings.NewReader(doc))
		require.NoError(t, err)
		return root
	}
	ref := parse(ordersDoc)

	assert.NoError(t, Check(ref, parse(`<shop><order id="9"><line/><line/></order><order/></shop>`), Options{}))

	var verr *schema.SchemaValidationError
	require.True(t, errors.As(Check(ref, parse(`<shop><order id="9.5"><line/><line/></order><order/></shop>`), Options{}), &verr))
	assert.Equal(t, schema.IncompatibleType, verr.Kind)

	// the reference itself must pass the collision check
	var collision *schema.NamingCollisionError
	require.True(t, errors.As(Check(parse(`<r line_id="1"><line/></r>`), ref, Options{}), &collision))
}

package xmltree

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	root, err := Parse(strings.NewReader(`<?xml version="1.0"?>
<!-- catalogue -->
<catalog version="2"><item id="1">first<![CDATA[ & more]]></item><item/></catalog>
`))
	require.NoError(t, err)

	assert.Equal(t, "catalog", root.Tag)
	assert.Equal(t, []Attr{{Name: "version", Value: "2"}}, root.Attrs)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "first & more", root.Children[0].Text)
	assert.Equal(t, "", root.Children[1].Text)
	assert.Empty(t, root.Children[1].Children)
}

func TestParseNamespaces(t *testing.T) {
	root, err := Parse(strings.NewReader(
		`<r xmlns="urn:a" xmlns:p="urn:p" p:x="1" y="2"><p:c/></r>`))
	require.NoError(t, err)

	assert.Equal(t, "{urn:a}r", root.Tag)
	assert.Equal(t, []Attr{{Name: "{urn:p}x", Value: "1"}, {Name: "y", Value: "2"}}, root.Attrs)
	assert.Equal(t, "{urn:p}c", root.Children[0].Tag)
	assert.Equal(t, "{urn:a}", Namespace(root))
}

func TestParseCharset(t *testing.T) {
	doc := "<?xml version=\"1.0\" encoding=\"ISO-8859-2\"?><r n=\"\xb9\"/>"
	root, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "š", root.Attrs[0].Value)
}

func TestParseByteOrderMark(t *testing.T) {
	var tests = []struct {
		name string
		doc  string
	}{
		{"before root", "\ufeff<root><a/></root>"},
		{"before declaration", "\ufeff<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<root><a/></root>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := Parse(strings.NewReader(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, "root", root.Tag)
			require.Len(t, root.Children, 1)
			assert.Equal(t, "a", root.Children[0].Tag)
		})
	}
}

func TestParseErrors(t *testing.T) {
	var tests = []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"only whitespace", "  \n "},
		{"mismatched tags", "<a><b></a></b>"},
		{"unclosed", "<a><b/>"},
		{"two roots", "<a/><b/>"},
		{"text after root", "<a/>junk"},
		{"mark after root", "<a/>\ufeff"},
		{"bad attribute", `<a x=1/>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Errorf("\ngot error %v, wanted a *ParseError", err)
			}
		})
	}
}

func TestNamespace(t *testing.T) {
	assert.Equal(t, "", Namespace(nil))
	assert.Equal(t, "", Namespace(&Node{Tag: "plain"}))
	assert.Equal(t, "{urn:x}", Namespace(&Node{Tag: "{urn:x}r"}))
}

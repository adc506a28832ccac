// Package xmltree reads an XML document into a small element tree:
// tag, attributes, direct text and child elements. Namespaced names are
// written as "{uri}local".
package xmltree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// Attr is one attribute of an element.
type Attr struct {
	Name  string
	Value string
}

// Node is one element of the document.
type Node struct {
	Tag      string
	Attrs    []Attr
	Text     string
	Children []*Node
}

// ParseError reports a document that is not well-formed.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("document is not well-formed XML: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// byteOrderMark is returned as character data ahead of the document element.
var byteOrderMark = []byte("\ufeff")

// Parse reads a whole document and returns its root element.
func Parse(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var (
		root  *Node
		stack []*Node
		text  []*strings.Builder
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Err: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if root != nil && len(stack) == 0 {
				return nil, &ParseError{Err: errors.New("junk after document element")}
			}
			n := &Node{Tag: qualify(t.Name)}
			for _, a := range t.Attr {
				if isNamespaceDecl(a.Name) {
					continue
				}
				n.Attrs = append(n.Attrs, Attr{Name: qualify(a.Name), Value: a.Value})
			}
			if len(stack) == 0 {
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
			text = append(text, &strings.Builder{})
		case xml.EndElement:
			n := stack[len(stack)-1]
			n.Text = text[len(text)-1].String()
			stack = stack[:len(stack)-1]
			text = text[:len(text)-1]
		case xml.CharData:
			if len(stack) == 0 {
				if root == nil {
					t = bytes.TrimPrefix(t, byteOrderMark)
				}
				if len(bytes.TrimSpace(t)) > 0 {
					return nil, &ParseError{Err: errors.New("character data outside the document element")}
				}
				continue
			}
			text[len(text)-1].Write(t)
		}
	}
	if root == nil {
		return nil, &ParseError{Err: errors.New("no element found")}
	}
	if len(stack) > 0 {
		return nil, &ParseError{Err: fmt.Errorf("unclosed element %q", stack[len(stack)-1].Tag)}
	}
	return root, nil
}

// Namespace returns the "{uri}" prefix of the root tag, or "" when it has none.
func Namespace(root *Node) string {
	if root == nil || !strings.HasPrefix(root.Tag, "{") {
		return ""
	}
	end := strings.Index(root.Tag, "}")
	if end < 0 {
		return ""
	}
	return root.Tag[:end+1]
}

func qualify(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return "{" + n.Space + "}" + n.Local
}

func isNamespaceDecl(n xml.Name) bool {
	return n.Space == "xmlns" || (n.Space == "" && n.Local == "xmlns")
}

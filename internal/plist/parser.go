// Package plist decodes XML property-list library exports into an
// order-preserving node tree and locates the per-track dictionaries in it.
package plist

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/franz/tunes/internal/util"
	"github.com/spf13/afero"
)

// Element names used by property lists
const (
	ElemPlist = "plist"
	ElemDict  = "dict"
	ElemKey   = "key"
	ElemArray = "array"
	ElemTrue  = "true"
	ElemFalse = "false"
)

// Node is one XML element. Children keep document order and siblings
// sharing a tag name are never merged.
type Node struct {
	Name     string
	Text     string
	Children []*Node
}

// IsKey reports whether the node is a <key> element
func (n *Node) IsKey() bool {
	return n != nil && n.Name == ElemKey
}

// IsDict reports whether the node is a <dict> element
func (n *Node) IsDict() bool {
	return n != nil && n.Name == ElemDict
}

// Value returns the scalar text of a value element. Booleans are encoded
// as empty <true/> and <false/> elements, so their tag name is the value.
func (n *Node) Value() string {
	if n == nil {
		return ""
	}
	switch n.Name {
	case ElemTrue, ElemFalse:
		return n.Name
	}
	return n.Text
}

// Parse decodes a property-list document into a tree. The returned node is
// a synthetic document root whose children are the top-level elements.
// Declarations, directives and comments are dropped.
func Parse(r io.Reader) (*Node, error) {
	decoder := xml.NewDecoder(r)
	decoder.Strict = true

	doc := &Node{}
	stack := []*Node{doc}
	var text strings.Builder

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", util.ErrMalformed, err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			parent := stack[len(stack)-1]
			node := &Node{Name: t.Name.Local}
			parent.Children = append(parent.Children, node)
			stack = append(stack, node)
			text.Reset()

		case xml.EndElement:
			if len(stack) == 1 {
				return nil, fmt.Errorf("%w: unexpected </%s>", util.ErrMalformed, t.Name.Local)
			}
			node := stack[len(stack)-1]
			if len(node.Children) == 0 {
				node.Text = text.String()
			}
			stack = stack[:len(stack)-1]
			text.Reset()

		case xml.CharData:
			if len(stack) == 1 {
				if len(bytes.TrimSpace(t)) > 0 {
					return nil, fmt.Errorf("%w: text outside root element", util.ErrMalformed)
				}
				continue
			}
			text.Write(t)
		}
	}

	if len(stack) != 1 {
		return nil, fmt.Errorf("%w: unclosed <%s>", util.ErrMalformed, stack[len(stack)-1].Name)
	}

	return doc, nil
}

// ParseFile reads and parses the library document at path
func ParseFile(fsys afero.Fs, path string) (*Node, error) {
	f, err := fsys.Open(path)
	if err != nil {
		if errors.Is(err, afero.ErrFileNotFound) {
			return nil, fmt.Errorf("library %s: %w", path, util.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open library: %w", err)
	}
	defer f.Close()

	doc, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return doc, nil
}

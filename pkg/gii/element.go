// Package gii parses law XML files conforming to the gii-norm.dtd schema
// published by gesetze-im-internet.de into the typed content model of
// pkg/norm.
//
// Parsing happens in two stages: the XML byte stream is first decoded
// into a generic element tree that preserves mixed text/element content
// (leading text and per-child tail text, as the schema interleaves them
// freely), then a recursive descent over that tree produces ContentNode
// values. The parser is deliberately permissive: optional constructs may
// be absent, malformed definition-list pairs are dropped, and unknown
// tags degrade to their flattened raw text. The only hard error is a
// missing document root.
package gii

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Element is a generic parsed XML element: tag name, attributes, leading
// text, ordered child elements, and the tail text that follows the
// element before its next sibling. This mirrors the source markup's
// mixed-content layout exactly.
type Element struct {
	Tag      string
	Attrs    map[string]string
	Text     string
	Children []*Element
	Tail     string
}

// DecodeElement reads an XML document and returns its root element.
func DecodeElement(r io.Reader) (*Element, error) {
	decoder := xml.NewDecoder(r)
	decoder.Strict = false

	var root *Element
	var stack []*Element

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode XML: %w", err)
		}

		switch tok := token.(type) {
		case xml.StartElement:
			elem := &Element{
				Tag:   tok.Name.Local,
				Attrs: make(map[string]string, len(tok.Attr)),
			}
			for _, attr := range tok.Attr {
				elem.Attrs[attr.Name.Local] = attr.Value
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("multiple root elements")
				}
				root = elem
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, elem)
			}
			stack = append(stack, elem)

		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			current := stack[len(stack)-1]
			if len(current.Children) == 0 {
				current.Text += string(tok)
			} else {
				last := current.Children[len(current.Children)-1]
				last.Tail += string(tok)
			}

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("no root element found")
	}
	return root, nil
}

// Attr returns the first present value among the given attribute names.
// The schema is inconsistent about attribute capitalization (SRC vs Src,
// ID vs Id vs id), so callers pass a fixed priority list.
func (e *Element) Attr(names ...string) string {
	for _, name := range names {
		if val, ok := e.Attrs[name]; ok && val != "" {
			return val
		}
	}
	return ""
}

// FindChild returns the first direct child with the given tag, or nil.
func (e *Element) FindChild(tag string) *Element {
	for _, child := range e.Children {
		if child.Tag == tag {
			return child
		}
	}
	return nil
}

// FindChildren returns all direct children with the given tag.
func (e *Element) FindChildren(tag string) []*Element {
	var out []*Element
	for _, child := range e.Children {
		if child.Tag == tag {
			out = append(out, child)
		}
	}
	return out
}

// ChildText returns the trimmed leading text of the first direct child
// with the given tag, or "".
func (e *Element) ChildText(tag string) string {
	child := e.FindChild(tag)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.Text)
}

// AllChildText returns the trimmed leading text of every direct child
// with the given tag, skipping empty ones.
func (e *Element) AllChildText(tag string) []string {
	var out []string
	for _, child := range e.FindChildren(tag) {
		if text := strings.TrimSpace(child.Text); text != "" {
			out = append(out, text)
		}
	}
	return out
}

// Package xmltree serves the elements of an XML document as query records.
//
// Field names are slash-separated element paths relative to the record
// element; "@name" reads an attribute and "." the element's own text:
//
//	<account id="7"><owner><name>Ann</name></owner></account>
//
// "@id" reads 7 and "owner/name" reads Ann.
package xmltree

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/pkg/errors"
)

type Node struct {
	Name     string
	Attrs    map[string]string
	Text     string
	Children []*Node
	parent   *Node
}

// Parse reads a document and returns its root element. Character data is
// trimmed; comments and processing instructions are dropped.
func Parse(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	var root, cur *Node
	var text strings.Builder
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "unable to parse xml")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: t.Name.Local, parent: cur}
			for _, a := range t.Attr {
				if n.Attrs == nil {
					n.Attrs = make(map[string]string, len(t.Attr))
				}
				n.Attrs[a.Name.Local] = a.Value
			}
			if cur == nil {
				if root != nil {
					return nil, errors.New("unable to parse xml: more than one root element")
				}
				root = n
			} else {
				cur.Children = append(cur.Children, n)
			}
			cur = n
			text.Reset()
		case xml.CharData:
			if cur != nil {
				text.Write(t)
			}
		case xml.EndElement:
			if cur == nil {
				return nil, errors.New("unable to parse xml: unbalanced end element")
			}
			if len(cur.Children) == 0 {
				cur.Text = strings.TrimSpace(text.String())
			}
			text.Reset()
			cur = cur.parent
		}
	}
	if root == nil {
		return nil, errors.New("unable to parse xml: no root element")
	}
	return root, nil
}

func ParseString(s string) (*Node, error) {
	return Parse(strings.NewReader(s))
}

// Select returns the descendants reached by path. The first segment may name
// n itself.
func (n *Node) Select(path string) []*Node {
	segments := split(path)
	if len(segments) > 0 && segments[0] == n.Name {
		if len(segments) == 1 {
			return []*Node{n}
		}
		if found := n.descend(segments[1:]); len(found) > 0 {
			return found
		}
	}
	return n.descend(segments)
}

func (n *Node) descend(segments []string) []*Node {
	level := []*Node{n}
	for _, seg := range segments {
		var next []*Node
		for _, p := range level {
			for _, c := range p.Children {
				if c.Name == seg {
					next = append(next, c)
				}
			}
		}
		level = next
	}
	return level
}

// Value reads the text or attribute at name, which is a slash path optionally
// ending in "@attr". The first matching element wins.
func (n *Node) Value(name string) (string, bool) {
	path, attr, isAttr := strings.Cut(name, "@")
	path = strings.TrimSuffix(path, "/")
	target := n
	if path != "" && path != "." {
		found := n.descend(split(path))
		if len(found) == 0 {
			return "", false
		}
		target = found[0]
	}
	if isAttr {
		v, ok := target.Attrs[attr]
		return v, ok
	}
	return target.Text, true
}

// Child returns the i-th child element.
func (n *Node) Child(i int) (*Node, bool) {
	if i < 0 || i >= len(n.Children) {
		return nil, false
	}
	return n.Children[i], true
}

func split(path string) []string {
	var out []string
	for _, s := range strings.Split(path, "/") {
		if s != "" && s != "." {
			out = append(out, s)
		}
	}
	return out
}

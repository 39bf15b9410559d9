package abn

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"io"
	"strings"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/errors"
)

// node is a namespace-stripped XML element.
type node struct {
	name     string
	text     string
	children []*node
}

func parseXML(data []byte) (*node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var (
		root  *node
		stack []*node
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.WrapParse("xml", "ABR response", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{name: t.Name.Local}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			} else if root == nil {
				root = n
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text += string(t)
			}
		}
	}
	if root == nil {
		return nil, errors.NewParseError("xml", "ABR response", "empty document", nil)
	}
	return root, nil
}

// find returns the first element named name in n's subtree, n included.
func (n *node) find(name string) *node {
	if n == nil {
		return nil
	}
	if n.name == name {
		return n
	}
	for _, c := range n.children {
		if found := c.find(name); found != nil {
			return found
		}
	}
	return nil
}

// findAll returns every element named name in n's subtree.
func (n *node) findAll(name string) []*node {
	if n == nil {
		return nil
	}
	var out []*node
	if n.name == name {
		out = append(out, n)
	}
	for _, c := range n.children {
		out = append(out, c.findAll(name)...)
	}
	return out
}

// value converts n into plain data: leaf elements become their trimmed text,
// others a map keyed by child name. Repeated children collect into a list,
// and text alongside children is kept under "value".
func (n *node) value() any {
	text := strings.TrimSpace(n.text)
	if len(n.children) == 0 {
		if text == "" {
			return map[string]any{}
		}
		return text
	}
	m := make(map[string]any, len(n.children))
	for _, c := range n.children {
		v := c.value()
		switch existing := m[c.name].(type) {
		case nil:
			m[c.name] = v
		case []any:
			m[c.name] = append(existing, v)
		default:
			m[c.name] = []any{existing, v}
		}
	}
	if text != "" {
		m["value"] = text
	}
	return m
}

// path walks nested maps by key, taking the first element of any list on
// the way, including a list found at the last key.
func path(v any, keys ...string) any {
	cur := first(v)
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = first(m[k])
	}
	return cur
}

func first(v any) any {
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return nil
		}
		return list[0]
	}
	return v
}

func pathString(v any, keys ...string) string {
	s, _ := path(v, keys...).(string)
	return s
}

func jsonText(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

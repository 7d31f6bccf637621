package converter

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/providingshelter/ingest/internal/adapter"
	"github.com/providingshelter/ingest/internal/format"
)

// XMLConverter maps an XML element tree onto nested objects.
// Attributes become "@name" keys, repeated child names become arrays and
// leaf text of an element that also has attributes becomes "#text".
type XMLConverter struct {
	json adapter.JSON
}

func NewXMLConverter(json adapter.JSON) *XMLConverter {
	return &XMLConverter{json: json}
}

func (c *XMLConverter) Name() string { return "XML" }

func (c *XMLConverter) CanHandle(rc Context) bool {
	return rc.Format == format.XML || strings.Contains(strings.ToLower(rc.ContentType), "xml")
}

func (c *XMLConverter) Convert(ctx context.Context, rc Context) (*string, error) {
	f, err := os.Open(rc.LocalPath) //nolint:gosec,G304
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	root, err := parseXMLTree(ctx, f)
	if err != nil {
		return nil, err
	}

	return marshalString(c.json, root.toObject())
}

type xmlNode struct {
	name     string
	attrs    []xml.Attr
	children []*xmlNode
	text     strings.Builder
}

func parseXMLTree(ctx context.Context, r io.Reader) (*xmlNode, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	dec.Strict = false

	var (
		root  *xmlNode
		stack []*xmlNode
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to parse xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &xmlNode{name: t.Name.Local, attrs: t.Attr}
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
				stack[len(stack)-1].text.Write(t)
			}
		}
	}

	if root == nil {
		return nil, errors.New("xml document has no root element")
	}
	return root, nil
}

func (n *xmlNode) toObject() *object {
	obj := newObject(len(n.attrs) + len(n.children))
	for _, a := range n.attrs {
		if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
			continue
		}
		obj.set("@"+a.Name.Local, a.Value)
	}

	// Group children by name in order of first appearance
	var order []string
	groups := make(map[string][]*xmlNode)
	for _, child := range n.children {
		if _, ok := groups[child.name]; !ok {
			order = append(order, child.name)
		}
		groups[child.name] = append(groups[child.name], child)
	}
	for _, name := range order {
		group := groups[name]
		if len(group) == 1 {
			obj.set(name, group[0].value())
			continue
		}
		values := make([]any, len(group))
		for i, child := range group {
			values[i] = child.value()
		}
		obj.set(name, values)
	}

	if len(n.children) == 0 {
		if text := strings.TrimSpace(n.text.String()); text != "" {
			obj.set("#text", text)
		}
	}
	return obj
}

func (n *xmlNode) value() any {
	if len(n.children) > 0 || n.hasAttrs() {
		return n.toObject()
	}
	return n.text.String()
}

func (n *xmlNode) hasAttrs() bool {
	for _, a := range n.attrs {
		if a.Name.Space != "xmlns" && a.Name.Local != "xmlns" {
			return true
		}
	}
	return false
}

// Package treequery wraps a parsed HTML document behind read-only path queries.
//
// Queries use XPath 1.0 (absolute paths from the document root, wildcard
// children, 1-based positions, attribute predicates, attribute and text()
// selection). CSS selectors are available through Select for lookups that
// read better as selectors. Results are returned in document order.
package treequery

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
)

// Sentinel errors for tree queries.
var (
	ErrParse        = errors.New("failed to parse HTML")
	ErrInvalidQuery = errors.New("invalid path query")
	ErrNilNode      = errors.New("query context node is nil")
)

// Document is a parsed HTML tree. It exposes no mutation.
type Document struct {
	root *html.Node
	sel  *goquery.Document
}

// Parse reads an HTML document from r.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return &Document{root: root}, nil
}

// ParseString parses an HTML document held in memory.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Nodes returns every node matched by expr, evaluated from the document root.
// Attribute matches are returned as element nodes named after the attribute
// whose only child is a text node holding the value.
func (d *Document) Nodes(expr string) ([]*html.Node, error) {
	return NodesFrom(d.root, expr)
}

// Strings returns the string value of every match of expr: attribute values,
// text node contents, or the full text of matched elements. Expressions that
// evaluate to a scalar (count(), string(), boolean()) yield one element.
func (d *Document) Strings(expr string) ([]string, error) {
	return StringsFrom(d.root, expr)
}

// Count returns the number of nodes matched by expr. Expressions that already
// evaluate to a number, such as count(...), return that number.
func (d *Document) Count(expr string) (int, error) {
	return CountFrom(d.root, expr)
}

// Select returns the goquery selection for a CSS selector.
func (d *Document) Select(selector string) *goquery.Selection {
	if d.sel == nil {
		d.sel = goquery.NewDocumentFromNode(d.root)
	}
	return d.sel.Find(selector)
}

// NodesFrom evaluates expr with n as the context and root node.
func NodesFrom(n *html.Node, expr string) ([]*html.Node, error) {
	if n == nil {
		return nil, ErrNilNode
	}
	compiled, err := compile(expr)
	if err != nil {
		return nil, err
	}
	return htmlquery.QuerySelectorAll(n, compiled), nil
}

// StringsFrom evaluates expr with n as the context and root node.
func StringsFrom(n *html.Node, expr string) ([]string, error) {
	if n == nil {
		return nil, ErrNilNode
	}
	compiled, err := compile(expr)
	if err != nil {
		return nil, err
	}

	switch v := compiled.Evaluate(htmlquery.CreateXPathNavigator(n)).(type) {
	case *xpath.NodeIterator:
		values := []string{}
		for v.MoveNext() {
			values = append(values, v.Current().Value())
		}
		return values, nil
	case string:
		return []string{v}, nil
	case float64:
		return []string{strconv.FormatFloat(v, 'f', -1, 64)}, nil
	case bool:
		return []string{strconv.FormatBool(v)}, nil
	default:
		return nil, fmt.Errorf("%w: %q evaluates to unsupported type %T", ErrInvalidQuery, expr, v)
	}
}

// CountFrom evaluates expr with n as the context and root node.
func CountFrom(n *html.Node, expr string) (int, error) {
	if n == nil {
		return 0, ErrNilNode
	}
	compiled, err := compile(expr)
	if err != nil {
		return 0, err
	}

	switch v := compiled.Evaluate(htmlquery.CreateXPathNavigator(n)).(type) {
	case *xpath.NodeIterator:
		count := 0
		for v.MoveNext() {
			count++
		}
		return count, nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("%w: %q does not select nodes", ErrInvalidQuery, expr)
	}
}

func compile(expr string) (*xpath.Expr, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrInvalidQuery)
	}
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidQuery, expr, err)
	}
	return compiled, nil
}

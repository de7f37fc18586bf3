// Package pricelist parses the YAML price lists partners publish.
//
//	shop: Связной
//	categories:
//	  - id: 224
//	    name: Смартфоны
//	goods:
//	  - id: 4216292
//	    category: 224
//	    model: apple/iphone/xs-max
//	    name: Смартфон Apple iPhone XS Max 512GB
//	    price: 110000
//	    price_rrc: 116990
//	    quantity: 14
//	    parameters:
//	      "Диагональ (дюйм)": 6.5
//	      "Цвет": золотистый
package pricelist

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/shashiranjanraj/bazaar/pkg/apperr"
	"github.com/shashiranjanraj/bazaar/pkg/validate"
)

// Document is a validated price list.
type Document struct {
	Shop       string
	Categories []Category
	Goods      []Good
}

type Category struct {
	ID   uint
	Name string
}

type Good struct {
	ID         uint
	CategoryID uint
	Model      string
	Name       string
	Price      decimal.Decimal
	PriceRRC   decimal.Decimal
	Quantity   uint
	Parameters []Parameter
}

// Parameter is one name/value pair of a good, in document order.
type Parameter struct {
	Name  string `json:"name"  validate:"required,max=40"`
	Value string `json:"value" validate:"max=100"`
}

// ─── Wire shape ───────────────────────────────────────────────────────────────

// Keys that are required must be present even when empty: a document
// without goods would otherwise retire the whole catalog.
type rawDocument struct {
	Shop       *string        `yaml:"shop"       json:"shop"       validate:"required,notblank,max=50"`
	Categories *[]rawCategory `yaml:"categories" json:"categories" validate:"required,dive"`
	Goods      *[]rawGood     `yaml:"goods"      json:"goods"      validate:"required,dive"`
}

type rawCategory struct {
	ID   *uint   `yaml:"id"   json:"id"   validate:"required"`
	Name *string `yaml:"name" json:"name" validate:"required,notblank,max=40"`
}

type rawGood struct {
	ID         *uint      `yaml:"id"         json:"id"         validate:"required"`
	Category   *uint      `yaml:"category"   json:"category"   validate:"required"`
	Model      *string    `yaml:"model"      json:"model"      validate:"required,max=80"`
	Name       *string    `yaml:"name"       json:"name"       validate:"required,notblank,max=80"`
	Price      *Amount    `yaml:"price"      json:"price"      validate:"required,gte=0"`
	PriceRRC   *Amount    `yaml:"price_rrc"  json:"price_rrc"  validate:"omitempty,gte=0"`
	Quantity   *int64     `yaml:"quantity"   json:"quantity"   validate:"omitempty,gte=0"`
	Parameters parameters `yaml:"parameters" json:"parameters" validate:"dive"`
}

// Amount is a decimal scalar. Integers and floats are both accepted and kept
// exact.
type Amount struct{ decimal.Decimal }

func init() {
	validate.RegisterType(func(v reflect.Value) any {
		return v.Interface().(Amount).InexactFloat64()
	}, Amount{})
}

func (a *Amount) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: price must be a number", n.Line)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(n.Value))
	if err != nil {
		return fmt.Errorf("line %d: %q is not a number", n.Line, n.Value)
	}
	a.Decimal = d
	return nil
}

// parameters keeps mapping order and stringifies scalar values.
type parameters []Parameter

func (p *parameters) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: parameters must be a mapping", n.Line)
	}
	out := make(parameters, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: parameter %q must be a scalar", v.Line, k.Value)
		}
		out = append(out, Parameter{Name: strings.TrimSpace(k.Value), Value: v.Value})
	}
	*p = out
	return nil
}

// ─── Parse ────────────────────────────────────────────────────────────────────

// Parse decodes and validates a price list. Every failure is a
// MalformedDocument error; structural problems are listed per field.
func Parse(data []byte) (*Document, error) {
	var raw rawDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, apperr.Wrap(apperr.Malformed, "Price list is not valid YAML", err)
	}

	fields := validate.Struct(&raw)
	crossCheck(&raw, fields)
	if validate.HasErrors(fields) {
		return nil, &apperr.Error{
			Code:    apperr.Malformed,
			Message: "Price list is incomplete or inconsistent",
			Fields:  fields,
		}
	}
	return build(&raw), nil
}

// crossCheck adds what field tags cannot express: ids must be unique and
// goods may only use listed categories.
func crossCheck(raw *rawDocument, fields map[string]string) {
	fail := func(field, msg string) {
		if _, seen := fields[field]; !seen {
			fields[field] = msg
		}
	}

	known := map[uint]bool{}
	if raw.Categories != nil {
		for i, c := range *raw.Categories {
			if c.ID == nil {
				continue
			}
			if known[*c.ID] {
				fail(validate.Index("categories", i)+".id", fmt.Sprintf("Category %d is listed twice.", *c.ID))
			}
			known[*c.ID] = true
		}
	}

	if raw.Goods == nil {
		return
	}
	seen := map[uint]bool{}
	for i, g := range *raw.Goods {
		path := validate.Index("goods", i)
		if g.ID != nil {
			if seen[*g.ID] {
				fail(path+".id", fmt.Sprintf("Good %d is listed twice.", *g.ID))
			}
			seen[*g.ID] = true
		}
		if g.Category != nil && !known[*g.Category] {
			fail(path+".category", fmt.Sprintf("Category %d is not listed in categories.", *g.Category))
		}
	}
}

// build converts a validated raw document.
func build(raw *rawDocument) *Document {
	doc := &Document{Shop: strings.TrimSpace(*raw.Shop)}
	for _, c := range *raw.Categories {
		doc.Categories = append(doc.Categories, Category{ID: *c.ID, Name: strings.TrimSpace(*c.Name)})
	}
	for _, g := range *raw.Goods {
		out := Good{
			ID:         *g.ID,
			CategoryID: *g.Category,
			Model:      strings.TrimSpace(*g.Model),
			Name:       strings.TrimSpace(*g.Name),
			Price:      g.Price.Decimal,
			Parameters: dedupe(g.Parameters),
		}
		if g.PriceRRC != nil {
			out.PriceRRC = g.PriceRRC.Decimal
		}
		if g.Quantity != nil {
			out.Quantity = uint(*g.Quantity)
		}
		doc.Goods = append(doc.Goods, out)
	}
	return doc
}

// dedupe keeps the last value of a repeated parameter name and sorts by name
// so imports are deterministic.
func dedupe(ps []Parameter) []Parameter {
	last := make(map[string]string, len(ps))
	for _, p := range ps {
		last[p.Name] = p.Value
	}
	out := make([]Parameter, 0, len(last))
	for name, value := range last {
		out = append(out, Parameter{Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ParameterNames returns the distinct parameter names used by the document.
func (d *Document) ParameterNames() []string {
	set := map[string]struct{}{}
	for _, g := range d.Goods {
		for _, p := range g.Parameters {
			set[p.Name] = struct{}{}
		}
	}
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

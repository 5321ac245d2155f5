package schema

import (
	"fmt"
	"strings"
)

// Describe renders the parameter set as grouped Markdown, one bullet per
// parameter with its type, allowed values or bounds and description. The
// output is stable and suitable for prompts and documentation.
func (p *Parameters) Describe() string {
	var b strings.Builder
	for i, g := range p.Groups() {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "## %s\n\n", g.Name)
		for _, name := range g.Parameters {
			param, _ := p.Lookup(name)
			fmt.Fprintf(&b, "- **%s**: %s", param.Name, describeType(param.Type))
			if param.Unit != "" {
				fmt.Fprintf(&b, " (%s)", param.Unit)
			}
			if param.Direct {
				b.WriteString(" [direct]")
			} else if !param.Required {
				b.WriteString(" [optional]")
			}
			if param.Description != "" {
				fmt.Fprintf(&b, " - %s", param.Description)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Describe renders the field set as Markdown: context blocks followed by
// one bullet per field.
func (s *FieldSet) Describe() string {
	if s == nil {
		return ""
	}
	var b strings.Builder
	section := func(title, body string) {
		if body == "" {
			return
		}
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", title, strings.TrimSpace(body))
	}
	section("Context", s.Context)
	section("Region", s.Region)
	section("Building Stock", s.BuildingStock)
	for _, sup := range s.Supplementary {
		section(sup.Title, sup.Content)
	}

	b.WriteString("## Fields\n\n")
	for _, f := range s.Fields {
		fmt.Fprintf(&b, "- **%s** (%s)", f.Name, f.Type)
		switch f.Type {
		case FieldCategorical:
			fmt.Fprintf(&b, ": one of %v", f.Categories)
		case FieldNumeric:
			if f.Min != nil && f.Max != nil {
				fmt.Fprintf(&b, ": %v to %v", *f.Min, *f.Max)
			}
		}
		if f.Unit != "" {
			fmt.Fprintf(&b, " %s", f.Unit)
		}
		if f.Description != "" {
			fmt.Fprintf(&b, " - %s", f.Description)
		}
		b.WriteString("\n")
	}
	return b.String()
}

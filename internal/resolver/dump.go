package resolver

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

// Dump writes every scope and its symbols as a table, scopes in creation
// order and symbols in declaration order.
func (st *SymbolTable) Dump(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Scope", "Kind", "Symbol", "Handle", "Type", "Attributes"})
	table.SetAutoWrapText(false)
	table.SetAutoMergeCells(true)
	table.SetRowLine(false)

	for _, s := range st.scopes[1:] {
		path := st.Path(s.ID)
		if len(s.varOrder) == 0 {
			owner := "-"
			if s.OwnerType != nil {
				owner = s.OwnerType.String()
			}
			table.Append([]string{path, s.Kind.String(), "", "", owner, ""})
			continue
		}
		for _, name := range s.varOrder {
			d := st.symbols[s.Variables[name]]
			typ := "?"
			if d.Type != nil {
				typ = d.Type.String()
			}
			sym := d.Source
			if !d.Valid {
				sym += " (deleted)"
			}
			table.Append([]string{path, s.Kind.String(), sym, fmt.Sprintf("%d", d.Handle), typ, d.Attrs.String()})
		}
	}
	table.Render()
}

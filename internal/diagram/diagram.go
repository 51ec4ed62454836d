// Package diagram renders a relation graph as an ASCII dependency diagram.
package diagram

import (
	"fmt"
	"strings"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"

	"github.com/dbsmedya/dbsample/internal/graph"
)

// Options controls diagram rendering.
type Options struct {
	// Color enables ANSI-colored output. Disable when writing to a file
	// or a non-terminal.
	Color bool
}

// Render draws the graph as rows of boxed tables, one row per dependency
// level: level 0 holds the entrypoints, and each table sits one level
// below its deepest parent. Arrows between rows stand in for the relation
// edges, with the exact edges listed underneath.
func Render(g *graph.SchemaGraph, opts Options) (string, error) {
	order, err := g.TopologicalOrder()
	if err != nil {
		return "", err
	}

	levels := levelize(g, order)

	var b strings.Builder
	for i, row := range levels {
		if i > 0 {
			writeArrowRow(&b, row, opts)
		}
		writeBoxRow(&b, row, opts)
	}

	b.WriteString("\n")
	writeEdgeList(&b, g, opts)
	return b.String(), nil
}

// levelize assigns each table the level one past its deepest parent.
// Iterating in topological order guarantees parents are assigned first.
func levelize(g *graph.SchemaGraph, order []string) [][]string {
	depth := make(map[string]int, len(order))
	maxDepth := 0
	for _, table := range order {
		d := 0
		for _, parent := range g.Parents(table) {
			if pd, ok := depth[parent]; ok && pd+1 > d {
				d = pd + 1
			}
		}
		depth[table] = d
		if d > maxDepth {
			maxDepth = d
		}
	}

	levels := make([][]string, maxDepth+1)
	for _, table := range order {
		d := depth[table]
		levels[d] = append(levels[d], table)
	}
	return levels
}

const boxGap = 2

// writeBoxRow draws one level of tables as a row of boxes.
func writeBoxRow(b *strings.Builder, tables []string, opts Options) {
	var top, mid, bot strings.Builder
	for i, table := range tables {
		if i > 0 {
			gap := strings.Repeat(" ", boxGap)
			top.WriteString(gap)
			mid.WriteString(gap)
			bot.WriteString(gap)
		}
		w := runewidth.StringWidth(table)
		top.WriteString("+" + strings.Repeat("-", w+2) + "+")
		mid.WriteString("| " + paintTable(table, opts) + " |")
		bot.WriteString("+" + strings.Repeat("-", w+2) + "+")
	}
	b.WriteString(top.String() + "\n")
	b.WriteString(mid.String() + "\n")
	b.WriteString(bot.String() + "\n")
}

// writeArrowRow draws the connector between two levels: one arrow centered
// under each box of the row below.
func writeArrowRow(b *strings.Builder, tables []string, opts Options) {
	var line strings.Builder
	for i, table := range tables {
		if i > 0 {
			line.WriteString(strings.Repeat(" ", boxGap))
		}
		boxWidth := runewidth.StringWidth(table) + 4
		pad := (boxWidth - 1) / 2
		line.WriteString(strings.Repeat(" ", pad))
		line.WriteString(paintArrow("|", opts))
		line.WriteString(strings.Repeat(" ", boxWidth-pad-1))
	}
	b.WriteString(line.String() + "\n")
	var arrows strings.Builder
	for i, table := range tables {
		if i > 0 {
			arrows.WriteString(strings.Repeat(" ", boxGap))
		}
		boxWidth := runewidth.StringWidth(table) + 4
		pad := (boxWidth - 1) / 2
		arrows.WriteString(strings.Repeat(" ", pad))
		arrows.WriteString(paintArrow("v", opts))
		arrows.WriteString(strings.Repeat(" ", boxWidth-pad-1))
	}
	b.WriteString(arrows.String() + "\n")
}

// writeEdgeList prints each relation edge on its own line, since box rows
// cannot show which parent feeds which child.
func writeEdgeList(b *strings.Builder, g *graph.SchemaGraph, opts Options) {
	for _, rel := range g.Relations() {
		parent := paintTable(rel.Parent, opts)
		child := paintTable(rel.Child, opts)
		b.WriteString(fmt.Sprintf("  %s.%s %s %s.%s\n",
			parent, strings.Join(rel.ParentColumns, ","),
			paintArrow("<-", opts),
			child, strings.Join(rel.ChildColumns, ",")))
	}
}

func paintTable(s string, opts Options) string {
	if !opts.Color {
		return s
	}
	return color.FgCyan.Render(s)
}

func paintArrow(s string, opts Options) string {
	if !opts.Color {
		return s
	}
	return color.FgYellow.Render(s)
}

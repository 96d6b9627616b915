package aggregate

import (
	"github.com/okian/bncc/internal/domain/model"
)

// CrossTab is a dense grid of mean results over two dimensions. Cells with no
// records are undefined.
type CrossTab struct {
	RowDim model.Dimension `json:"row_dimension"`
	ColDim model.Dimension `json:"col_dimension"`
	Rows   []string        `json:"rows"`
	Cols   []string        `json:"cols"`
	Cells  [][]NullFloat   `json:"cells"`
}

// CrossTabulate pivots mean results by rowDim x colDim. Row and column labels
// are sorted.
func CrossTabulate(records []model.Record, rowDim, colDim model.Dimension) CrossTab {
	means := GroupedMeans(records, rowDim, colDim)

	rowSet := make(map[string]struct{})
	colSet := make(map[string]struct{})
	for _, g := range means {
		rowSet[g.Keys[0]] = struct{}{}
		colSet[g.Keys[1]] = struct{}{}
	}
	ct := CrossTab{
		RowDim: rowDim,
		ColDim: colDim,
		Rows:   sortedKeys(rowSet),
		Cols:   sortedKeys(colSet),
	}

	rowIdx := indexOf(ct.Rows)
	colIdx := indexOf(ct.Cols)
	ct.Cells = make([][]NullFloat, len(ct.Rows))
	for i := range ct.Cells {
		ct.Cells[i] = make([]NullFloat, len(ct.Cols))
	}
	for _, g := range means {
		ct.Cells[rowIdx[g.Keys[0]]][colIdx[g.Keys[1]]] = Some(g.Mean)
	}
	return ct
}

// At returns the cell for (row, col); undefined for unknown labels.
func (c CrossTab) At(row, col string) NullFloat {
	for i, r := range c.Rows {
		if r != row {
			continue
		}
		for j, cl := range c.Cols {
			if cl == col {
				return c.Cells[i][j]
			}
		}
	}
	return NullFloat{}
}

func indexOf(labels []string) map[string]int {
	idx := make(map[string]int, len(labels))
	for i, l := range labels {
		idx[l] = i
	}
	return idx
}

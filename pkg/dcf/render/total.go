package render

import (
	"fmt"
	"io"

	"github.com/stex99/dcf-tool/pkg/dcf/columns"
)

// totalRenderer prints only the estimated portfolio value.
type totalRenderer struct{}

func NewTotalRenderer() Renderer {
	return totalRenderer{}
}

func (totalRenderer) Render(w io.Writer, rep Report, _ RenderOptions) error {
	_, err := fmt.Fprintln(w, columns.Money(rep.Summary.TotalEstimatedValue))
	return err
}

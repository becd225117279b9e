package export

import (
	"bytes"
	"fmt"
	"io"
	"os"

	svg "github.com/ajstarks/svgo"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/flattree/pkg/model"
)

// SVG layout, in pixels.
const (
	svgMargin     = 20
	svgRowHeight  = 24
	svgIndent     = 22
	svgCharWidth  = 8
	svgTitleSpace = 36
	svgBullet     = 4
)

// GenerateSVG draws rows as an indented diagram with guide lines from each
// row to its parent.
func GenerateSVG(w io.Writer, rows []Row, title string) error {
	maxCols := runewidth.StringWidth(title)
	for _, r := range rows {
		maxCols = max(maxCols, r.Depth*svgIndent/svgCharWidth+runewidth.StringWidth(r.Name)+4)
	}
	width := 2*svgMargin + maxCols*svgCharWidth
	height := 2*svgMargin + svgTitleSpace + max(len(rows), 1)*svgRowHeight

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(width, height)
	canvas.Title(title)
	canvas.Rect(0, 0, width, height, "fill:#ffffff")
	canvas.Text(svgMargin, svgMargin+16, title, "font-family:sans-serif;font-size:18px;font-weight:bold;fill:#222222")

	// lastAt[d] is the y of the most recent row at depth d.
	var lastAt []int
	canvas.Gstyle("font-family:monospace;font-size:14px")
	for i, r := range rows {
		x := svgMargin + r.Depth*svgIndent
		y := svgMargin + svgTitleSpace + i*svgRowHeight + svgRowHeight/2

		if r.Depth > 0 && r.Depth-1 < len(lastAt) {
			px := svgMargin + (r.Depth-1)*svgIndent + svgBullet
			canvas.Line(px, lastAt[r.Depth-1]+svgBullet, px, y, "stroke:#bbbbbb")
			canvas.Line(px, y, x-svgBullet, y, "stroke:#bbbbbb")
		}
		if r.Depth < len(lastAt) {
			lastAt = lastAt[:r.Depth]
		}
		for len(lastAt) < r.Depth {
			lastAt = append(lastAt, y)
		}
		lastAt = append(lastAt, y)

		canvas.Circle(x+svgBullet, y, svgBullet, bulletStyle(r))
		canvas.Text(x+3*svgBullet, y+5, r.Name, textStyle(r))
	}
	canvas.Gend()
	canvas.End()

	_, err := w.Write(buf.Bytes())
	return err
}

func bulletStyle(r Row) string {
	switch {
	case r.Collapsed():
		return "fill:#444444"
	case r.HasChildren:
		return "fill:none;stroke:#444444"
	case r.Payload.Kind == model.KindTask && r.Payload.Status.IsDone():
		return "fill:#2e9e44"
	case r.Payload.Kind == model.KindTask:
		return "fill:none;stroke:#2e9e44"
	}
	return "fill:#999999"
}

func textStyle(r Row) string {
	switch {
	case r.Payload.Kind == model.KindFolder:
		return "font-weight:bold;fill:#222222"
	case r.Payload.Kind == model.KindTask && r.Payload.Status.IsDone():
		return "fill:#888888;text-decoration:line-through"
	}
	return "fill:#222222"
}

// SaveSVGToFile writes the SVG diagram to a file
func SaveSVGToFile(rows []Row, title, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create svg: %w", err)
	}
	if err := GenerateSVG(f, rows, title); err != nil {
		f.Close()
		return fmt.Errorf("write svg: %w", err)
	}
	return f.Close()
}

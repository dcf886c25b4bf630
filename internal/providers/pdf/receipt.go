package pdf

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var ErrDisabled = errors.New("pdf: provider disabled")

// ReceiptData is the printable view of one access record.
type ReceiptData struct {
	StoreName     string
	Signature     string
	Token         string
	AccessURL     string
	ProductID     string
	ProductName   string
	Email         string
	IssuedAt      string
	Amount        string
	DeliveryType  string
	DeliveryValue string
	Instructions  string
	PDFURL        string
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateReceipt(ctx context.Context, data ReceiptData) (io.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Página {current} de {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(8, data.StoreName, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, "Comprobante de acceso", props.Text{
			Size:  11,
			Style: fontstyle.Bold,
			Align: align.Right,
			Top:   3,
		}),
	)
	m.AddRow(4, line.NewCol(12))

	m.AddRow(22,
		col.New(6).Add(
			text.New("Producto", props.Text{Style: fontstyle.Bold, Size: 9}),
			text.New(data.ProductName, props.Text{Top: 5, Size: 11}),
			text.New(data.ProductID, props.Text{Top: 11, Size: 8}),
		),
		col.New(6).Add(
			text.New("Comprador", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
			text.New(data.Email, props.Text{Top: 5, Size: 10, Align: align.Right}),
			text.New("Emitido: "+data.IssuedAt, props.Text{Top: 11, Size: 8, Align: align.Right}),
		),
	)

	if data.Amount != "" {
		m.AddRow(12,
			col.New(8),
			text.NewCol(2, "Total", props.Text{Size: 10, Style: fontstyle.Bold}),
			text.NewCol(2, data.Amount, props.Text{Size: 10, Align: align.Right}),
		)
	}

	m.AddRow(8, text.NewCol(12, "Acceso", props.Text{Style: fontstyle.Bold, Size: 10, Top: 2}))
	m.AddRow(10, text.NewCol(12, data.AccessURL, props.Text{Size: 9}))
	m.AddRow(8, text.NewCol(12, "Token: "+data.Token, props.Text{Size: 7}))

	if data.DeliveryValue != "" {
		m.AddRow(8, text.NewCol(12, "Entrega ("+data.DeliveryType+")", props.Text{Style: fontstyle.Bold, Size: 10, Top: 2}))
		m.AddRow(10, text.NewCol(12, data.DeliveryValue, props.Text{Size: 9}))
	}
	if data.PDFURL != "" {
		m.AddRow(8, text.NewCol(12, "Material PDF", props.Text{Style: fontstyle.Bold, Size: 10, Top: 2}))
		m.AddRow(10, text.NewCol(12, data.PDFURL, props.Text{Size: 9}))
	}
	if instructions := strings.TrimSpace(data.Instructions); instructions != "" {
		m.AddRow(8, text.NewCol(12, "Instrucciones", props.Text{Style: fontstyle.Bold, Size: 10, Top: 2}))
		for _, paragraph := range strings.Split(instructions, "\n") {
			if strings.TrimSpace(paragraph) == "" {
				continue
			}
			m.AddRow(6, text.NewCol(12, paragraph, props.Text{Size: 9}))
		}
	}

	if data.Signature != "" {
		m.AddRow(20, text.NewCol(12, data.Signature, props.Text{Size: 9, Style: fontstyle.Italic, Top: 10}))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}

// Package report builds spreadsheet exports.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"ticketera/store"
)

const (
	ordersSheet = "Pedidos"
	itemsSheet  = "Detalle"
)

var (
	orderHeader = []any{"ID", "Mesa", "Estado", "Fecha", "Items", "Total"}
	itemHeader  = []any{"Pedido", "Mesa", "Producto", "Cantidad", "Precio", "Subtotal"}
)

// WriteOrders renders orders as an xlsx workbook with one summary sheet and
// one line-item sheet.
func WriteOrders(w io.Writer, orders []*store.Order, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ordersSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := writeRow(f, ordersSheet, 1, orderHeader); err != nil {
		return err
	}
	if err := writeRow(f, itemsSheet, 1, itemHeader); err != nil {
		return err
	}
	f.SetRowStyle(ordersSheet, 1, 1, bold)
	f.SetRowStyle(itemsSheet, 1, 1, bold)

	itemRow := 2
	for i, o := range orders {
		total, _ := o.Total().Float64()
		row := []any{o.ID, o.TableNumber, o.Status, o.CreatedAt.In(loc).Format("2006-01-02 15:04"), len(o.Items), total}
		if err := writeRow(f, ordersSheet, i+2, row); err != nil {
			return err
		}
		for _, it := range o.Items {
			price, _ := it.Price.Float64()
			sub, _ := it.Subtotal().Float64()
			if err := writeRow(f, itemsSheet, itemRow, []any{o.ID, o.TableNumber, it.Name, it.Qty, price, sub}); err != nil {
				return err
			}
			itemRow++
		}
	}

	f.SetColWidth(ordersSheet, "A", "A", 38)
	f.SetColWidth(ordersSheet, "D", "D", 18)
	f.SetColWidth(itemsSheet, "A", "A", 38)
	f.SetColWidth(itemsSheet, "C", "C", 28)

	_, err = f.WriteTo(w)
	return err
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("%s row %d: %w", sheet, row, err)
	}
	return nil
}

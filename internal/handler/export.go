package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"livecart/internal/models"
	"livecart/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ExportHandler produces spreadsheet downloads of the persisted catalog.
type ExportHandler struct {
	DB *gorm.DB
}

func NewExportHandler(db *gorm.DB) *ExportHandler {
	return &ExportHandler{DB: db}
}

// ExportProductsXLSX streams the catalog log as an XLSX workbook.
func (h *ExportHandler) ExportProductsXLSX(c *gin.Context) {
	var products []models.Product
	if err := h.DB.Order("id ASC").Find(&products).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query products failed")
		return
	}

	f := excelize.NewFile()
	sheetName := "Products"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "create sheet failed")
		return
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Name", "Price", "Thumbnail", "Extra", "Added"}
	for i, hdr := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, hdr)
	}

	for idx, p := range products {
		row := idx + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), p.Name)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), strconv.FormatFloat(p.Price, 'f', 2, 64))
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), p.Thumbnail)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), p.Extra)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), p.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	f.SetColWidth(sheetName, "A", "A", 24)
	f.SetColWidth(sheetName, "B", "B", 12)
	f.SetColWidth(sheetName, "C", "C", 40)
	f.SetColWidth(sheetName, "D", "D", 30)
	f.SetColWidth(sheetName, "E", "E", 20)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"products_%s.xlsx\"",
		time.Now().Format("20060102")))

	if err := f.Write(c.Writer); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "export failed")
	}
}

package http_server

import (
	"net/http"
	"strconv"

	"github.com/danthegoodman1/dfgrid/editor"
)

type (
	EditCellReq struct {
		RowIndex *int   `json:"rowIndex" validate:"required"`
		Column   string `json:"column"`
		Value    any    `json:"value"`
	}

	AddRowReq struct {
		RowData map[string]any `json:"rowData"`
	}

	AddColumnReq struct {
		Column       string `json:"column"`
		DType        string `json:"dtype"`
		DefaultValue any    `json:"defaultValue"`
	}

	RenameColumnReq struct {
		NewName string `json:"newName" validate:"required"`
	}

	ChangeTypeReq struct {
		NewType string `json:"newType" validate:"required"`
	}
)

func statusFor(err error) int {
	switch editor.KindOf(err) {
	case editor.NotFound:
		return http.StatusNotFound
	case editor.Internal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func (c *CustomContext) editResult(res editor.Result) error {
	if !res.Success {
		return c.JSON(statusFor(res.Err()), res)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *HTTPServer) GetPage(c *CustomContext) error {
	q, err := s.bindPageQuery(c)
	if err != nil {
		return err
	}
	res := c.Session.Editor.GetPage(c.Param("id"), q.page, q.pageSize)
	if !res.Success {
		return c.JSON(statusFor(res.Err()), res)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *HTTPServer) EditCell(c *CustomContext) error {
	var reqBody EditCellReq
	if err := ValidateRequest(c, &reqBody); err != nil {
		return err
	}
	return c.editResult(c.Session.Editor.EditCell(c.Param("id"), *reqBody.RowIndex, reqBody.Column, reqBody.Value))
}

func (s *HTTPServer) AddRow(c *CustomContext) error {
	var reqBody AddRowReq
	if err := ValidateRequest(c, &reqBody); err != nil {
		return err
	}
	return c.editResult(c.Session.Editor.AddRow(c.Param("id"), reqBody.RowData))
}

func (s *HTTPServer) DeleteRow(c *CustomContext) error {
	row, err := strconv.Atoi(c.Param("row"))
	if err != nil {
		return c.BadRequest("invalid row index: " + c.Param("row"))
	}
	return c.editResult(c.Session.Editor.DeleteRow(c.Param("id"), row))
}

// AddColumn leaves validation of column and dtype to the editor so failures keep the
// edit result shape.
func (s *HTTPServer) AddColumn(c *CustomContext) error {
	var reqBody AddColumnReq
	if err := ValidateRequest(c, &reqBody); err != nil {
		return err
	}
	return c.editResult(c.Session.Editor.AddColumn(c.Param("id"), reqBody.Column, reqBody.DType, reqBody.DefaultValue))
}

func (s *HTTPServer) DeleteColumn(c *CustomContext) error {
	return c.editResult(c.Session.Editor.DeleteColumn(c.Param("id"), c.PathParam("column")))
}

func (s *HTTPServer) RenameColumn(c *CustomContext) error {
	var reqBody RenameColumnReq
	if err := ValidateRequest(c, &reqBody); err != nil {
		return err
	}
	return c.editResult(c.Session.Editor.RenameColumn(c.Param("id"), c.PathParam("column"), reqBody.NewName))
}

func (s *HTTPServer) ChangeColumnType(c *CustomContext) error {
	var reqBody ChangeTypeReq
	if err := ValidateRequest(c, &reqBody); err != nil {
		return err
	}
	return c.editResult(c.Session.Editor.ChangeColumnType(c.Param("id"), c.PathParam("column"), reqBody.NewType))
}

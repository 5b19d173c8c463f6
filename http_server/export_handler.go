package http_server

import (
	"errors"
	"net/http"

	"github.com/danthegoodman1/dfgrid/parquet_export"
	"github.com/danthegoodman1/dfgrid/part"
	"github.com/danthegoodman1/dfgrid/partitioner"
	"github.com/danthegoodman1/dfgrid/registry"
	"github.com/danthegoodman1/dfgrid/table"
	"github.com/danthegoodman1/dfgrid/utils"
)

type (
	ExportReq struct {
		Partitioner []partitioner.PartitionPlan `json:"partitioner" validate:"dive"`
	}

	ExportRes struct {
		Parts []part.Part `json:"parts"`
	}
)

func (s *HTTPServer) Export(c *CustomContext) error {
	if s.store == nil {
		return c.JSON(http.StatusServiceUnavailable, errorBody{Error: "no export store configured"})
	}
	var reqBody ExportReq
	if err := ValidateRequest(c, &reqBody); err != nil {
		return err
	}
	if err := partitioner.Validate(reqBody.Partitioner); err != nil {
		return c.BadRequest(err.Error())
	}

	id := c.Param("id")
	var snapshot *table.Table
	if !c.Session.Registry.View(id, func(e registry.Entry) {
		snapshot = e.Table.Clone()
	}) {
		return c.JSON(http.StatusNotFound, errorBody{Error: "DataFrame not found: " + id})
	}

	parts, err := parquet_export.Export(c.Request().Context(), s.store, id, snapshot, reqBody.Partitioner)
	if err != nil {
		if errors.Is(err, parquet_export.ErrPartition) {
			return c.BadRequest(err.Error())
		}
		return c.InternalError(err, "error in parquet_export.Export")
	}
	if err := s.meta.RecordParts(c.Request().Context(), c.Session.ID, id, parts); err != nil {
		return c.InternalError(err, "error in RecordParts")
	}
	return c.JSON(http.StatusOK, ExportRes{Parts: utils.ArrayOrEmpty(parts)})
}

// ListExports lists the parts previously exported from a table, including tables
// since removed from the registry.
func (s *HTTPServer) ListExports(c *CustomContext) error {
	parts, err := s.meta.ListParts(c.Request().Context(), c.Session.ID, c.Param("id"))
	if err != nil {
		return c.InternalError(err, "error in ListParts")
	}
	return c.JSON(http.StatusOK, ExportRes{Parts: utils.ArrayOrEmpty(parts)})
}

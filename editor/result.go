package editor

import (
	"encoding/json"

	"github.com/danthegoodman1/dfgrid/pager"
	"github.com/danthegoodman1/dfgrid/table"
	"github.com/danthegoodman1/dfgrid/utils"
)

type (
	// Result is the uniform outcome of an edit. Metadata describes the table after a
	// successful edit and is absent on failure.
	Result struct {
		Success  bool            `json:"success"`
		Error    string          `json:"error,omitempty"`
		Metadata *table.Metadata `json:"metadata,omitempty"`
		err      error
	}

	// PageResult is a page of a registered table with each row's position under
	// pager.RowIndexKey.
	PageResult struct {
		Success    bool
		Error      string
		Data       []table.Row
		Pagination pager.Pagination
		err        error
	}
)

func success(md table.Metadata) Result {
	return Result{Success: true, Metadata: &md}
}

func failure(err *Error) Result {
	return Result{Success: false, Error: err.Error(), err: err}
}

// Err returns the typed error behind a failed result, nil on success.
func (r Result) Err() error {
	return r.err
}

func (r PageResult) Err() error {
	return r.err
}

func (r PageResult) MarshalJSON() ([]byte, error) {
	if !r.Success {
		return json.Marshal(struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
		}{false, r.Error})
	}
	return json.Marshal(struct {
		Success    bool             `json:"success"`
		Data       []table.Row      `json:"data"`
		Pagination pager.Pagination `json:"pagination"`
	}{true, utils.ArrayOrEmpty(r.Data), r.Pagination})
}

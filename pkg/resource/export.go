package resource

import (
	"context"
	"net/http"

	"github.com/porthorian/jamfpro/pkg/contract"
	jerrors "github.com/porthorian/jamfpro/pkg/errors"
	httptransport "github.com/porthorian/jamfpro/pkg/transport/http"
)

type ExportField struct {
	FieldName  string `json:"fieldName"`
	FieldLabel string `json:"fieldLabel,omitempty"`
}

type exportBody struct {
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize,omitempty"`
	Sort     []string      `json:"sort,omitempty"`
	Filter   string        `json:"filter,omitempty"`
	Fields   []ExportField `json:"fields,omitempty"`
}

type ExportOptions struct {
	ListOptions
	// Fields and Labels pair up by position. Labels may be shorter.
	Fields []string
	Labels []string
	// Filename and Dir override the saved file's name and location.
	Filename string
	Dir      string
}

func (o ExportOptions) fields() ([]ExportField, error) {
	if len(o.Labels) > len(o.Fields) {
		return nil, jerrors.New(jerrors.CodeInvalidParameterOptions, "export labels must not outnumber export fields")
	}
	fields := make([]ExportField, 0, len(o.Fields))
	for i, name := range o.Fields {
		field := ExportField{FieldName: name}
		if i < len(o.Labels) {
			field.FieldLabel = o.Labels[i]
		}
		fields = append(fields, field)
	}
	return fields, nil
}

// Export saves the collection as CSV via "POST <path>/export".
func (c *Collection) Export(ctx context.Context, opts ExportOptions) (*httptransport.Saved, error) {
	fields, err := opts.fields()
	if err != nil {
		return nil, err
	}

	sort := opts.Sort
	if len(sort) == 0 {
		sort = c.DefaultSort
	}

	return c.Requester.Download(ctx, httptransport.DownloadRequest{
		Method: http.MethodPost,
		Path:   c.Path + "/export",
		Body: exportBody{
			Page:     opts.Page,
			PageSize: opts.PageSize,
			Sort:     sort,
			Filter:   opts.Filter,
			Fields:   fields,
		},
		Accept:   "text/csv",
		Filename: opts.Filename,
		Dir:      opts.Dir,
	})
}

var defaultHistorySort = []string{"date:desc"}

// History lists the audit notes of one object.
func (c *Collection) History(ctx context.Context, id string, opts ListOptions) (*httptransport.Result, error) {
	if err := contract.RequireParams(contract.Params{{Name: "id", Value: id}}); err != nil {
		return nil, err
	}
	return c.Requester.Do(ctx, http.MethodGet, httptransport.Request{
		Path:     c.Path + "/" + contract.EscapeSegment(id) + "/history",
		Query:    contract.DropEmpty(opts.Params(defaultHistorySort)),
		DataType: httptransport.DataTypeJSON,
	})
}

type historyNote struct {
	Note string `json:"note"`
}

// AddHistoryNote appends a note to an object's history.
func (c *Collection) AddHistoryNote(ctx context.Context, id, note string) (*httptransport.Result, error) {
	if err := contract.RequireParams(contract.Params{{Name: "id", Value: id}, {Name: "note", Value: note}}); err != nil {
		return nil, err
	}
	return c.Requester.Do(ctx, http.MethodPost, httptransport.Request{
		Path:     c.Path + "/" + contract.EscapeSegment(id) + "/history",
		Body:     historyNote{Note: note},
		DataType: httptransport.DataTypeJSON,
	})
}

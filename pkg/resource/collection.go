// Package resource holds the endpoint templates every resource wrapper is
// built from: list, read by identifier, create, update, delete (single and
// batch), CSV export, and object history.
package resource

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/porthorian/jamfpro/pkg/contract"
	jerrors "github.com/porthorian/jamfpro/pkg/errors"
	httptransport "github.com/porthorian/jamfpro/pkg/transport/http"
)

// Requester is the part of the dispatcher resources depend on.
type Requester interface {
	Do(ctx context.Context, method string, r httptransport.Request) (*httptransport.Result, error)
	Download(ctx context.Context, r httptransport.DownloadRequest) (*httptransport.Saved, error)
}

// Style selects the URL conventions of a collection.
type Style int

const (
	// StyleClassic addresses objects as "<path>/<kind>/<value>".
	StyleClassic Style = iota + 1
	// StylePro addresses objects as "<path>/<id>".
	StylePro
)

// Collection is one server collection such as /JSSResource/computers or
// /api/v1/buildings.
type Collection struct {
	Requester Requester
	Path      string
	// Label names one object in success messages, e.g. "Building".
	Label string
	Style Style
	// Kinds is the identifier whitelist. Zero means id only.
	Kinds   contract.Kind
	Subsets []string
	// DataType defaults to xml for classic and json for pro collections.
	DataType    httptransport.DataType
	DefaultSort []string
	// BatchDelete enables "<path>/delete-multiple".
	BatchDelete bool
}

type ListOptions struct {
	Page     int
	PageSize int
	// Sort entries look like "name:asc". Empty uses the collection default.
	Sort   []string
	Filter string
}

// Params renders the paging query. defaultSort applies when Sort is empty.
func (o ListOptions) Params(defaultSort []string) contract.Params {
	sort := o.Sort
	if len(sort) == 0 {
		sort = defaultSort
	}
	return contract.Params{
		{Name: "page", Value: o.Page},
		{Name: "page-size", Value: o.PageSize},
		{Name: "sort", Value: strings.Join(sort, ",")},
		{Name: "filter", Value: o.Filter},
	}
}

func (c *Collection) dataType() httptransport.DataType {
	if c.DataType != "" {
		return c.DataType
	}
	if c.Style == StyleClassic {
		return httptransport.DataTypeXML
	}
	return httptransport.DataTypeJSON
}

func (c *Collection) kinds() contract.Kind {
	if c.Style == StylePro || c.Kinds == 0 {
		return contract.KindsIDOnly
	}
	return c.Kinds
}

// ObjectPath resolves opts against the collection's whitelist and returns the
// object's path with the identifier it picked.
func (c *Collection) ObjectPath(opts contract.IdentifierOptions) (string, contract.Identifier, error) {
	identifier, err := contract.PickIdentifier(opts, c.kinds())
	if err != nil {
		return "", contract.Identifier{}, err
	}
	if c.Style == StylePro {
		return c.Path + "/" + identifier.PathValue(), identifier, nil
	}
	return c.Path + "/" + identifier.Path(), identifier, nil
}

func (c *Collection) send(ctx context.Context, method string, r httptransport.Request) (*httptransport.Result, error) {
	if r.DataType == "" {
		r.DataType = c.dataType()
	}
	return c.Requester.Do(ctx, method, r)
}

// List reads the collection. Paging and filtering only apply to pro
// collections; classic lists take no query.
func (c *Collection) List(ctx context.Context, opts ListOptions) (*httptransport.Result, error) {
	request := httptransport.Request{Path: c.Path}
	if c.Style == StylePro {
		request.Query = contract.DropEmpty(opts.Params(c.DefaultSort))
	}
	return c.send(ctx, http.MethodGet, request)
}

// Get reads one object. subsets are validated against the collection's
// whitelist and appended as "/subset/a&b".
func (c *Collection) Get(ctx context.Context, opts contract.IdentifierOptions, subsets ...string) (*httptransport.Result, error) {
	path, _, err := c.ObjectPath(opts)
	if err != nil {
		return nil, err
	}
	withSubsets, err := contract.ValidateSubsets(subsets, c.Subsets)
	if err != nil {
		return nil, err
	}
	if withSubsets {
		path += "/" + contract.SubsetPath(subsets)
	}
	return c.send(ctx, http.MethodGet, httptransport.Request{Path: path})
}

// Create posts body. Classic collections post to "<path>/id/0" so the server
// assigns the next id.
func (c *Collection) Create(ctx context.Context, body any) (*httptransport.Result, error) {
	return c.CreateAt(ctx, 0, body)
}

// CreateAt posts body to "<path>/id/<id>" on classic collections. Pro
// collections assign ids themselves and ignore id.
func (c *Collection) CreateAt(ctx context.Context, id int, body any) (*httptransport.Result, error) {
	if contract.IsEmpty(body) {
		return nil, jerrors.New(jerrors.CodeMissingParameters, "missing required parameter(s): data")
	}
	path := c.Path
	if c.Style == StyleClassic {
		path += "/" + contract.KindID.Segment() + "/" + strconv.Itoa(id)
	}
	return c.send(ctx, http.MethodPost, httptransport.Request{Path: path, Body: body})
}

// Update replaces the object named by opts.
func (c *Collection) Update(ctx context.Context, opts contract.IdentifierOptions, body any) (*httptransport.Result, error) {
	if contract.IsEmpty(body) {
		return nil, jerrors.New(jerrors.CodeMissingParameters, "missing required parameter(s): data")
	}
	path, _, err := c.ObjectPath(opts)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, http.MethodPut, httptransport.Request{Path: path, Body: body})
}

// Delete removes the object named by opts. Pro collections answer with a
// success message, classic ones with the server's XML.
func (c *Collection) Delete(ctx context.Context, opts contract.IdentifierOptions) (*httptransport.Result, error) {
	path, identifier, err := c.ObjectPath(opts)
	if err != nil {
		return nil, err
	}
	request := httptransport.Request{Path: path}
	if c.Style == StylePro {
		request.SuccessMessage = fmt.Sprintf("%s %s successfully deleted.", c.Label, identifier.Value)
	}
	return c.send(ctx, http.MethodDelete, request)
}

// DeleteIDs routes to a single delete when id is set and to
// "<path>/delete-multiple" when ids is set.
func (c *Collection) DeleteIDs(ctx context.Context, id string, ids []string) (*httptransport.Result, error) {
	route, err := contract.RouteDelete(id, ids)
	if err != nil {
		return nil, err
	}

	if !route.IsBatch() {
		return c.send(ctx, http.MethodDelete, httptransport.Request{
			Path:           c.Path + "/" + contract.EscapeSegment(route.ID),
			DataType:       httptransport.DataTypeJSON,
			SuccessMessage: fmt.Sprintf("%s %s successfully deleted.", c.Label, route.ID),
		})
	}

	if !c.BatchDelete {
		return nil, jerrors.Newf(jerrors.CodeInvalidParameterOptions, "%s does not support deleting multiple objects", c.Path)
	}
	return c.send(ctx, http.MethodPost, httptransport.Request{
		Path:           c.Path + "/delete-multiple",
		Body:           route.Batch,
		DataType:       httptransport.DataTypeJSON,
		SuccessMessage: fmt.Sprintf("%s(s) %s successfully deleted.", c.Label, strings.Join(route.IDs(), ", ")),
	})
}

package pro

import (
	"context"
	"fmt"
	"net/http"

	"github.com/porthorian/jamfpro/pkg/contract"
	jerrors "github.com/porthorian/jamfpro/pkg/errors"
	"github.com/porthorian/jamfpro/pkg/resource"
	httptransport "github.com/porthorian/jamfpro/pkg/transport/http"
)

var InventorySections = []string{
	"ALL", "GENERAL", "DISK_ENCRYPTION", "PURCHASING", "APPLICATIONS", "STORAGE", "USER_AND_LOCATION",
	"CONFIGURATION_PROFILES", "PRINTERS", "SERVICES", "HARDWARE", "LOCAL_USER_ACCOUNTS", "CERTIFICATES",
	"ATTACHMENTS", "PLUGINS", "PACKAGE_RECEIPTS", "FONTS", "SECURITY", "OPERATING_SYSTEM",
	"LICENSED_SOFTWARE", "IBEACONS", "SOFTWARE_UPDATES", "EXTENSION_ATTRIBUTES", "CONTENT_CACHING",
	"GROUP_MEMBERSHIPS",
}

const (
	inventoryPath       = Prefix + "/v1/computers-inventory"
	inventoryDetailPath = Prefix + "/v1/computers-inventory-detail"
)

// ComputersInventory reads and edits computer inventory records and their
// file attachments.
type ComputersInventory struct {
	requester  resource.Requester
	collection *resource.Collection
}

func newComputersInventory(requester resource.Requester) *ComputersInventory {
	return &ComputersInventory{
		requester: requester,
		collection: &resource.Collection{
			Requester:   requester,
			Path:        inventoryPath,
			Label:       "Computer",
			Style:       resource.StylePro,
			DefaultSort: []string{"general.name:asc"},
		},
	}
}

type InventoryListOptions struct {
	resource.ListOptions
	// Sections limits the returned sections. Empty returns GENERAL only.
	Sections []string
}

func (c *ComputersInventory) List(ctx context.Context, opts InventoryListOptions) (*httptransport.Result, error) {
	if err := contract.ValidateEnum("section", opts.Sections, InventorySections); err != nil {
		return nil, err
	}
	params := append(contract.Params{{Name: "section", Value: opts.Sections}}, opts.Params(c.collection.DefaultSort)...)
	return c.requester.Do(ctx, http.MethodGet, httptransport.Request{
		Path:  inventoryPath,
		Query: contract.DropEmpty(params),
	})
}

func (c *ComputersInventory) Get(ctx context.Context, id string, sections ...string) (*httptransport.Result, error) {
	if err := contract.RequireParams(contract.Params{{Name: "id", Value: id}}); err != nil {
		return nil, err
	}
	if err := contract.ValidateEnum("section", sections, InventorySections); err != nil {
		return nil, err
	}
	return c.requester.Do(ctx, http.MethodGet, httptransport.Request{
		Path:  inventoryPath + "/" + contract.EscapeSegment(id),
		Query: contract.DropEmpty(contract.Params{{Name: "section", Value: sections}}),
	})
}

// Update applies a partial update to the inventory detail record.
func (c *ComputersInventory) Update(ctx context.Context, id string, body any) (*httptransport.Result, error) {
	if err := contract.RequireParams(contract.Params{{Name: "id", Value: id}, {Name: "data", Value: body}}); err != nil {
		return nil, err
	}
	return c.requester.Do(ctx, http.MethodPatch, httptransport.Request{
		Path: inventoryDetailPath + "/" + contract.EscapeSegment(id),
		Body: body,
	})
}

func (c *ComputersInventory) Delete(ctx context.Context, id string) (*httptransport.Result, error) {
	return c.collection.DeleteIDs(ctx, id, nil)
}

func (c *ComputersInventory) History(ctx context.Context, id string, opts resource.ListOptions) (*httptransport.Result, error) {
	return c.collection.History(ctx, id, opts)
}

func attachmentsPath(id string) (string, error) {
	if err := contract.RequireParams(contract.Params{{Name: "id", Value: id}}); err != nil {
		return "", err
	}
	return inventoryPath + "/" + contract.EscapeSegment(id) + "/attachments", nil
}

func attachmentPath(id, attachmentID string) (string, error) {
	if err := contract.RequireParams(contract.Params{{Name: "id", Value: id}, {Name: "attachment_id", Value: attachmentID}}); err != nil {
		return "", err
	}
	return inventoryPath + "/" + contract.EscapeSegment(id) + "/attachments/" + contract.EscapeSegment(attachmentID), nil
}

// UploadAttachment attaches file to the computer with id.
func (c *ComputersInventory) UploadAttachment(ctx context.Context, id string, file *httptransport.File) (*httptransport.Result, error) {
	path, err := attachmentsPath(id)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, jerrors.New(jerrors.CodeMissingParameters, "missing required parameter(s): file")
	}
	return c.requester.Do(ctx, http.MethodPost, httptransport.Request{Path: path, File: file})
}

// DownloadAttachment saves one attachment into dir, or the default downloads
// directory when dir is empty.
func (c *ComputersInventory) DownloadAttachment(ctx context.Context, id, attachmentID, dir string) (*httptransport.Saved, error) {
	path, err := attachmentPath(id, attachmentID)
	if err != nil {
		return nil, err
	}
	return c.requester.Download(ctx, httptransport.DownloadRequest{Path: path, Dir: dir})
}

func (c *ComputersInventory) DeleteAttachment(ctx context.Context, id, attachmentID string) (*httptransport.Result, error) {
	path, err := attachmentPath(id, attachmentID)
	if err != nil {
		return nil, err
	}
	return c.requester.Do(ctx, http.MethodDelete, httptransport.Request{
		Path:           path,
		SuccessMessage: fmt.Sprintf("Attachment %s successfully deleted from computer %s.", attachmentID, id),
	})
}

// Package pro wraps the JSON oriented /api surface.
package pro

import (
	"context"
	"net/http"

	"github.com/porthorian/jamfpro/pkg/contract"
	"github.com/porthorian/jamfpro/pkg/resource"
	httptransport "github.com/porthorian/jamfpro/pkg/transport/http"
)

const Prefix = "/api"

type Client struct {
	requester resource.Requester

	Buildings   *resource.Collection
	Departments *resource.Collection
	Categories  *resource.Collection
	Scripts     *resource.Collection

	Computers *ComputersInventory
	Icons     *Icons
}

func New(requester resource.Requester) *Client {
	collection := func(path, label string, sort ...string) *resource.Collection {
		return &resource.Collection{
			Requester:   requester,
			Path:        Prefix + path,
			Label:       label,
			Style:       resource.StylePro,
			DefaultSort: sort,
			BatchDelete: true,
		}
	}

	return &Client{
		requester:   requester,
		Buildings:   collection("/v1/buildings", "Building", "name:asc"),
		Departments: collection("/v1/departments", "Department", "id:asc"),
		Categories:  collection("/v1/categories", "Category", "name:asc"),
		Scripts:     collection("/v1/scripts", "Script", "name:asc"),
		Computers:   newComputersInventory(requester),
		Icons:       &Icons{requester: requester},
	}
}

type renewProfileBody struct {
	UDIDs []string `json:"udids"`
}

// RenewMDMProfile asks the listed devices to renew their MDM profile.
func (c *Client) RenewMDMProfile(ctx context.Context, udids []string) (*httptransport.Result, error) {
	if err := contract.RequireParams(contract.Params{{Name: "udids", Value: udids}}); err != nil {
		return nil, err
	}
	return c.requester.Do(ctx, http.MethodPost, httptransport.Request{
		Path: Prefix + "/v1/mdm/renew-profile",
		Body: renewProfileBody{UDIDs: udids},
	})
}

// RedeployManagementFramework redeploys the management framework to the
// computer with id.
func (c *Client) RedeployManagementFramework(ctx context.Context, id string) (*httptransport.Result, error) {
	if err := contract.RequireParams(contract.Params{{Name: "id", Value: id}}); err != nil {
		return nil, err
	}
	return c.requester.Do(ctx, http.MethodPost, httptransport.Request{
		Path: Prefix + "/v1/jamf-management-framework/redeploy/" + contract.EscapeSegment(id),
	})
}

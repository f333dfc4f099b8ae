// Package classic wraps the XML oriented /JSSResource surface.
package classic

import (
	"context"
	"net/http"

	"github.com/porthorian/jamfpro/pkg/contract"
	"github.com/porthorian/jamfpro/pkg/resource"
	httptransport "github.com/porthorian/jamfpro/pkg/transport/http"
)

const Prefix = "/JSSResource"

var (
	ComputerSubsets = []string{
		"General", "Location", "Purchasing", "Peripherals", "Hardware", "Certificates",
		"Software", "ExtensionAttributes", "GroupsAccounts", "iphones", "ConfigurationProfiles",
	}
	MobileDeviceSubsets = []string{
		"General", "Location", "Purchasing", "Applications", "Security", "Network", "Certificates",
		"ConfigurationProfiles", "ProvisioningProfiles", "MobileDeviceGroups", "ExtensionAttributes",
	}
	PolicySubsets = []string{
		"General", "Scope", "SelfService", "PackageConfiguration", "Scripts", "Printers", "DockItems",
		"AccountMaintenance", "Reboot", "Maintenance", "FilesProcesses", "UserInteraction", "DiskEncryption",
	}
)

// KindsInvitation addresses computer invitations.
const KindsInvitation = contract.KindID | contract.KindName | contract.KindInvitation

// Client groups the classic collections. The deprecated jssuser endpoint is
// not exposed.
type Client struct {
	requester resource.Requester

	Computers           *resource.Collection
	MobileDevices       *resource.Collection
	ComputerGroups      *resource.Collection
	Policies            *resource.Collection
	Users               *resource.Collection
	ComputerInvitations *resource.Collection
	Buildings           *resource.Collection
	Departments         *resource.Collection
	Categories          *resource.Collection
	Scripts             *resource.Collection
}

func New(requester resource.Requester) *Client {
	collection := func(name, label string, kinds contract.Kind, subsets []string) *resource.Collection {
		return &resource.Collection{
			Requester: requester,
			Path:      Prefix + "/" + name,
			Label:     label,
			Style:     resource.StyleClassic,
			Kinds:     kinds,
			Subsets:   subsets,
		}
	}

	return &Client{
		requester:           requester,
		Computers:           collection("computers", "Computer", contract.KindsHardware, ComputerSubsets),
		MobileDevices:       collection("mobiledevices", "Mobile device", contract.KindsHardware, MobileDeviceSubsets),
		ComputerGroups:      collection("computergroups", "Computer group", contract.KindsIDName, nil),
		Policies:            collection("policies", "Policy", contract.KindsIDName, PolicySubsets),
		Users:               collection("users", "User", contract.KindsUser, nil),
		ComputerInvitations: collection("computerinvitations", "Computer invitation", KindsInvitation, nil),
		Buildings:           collection("buildings", "Building", contract.KindsIDName, nil),
		Departments:         collection("departments", "Department", contract.KindsIDName, nil),
		Categories:          collection("categories", "Category", contract.KindsIDName, nil),
		Scripts:             collection("scripts", "Script", contract.KindsIDName, nil),
	}
}

// ComputerApplicationUsage reads usage between two YYYY-MM-DD dates for the
// computer named by opts.
func (c *Client) ComputerApplicationUsage(ctx context.Context, opts contract.IdentifierOptions, start, end string) (*httptransport.Result, error) {
	if err := contract.RequireParams(contract.Params{{Name: "start_date", Value: start}, {Name: "end_date", Value: end}}); err != nil {
		return nil, err
	}
	if err := contract.ValidateDate("start_date", start); err != nil {
		return nil, err
	}
	if err := contract.ValidateDate("end_date", end); err != nil {
		return nil, err
	}

	identifier, err := contract.PickIdentifier(opts, contract.KindsHardware)
	if err != nil {
		return nil, err
	}

	return c.requester.Do(ctx, http.MethodGet, httptransport.Request{
		Path:     Prefix + "/computerapplicationusage/" + identifier.Path() + "/" + start + "_" + end,
		DataType: httptransport.DataTypeXML,
	})
}

package jamfpro

import (
	"github.com/porthorian/jamfpro/pkg/contract"
	"github.com/porthorian/jamfpro/pkg/resource"
	httptransport "github.com/porthorian/jamfpro/pkg/transport/http"
)

// Request and response shapes shared with pkg/transport/http.
type (
	Request         = httptransport.Request
	Result          = httptransport.Result
	DataType        = httptransport.DataType
	File            = httptransport.File
	DownloadRequest = httptransport.DownloadRequest
	Saved           = httptransport.Saved
)

const (
	DataTypeJSON = httptransport.DataTypeJSON
	DataTypeXML  = httptransport.DataTypeXML
	DataTypeNone = httptransport.DataTypeNone
)

// Resource call options shared with pkg/contract and pkg/resource.
type (
	IdentifierOptions = contract.IdentifierOptions
	ListOptions       = resource.ListOptions
	ExportOptions     = resource.ExportOptions
)

var (
	ByID         = contract.ByID
	ByName       = contract.ByName
	ByUDID       = contract.ByUDID
	BySerial     = contract.BySerial
	ByMAC        = contract.ByMAC
	ByEmail      = contract.ByEmail
	ByUUID       = contract.ByUUID
	ByInvitation = contract.ByInvitation
)

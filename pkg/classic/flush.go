package classic

import (
	"context"
	"net/http"
	"strconv"

	"github.com/porthorian/jamfpro/pkg/contract"
	httptransport "github.com/porthorian/jamfpro/pkg/transport/http"
)

// Flush intervals and command statuses are sent with a literal '+'.
var (
	LogFlushIntervals = []string{
		"Zero+Days", "One+Day", "One+Week", "One+Month", "Three+Months", "Six+Months", "One+Year",
	}
	CommandFlushIDTypes  = []string{"computers", "computergroups", "mobiledevices", "mobiledevicegroups"}
	CommandFlushStatuses = []string{"Pending", "Failed", "Pending+Failed"}
)

// LogFlushOptions is either PolicyID and Interval, or an XML Body.
type LogFlushOptions struct {
	PolicyID *int
	Interval string
	Body     any
}

// FlushPolicyLogs deletes policy logs older than Interval for one policy,
// or applies the flush described by Body.
func (c *Client) FlushPolicyLogs(ctx context.Context, opts LogFlushOptions) (*httptransport.Result, error) {
	params := contract.Params{{Name: "policy_id", Value: opts.PolicyID}, {Name: "interval", Value: opts.Interval}}
	source, err := contract.ChooseParamsOrBody(params, opts.Body)
	if err != nil {
		return nil, err
	}

	if source == contract.SourceBody {
		return c.requester.Do(ctx, http.MethodDelete, httptransport.Request{
			Path:     Prefix + "/logflush",
			Body:     opts.Body,
			DataType: httptransport.DataTypeXML,
		})
	}

	if err := contract.RequireParams(params); err != nil {
		return nil, err
	}
	if err := contract.ValidateEnum("interval", opts.Interval, LogFlushIntervals); err != nil {
		return nil, err
	}

	return c.requester.Do(ctx, http.MethodDelete, httptransport.Request{
		Path:     Prefix + "/logflush/policy/id/" + strconv.Itoa(*opts.PolicyID) + "/interval/" + opts.Interval,
		DataType: httptransport.DataTypeXML,
	})
}

// CommandFlushOptions is either IDType, ID, and Status, or an XML Body.
type CommandFlushOptions struct {
	IDType string
	ID     string
	Status string
	Body   any
}

// FlushCommands clears queued MDM commands.
func (c *Client) FlushCommands(ctx context.Context, opts CommandFlushOptions) (*httptransport.Result, error) {
	params := contract.Params{
		{Name: "id_type", Value: opts.IDType},
		{Name: "id", Value: opts.ID},
		{Name: "status", Value: opts.Status},
	}
	source, err := contract.ChooseParamsOrBody(params, opts.Body)
	if err != nil {
		return nil, err
	}

	if source == contract.SourceBody {
		return c.requester.Do(ctx, http.MethodDelete, httptransport.Request{
			Path:     Prefix + "/commandflush",
			Body:     opts.Body,
			DataType: httptransport.DataTypeXML,
		})
	}

	if err := contract.RequireParams(params); err != nil {
		return nil, err
	}
	if err := contract.ValidateEnum("id_type", opts.IDType, CommandFlushIDTypes); err != nil {
		return nil, err
	}
	if err := contract.ValidateEnum("status", opts.Status, CommandFlushStatuses); err != nil {
		return nil, err
	}

	return c.requester.Do(ctx, http.MethodDelete, httptransport.Request{
		Path:     Prefix + "/commandflush/" + opts.IDType + "/id/" + contract.EscapeSegment(opts.ID) + "/status/" + opts.Status,
		DataType: httptransport.DataTypeXML,
	})
}

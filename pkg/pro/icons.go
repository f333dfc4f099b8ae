package pro

import (
	"context"
	"net/http"
	"strconv"

	"github.com/porthorian/jamfpro/pkg/contract"
	jerrors "github.com/porthorian/jamfpro/pkg/errors"
	"github.com/porthorian/jamfpro/pkg/resource"
	httptransport "github.com/porthorian/jamfpro/pkg/transport/http"
)

var IconResolutions = []string{"original", "300", "512"}

const iconPath = Prefix + "/v1/icon"

// Icons manages self service icons.
type Icons struct {
	requester resource.Requester
}

func (i *Icons) Get(ctx context.Context, id int) (*httptransport.Result, error) {
	return i.requester.Do(ctx, http.MethodGet, httptransport.Request{Path: iconPath + "/" + strconv.Itoa(id)})
}

func (i *Icons) Upload(ctx context.Context, file *httptransport.File) (*httptransport.Result, error) {
	if file == nil {
		return nil, jerrors.New(jerrors.CodeMissingParameters, "missing required parameter(s): file")
	}
	return i.requester.Do(ctx, http.MethodPost, httptransport.Request{Path: iconPath, File: file})
}

// IconDownloadOptions picks either a fixed resolution or a scale. Scale "0"
// means original size.
type IconDownloadOptions struct {
	Res   string
	Scale string
	Dir   string
}

func (i *Icons) Download(ctx context.Context, id int, opts IconDownloadOptions) (*httptransport.Saved, error) {
	params := contract.Params{{Name: "res", Value: opts.Res}, {Name: "scale", Value: opts.Scale}}
	if err := contract.CheckConflicts(params); err != nil {
		return nil, err
	}
	if err := contract.ValidateEnum("res", opts.Res, IconResolutions); err != nil {
		return nil, err
	}
	return i.requester.Download(ctx, httptransport.DownloadRequest{
		Path:   iconPath + "/download/" + strconv.Itoa(id),
		Query:  contract.DropEmpty(params),
		Accept: "image/*",
		Dir:    opts.Dir,
	})
}

package contract

import (
	jerrors "github.com/porthorian/jamfpro/pkg/errors"
)

type DeleteMultipleBody struct {
	IDs []string `json:"ids"`
}

// DeleteRoute is either a single id or a batch body for "<collection>/delete-multiple".
type DeleteRoute struct {
	ID    string
	Batch *DeleteMultipleBody
}

func (r DeleteRoute) IsBatch() bool {
	return r.Batch != nil
}

// IDs lists every id the route touches.
func (r DeleteRoute) IDs() []string {
	if r.Batch != nil {
		return r.Batch.IDs
	}
	return []string{r.ID}
}

func RouteDelete(id string, ids []string) (DeleteRoute, error) {
	hasID := id != ""
	hasIDs := len(ids) > 0

	switch {
	case hasID && hasIDs:
		return DeleteRoute{}, jerrors.New(jerrors.CodeConflictingParameters, "id and ids cannot be used together")
	case hasID:
		return DeleteRoute{ID: id}, nil
	case hasIDs:
		return DeleteRoute{Batch: &DeleteMultipleBody{IDs: append([]string(nil), ids...)}}, nil
	}
	return DeleteRoute{}, jerrors.New(jerrors.CodeMissingParameters, "missing required parameter(s): id or ids")
}

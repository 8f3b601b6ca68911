package api

import "context"

// ExportData returns every application and history entry of the caller.
// Reading an export is not a mutation.
func (a *API) ExportData(ctx context.Context, _ *Empty) (*ExportDTO, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}

	snapshot, err := a.Export.Export(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return toExportDTO(snapshot), nil
}

package api

import (
	"errors"

	models "BrentCast/internal/domain/models"
	xhttp "BrentCast/pkg/http"
)

// toAppError maps pipeline failures onto HTTP errors. Unknown errors become 500.
func toAppError(err error) error {
	var (
		notTrained   *models.ModelNotTrainedError
		invalid      *models.DataValidationError
		insufficient *models.InsufficientHistoryError
		upstream     *models.UpstreamUnavailableError
	)
	switch {
	case errors.As(err, &notTrained):
		return xhttp.ConflictError(notTrained.Error()).WithError(err)
	case errors.As(err, &invalid):
		e := xhttp.UnprocessableError(invalid.Error()).WithError(err)
		e.Field = invalid.Field
		if invalid.Row > 0 {
			e.WithParam("row", invalid.Row)
		}
		return e
	case errors.As(err, &insufficient):
		return xhttp.UnprocessableError(insufficient.Error()).
			WithParam("stage", insufficient.Stage).
			WithParam("need", insufficient.Need).
			WithParam("have", insufficient.Have).
			WithError(err)
	case errors.As(err, &upstream):
		return xhttp.UnavailableError(upstream.Error()).WithParam("source", upstream.Source).WithError(err)
	}
	return err
}

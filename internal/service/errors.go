package service

import (
	"errors"

	"github.com/iliyamo/token-manager/internal/apperr"
	"github.com/iliyamo/token-manager/internal/repository"
)

// translate converts repository sentinels into application errors using the
// messages of the calling operation. Anything unrecognised becomes Internal.
func translate(err error, notFound, duplicate string) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, repository.ErrNotFound) && notFound != "":
		return apperr.NotFound(notFound)
	case errors.Is(err, repository.ErrDuplicate) && duplicate != "":
		return apperr.Wrap(apperr.KindConflict, duplicate, err)
	case errors.Is(err, repository.ErrForeignKey):
		return apperr.Wrap(apperr.KindNotFound, "Referenced entity not found", err)
	}
	return apperr.Internal("Internal server error", err)
}

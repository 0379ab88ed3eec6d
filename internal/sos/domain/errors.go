package domain

import "github.com/Perismakworo/Shesecure2/internal/apperr"

var ErrDispatchNotFound = apperr.NotFound("sos.get", "sos not found")

package common

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ourlineintime/lineintime/server/resp"
	"github.com/ourlineintime/lineintime/storage/mediadb"
	"github.com/ourlineintime/lineintime/storage/memorydb"
)

// LogAndWriteError logs an error with request context and maps known
// conditions to client responses.
func LogAndWriteError(w http.ResponseWriter, r *http.Request, log *zap.SugaredLogger, op string, err error) {
	log.Errorw(fmt.Sprintf("%s failed", op),
		"method", r.Method, "path", r.URL.Path, "error", err)

	switch {
	case errors.Is(err, memorydb.ErrNotFound), errors.Is(err, mediadb.ErrNotFound):
		resp.WriteNotFound(w, "not found")
	default:
		resp.WriteInternalServerError(w, fmt.Sprintf("%s failed", op))
	}
}

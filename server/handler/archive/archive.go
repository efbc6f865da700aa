// Package archive serves the export endpoints: per-user data dumps,
// whole-family archives and full backups.
package archive

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/ourlineintime/lineintime/export"
	"github.com/ourlineintime/lineintime/server/auth"
	"github.com/ourlineintime/lineintime/server/handler/common"
	"github.com/ourlineintime/lineintime/server/resp"
	"github.com/ourlineintime/lineintime/server/state"
)

func exportFormat(r *http.Request) (string, bool) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	return format, format == "json" || format == "csv"
}

func HandleUserExport(st *state.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := auth.GetIdentity(r.Context())

		format, ok := exportFormat(r)
		if !ok {
			resp.WriteBadRequest(w, "format must be json or csv")
			return
		}

		data, err := st.Exporter.UserData(r.Context(), identity.ID)
		if err != nil {
			common.LogAndWriteError(w, r, st.Log, "export user data", err)
			return
		}

		if format == "csv" {
			w.Header().Set("Content-Type", "text/csv")
			w.Header().Set("Content-Disposition", `attachment; filename="my-memories.csv"`)
			if err := export.WriteCSV(w, data.Sections()); err != nil {
				st.Log.Errorw("streaming user csv failed", "error", err)
			}
			return
		}

		resp.WriteOK(w, data)
	}
}

// streamJob sends a finished archive to the client and tears down its
// scratch artifacts when the stream ends, normally or not.
func streamJob(w http.ResponseWriter, st *state.State, job *export.Job) {
	defer job.Cleanup()

	f, err := os.Open(job.Path)
	if err != nil {
		st.Log.Errorw("could not open finished archive", "path", job.Path, "error", err)
		resp.WriteInternalServerError(w, "export failed")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", job.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", job.Filename))
	if info, err := f.Stat(); err == nil {
		w.Header().Set("Content-Length", fmt.Sprint(info.Size()))
	}

	if _, err := io.Copy(w, f); err != nil {
		// Headers are gone; all that is left is to log the abort.
		st.Log.Warnw("archive stream aborted", "path", job.Path, "error", err)
	}
}

func HandleFamilyExport(st *state.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := auth.GetIdentity(r.Context())

		format, ok := exportFormat(r)
		if !ok {
			resp.WriteBadRequest(w, "format must be json or csv")
			return
		}
		includeMedia := r.URL.Query().Get("includeMedia") == "true"

		job, err := st.Exporter.BuildFamilyExport(r.Context(), format, includeMedia, identity.ID)
		if err != nil {
			common.LogAndWriteError(w, r, st.Log, "build family export", err)
			return
		}

		streamJob(w, st, job)
	}
}

func HandleBackup(st *state.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := auth.GetIdentity(r.Context())

		job, err := st.Exporter.BuildBackup(r.Context(), identity.ID)
		if err != nil {
			common.LogAndWriteError(w, r, st.Log, "build backup", err)
			return
		}

		streamJob(w, st, job)
	}
}

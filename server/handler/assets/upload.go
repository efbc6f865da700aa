package assets

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ourlineintime/lineintime/media"
	"github.com/ourlineintime/lineintime/server/auth"
	"github.com/ourlineintime/lineintime/server/handler/common"
	"github.com/ourlineintime/lineintime/server/resp"
	"github.com/ourlineintime/lineintime/server/state"
	"github.com/ourlineintime/lineintime/server/util"
	"github.com/ourlineintime/lineintime/storage/memorydb"
)

// readUpload validates one multipart file against the allow-list and
// size ceilings and drains it into an in-memory upload.
func readUpload(st *state.State, mf util.MultipartFile) (media.Upload, error) {
	contentType := mf.Header.Header.Get("Content-Type")
	if err := media.ValidateUpload(contentType, mf.Header.Size, st.Cfg.Media); err != nil {
		return media.Upload{}, err
	}

	data, err := io.ReadAll(mf.File)
	if err != nil {
		return media.Upload{}, fmt.Errorf("reading %s: %w", mf.Header.Filename, err)
	}

	return media.Upload{
		Filename: mf.Header.Filename,
		MimeType: contentType,
		Data:     data,
	}, nil
}

// requireMemory confirms the target memory exists before any object is
// written.
func requireMemory(w http.ResponseWriter, r *http.Request, st *state.State, memoryID string) bool {
	if memoryID == "" {
		resp.WriteBadRequest(w, "A memoryId is required")
		return false
	}
	if _, err := st.Memories.GetByID(r.Context(), memoryID); err != nil {
		if errors.Is(err, memorydb.ErrNotFound) {
			resp.WriteNotFound(w, "memory not found")
		} else {
			common.LogAndWriteError(w, r, st.Log, "resolve memory", err)
		}
		return false
	}
	return true
}

func HandleUpload(st *state.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := auth.GetIdentity(r.Context())

		pm, err := util.ParseMultipart(w, r,
			int64(st.Cfg.Server.Limits.MaxPayloadSize),
			int64(st.Cfg.Server.Limits.MaxMultipartMem))
		if err != nil {
			resp.WriteBadRequest(w, "Could not parse multipart form")
			return
		}
		defer pm.CloseFiles()

		if !requireMemory(w, r, st, pm.Value("memoryId")) {
			return
		}

		if len(pm.Files) != 1 {
			resp.WriteBadRequest(w, "Exactly one file must be provided")
			return
		}

		up, err := readUpload(st, pm.Files[0])
		if err != nil {
			resp.WriteBadRequest(w, err.Error())
			return
		}

		item, err := st.Pipeline.Ingest(r.Context(), pm.Value("memoryId"), identity.ID, up)
		if err != nil {
			common.LogAndWriteError(w, r, st.Log, "upload media", err)
			return
		}

		res, err := presentItem(r.Context(), st, item)
		if err != nil {
			common.LogAndWriteError(w, r, st.Log, "presign media", err)
			return
		}

		resp.WriteCreated(w, "/api/media/"+item.ID, res)
	}
}

func HandleBatchUpload(st *state.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := auth.GetIdentity(r.Context())

		pm, err := util.ParseMultipart(w, r,
			int64(st.Cfg.Server.Limits.MaxPayloadSize),
			int64(st.Cfg.Server.Limits.MaxMultipartMem))
		if err != nil {
			resp.WriteBadRequest(w, "Could not parse multipart form")
			return
		}
		defer pm.CloseFiles()

		if !requireMemory(w, r, st, pm.Value("memoryId")) {
			return
		}

		if len(pm.Files) == 0 {
			resp.WriteBadRequest(w, "At least one file must be provided")
			return
		}
		if len(pm.Files) > st.Cfg.Media.MaxBatchFiles {
			resp.WriteBadRequest(w, fmt.Sprintf("At most %d files may be uploaded at once", st.Cfg.Media.MaxBatchFiles))
			return
		}

		// The whole batch is validated before any file is ingested.
		ups := make([]media.Upload, 0, len(pm.Files))
		for _, mf := range pm.Files {
			up, err := readUpload(st, mf)
			if err != nil {
				resp.WriteBadRequest(w, err.Error())
				return
			}
			ups = append(ups, up)
		}

		items, err := st.Pipeline.IngestAll(r.Context(), pm.Value("memoryId"), identity.ID, ups)
		if err != nil {
			common.LogAndWriteError(w, r, st.Log, "batch upload media", err)
			return
		}

		out := make([]*itemResponse, 0, len(items))
		for _, item := range items {
			res, err := presentItem(r.Context(), st, item)
			if err != nil {
				common.LogAndWriteError(w, r, st.Log, "presign media", err)
				return
			}
			out = append(out, res)
		}

		resp.WriteCreated(w, "", out)
	}
}

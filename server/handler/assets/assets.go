// Package assets serves media items: uploads into the ingestion
// pipeline and the read and delete surface over ingested assets.
package assets

import (
	"context"
	"net/http"

	"github.com/ourlineintime/lineintime/model"
	"github.com/ourlineintime/lineintime/server/handler/common"
	"github.com/ourlineintime/lineintime/server/resp"
	"github.com/ourlineintime/lineintime/server/state"
)

// itemResponse decorates a media item with fresh presigned URLs.
type itemResponse struct {
	*model.MediaItem
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

func presentItem(ctx context.Context, st *state.State, item *model.MediaItem) (*itemResponse, error) {
	url, thumbURL, err := st.Pipeline.PresignItem(ctx, item)
	if err != nil {
		return nil, err
	}
	return &itemResponse{MediaItem: item, URL: url, ThumbnailURL: thumbURL}, nil
}

func HandleGet(st *state.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, err := st.Media.GetByID(r.Context(), r.PathValue("id"))
		if err != nil {
			common.LogAndWriteError(w, r, st.Log, "get media", err)
			return
		}

		res, err := presentItem(r.Context(), st, item)
		if err != nil {
			common.LogAndWriteError(w, r, st.Log, "presign media", err)
			return
		}

		resp.WriteOK(w, res)
	}
}

func HandleListByMemory(st *state.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := st.Media.ListByMemory(r.Context(), r.PathValue("memoryId"))
		if err != nil {
			common.LogAndWriteError(w, r, st.Log, "list media", err)
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

		resp.WriteOK(w, out)
	}
}

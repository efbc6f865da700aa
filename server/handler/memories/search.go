package memories

import (
	"net/http"
	"strconv"

	"github.com/ourlineintime/lineintime/model"
	"github.com/ourlineintime/lineintime/server/auth"
	"github.com/ourlineintime/lineintime/server/handler/common"
	"github.com/ourlineintime/lineintime/server/resp"
	"github.com/ourlineintime/lineintime/server/state"
)

const defaultSearchRadiusKm = 10.0

func HandleSearch(st *state.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := auth.GetIdentity(r.Context())

		q := r.URL.Query()
		lat, err := strconv.ParseFloat(q.Get("lat"), 64)
		if err != nil {
			resp.WriteBadRequest(w, "lat is required and must be a number")
			return
		}
		lng, err := strconv.ParseFloat(q.Get("lng"), 64)
		if err != nil {
			resp.WriteBadRequest(w, "lng is required and must be a number")
			return
		}
		if !validCoordinates(model.GeoPoint{Lat: lat, Lng: lng}) {
			resp.WriteBadRequest(w, "Search center coordinates are out of range")
			return
		}

		radiusKm := defaultSearchRadiusKm
		if raw := q.Get("radius"); raw != "" {
			radiusKm, err = strconv.ParseFloat(raw, 64)
			if err != nil || radiusKm <= 0 {
				resp.WriteBadRequest(w, "radius must be a positive number of kilometers")
				return
			}
		}

		viewer := ""
		if identity != nil {
			viewer = identity.ID
		}

		results, err := st.Memories.SearchByRadius(r.Context(), lat, lng, radiusKm, viewer)
		if err != nil {
			common.LogAndWriteError(w, r, st.Log, "search memories", err)
			return
		}

		resp.WriteOK(w, results)
	}
}

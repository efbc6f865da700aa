package memories

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ourlineintime/lineintime/model"
)

// memoryBody is the wire shape shared by create and update. Every field
// is optional at the decoding layer; each handler enforces its own
// required set.
type memoryBody struct {
	Title         *string             `json:"title"`
	Narrative     *string             `json:"narrative"`
	DateType      *model.DateType     `json:"dateType"`
	StartDate     *time.Time          `json:"startDate"`
	EndDate       *time.Time          `json:"endDate"`
	Location      *model.GeoPoint     `json:"location"`
	LocationName  *string             `json:"locationName"`
	PrivacyLevel  *model.PrivacyLevel `json:"privacyLevel"`
	Tags          []string            `json:"tags"`
	FamilyMembers []string            `json:"familyMembers"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, maxPayload int64) (*memoryBody, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPayload)

	body := &memoryBody{}
	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		return nil, err
	}

	return body, nil
}

func validDateType(dt model.DateType) bool {
	switch dt {
	case model.DateExact, model.DateApproximate, model.DateRange, model.DateEra:
		return true
	}
	return false
}

func validPrivacyLevel(pl model.PrivacyLevel) bool {
	switch pl {
	case model.PrivacyPublic, model.PrivacyFamily, model.PrivacyPrivate:
		return true
	}
	return false
}

func validCoordinates(p model.GeoPoint) bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

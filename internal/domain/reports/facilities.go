package reports

import (
	"encoding/json"

	"portraits/internal/core/apperror"
)

const dormitoryUse = "寄宿舎施設"

// Library is the first library facility of a university.
type Library struct {
	Area  float64 `json:"area"`
	Books int     `json:"books"`
	Seats int     `json:"seats"`
}

// Facilities summarizes getSchoolFacilities.
type Facilities struct {
	LandArea      float64  `json:"landArea"`
	BuildingArea  float64  `json:"buildingArea"`
	Library       *Library `json:"libraryInfo,omitempty"`
	DormitoryArea float64  `json:"dormitoryArea"`
}

type facilitiesContent struct {
	Land []struct {
		Area Amount `json:"TOCHI_MENSEKI"`
	} `json:"GAKKO_TOCHI_MENSEKI"`
	Buildings []struct {
		Area Amount `json:"TATEMONO_MENSEKI"`
	} `json:"GAKKO_TATEMONO_MENSEKI"`
	Libraries []struct {
		Area  Amount `json:"TOSHOKAN_MENSEKI"`
		Books Count  `json:"TOSHO_SU"`
		Seats Count  `json:"ZASEKI_SU"`
	} `json:"GAKKO_TOSHOKAN_SHISETSU"`
	LandUse []struct {
		Areas []struct {
			Use  string `json:"AREA_YOTO"`
			Area Amount `json:"AREA"`
		} `json:"AREA"`
	} `json:"GAKKO_TOCHI_YOTO_AREA"`
}

// ParseFacilities takes the first entry of each facility list.
func ParseFacilities(content json.RawMessage) (Facilities, error) {
	var out Facilities
	if len(content) == 0 {
		return out, nil
	}
	var c facilitiesContent
	if err := json.Unmarshal(content, &c); err != nil {
		return out, apperror.NewUpstream("getSchoolFacilities", "unexpected content shape").WithCause(err)
	}
	if len(c.Land) > 0 {
		out.LandArea = float64(c.Land[0].Area)
	}
	if len(c.Buildings) > 0 {
		out.BuildingArea = float64(c.Buildings[0].Area)
	}
	if len(c.Libraries) > 0 {
		l := c.Libraries[0]
		out.Library = &Library{Area: float64(l.Area), Books: int(l.Books), Seats: int(l.Seats)}
	}
	if len(c.LandUse) > 0 {
		for _, a := range c.LandUse[0].Areas {
			if a.Use == dormitoryUse {
				out.DormitoryArea = float64(a.Area)
				break
			}
		}
	}
	return out, nil
}

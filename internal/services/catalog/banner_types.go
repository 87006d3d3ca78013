// File: internal/services/catalog/banner_types.go
package catalog

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Wire shapes of the NU Banner StudentRegistrationSsb endpoints. Nothing
// outside this package sees them; mapper.go converts to domain types.

type bannerCodeDescription struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type bannerSearchResponse struct {
	Success    bool            `json:"success"`
	TotalCount int             `json:"totalCount"`
	Data       []bannerSection `json:"data"`
}

type bannerSection struct {
	CourseReferenceNumber flexString           `json:"courseReferenceNumber"`
	CourseTitle           string               `json:"courseTitle"`
	Subject               string               `json:"subject"`
	CourseNumber          flexString           `json:"courseNumber"`
	Faculty               []bannerFaculty      `json:"faculty"`
	MeetingsFaculty       []bannerMeetingGroup `json:"meetingsFaculty"`
	Enrollment            int                  `json:"enrollment"`
	MaximumEnrollment     int                  `json:"maximumEnrollment"`
	WaitCount             int                  `json:"waitCount"`
	CreditHourLow         *float64             `json:"creditHourLow"`
	CreditHours           *float64             `json:"creditHours"`
}

type bannerFaculty struct {
	DisplayName string `json:"displayName"`
}

type bannerMeetingGroup struct {
	MeetingTime *bannerMeetingTime `json:"meetingTime"`
}

type bannerMeetingTime struct {
	BeginTime           string `json:"beginTime"`
	EndTime             string `json:"endTime"`
	BuildingDescription string `json:"buildingDescription"`
	Room                string `json:"room"`
	Monday              bool   `json:"monday"`
	Tuesday             bool   `json:"tuesday"`
	Wednesday           bool   `json:"wednesday"`
	Thursday            bool   `json:"thursday"`
	Friday              bool   `json:"friday"`
	Saturday            bool   `json:"saturday"`
	Sunday              bool   `json:"sunday"`
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if i, err := n.Int64(); err == nil {
		*f = flexString(strconv.FormatInt(i, 10))
		return nil
	}
	*f = flexString(n.String())
	return nil
}

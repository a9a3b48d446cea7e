package crimereports

import (
	"time"

	"github.com/communitysafe/crimewatch/internal/pkg/store"
)

const (
	Collection        = "crime_reports"
	UpdatesCollection = "crime_updates"
	ParentField       = "crimeReportId"
	UploadFolder      = "crime_reports"
)

// Report lifecycle statuses. The allowed transitions form a fixed forward
// cycle; see vm.UpdateStatus.
const (
	StatusPending       = "PENDING"
	StatusInvestigating = "INVESTIGATING"
	StatusResolved      = "RESOLVED"
	StatusClosed        = "CLOSED"
)

var allowedTransitions = map[string][]string{
	StatusPending:       {StatusInvestigating},
	StatusInvestigating: {StatusResolved},
	StatusResolved:      {StatusClosed},
	StatusClosed:        {StatusPending},
}

type Report struct {
	ID                 string
	Headline           string
	Description        string
	Location           string
	CrimeType          string
	SuspectDescription string
	ImageURLs          []string
	ReportedBy         string
	ReporterName       string
	Timestamp          time.Time
	Status             string
	Latitude           *float64
	Longitude          *float64
}

type Update struct {
	ID            string
	CrimeReportID string
	Message       string
	UserID        string
	UserName      string
	Timestamp     time.Time
}

type SubmitRequest struct {
	Headline           string
	Description        string
	Location           string
	CrimeType          string
	SuspectDescription string
	Latitude           *float64
	Longitude          *float64
}

func mapReport(doc store.Document) (Report, error) {
	r := Report{ID: doc.ID}
	var err error
	if r.Headline, err = doc.StringField("headline"); err != nil {
		return Report{}, err
	}
	if r.Description, err = doc.OptStringField("description"); err != nil {
		return Report{}, err
	}
	if r.Location, err = doc.OptStringField("location"); err != nil {
		return Report{}, err
	}
	if r.CrimeType, err = doc.OptStringField("crimeType"); err != nil {
		return Report{}, err
	}
	if r.SuspectDescription, err = doc.OptStringField("suspectDescription"); err != nil {
		return Report{}, err
	}
	if r.ImageURLs, err = doc.StringSliceField("imageUrls"); err != nil {
		return Report{}, err
	}
	if r.ReportedBy, err = doc.OptStringField("reportedBy"); err != nil {
		return Report{}, err
	}
	if r.ReporterName, err = doc.OptStringField("reporterName"); err != nil {
		return Report{}, err
	}
	if r.Timestamp, err = doc.TimeField("timestamp"); err != nil {
		return Report{}, err
	}
	if r.Status, err = doc.OptStringField("status"); err != nil {
		return Report{}, err
	}
	if r.Status == "" {
		r.Status = StatusPending
	}
	if r.Latitude, err = doc.OptFloatField("latitude"); err != nil {
		return Report{}, err
	}
	if r.Longitude, err = doc.OptFloatField("longitude"); err != nil {
		return Report{}, err
	}
	return r, nil
}

func mapUpdate(doc store.Document) (Update, error) {
	u := Update{ID: doc.ID}
	var err error
	if u.CrimeReportID, err = doc.StringField(ParentField); err != nil {
		return Update{}, err
	}
	if u.Message, err = doc.StringField("message"); err != nil {
		return Update{}, err
	}
	if u.UserID, err = doc.OptStringField("userId"); err != nil {
		return Update{}, err
	}
	if u.UserName, err = doc.OptStringField("userName"); err != nil {
		return Update{}, err
	}
	if u.Timestamp, err = doc.TimeField("timestamp"); err != nil {
		return Update{}, err
	}
	return u, nil
}

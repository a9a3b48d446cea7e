package missingpersons

import (
	"time"

	"github.com/communitysafe/crimewatch/internal/pkg/store"
)

const (
	Collection        = "missing_persons"
	UpdatesCollection = "missing_person_updates"
	ParentField       = "missingPersonId"
	UploadFolder      = "missing_persons"
)

const (
	StatusMissing       = "MISSING"
	StatusInvestigating = "INVESTIGATION_ONGOING"
	StatusFound         = "FOUND"
)

// FOUND is terminal; an ongoing investigation can fall back to MISSING if
// a lead goes cold.
var allowedTransitions = map[string][]string{
	StatusMissing:       {StatusInvestigating, StatusFound},
	StatusInvestigating: {StatusFound, StatusMissing},
}

type MissingPerson struct {
	ID               string
	Name             string
	Age              int64
	Description      string
	LastSeenLocation string
	LastSeenDate     string
	ContactInfo      string
	ImageURLs        []string
	ReportedBy       string
	ReporterName     string
	Timestamp        time.Time
	Status           string
	Latitude         *float64
	Longitude        *float64
}

type Update struct {
	ID              string
	MissingPersonID string
	Message         string
	UserID          string
	UserName        string
	Timestamp       time.Time
}

type SubmitRequest struct {
	Name             string
	Age              int64
	Description      string
	LastSeenLocation string
	LastSeenDate     string
	ContactInfo      string
	Latitude         *float64
	Longitude        *float64
}

func mapMissingPerson(doc store.Document) (MissingPerson, error) {
	p := MissingPerson{ID: doc.ID}
	var err error
	if p.Name, err = doc.StringField("name"); err != nil {
		return MissingPerson{}, err
	}
	if p.Age, err = doc.IntField("age"); err != nil {
		return MissingPerson{}, err
	}
	if p.Description, err = doc.OptStringField("description"); err != nil {
		return MissingPerson{}, err
	}
	if p.LastSeenLocation, err = doc.OptStringField("lastSeenLocation"); err != nil {
		return MissingPerson{}, err
	}
	if p.LastSeenDate, err = doc.OptStringField("lastSeenDate"); err != nil {
		return MissingPerson{}, err
	}
	if p.ContactInfo, err = doc.OptStringField("contactInfo"); err != nil {
		return MissingPerson{}, err
	}
	if p.ImageURLs, err = doc.StringSliceField("imageUrls"); err != nil {
		return MissingPerson{}, err
	}
	if p.ReportedBy, err = doc.OptStringField("reportedBy"); err != nil {
		return MissingPerson{}, err
	}
	if p.ReporterName, err = doc.OptStringField("reporterName"); err != nil {
		return MissingPerson{}, err
	}
	if p.Timestamp, err = doc.TimeField("timestamp"); err != nil {
		return MissingPerson{}, err
	}
	if p.Status, err = doc.OptStringField("status"); err != nil {
		return MissingPerson{}, err
	}
	if p.Status == "" {
		p.Status = StatusMissing
	}
	if p.Latitude, err = doc.OptFloatField("latitude"); err != nil {
		return MissingPerson{}, err
	}
	if p.Longitude, err = doc.OptFloatField("longitude"); err != nil {
		return MissingPerson{}, err
	}
	return p, nil
}

func mapUpdate(doc store.Document) (Update, error) {
	u := Update{ID: doc.ID}
	var err error
	if u.MissingPersonID, err = doc.StringField(ParentField); err != nil {
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

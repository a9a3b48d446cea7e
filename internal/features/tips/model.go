package tips

import (
	"time"

	"github.com/communitysafe/crimewatch/internal/pkg/store"
)

const (
	Collection         = "community_tips"
	CommentsCollection = "community_tip_comments"
	ParentField        = "tipId"
	UploadFolder       = "community_tips"
)

const (
	StatusActive   = "ACTIVE"
	StatusResolved = "RESOLVED"
	StatusArchived = "ARCHIVED"
)

// ARCHIVED is terminal; a resolved tip can be reopened.
var allowedTransitions = map[string][]string{
	StatusActive:   {StatusResolved, StatusArchived},
	StatusResolved: {StatusArchived, StatusActive},
}

type Tip struct {
	ID           string
	Title        string
	Description  string
	Category     string
	Location     string
	ImageURLs    []string
	ReportedBy   string
	ReporterName string
	Timestamp    time.Time
	Status       string
	Latitude     *float64
	Longitude    *float64
	Likes        int64
	Views        int64
}

type Comment struct {
	ID        string
	TipID     string
	Message   string
	UserID    string
	UserName  string
	Timestamp time.Time
	Likes     int64
}

type SubmitRequest struct {
	Title       string
	Description string
	Category    string
	Location    string
	Latitude    *float64
	Longitude   *float64
}

func mapTip(doc store.Document) (Tip, error) {
	t := Tip{ID: doc.ID}
	var err error
	if t.Title, err = doc.StringField("title"); err != nil {
		return Tip{}, err
	}
	if t.Description, err = doc.OptStringField("description"); err != nil {
		return Tip{}, err
	}
	if t.Category, err = doc.OptStringField("category"); err != nil {
		return Tip{}, err
	}
	if t.Location, err = doc.OptStringField("location"); err != nil {
		return Tip{}, err
	}
	if t.ImageURLs, err = doc.StringSliceField("imageUrls"); err != nil {
		return Tip{}, err
	}
	if t.ReportedBy, err = doc.OptStringField("reportedBy"); err != nil {
		return Tip{}, err
	}
	if t.ReporterName, err = doc.OptStringField("reporterName"); err != nil {
		return Tip{}, err
	}
	if t.Timestamp, err = doc.TimeField("timestamp"); err != nil {
		return Tip{}, err
	}
	if t.Status, err = doc.OptStringField("status"); err != nil {
		return Tip{}, err
	}
	if t.Status == "" {
		t.Status = StatusActive
	}
	if t.Latitude, err = doc.OptFloatField("latitude"); err != nil {
		return Tip{}, err
	}
	if t.Longitude, err = doc.OptFloatField("longitude"); err != nil {
		return Tip{}, err
	}
	if t.Likes, err = doc.IntField("likes"); err != nil {
		return Tip{}, err
	}
	if t.Views, err = doc.IntField("views"); err != nil {
		return Tip{}, err
	}
	return t, nil
}

func mapComment(doc store.Document) (Comment, error) {
	c := Comment{ID: doc.ID}
	var err error
	if c.TipID, err = doc.StringField(ParentField); err != nil {
		return Comment{}, err
	}
	if c.Message, err = doc.StringField("message"); err != nil {
		return Comment{}, err
	}
	if c.UserID, err = doc.OptStringField("userId"); err != nil {
		return Comment{}, err
	}
	if c.UserName, err = doc.OptStringField("userName"); err != nil {
		return Comment{}, err
	}
	if c.Timestamp, err = doc.TimeField("timestamp"); err != nil {
		return Comment{}, err
	}
	if c.Likes, err = doc.IntField("likes"); err != nil {
		return Comment{}, err
	}
	return c, nil
}

package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/yesglobal/registration/api/internal/registration/domain"
)

// ApplicationDocument is the shape of an entry in the applications collection.
type ApplicationDocument struct {
	ID              primitive.ObjectID `bson:"_id"`
	FirstName       string             `bson:"firstName"`
	MiddleName      string             `bson:"middleName"`
	Surname         string             `bson:"surname"`
	Phone           string             `bson:"phone"`
	Country         string             `bson:"country"`
	PreviousProgram string             `bson:"previousProgram"`
	IntendedProgram string             `bson:"intendedProgram"`
	PaymentOption   string             `bson:"paymentOption"`
	Agreed          bool               `bson:"agreed"`
	Fee             float64            `bson:"fee"`
	IsDiscounted    bool               `bson:"isDiscounted"`
	DocumentURL     *string            `bson:"documentUrl"`
	Timestamp       time.Time          `bson:"timestamp"`
}

// FailedNotificationDocument records a notification that no channel accepted.
type FailedNotificationDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	Target      string             `bson:"target"`
	Payload     NotificationBody   `bson:"payload"`
	Error       string             `bson:"error"`
	Attempts    int                `bson:"attempts"`
	Status      string             `bson:"status"`
	CreatedAt   time.Time          `bson:"createdAt"`
	LastTriedAt time.Time          `bson:"lastTriedAt"`
}

// NotificationBody is the application summary kept for a later resend.
type NotificationBody struct {
	ApplicationID string  `bson:"applicationId"`
	Name          string  `bson:"name"`
	Country       string  `bson:"country"`
	PaymentOption string  `bson:"paymentOption"`
	Fee           float64 `bson:"fee"`
	Message       string  `bson:"message"`
}

func newApplicationDocument(record *domain.Record) ApplicationDocument {
	return ApplicationDocument{
		ID:              primitive.NewObjectID(),
		FirstName:       record.FirstName,
		MiddleName:      record.MiddleName,
		Surname:         record.Surname,
		Phone:           record.Phone,
		Country:         record.Country,
		PreviousProgram: record.PreviousProgram,
		IntendedProgram: record.IntendedProgram,
		PaymentOption:   record.PaymentOption.String(),
		Agreed:          record.Agreed,
		Fee:             record.Fee,
		IsDiscounted:    record.IsDiscounted,
		DocumentURL:     record.DocumentURL,
		Timestamp:       record.Timestamp,
	}
}

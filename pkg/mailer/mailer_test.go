package mailer

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageValidate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		msg := &Message{To: "rider@example.com", Subject: "s", HTML: "<p>hi</p>"}
		assert.NoError(t, msg.Validate())
	})

	t.Run("Bad Recipient", func(t *testing.T) {
		msg := &Message{To: "not-an-address", Subject: "s", HTML: "<p>hi</p>"}
		assert.Error(t, msg.Validate())
	})

	t.Run("Angle Brackets Rejected", func(t *testing.T) {
		msg := &Message{To: "<evil@example.com>", Subject: "s", HTML: "<p>hi</p>"}
		assert.Error(t, msg.Validate())
	})

	t.Run("Missing Content", func(t *testing.T) {
		msg := &Message{To: "rider@example.com"}
		assert.Error(t, msg.Validate())
	})
}

func TestBookingConfirmationRender(t *testing.T) {
	conf := &BookingConfirmation{
		Name:        "Jamie",
		BookingRef:  "BK-20250301-A1B2C3D4E5",
		BusName:     "Express 7",
		RouteName:   "Colombo - Kandy",
		TravelDate:  time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		SeatNumbers: []int{7, 8},
		TotalPrice:  20,
	}

	msg := conf.Render("rider@example.com")
	require.NoError(t, msg.Validate())
	assert.Equal(t, "rider@example.com", msg.To)
	assert.Contains(t, msg.Subject, "BK-20250301-A1B2C3D4E5")
	assert.Contains(t, msg.HTML, "7, 8")
	assert.Contains(t, msg.Text, "Colombo - Kandy")
}

func TestDevMailerSend(t *testing.T) {
	m := NewDevMailer(logrus.New())
	msg := (&Welcome{Name: "Jamie"}).Render("rider@example.com")
	assert.NoError(t, m.Send(msg))

	assert.Error(t, m.Send(&Message{To: "bad"}))
}

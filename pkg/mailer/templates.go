package mailer

import (
	"fmt"
	"strings"
	"time"
)

// BookingConfirmation holds everything the confirmation template needs.
type BookingConfirmation struct {
	Name        string
	BookingRef  string
	BusName     string
	RouteName   string
	TravelDate  time.Time
	SeatNumbers []int
	TotalPrice  float64
}

// Render produces the confirmation message for a completed booking
func (c *BookingConfirmation) Render(to string) *Message {
	seats := make([]string, len(c.SeatNumbers))
	for i, s := range c.SeatNumbers {
		seats[i] = fmt.Sprintf("%d", s)
	}
	seatList := strings.Join(seats, ", ")
	date := c.TravelDate.Format("Mon, 02 Jan 2006")

	html := fmt.Sprintf(`
  <div style="max-width: 600px; margin: auto; font-family: Arial, sans-serif; color: #333; line-height: 1.6;">
    <h2 style="color: #2b6cb0;">Booking Confirmed</h2>
    <p>Hi %s, your booking is confirmed.</p>
    <table style="border-collapse: collapse;">
      <tr><td style="padding: 4px 12px 4px 0;"><strong>Reference</strong></td><td>%s</td></tr>
      <tr><td style="padding: 4px 12px 4px 0;"><strong>Bus</strong></td><td>%s</td></tr>
      <tr><td style="padding: 4px 12px 4px 0;"><strong>Route</strong></td><td>%s</td></tr>
      <tr><td style="padding: 4px 12px 4px 0;"><strong>Travel date</strong></td><td>%s</td></tr>
      <tr><td style="padding: 4px 12px 4px 0;"><strong>Seats</strong></td><td>%s</td></tr>
      <tr><td style="padding: 4px 12px 4px 0;"><strong>Total</strong></td><td>%.2f</td></tr>
    </table>
    <p style="margin-top: 20px;">Safe travels,<br/><strong>The GoBus Team</strong></p>
  </div>`,
		c.Name, c.BookingRef, c.BusName, c.RouteName, date, seatList, c.TotalPrice)

	text := fmt.Sprintf(
		"Hi %s, your booking %s is confirmed. Bus: %s, Route: %s, Date: %s, Seats: %s, Total: %.2f",
		c.Name, c.BookingRef, c.BusName, c.RouteName, date, seatList, c.TotalPrice)

	return &Message{
		To:      to,
		Subject: fmt.Sprintf("GoBus booking confirmed - %s", c.BookingRef),
		HTML:    html,
		Text:    text,
	}
}

// Welcome holds the welcome template inputs.
type Welcome struct {
	Name string
}

// Render produces the welcome message for a new account
func (w *Welcome) Render(to string) *Message {
	html := fmt.Sprintf(`
  <div style="max-width: 600px; margin: auto; font-family: Arial, sans-serif; color: #333; line-height: 1.6;">
    <h2 style="color: #2b6cb0;">Welcome to GoBus, %s!</h2>
    <p>With GoBus you can book bus seats, track routes and manage your trips in one place.</p>
    <p>Safe travels,<br/><strong>The GoBus Team</strong></p>
  </div>`, w.Name)

	return &Message{
		To:      to,
		Subject: "Welcome to GoBus",
		HTML:    html,
		Text:    fmt.Sprintf("Welcome to GoBus, %s!", w.Name),
	}
}

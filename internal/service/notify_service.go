package service

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"path/filepath"
	"strings"
	"time"

	"carrental/internal/db"
	"carrental/internal/entities"
)

const dateLayout = "02 Jan 2006 15:04 MST"

// NotifyService composes and sends the single notification each
// confirmation batch produces, whatever its outcome. Delivery failures
// are logged and swallowed: by the time notification runs, the booking
// outcome is already final.
type NotifyService struct {
}

func NewNotifyService() *NotifyService {
	return &NotifyService{}
}

func (s *NotifyService) SendBatchOutcome(task entities.ConfirmationTask, reservations []db.Reservation, failure error) {
	data := entities.OutcomeEmailData{
		Renter:      renterOf(task),
		BatchID:     task.BatchID,
		Confirmed:   failure == nil,
		CurrentYear: time.Now().UTC().Year(),
	}
	if failure != nil {
		data.FailReason = failure.Error()
	}
	for _, q := range task.Quotes {
		data.Lines = append(data.Lines, entities.OutcomeLine{
			Company:            q.RentalCompany,
			CarType:            q.CarType,
			StartDateFormatted: q.StartDate.UTC().Format(dateLayout),
			EndDateFormatted:   q.EndDate.UTC().Format(dateLayout),
			Price:              q.RentalPrice,
		})
	}

	var subject string
	var body strings.Builder
	if data.Confirmed {
		subject = fmt.Sprintf("Your car reservations are confirmed - Batch %s", task.BatchID)
		fmt.Fprintf(&body, "Hello %s,\n\nAll %d of your quotes were confirmed.\n\n", data.Renter, len(task.Quotes))
	} else {
		subject = fmt.Sprintf("Your car reservation request failed - Batch %s", task.BatchID)
		fmt.Fprintf(&body, "Hello %s,\n\nNone of the quotes in your request could be confirmed.\nReason: %s\n\n", data.Renter, data.FailReason)
	}
	for _, line := range data.Lines {
		fmt.Fprintf(&body, "- %s %s, %s to %s: %.2f\n",
			line.Company, line.CarType, line.StartDateFormatted, line.EndDateFormatted, line.Price)
	}
	body.WriteString("\nThank you for choosing CarRental.\n")

	htmlBody := s.renderHTML(data)

	go func(toEmail, toName, subject, plainBody, htmlBody string) {
		if err := SendEmailWithSendGrid(toEmail, toName, subject, plainBody, htmlBody); err != nil {
			log.Printf("WARNING (async): outcome email for batch %s failed: %v", data.BatchID, err)
		}
	}(task.NotifyAddress, data.Renter, subject, body.String(), htmlBody)

	if task.NotifyPhone != "" {
		s.sendOutcomeSMS(task, data.Confirmed)
	}
}

func (s *NotifyService) renderHTML(data entities.OutcomeEmailData) string {
	tmplPath := filepath.Join("internal", "templates", "batch_outcome_email.html")
	tmpl, err := template.ParseFiles(tmplPath)
	if err != nil {
		log.Printf("WARNING: error parsing outcome email template (%s): %v", tmplPath, err)
		return ""
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		log.Printf("WARNING: error executing outcome email template for batch %s: %v", data.BatchID, err)
		return ""
	}
	return buf.String()
}

func (s *NotifyService) sendOutcomeSMS(task entities.ConfirmationTask, confirmed bool) {
	outcome := "confirmed"
	if !confirmed {
		outcome = "NOT confirmed"
	}
	smsMessage := fmt.Sprintf("CarRental: your booking request (%d quotes) was %s.\nDetails in your email.",
		len(task.Quotes), outcome)
	if err := SendSMS(task.NotifyPhone, smsMessage); err != nil {
		log.Printf("WARNING: batch %s resolved, but the outcome SMS to %s failed: %v",
			task.BatchID, task.NotifyPhone, err)
	}
}

func renterOf(task entities.ConfirmationTask) string {
	if len(task.Quotes) > 0 {
		return task.Quotes[0].Renter
	}
	return task.NotifyAddress
}

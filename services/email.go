package services

import (
	"fmt"
	"net/smtp"
	"time"

	"civicsense-be/config"
	"civicsense-be/models"
)

// Notification carries everything the citizen-facing mails reference.
type Notification struct {
	To          string
	ComplaintID string
	IssueType   models.IssueType
	Area        string
	City        string
	Department  string
}

// Notifier delivers notifications to reporters. Delivery failure is reported
// as an error but never rolls back the state change that triggered it.
type Notifier interface {
	SendAcknowledgment(n Notification) error
	SendResolution(n Notification) error
}

// SMTPNotifier sends HTML mail through a plain SMTP relay.
type SMTPNotifier struct{}

func NewSMTPNotifier() *SMTPNotifier {
	return &SMTPNotifier{}
}

func (m *SMTPNotifier) SendAcknowledgment(n Notification) error {
	place := n.Area
	if place == "" || place == config.UnknownArea {
		place = n.City
	}
	subject := fmt.Sprintf("Complaint %s Received - CivicSense", n.ComplaintID)
	body := fmt.Sprintf(`<html><body style="font-family:Arial,sans-serif;color:#475569">
<h2>Complaint Received</h2>
<p>Dear Citizen,</p>
<p>Your complaint for <strong>%s</strong> in <strong>%s</strong> has been successfully registered. Our team will review it shortly.</p>
<p style="font-size:22px;font-family:monospace;color:#2563eb"><strong>%s</strong></p>
<p>Save this ID to track your complaint anytime on our platform.</p>
<p><strong>CivicSense</strong> - Smart Civic Issue Reporting Platform</p>
</body></html>`, n.IssueType, place, n.ComplaintID)

	return m.send(n.To, subject, body)
}

func (m *SMTPNotifier) SendResolution(n Notification) error {
	location := n.City
	if n.Area != "" && n.Area != config.UnknownArea {
		location = n.Area + ", " + n.City
	}
	department := ""
	if n.Department != "" {
		department = fmt.Sprintf("<p>Resolved by: <strong>%s</strong></p>", n.Department)
	}
	subject := fmt.Sprintf("Your Complaint %s Has Been Resolved - CivicSense", n.ComplaintID)
	body := fmt.Sprintf(`<html><body style="font-family:Arial,sans-serif;color:#475569">
<h2>Issue Resolved</h2>
<p>Dear Citizen,</p>
<p>Your civic complaint has been <strong>successfully resolved</strong> by the concerned department. Thank you for helping make our city better!</p>
<p>Complaint ID: <strong style="font-family:monospace;color:#3b82f6">%s</strong><br>
Issue Type: <strong>%s</strong><br>
Location: <strong>%s</strong><br>
Resolution Date: <strong>%s</strong></p>
%s
<p>If you feel the issue has not been adequately resolved, you can report it again through our platform.</p>
<p><strong>CivicSense</strong> - Smart Civic Issue Reporting Platform</p>
</body></html>`, n.ComplaintID, n.IssueType, location, time.Now().Format("02 January 2006"), department)

	return m.send(n.To, subject, body)
}

func (m *SMTPNotifier) send(to, subject, body string) error {
	host := config.GetEnv("SMTP_HOST", "")
	port := config.GetEnv("SMTP_PORT", "587")
	username := config.GetEnv("SMTP_USERNAME", "")
	password := config.GetEnv("SMTP_PASSWORD", "")
	sender := config.GetEnv("SMTP_SENDER", "")

	if host == "" {
		return fmt.Errorf("SMTP_HOST is not configured")
	}
	if sender == "" {
		sender = username
	}

	var auth smtp.Auth
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	msg := []byte(
		fmt.Sprintf("From: \"CivicSense\" <%s>\r\nTo: %s\r\nSubject: %s\r\n", sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			body,
	)

	return smtp.SendMail(host+":"+port, auth, sender, []string{to}, msg)
}

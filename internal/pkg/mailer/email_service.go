package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendPaymentReceipt(toEmail, planName, amount, reference string) error
	SendCancellationNotice(toEmail, planName string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
}

func NewEmailService(host string, port int, username, password, senderEmail string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
	}
}

func (s *emailService) SendPaymentReceipt(toEmail, planName, amount, reference string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Your Payment Receipt")

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Thanks for your purchase!</h2>
			<p>Your subscription to <strong>%s</strong> is confirmed.</p>
			<p>Amount: %s</p>
			<p>Bank reference: <strong>%s</strong></p>
			<p>Keep this reference for your records.</p>
		</div>
	`, planName, amount, reference)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send receipt to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Receipt sent to %s\n", toEmail)
	return nil
}

func (s *emailService) SendCancellationNotice(toEmail, planName string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Subscription Cancelled")

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Subscription Cancelled</h2>
			<p>Your <strong>%s</strong> subscription has been cancelled and access ends now.</p>
			<p>You can re-subscribe at any time from the plans page.</p>
		</div>
	`, planName)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send cancellation notice to %s: %v\n", toEmail, err)
		return err
	}

	return nil
}

package notify

import "fmt"

const otpSubject = "Your verification code"

// OTPEmail renders the verification email for the given user and code.
func OTPEmail(from, to, name, code string) Email {
	body := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <h2 style="color: #4CAF50;">Hello, %s!</h2>
  <p>Use the code below to verify your account:</p>
  <div style="font-size: 24px; font-weight: bold; margin: 20px 0; padding: 10px; border: 2px dashed #4CAF50; display: inline-block;">%s</div>
  <p style="font-size: 14px; color: #777;">If you did not request this code, please ignore this email.</p>
</div>`, name, code)

	return Email{
		From:    from,
		To:      to,
		Subject: otpSubject,
		Body:    body,
	}
}

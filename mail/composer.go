package mail

import (
	"fmt"
	"net/url"
)

// Composer builds the emails that carry ephemeral tokens to the frontend.
type Composer struct {
	appName     string
	frontendURL string
}

func NewComposer(appName, frontendURL string) *Composer {
	return &Composer{appName: appName, frontendURL: frontendURL}
}

func (c *Composer) EmailVerification(to, token string) Message {
	link := c.link("/auth/verify-email", token)
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Verify your %s email", c.appName),
		Body:    fmt.Sprintf("Confirm your email address to finish signing up:\n\n%s\n\nThe link expires in 10 minutes.", link),
	}
}

func (c *Composer) MagicLink(to, token string) Message {
	link := c.link("/auth/magic-link", token)
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Your %s sign-in link", c.appName),
		Body:    fmt.Sprintf("Use this link to sign in:\n\n%s\n\nIt can be used once and expires in 10 minutes.", link),
	}
}

func (c *Composer) PasswordReset(to, token string) Message {
	link := c.link("/auth/reset-password", token)
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Reset your %s password", c.appName),
		Body:    fmt.Sprintf("Choose a new password here:\n\n%s\n\nIf you did not ask for this, ignore this email.", link),
	}
}

func (c *Composer) link(path, token string) string {
	return fmt.Sprintf("%s%s?token=%s", c.frontendURL, path, url.QueryEscape(token))
}

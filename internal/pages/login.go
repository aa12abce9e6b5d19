package pages

import (
	"context"

	"github.com/ternarybob/realworld-e2e/internal/browser"
)

// LoginPage is the sign-in screen
type LoginPage struct {
	page
}

func NewLoginPage(site *Site) *LoginPage {
	p := &LoginPage{page: page{site: site, screen: ScreenLogin, path: "/login"}}
	p.load = func(ctx context.Context) error {
		return site.Driver.WaitVisible(ctx, browser.CSS(selEmailInput))
	}
	return p
}

// Login submits the credentials and returns the home screen the app redirects to
func (p *LoginPage) Login(ctx context.Context, email, password string) (*HomePage, error) {
	err := p.site.step("Login with email: "+email, func() error {
		if p.site.Logger != nil {
			p.site.Logger.Info().Str("email", email).Msg("Logging in")
		}
		drv := p.site.Driver
		if err := drv.SetValue(ctx, browser.CSS(selEmailInput), email); err != nil {
			return err
		}
		if err := drv.SetValue(ctx, browser.CSS(selPasswordInput), password); err != nil {
			return err
		}
		return drv.Click(ctx, browser.CSS(selSubmitButton))
	})
	if err != nil {
		return nil, err
	}
	return NewHomePage(p.site), nil
}

// ErrorMessage waits for and returns the login error text
func (p *LoginPage) ErrorMessage(ctx context.Context) (string, error) {
	return p.site.text(ctx, browser.CSS(selErrorMessages))
}

func (p *LoginPage) IsErrorDisplayed(ctx context.Context) bool {
	visible, err := p.site.Driver.Visible(ctx, browser.CSS(selErrorMessages))
	return err == nil && visible
}

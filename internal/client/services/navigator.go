package services

// Screen names a page of the app.
type Screen string

const (
	ScreenIndex     Screen = "index"
	ScreenSignIn    Screen = "signIn"
	ScreenSignUp    Screen = "signUp"
	ScreenDashboard Screen = "dashboard"
)

var screenPaths = map[Screen]string{
	ScreenIndex:     "index.html",
	ScreenSignIn:    "sign-in.html",
	ScreenSignUp:    "sign-up.html",
	ScreenDashboard: "Dashboard.html",
}

// ScreenPath returns the page path of s, or the index page for unknown
// screens.
func ScreenPath(s Screen) string {
	if p, ok := screenPaths[s]; ok {
		return p
	}
	return screenPaths[ScreenIndex]
}

// Navigator moves the user to another page.
type Navigator interface {
	Go(target string)
}

// NopNavigator ignores navigation.
type NopNavigator struct{}

func (NopNavigator) Go(string) {}

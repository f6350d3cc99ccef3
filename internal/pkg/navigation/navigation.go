// Package navigation describes the app's screens, the links between them and
// which screens a signed-in or signed-out visitor may see.
package navigation

import "time"

// Screen identifies one page of the app.
type Screen string

const (
	Splash       Screen = "splash"
	Login        Screen = "login"
	SignUp       Screen = "signup"
	Home         Screen = "home"
	SubmitReport Screen = "submit_report"
	ReportDetail Screen = "report_detail"
	ReportList   Screen = "report_list"
	Profile      Screen = "profile"
)

// SplashDelay is how long the splash screen stays up before AfterSplash decides.
const SplashDelay = 2 * time.Second

// Screens lists every screen in declaration order.
var Screens = []Screen{Splash, Login, SignUp, Home, SubmitReport, ReportDetail, ReportList, Profile}

var paths = map[Screen]string{
	Splash:       "/",
	Login:        "/login",
	SignUp:       "/signup",
	Home:         "/home",
	SubmitReport: "/reports/new",
	ReportDetail: "/reports/:id",
	ReportList:   "/reports",
	Profile:      "/profile",
}

var titles = map[Screen]string{
	Splash:       "Reakage",
	Login:        "Login",
	SignUp:       "Sign Up",
	Home:         "Home",
	SubmitReport: "Submit Report",
	ReportDetail: "Report",
	ReportList:   "My Reports",
	Profile:      "Profile",
}

// transitions is the set of screens reachable from each screen.
var transitions = map[Screen][]Screen{
	Splash:       {Home, Login},
	Login:        {SignUp, Home},
	SignUp:       {Login, Home},
	Home:         {SubmitReport, ReportList, Profile},
	SubmitReport: {Home},
	ReportList:   {Home, Profile, ReportDetail},
	ReportDetail: {ReportList},
	Profile:      {Home, ReportList, Login},
}

// Path returns the route of s.
func (s Screen) Path() string {
	return paths[s]
}

// Title returns the display title of s.
func (s Screen) Title() string {
	return titles[s]
}

// RequiresAuth reports whether s is only shown to signed-in users.
func (s Screen) RequiresAuth() bool {
	switch s {
	case Home, SubmitReport, ReportDetail, ReportList, Profile:
		return true
	}
	return false
}

// GuestOnly reports whether s is only shown to signed-out users.
func (s Screen) GuestOnly() bool {
	return s == Login || s == SignUp
}

// Next returns the screens reachable from s.
func Next(s Screen) []Screen {
	out := make([]Screen, len(transitions[s]))
	copy(out, transitions[s])
	return out
}

// Allowed reports whether the app may move from one screen to another.
func Allowed(from, to Screen) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Gate returns the screen to show when a visitor asks for s. It is s itself
// unless the visitor's sign-in state forbids it.
func Gate(s Screen, signedIn bool) Screen {
	switch {
	case s.RequiresAuth() && !signedIn:
		return Login
	case s.GuestOnly() && signedIn:
		return Home
	}
	return s
}

// AfterSplash returns where the splash screen leads.
func AfterSplash(signedIn bool) Screen {
	if signedIn {
		return Home
	}
	return Login
}

// AfterSignOut returns where a sign-out leads.
func AfterSignOut() Screen {
	return Login
}

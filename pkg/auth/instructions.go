package auth

import (
	"fmt"
	"io"
	"strings"

	"tapestry-archive/pkg/tapestry"
)

// ShowCookieExtractionGuide writes step-by-step instructions for copying
// the session cookie out of a browser
func ShowCookieExtractionGuide(w io.Writer) {
	rule := strings.Repeat("=", 72)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "🍪 TAPESTRY SESSION COOKIE")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "This tool signs in with the session cookie of a logged-in browser.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "🌐 STEP 1: Sign in to Tapestry in your browser")
	fmt.Fprintln(w, "   - Open "+tapestry.DefaultBaseURL+" and log in as usual")
	fmt.Fprintln(w, "   - Note the school slug in the address bar: /s/<school>/...")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "🔧 STEP 2: Open Developer Tools")
	fmt.Fprintln(w, "   • Chrome/Edge/Firefox: F12 or Ctrl+Shift+I (Cmd+Option+I on Mac)")
	fmt.Fprintln(w, "   • Safari: enable the Develop menu, then Cmd+Option+I")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "🔑 STEP 3: Copy the cookie")
	fmt.Fprintln(w, "   - Application tab (Chrome) or Storage tab (Firefox) → Cookies")
	fmt.Fprintf(w, "   - Select the Tapestry site and copy the value of %q\n", tapestry.CookieName)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "💡 TIPS:")
	fmt.Fprintln(w, "   • Copy only the value, without quotes or semicolons")
	fmt.Fprintln(w, "   • Logging out in the browser ends the session and the cookie with it")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "⚠️  The cookie gives full access to your account. Never share it.")
	fmt.Fprintln(w, rule)
}

// ShowQuickExtractGuide is the condensed version
func ShowQuickExtractGuide(w io.Writer) {
	fmt.Fprintf(w, "\n🍪 F12 → Application/Storage → Cookies → copy %q\n", tapestry.CookieName)
	fmt.Fprintln(w, "   Type 'help' for detailed instructions")
}

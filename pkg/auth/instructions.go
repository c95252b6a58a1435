package auth

import (
	"fmt"
	"strings"
)

// ShowCookieExtractionGuide explains how to copy the X session cookies
func ShowCookieExtractionGuide() {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("🍪 X SESSION COOKIE GUIDE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	fmt.Println("tmu drives a browser logged in as you. It needs two cookies from a")
	fmt.Println("browser where you are already signed in to x.com.")
	fmt.Println()

	fmt.Println("🌐 STEP 1: Open https://x.com and log in")
	fmt.Println()

	fmt.Println("🔧 STEP 2: Open Developer Tools")
	fmt.Println("   • Chrome/Edge/Brave: F12 or Ctrl+Shift+I (Cmd+Option+I on Mac)")
	fmt.Println("   • Firefox: F12 or Ctrl+Shift+I (Cmd+Option+I on Mac)")
	fmt.Println()

	fmt.Println("📦 STEP 3: Application (Chrome) or Storage (Firefox) → Cookies → https://x.com")
	fmt.Println()

	fmt.Println("🔑 STEP 4: Copy these values:")
	fmt.Println("   ┌─────────────┬──────────────────────────────────────────────┐")
	fmt.Println("   │ Cookie Name │ What it looks like                           │")
	fmt.Println("   ├─────────────┼──────────────────────────────────────────────┤")
	fmt.Println("   │ auth_token  │ 40 hex characters                            │")
	fmt.Println("   ├─────────────┼──────────────────────────────────────────────┤")
	fmt.Println("   │ ct0         │ long hex string (CSRF token)                 │")
	fmt.Println("   └─────────────┴──────────────────────────────────────────────┘")
	fmt.Println()

	fmt.Println("⚠️  SECURITY WARNING:")
	fmt.Println("   • auth_token gives FULL access to your account")
	fmt.Println("   • NEVER share it; tmu stores it in your keychain or an encrypted file")
	fmt.Println("   • Logging out of x.com invalidates it")
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()
}

// ShowQuickExtractGuide shows a condensed version for experienced users
func ShowQuickExtractGuide() {
	fmt.Println("\n🍪 Quick Guide: F12 → Application → Cookies → https://x.com")
	fmt.Println("   Need: auth_token and ct0")
	fmt.Println("   Run 'tmu auth login --help-cookies' for detailed instructions")
}

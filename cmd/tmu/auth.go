package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tmu/pkg/auth"
	"tmu/pkg/ui"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage X session cookies",
	Long: `Manage the X session cookies tmu logs in with.

Cookies are kept in the system keychain when one is available, otherwise in
an AES-GCM encrypted file under your config directory. TMU_AUTH_TOKEN and
TMU_CT0 are read as a read-only fallback.`,
}

var loginCmd = &cobra.Command{
	Use:   "login [handle]",
	Short: "Save the auth_token and ct0 cookies for a handle",
	Example: `  tmu auth login
  tmu auth login myhandle`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout [handle]",
	Short: "Forget stored cookies",
	Long:  `Forget the cookies for a handle. Without a handle, pick from a menu.`,
	Args:  cobra.MaximumNArgs(1),
	Run:   runLogout,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts with masked cookies",
	Run:   runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd, logoutCmd, listCmd)
}

// prompter reads interactive answers. Secrets skip echo when in is a TTY
type prompter struct {
	r   *bufio.Reader
	out io.Writer
	fd  int
}

func newPrompter(in *os.File) *prompter {
	return &prompter{r: bufio.NewReader(in), out: os.Stdout, fd: int(in.Fd())}
}

func (p *prompter) ask(question string) string {
	fmt.Fprint(p.out, question)
	line, _ := p.r.ReadString('\n')
	return strings.TrimSpace(line)
}

// confirm is true only for an answer starting with y
func (p *prompter) confirm(question string) bool {
	return strings.HasPrefix(strings.ToLower(p.ask(question+" (y/N): ")), "y")
}

// declined is true only for an explicit n; empty defaults to yes
func (p *prompter) declined(question string) bool {
	return strings.EqualFold(p.ask(question+" (Y/n): "), "n")
}

func (p *prompter) secret(question string) (string, error) {
	fmt.Fprint(p.out, question)
	if p.fd >= 0 && term.IsTerminal(p.fd) {
		b, err := term.ReadPassword(p.fd)
		fmt.Fprintln(p.out)
		if err == nil {
			return strings.TrimSpace(string(b)), nil
		}
	}
	line, err := p.r.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// cookieRule describes what a plausible cookie value looks like
type cookieRule struct {
	name  string
	valid func(string) bool
	hint  string
}

var (
	authTokenRule = cookieRule{
		name:  auth.CookieAuthToken,
		valid: func(v string) bool { return len(v) == 40 && isHex(v) },
		hint:  "It should be 40 hexadecimal characters.",
	}
	csrfRule = cookieRule{
		name:  auth.CookieCSRF,
		valid: func(v string) bool { return len(v) >= 32 && isHex(v) },
		hint:  "It should be a long hexadecimal string.",
	}
)

// cookie keeps asking until the value passes rule or the user gives up
func (p *prompter) cookie(rule cookieRule) (string, error) {
	for {
		v, err := p.secret(rule.name + " cookie value: ")
		if err != nil {
			return "", fmt.Errorf("read %s: %w", rule.name, err)
		}
		if rule.valid(v) {
			return v, nil
		}
		fmt.Fprintf(p.out, "\n❌ That doesn't look like a valid %s.\n   %s\n\n", rule.name, rule.hint)
		if p.declined("Try again?") {
			return "", fmt.Errorf("no valid %s entered", rule.name)
		}
	}
}

func isHex(s string) bool {
	return s != "" && strings.Trim(s, "0123456789abcdefABCDEF") == ""
}

func newManager() *auth.Manager {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}
	return manager
}

func runLogin(cmd *cobra.Command, args []string) {
	manager := newManager()
	p := newPrompter(os.Stdin)

	auth.ShowCookieExtractionGuide()
	if p.declined("Ready to enter your cookies?") {
		fmt.Println("\nRun 'tmu auth login' when you're ready.")
		return
	}

	var handle string
	if len(args) > 0 {
		handle = args[0]
	} else {
		handle = p.ask("\nX handle: @")
	}
	if handle = auth.NormalizeHandle(handle); handle == "" {
		ui.PrintError("Handle is required")
		os.Exit(1)
	}
	if existing, _ := manager.Retrieve(handle); existing != nil &&
		!p.confirm(fmt.Sprintf("\n⚠️  Account '@%s' already exists. Update cookies?", handle)) {
		return
	}

	fmt.Println("\n🔐 Enter your cookie values (hidden as you type):")
	account := &auth.Account{Handle: handle}
	var err error
	if account.AuthToken, err = p.cookie(authTokenRule); err == nil {
		account.CSRFToken, err = p.cookie(csrfRule)
	}
	if err != nil {
		ui.PrintError("Login aborted", err.Error())
		os.Exit(1)
	}
	account.UserAgent = p.ask("\n🌐 User Agent (press Enter to use default): ")

	if err := manager.Store(account); err != nil {
		ui.PrintError("Failed to store cookies", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess(fmt.Sprintf("Account saved: @%s (auth_token %s, ct0 %s)",
		handle, maskSecret(account.AuthToken), maskSecret(account.CSRFToken)))

	fmt.Println("\nNext steps:")
	fmt.Println("   tmu run --demo              # dry run, nothing is clicked")
	fmt.Println("   tmu run --not-following     # only accounts that don't follow back")
	fmt.Printf("   tmu run --account %s\n", handle)
}

func runLogout(cmd *cobra.Command, args []string) {
	manager := newManager()
	p := newPrompter(os.Stdin)

	remove := func(handle string) {
		if err := manager.Delete(handle); err != nil {
			ui.PrintError("Failed to remove account", err.Error())
			os.Exit(1)
		}
		ui.PrintSuccess("Account removed: @" + handle)
	}

	if len(args) > 0 {
		remove(auth.NormalizeHandle(args[0]))
		return
	}

	accounts, err := manager.List()
	if err != nil || len(accounts) == 0 {
		ui.PrintError("No stored accounts found")
		return
	}
	if len(accounts) == 1 {
		if p.confirm(fmt.Sprintf("Remove account '@%s'?", accounts[0].Handle)) {
			remove(accounts[0].Handle)
		}
		return
	}

	fmt.Println("Select account to remove:")
	for i, a := range accounts {
		fmt.Printf("  %d. @%s\n", i+1, a.Handle)
	}
	all := len(accounts) + 1
	fmt.Printf("  %d. Remove all accounts\n  0. Cancel\n\n", all)

	choice, err := strconv.Atoi(p.ask("Choice: "))
	switch {
	case err != nil || choice < 0 || choice > all:
		ui.PrintError("Invalid choice")
		os.Exit(1)
	case choice == 0:
	case choice == all:
		if p.ask("Remove ALL accounts? This cannot be undone! (yes/N): ") != "yes" {
			return
		}
		if err := manager.DeleteAll(); err != nil {
			ui.PrintError("Failed to remove all accounts", err.Error())
			os.Exit(1)
		}
		ui.PrintSuccess("All accounts removed")
	default:
		remove(accounts[choice-1].Handle)
	}
}

func runList(cmd *cobra.Command, args []string) {
	accounts, err := newManager().List()
	if err != nil {
		ui.PrintError("Failed to list accounts", err.Error())
		os.Exit(1)
	}
	if len(accounts) == 0 {
		ui.PrintInfo("No stored accounts", "Use 'tmu auth login' to add an account")
		return
	}

	ui.PrintHighlight("Stored Accounts")
	for i, a := range accounts {
		r := a.Redacted()
		fmt.Printf("\n%d. @%s\n", i+1, r.Handle)
		ui.PrintInfo("   auth_token", r.AuthToken)
		ui.PrintInfo("   ct0", r.CSRFToken)
		if r.UserAgent != "" {
			ui.PrintInfo("   user agent", r.UserAgent)
		}
		ui.PrintInfo("   modified", r.LastModified.Local().Format("2006-01-02 15:04:05"))
	}
}

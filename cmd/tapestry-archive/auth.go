package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"tapestry-archive/pkg/auth"
	"tapestry-archive/pkg/config"
	"tapestry-archive/pkg/logger"
	"tapestry-archive/pkg/ratelimit"
	"tapestry-archive/pkg/tapestry"
	"tapestry-archive/pkg/ui"
)

var (
	verifyLogin bool
	fullGuide   bool
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored session cookies",
	Long: `Manage stored Tapestry session cookies, one per school.

Cookies are stored using:
  - the system keychain (when available)
  - an encrypted file with a PBKDF2-derived key (TAPESTRY_PASSPHRASE
    overrides the generated passphrase)
  - TAPESTRY_SCHOOL and TAPESTRY_COOKIE_VALUE (read only)

Never share your cookie or config files!`,
}

var loginCmd = &cobra.Command{
	Use:   "login [school]",
	Short: "Store a session cookie",
	Long: `Store the session cookie of a logged-in browser.

You will be prompted for the school slug (if not given), the child's name
and the tapestry_session cookie value, which is hidden as you type.`,
	Example: `  tapestry-archive auth login
  tapestry-archive auth login oak-tree --verify=false`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout [school]",
	Short: "Remove a stored session cookie",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts",
	Long:  `List stored accounts with the cookie masked.`,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd, logoutCmd, listCmd)
	loginCmd.Flags().BoolVar(&verifyLogin, "verify", true, "check the cookie against the site before saving it")
	loginCmd.Flags().BoolVar(&fullGuide, "guide", false, "show step by step instructions for finding the cookie")
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)
	out := cmd.OutOrStdout()

	if fullGuide {
		auth.ShowCookieExtractionGuide(out)
	} else {
		auth.ShowQuickExtractGuide(out)
	}

	account := &auth.Account{}
	if len(args) > 0 {
		account.School = strings.TrimSpace(args[0])
	}
	if account.School == "" {
		account.School = prompt(reader, out, "🏫 School slug: ")
	}
	if account.School == "" {
		return errors.New("school is required")
	}

	if existing, _ := manager.Retrieve(account.School); existing != nil {
		answer := prompt(reader, out, fmt.Sprintf("\n⚠️  A cookie for '%s' is already stored. Replace it? (y/N): ", account.School))
		if !strings.HasPrefix(strings.ToLower(answer), "y") {
			return nil
		}
		account.Name = existing.Name
	}

	if name := prompt(reader, out, "👶 Child's name (optional, for the journal heading): "); name != "" {
		account.Name = name
	}

	fmt.Fprint(out, "🔐 tapestry_session cookie value (hidden): ")
	account.CookieValue, err = readSecret(reader)
	fmt.Fprintln(out)
	if err != nil {
		return fmt.Errorf("failed to read cookie: %w", err)
	}

	if verifyLogin {
		fmt.Fprintln(out, "\n🔎 Checking the cookie...")
		if err := verifyAccount(cmd.Context(), account); err != nil {
			return fmt.Errorf("the site did not accept this cookie: %w", err)
		}
	}

	if err := manager.Store(account); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	ui.PrintSuccess(fmt.Sprintf("\n✅ Cookie saved for %s", account.School))
	fmt.Fprintln(out, "\n📖 Next: tapestry-archive fetch")
	return nil
}

// verifyAccount asks for the first page of the listing with the account's
// cookie
func verifyAccount(ctx context.Context, account *auth.Account) error {
	authCtx, err := account.AuthContext()
	if err != nil {
		return err
	}

	base := tapestry.DefaultBaseURL
	if cfg, err := config.Load(configFile, nil); err == nil {
		base = cfg.Tapestry.BaseURL
	}

	client := tapestry.NewClient(base, 30*time.Second, ratelimit.Unlimited(), logger.NewNopLogger())
	for _, err := range client.Observations(ctx, authCtx) {
		// the first observation or the first error settles it
		return err
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	var school string
	if len(args) > 0 {
		school = args[0]
	} else {
		account, err := manager.RetrieveDefault()
		if err != nil {
			return errors.New("no stored accounts found")
		}
		answer := prompt(bufio.NewReader(os.Stdin), cmd.OutOrStdout(), fmt.Sprintf("Remove the cookie for '%s'? (y/N): ", account.School))
		if !strings.HasPrefix(strings.ToLower(answer), "y") {
			return nil
		}
		school = account.School
	}

	if err := manager.Delete(school); err != nil {
		return err
	}
	ui.PrintSuccess("Removed the cookie for " + school)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return err
	}
	printAccounts(cmd.OutOrStdout(), accounts)
	return nil
}

func printAccounts(out io.Writer, accounts []*auth.Account) {
	if len(accounts) == 0 {
		fmt.Fprintln(out, "No stored accounts. Run 'tapestry-archive auth login'.")
		return
	}

	fmt.Fprintf(out, "%-24s %-16s %-14s %s\n", "SCHOOL", "NAME", "COOKIE", "SAVED")
	for i, account := range accounts {
		masked := auth.SanitizeAccount(account)
		marker := ""
		if i == 0 {
			marker = " (default)"
		}
		fmt.Fprintf(out, "%-24s %-16s %-14s %s%s\n",
			masked.School, masked.Name, masked.CookieValue,
			masked.LastModified.Format("2006-01-02 15:04"), marker)
	}
}

func prompt(reader *bufio.Reader, out io.Writer, question string) string {
	fmt.Fprint(out, question)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

// readSecret reads without echo from a terminal, or a plain line when
// stdin is piped
func readSecret(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

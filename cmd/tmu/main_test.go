package main

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tmu/pkg/auth"
	"tmu/pkg/config"
	"tmu/pkg/page"
)

func TestCookieDomain(t *testing.T) {
	tests := []struct {
		baseURL string
		want    string
	}{
		{"https://x.com", ".x.com"},
		{"https://www.x.com/", ".x.com"},
		{"https://twitter.com", ".twitter.com"},
		{"not a url", ".x.com"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cookieDomain(tt.baseURL), tt.baseURL)
	}
}

func TestBrowserOptions(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Retry.MaxAttempts = 4
	account := &auth.Account{Handle: "me", AuthToken: "tok", CSRFToken: "csrf", UserAgent: "agent/1.0"}

	opts := browserOptions(cfg, account)

	assert.Equal(t, "agent/1.0", opts.UserAgent)
	assert.Equal(t, 4, opts.RetryAttempts)
	assert.Equal(t, 30*time.Second, opts.NavigationTimeout)
	assert.ElementsMatch(t, []page.Cookie{
		{Name: auth.CookieAuthToken, Value: "tok", Domain: ".x.com"},
		{Name: auth.CookieCSRF, Value: "csrf", Domain: ".x.com"},
	}, opts.Cookies)
}

func TestResolveAccountFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.X.Handle = "@Me"
	cfg.X.AuthToken = "tok"
	cfg.X.CSRFToken = "csrf"

	account, err := resolveAccount(cfg)
	assert.NoError(t, err)
	assert.Equal(t, "me", account.Handle)
	assert.Equal(t, "tok", account.AuthToken)
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", maskSecret(""))
	assert.Equal(t, "***", maskSecret("short"))
	assert.Equal(t, "abcd...6789", maskSecret("abcdef0123456789"))
}

func TestIsHex(t *testing.T) {
	assert.True(t, isHex("0123456789abcdefABCDEF"))
	assert.False(t, isHex("xyz"))
}

func testPrompter(input string) (*prompter, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &prompter{r: bufio.NewReader(strings.NewReader(input)), out: out, fd: -1}, out
}

func TestPrompterConfirm(t *testing.T) {
	p, out := testPrompter("yes\n\nn\n")
	assert.True(t, p.confirm("Remove?"))
	assert.False(t, p.confirm("Remove?"))
	assert.True(t, p.declined("Ready?"))
	assert.Contains(t, out.String(), "Remove? (y/N): ")
}

func TestPrompterCookieRetries(t *testing.T) {
	valid := "0123456789abcdef0123456789abcdef01234567"
	p, out := testPrompter("nothex\n\n" + valid + "\n")

	v, err := p.cookie(authTokenRule)
	require.NoError(t, err)
	assert.Equal(t, valid, v)
	assert.Contains(t, out.String(), "40 hexadecimal characters")
}

func TestPrompterCookieGivesUp(t *testing.T) {
	p, _ := testPrompter("short\nn\n")
	_, err := p.cookie(csrfRule)
	assert.Error(t, err)
}

package page

import (
	"context"
	"strings"
	"time"
)

// Control is one clickable element on the host page
type Control interface {
	// Label returns the element's accessible label
	Label() (string, error)
	// Click activates the element
	Click() error
}

// Container reports the geometry of the list container
type Container struct {
	OffsetHeight int
	ClientHeight int
}

// ScrollTarget is where the document is scrolled to request more items
func (c Container) ScrollTarget() int {
	return c.OffsetHeight + c.ClientHeight
}

// Adapter isolates every interaction with the host page. Element handles
// returned by it are valid for one filtering pass only
type Adapter interface {
	// IsTargetPage reports whether the current address is a following list
	IsTargetPage() bool
	// ContentHeight returns the document's total scrollable height
	ContentHeight() (int, error)
	// ListContainer returns the list container, or nil when it is absent
	ListContainer() (*Container, error)
	// ActionableControls returns every unfollow control currently rendered
	ActionableControls() ([]Control, error)
	// UsernameOf derives the normalized username for a control
	UsernameOf(c Control) (string, error)
	// FollowsBack reports whether the control's row shows a "Follows you" badge
	FollowsBack(c Control) (bool, error)
	// ScrollTo starts a smooth scroll to the given offset and returns immediately
	ScrollTo(top int) error
	// ScrollBy scrolls the document by dy pixels
	ScrollBy(dy int) error
	// WaitForConfirm waits up to timeout for the confirmation button and
	// returns nil when it does not appear
	WaitForConfirm(ctx context.Context, timeout time.Duration) (Control, error)
	// Reload reloads the page, ending the current page lifetime
	Reload(ctx context.Context) error
}

// NormalizeUsername lower-cases an accessible label and removes everything
// up to and including its first "@". Labels without "@" are returned
// lower-cased
func NormalizeUsername(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	if _, after, found := strings.Cut(label, "@"); found {
		return strings.TrimSpace(after)
	}
	return label
}

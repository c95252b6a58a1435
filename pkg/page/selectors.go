package page

// Host page selectors. These are the only place the page structure is encoded
const (
	// SelectorListContainer matches the scrolling list of followed accounts
	SelectorListContainer = "section[role=region] div"
	// SelectorUnfollowControl matches the per-row unfollow buttons
	SelectorUnfollowControl = "button[data-testid$='-unfollow']"
	// SelectorFollowIndicator marks rows of accounts that follow back
	SelectorFollowIndicator = `[data-testid="userFollowIndicator"]`
	// SelectorConfirm matches the confirmation sheet's confirm button
	SelectorConfirm = "[data-testid=confirmationSheetDialog] button[data-testid=confirmationSheetConfirm]"
	// AttrLabel holds "Unfollow @username" on each control
	AttrLabel = "aria-label"
)

const (
	scriptContentHeight = `() => document.documentElement.scrollHeight`

	scriptListContainer = `sel => {
		const el = document.querySelector(sel);
		return el ? { offsetHeight: el.offsetHeight, clientHeight: el.clientHeight } : null;
	}`

	scriptFollowsBack = `(el, sel) => {
		const row = el.parentElement && el.parentElement.parentElement;
		return !!(row && row.querySelector(sel));
	}`

	scriptScrollTo = `top => document.documentElement.scroll({ top, behavior: 'smooth' })`

	scriptScrollBy = `dy => window.scrollBy(0, dy)`
)

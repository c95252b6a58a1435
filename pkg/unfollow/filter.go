package unfollow

import (
	"tmu/pkg/logger"
	"tmu/pkg/page"
	"tmu/pkg/state"
)

// Candidate is a rendered control paired with the account it acts on
type Candidate struct {
	Control  page.Control
	Username string
}

// Filter selects which rendered controls may be acted on
type Filter struct {
	adapter page.Adapter
	logger  logger.Logger
}

// NewFilter creates a filter reading usernames and badges through adapter
func NewFilter(adapter page.Adapter, log logger.Logger) *Filter {
	return &Filter{adapter: adapter, logger: log}
}

// Apply returns the candidates among controls, in order. Accounts in the
// allow-list are dropped, as are accounts that follow back when
// notFollowingOnly is set. A control whose row cannot be read is dropped
func (f *Filter) Apply(controls []page.Control, notFollowingOnly bool, allow map[string]struct{}) []Candidate {
	candidates := make([]Candidate, 0, len(controls))

	for _, control := range controls {
		username, err := f.adapter.UsernameOf(control)
		if err != nil || username == "" {
			f.logger.WithError(err).Warn("Could not read username for control")
			continue
		}

		if _, allowed := allow[state.CanonicalUsername(username)]; allowed {
			continue
		}

		if notFollowingOnly {
			follows, err := f.adapter.FollowsBack(control)
			if err != nil {
				f.logger.WithError(err).WithField("username", username).Warn("Could not read follows-back badge, skipping")
				continue
			}
			if follows {
				continue
			}
		}

		candidates = append(candidates, Candidate{Control: control, Username: username})
	}

	return candidates
}

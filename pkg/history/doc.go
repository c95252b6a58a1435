// Package history keeps an append-only journal of processed accounts
//
// Each line of history.jsonl is one Entry. Entries written by the same run
// share a run ID:
//
//	journal, err := history.NewJournal(dataDir)
//	if err != nil {
//	    return err
//	}
//	journal.Record(history.Entry{
//	    RunID:    history.NewRunID(),
//	    Username: "alice",
//	    Outcome:  history.OutcomeUnfollowed,
//	})
//
// List returns the most recent entries for `tmu history`
package history
